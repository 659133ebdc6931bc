// Package models holds the shared wallet domain model
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformKind identifies the blockchain family a coin lives on.
type PlatformKind string

const (
	PlatformEvm     PlatformKind = "evm"
	PlatformBitcoin PlatformKind = "bitcoin"
	PlatformBinance PlatformKind = "binance"
)

// Supported reports whether this platform kind is one the wallet can operate.
func (k PlatformKind) Supported() bool {
	switch k {
	case PlatformEvm, PlatformBitcoin, PlatformBinance:
		return true
	}
	return false
}

// Coin is a catalog entry. UID is the stable catalog identifier
// (e.g. "bitcoin", "ethereum", "usd-coin").
type Coin struct {
	UID           string `gorm:"primaryKey;column:uid" json:"uid"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	MarketCapRank int    `gorm:"index" json:"market_cap_rank"`
	IsCustom      bool   `json:"is_custom"`
}

// Platform is one chain a coin is deployed on. RequiresSettings marks
// platforms that need user configuration before a wallet can be created
// (derivation scheme, address format).
type Platform struct {
	ID               uint         `gorm:"primaryKey" json:"-"`
	CoinUID          string       `gorm:"index" json:"coin_uid"`
	Kind             PlatformKind `json:"kind"`
	RequiresSettings bool         `json:"requires_settings"`
}

// FullCoin is a catalog coin together with all platforms it is deployed on.
type FullCoin struct {
	Coin      Coin       `json:"coin"`
	Platforms []Platform `json:"platforms"`
}

// SupportedPlatforms returns the platforms the wallet can actually operate.
func (f FullCoin) SupportedPlatforms() []Platform {
	var out []Platform
	for _, p := range f.Platforms {
		if p.Kind.Supported() {
			out = append(out, p)
		}
	}
	return out
}

// HasSettings reports whether enabling this coin involves a configuration
// choice: more than one supported platform, or a single platform that
// requires settings.
func (f FullCoin) HasSettings() bool {
	supported := f.SupportedPlatforms()
	if len(supported) > 1 {
		return true
	}
	return len(supported) == 1 && supported[0].RequiresSettings
}

// CoinSettings carries user platform configuration, e.g.
// {"derivation": "bip84"} or {"address_format": "bech32"}.
type CoinSettings map[string]string

// Equal compares two settings maps key by key.
func (s CoinSettings) Equal(other CoinSettings) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	return true
}

// ConfiguredPlatform is a platform plus the settings chosen for it.
type ConfiguredPlatform struct {
	Platform Platform     `json:"platform"`
	Settings CoinSettings `json:"settings,omitempty"`
}

// Equal compares coin, kind and settings; the catalog row id is ignored.
func (c ConfiguredPlatform) Equal(other ConfiguredPlatform) bool {
	return c.Platform.CoinUID == other.Platform.CoinUID &&
		c.Platform.Kind == other.Platform.Kind &&
		c.Settings.Equal(other.Settings)
}

// AccountOrigin records how an account came to exist.
type AccountOrigin string

const (
	AccountCreated  AccountOrigin = "created"
	AccountRestored AccountOrigin = "restored"
)

// Account is a seed-backed identity owning wallets.
type Account struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	Origin AccountOrigin `json:"origin"`
}

// Wallet pairs a configured platform with an account. Membership in the
// active-wallet set is what makes a coin "enabled".
type Wallet struct {
	ID        uuid.UUID          `json:"id"`
	AccountID uuid.UUID          `json:"account_id"`
	Platform  ConfiguredPlatform `json:"platform"`
}

// CoinUID is the catalog uid of the wallet's coin.
func (w Wallet) CoinUID() string { return w.Platform.Platform.CoinUID }

// Same reports whether two wallets denote the same configured platform for
// the same account, regardless of row id.
func (w Wallet) Same(other Wallet) bool {
	return w.AccountID == other.AccountID && w.Platform.Equal(other.Platform)
}

// CurrencyValue is an amount denominated in a catalog coin.
type CurrencyValue struct {
	CoinUID string          `json:"coin_uid"`
	Value   decimal.Decimal `json:"value"`
}

// IsZero reports a zero amount, used as the failed-lookup sentinel for rates.
func (v CurrencyValue) IsZero() bool { return v.Value.IsZero() }

// LastBlockInfo is the adapter's view of the chain tip.
type LastBlockInfo struct {
	Height    int64     `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}

// ExplorerData points a transaction at a block explorer.
type ExplorerData struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
