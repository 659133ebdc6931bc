package models

// CoinStateKind enumerates the per-coin enable states.
type CoinStateKind int

const (
	// CoinUnsupported marks coins with no platform the wallet can operate.
	// Unsupported coins never transition.
	CoinUnsupported CoinStateKind = iota
	CoinSupportedDisabled
	CoinSupportedEnabled
)

// CoinState is the explicit per-coin state machine:
//
//	Unsupported            (terminal)
//	SupportedDisabled  -> SupportedEnabled   via Enable
//	SupportedEnabled   -> SupportedDisabled  via Disable
//
// HasSettings is meaningful only for the enabled state and drives the
// configure affordance in the item list.
type CoinState struct {
	Kind        CoinStateKind `json:"kind"`
	HasSettings bool          `json:"has_settings,omitempty"`
}

// StateFor derives the state of a catalog coin from the active-wallet set.
func StateFor(coin FullCoin, enabled bool) CoinState {
	if len(coin.SupportedPlatforms()) == 0 {
		return CoinState{Kind: CoinUnsupported}
	}
	if enabled {
		return CoinState{Kind: CoinSupportedEnabled, HasSettings: coin.HasSettings()}
	}
	return CoinState{Kind: CoinSupportedDisabled}
}

// Enabled reports whether the coin currently has active wallets.
func (s CoinState) Enabled() bool { return s.Kind == CoinSupportedEnabled }

// Enable transitions SupportedDisabled to SupportedEnabled. Unsupported
// coins are unaffected.
func (s CoinState) Enable(hasSettings bool) CoinState {
	if s.Kind == CoinUnsupported {
		return s
	}
	return CoinState{Kind: CoinSupportedEnabled, HasSettings: hasSettings}
}

// Disable transitions SupportedEnabled back to SupportedDisabled.
// Unsupported coins are unaffected.
func (s CoinState) Disable() CoinState {
	if s.Kind == CoinUnsupported {
		return s
	}
	return CoinState{Kind: CoinSupportedDisabled}
}
