// Package walletmanager owns the active-wallet set: persisted in the local
// database, cached in memory, republished on every change.
package walletmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coinsuite/walletcore/pkg/models"
	"github.com/coinsuite/walletcore/pkg/stream"
)

// walletRow is the persisted form of a models.Wallet; settings are stored
// as a JSON blob.
type walletRow struct {
	ID               string `gorm:"primaryKey"`
	AccountID        string `gorm:"index"`
	CoinUID          string `gorm:"index"`
	PlatformKind     string
	RequiresSettings bool
	Settings         string
	CreatedAt        time.Time
}

func (walletRow) TableName() string { return "wallets" }

// Manager maintains the active-wallet set.
type Manager struct {
	db     *gorm.DB
	logger *zap.Logger

	mu      sync.RWMutex
	active  []models.Wallet
	updated *stream.Subject[[]models.Wallet]
}

// NewManager migrates the wallet table and loads the active set.
func NewManager(db *gorm.DB, logger *zap.Logger) (*Manager, error) {
	if err := db.AutoMigrate(&walletRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate wallet table: %w", err)
	}

	m := &Manager{
		db:      db,
		logger:  logger,
		updated: stream.NewSubject[[]models.Wallet](),
	}
	if err := m.reload(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

// ActiveWallets returns a copy of the current active-wallet set.
func (m *Manager) ActiveWallets() []models.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Wallet, len(m.active))
	copy(out, m.active)
	return out
}

// WalletsUpdated exposes the active-set change stream. Each event carries
// the full active set after the change.
func (m *Manager) WalletsUpdated() (<-chan []models.Wallet, func()) {
	return m.updated.Subscribe()
}

// Save persists wallets and adds them to the active set. Wallets already
// present (same account, platform and settings) are skipped.
func (m *Manager) Save(ctx context.Context, wallets []models.Wallet) error {
	if len(wallets) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var added int
	for _, w := range wallets {
		if m.contains(w) {
			continue
		}
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
		row, err := toRow(w)
		if err != nil {
			return err
		}
		if err := m.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to save wallet %s: %w", w.ID, err)
		}
		m.active = append(m.active, w)
		added++
	}

	if added > 0 {
		m.logger.Info("saved wallets", zap.Int("count", added))
		m.publishLocked()
	}
	return nil
}

// Delete removes wallets from the active set and the database.
func (m *Manager) Delete(ctx context.Context, wallets []models.Wallet) error {
	if len(wallets) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int
	for _, w := range wallets {
		idx := -1
		for i, a := range m.active {
			if a.Same(w) {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		id := m.active[idx].ID.String()
		if err := m.db.WithContext(ctx).Delete(&walletRow{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete wallet %s: %w", id, err)
		}
		m.active = append(m.active[:idx], m.active[idx+1:]...)
		removed++
	}

	if removed > 0 {
		m.logger.Info("deleted wallets", zap.Int("count", removed))
		m.publishLocked()
	}
	return nil
}

// Close releases the update stream.
func (m *Manager) Close() { m.updated.Close() }

func (m *Manager) contains(w models.Wallet) bool {
	for _, a := range m.active {
		if a.Same(w) {
			return true
		}
	}
	return false
}

func (m *Manager) publishLocked() {
	out := make([]models.Wallet, len(m.active))
	copy(out, m.active)
	m.updated.Publish(out)
}

func (m *Manager) reload(ctx context.Context) error {
	var rows []walletRow
	if err := m.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load wallets: %w", err)
	}

	wallets := make([]models.Wallet, 0, len(rows))
	for _, row := range rows {
		w, err := fromRow(row)
		if err != nil {
			m.logger.Warn("skipping malformed wallet row", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		wallets = append(wallets, w)
	}

	m.mu.Lock()
	m.active = wallets
	m.mu.Unlock()
	return nil
}

func toRow(w models.Wallet) (walletRow, error) {
	settings := "{}"
	if len(w.Platform.Settings) > 0 {
		raw, err := json.Marshal(w.Platform.Settings)
		if err != nil {
			return walletRow{}, fmt.Errorf("failed to encode wallet settings: %w", err)
		}
		settings = string(raw)
	}
	return walletRow{
		ID:               w.ID.String(),
		AccountID:        w.AccountID.String(),
		CoinUID:          w.Platform.Platform.CoinUID,
		PlatformKind:     string(w.Platform.Platform.Kind),
		RequiresSettings: w.Platform.Platform.RequiresSettings,
		Settings:         settings,
		CreatedAt:        time.Now(),
	}, nil
}

func fromRow(row walletRow) (models.Wallet, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return models.Wallet{}, fmt.Errorf("bad wallet id: %w", err)
	}
	accountID, err := uuid.Parse(row.AccountID)
	if err != nil {
		return models.Wallet{}, fmt.Errorf("bad account id: %w", err)
	}

	var settings models.CoinSettings
	if row.Settings != "" && row.Settings != "{}" {
		if err := json.Unmarshal([]byte(row.Settings), &settings); err != nil {
			return models.Wallet{}, fmt.Errorf("bad wallet settings: %w", err)
		}
	}

	return models.Wallet{
		ID:        id,
		AccountID: accountID,
		Platform: models.ConfiguredPlatform{
			Platform: models.Platform{
				CoinUID:          row.CoinUID,
				Kind:             models.PlatformKind(row.PlatformKind),
				RequiresSettings: row.RequiresSettings,
			},
			Settings: settings,
		},
	}, nil
}
