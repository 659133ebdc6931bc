package enablecoin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coinsuite/walletcore/pkg/models"
)

// restoreSettingRow persists one settings key for an (account, platform
// kind) pair so a later restore reuses the user's choice.
type restoreSettingRow struct {
	ID           uint   `gorm:"primaryKey"`
	AccountID    string `gorm:"index:idx_restore_settings,unique"`
	PlatformKind string `gorm:"index:idx_restore_settings,unique"`
	Key          string `gorm:"index:idx_restore_settings,unique"`
	Value        string
	UpdatedAt    time.Time
}

func (restoreSettingRow) TableName() string { return "restore_settings" }

// RestoreSettingsService persists per-account platform settings.
type RestoreSettingsService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRestoreSettingsService migrates the settings table.
func NewRestoreSettingsService(db *gorm.DB, logger *zap.Logger) (*RestoreSettingsService, error) {
	if err := db.AutoMigrate(&restoreSettingRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate restore settings table: %w", err)
	}
	return &RestoreSettingsService{db: db, logger: logger}, nil
}

// Save upserts the settings chosen for a platform kind under an account.
func (s *RestoreSettingsService) Save(ctx context.Context, settings models.CoinSettings, accountID uuid.UUID, kind models.PlatformKind) error {
	for key, value := range settings {
		row := restoreSettingRow{
			AccountID:    accountID.String(),
			PlatformKind: string(kind),
			Key:          key,
			Value:        value,
			UpdatedAt:    time.Now(),
		}
		err := s.db.WithContext(ctx).
			Where("account_id = ? AND platform_kind = ? AND key = ?", row.AccountID, row.PlatformKind, key).
			Assign(map[string]interface{}{"value": value, "updated_at": row.UpdatedAt}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("failed to save restore setting %s: %w", key, err)
		}
	}

	s.logger.Debug("saved restore settings",
		zap.String("account_id", accountID.String()),
		zap.String("platform_kind", string(kind)),
		zap.Int("keys", len(settings)))
	return nil
}

// Load returns the persisted settings for an (account, platform kind) pair.
func (s *RestoreSettingsService) Load(ctx context.Context, accountID uuid.UUID, kind models.PlatformKind) (models.CoinSettings, error) {
	var rows []restoreSettingRow
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND platform_kind = ?", accountID.String(), string(kind)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load restore settings: %w", err)
	}

	settings := make(models.CoinSettings, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}
