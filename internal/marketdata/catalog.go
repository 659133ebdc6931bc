package marketdata

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coinsuite/walletcore/pkg/models"
)

// CatalogStore serves the coin catalog from the local database.
type CatalogStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCatalogStore migrates the catalog tables and returns the store.
func NewCatalogStore(db *gorm.DB, logger *zap.Logger) (*CatalogStore, error) {
	if err := db.AutoMigrate(&models.Coin{}, &models.Platform{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog tables: %w", err)
	}
	return &CatalogStore{db: db, logger: logger}, nil
}

// SaveFullCoins upserts catalog entries, used by the seed path and by
// custom-coin registration.
func (s *CatalogStore) SaveFullCoins(ctx context.Context, coins []models.FullCoin) error {
	for _, fc := range coins {
		if err := s.db.WithContext(ctx).Save(&fc.Coin).Error; err != nil {
			return fmt.Errorf("failed to save coin %s: %w", fc.Coin.UID, err)
		}
		if err := s.db.WithContext(ctx).Where("coin_uid = ?", fc.Coin.UID).Delete(&models.Platform{}).Error; err != nil {
			return fmt.Errorf("failed to reset platforms for %s: %w", fc.Coin.UID, err)
		}
		for _, p := range fc.Platforms {
			p.ID = 0
			p.CoinUID = fc.Coin.UID
			if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
				return fmt.Errorf("failed to save platform for %s: %w", fc.Coin.UID, err)
			}
		}
	}
	return nil
}

// FeaturedFullCoins returns the featured catalog page ordered by market cap.
func (s *CatalogStore) FeaturedFullCoins(ctx context.Context, limit int) ([]models.FullCoin, error) {
	var coins []models.Coin
	err := s.db.WithContext(ctx).
		Where("is_custom = ?", false).
		Order("market_cap_rank ASC").
		Limit(limit).
		Find(&coins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query featured coins: %w", err)
	}
	return s.assemble(ctx, coins)
}

// SearchFullCoins returns coins whose name or code matches filter.
func (s *CatalogStore) SearchFullCoins(ctx context.Context, filter string, limit int) ([]models.FullCoin, error) {
	var coins []models.Coin
	pattern := "%" + filter + "%"
	err := s.db.WithContext(ctx).
		Where("name LIKE ? OR code LIKE ?", pattern, pattern).
		Order("market_cap_rank ASC").
		Limit(limit).
		Find(&coins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search coins: %w", err)
	}
	return s.assemble(ctx, coins)
}

// FullCoinsByUIDs returns catalog entries for an explicit uid set.
// Unknown uids are silently absent from the result.
func (s *CatalogStore) FullCoinsByUIDs(ctx context.Context, uids []string) ([]models.FullCoin, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	var coins []models.Coin
	err := s.db.WithContext(ctx).
		Where("uid IN ?", uids).
		Order("market_cap_rank ASC").
		Find(&coins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query coins by uid: %w", err)
	}
	return s.assemble(ctx, coins)
}

func (s *CatalogStore) assemble(ctx context.Context, coins []models.Coin) ([]models.FullCoin, error) {
	if len(coins) == 0 {
		return nil, nil
	}
	uids := make([]string, 0, len(coins))
	for _, c := range coins {
		uids = append(uids, c.UID)
	}

	var platforms []models.Platform
	if err := s.db.WithContext(ctx).Where("coin_uid IN ?", uids).Find(&platforms).Error; err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	byCoin := make(map[string][]models.Platform, len(coins))
	for _, p := range platforms {
		byCoin[p.CoinUID] = append(byCoin[p.CoinUID], p)
	}

	out := make([]models.FullCoin, 0, len(coins))
	for _, c := range coins {
		out = append(out, models.FullCoin{Coin: c, Platforms: byCoin[c.UID]})
	}
	return out, nil
}
