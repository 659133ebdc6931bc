// Package marketdata is the market-data client: coin catalog queries backed
// by the local database and historical fiat rates backed by the price API
// with a Redis cache.
package marketdata

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Client is the combined market-data facade the wallet services consume.
type Client struct {
	*CatalogStore
	*PriceService
}

// NewClient wires the catalog store and price service into one client.
func NewClient(db *gorm.DB, cache *redis.Client, priceAPIURL string, logger *zap.Logger) (*Client, error) {
	catalog, err := NewCatalogStore(db, logger.Named("catalog"))
	if err != nil {
		return nil, err
	}
	return &Client{
		CatalogStore: catalog,
		PriceService: NewPriceService(priceAPIURL, cache, logger.Named("price")),
	}, nil
}
