package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	priceCacheTTL    = 24 * time.Hour
	priceHTTPTimeout = 10 * time.Second
)

// PriceService resolves historical fiat rates for coins, caching results in
// Redis in front of the upstream price API. A nil redis client disables the
// cache.
type PriceService struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	logger  *zap.Logger
}

// NewPriceService creates a price service against the given API base URL.
func NewPriceService(baseURL string, cache *redis.Client, logger *zap.Logger) *PriceService {
	return &PriceService{
		baseURL: baseURL,
		http:    &http.Client{Timeout: priceHTTPTimeout},
		cache:   cache,
		logger:  logger,
	}
}

type historyResponse struct {
	Price decimal.Decimal `json:"price"`
}

// HistoricalRate returns the fiat price of one unit of coinUID in
// currencyCode at the given time. Historical prices never change, so cache
// hits are served without revalidation.
func (s *PriceService) HistoricalRate(ctx context.Context, coinUID, currencyCode string, at time.Time) (decimal.Decimal, error) {
	key := fmt.Sprintf("hist:%s:%s:%d", coinUID, currencyCode, at.Unix())

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if rate, perr := decimal.NewFromString(cached); perr == nil {
				return rate, nil
			}
		}
	}

	rate, err := s.fetch(ctx, coinUID, currencyCode, at)
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rate.String(), priceCacheTTL).Err(); err != nil {
			s.logger.Warn("failed to cache historical rate",
				zap.String("coin_uid", coinUID),
				zap.Error(err))
		}
	}
	return rate, nil
}

func (s *PriceService) fetch(ctx context.Context, coinUID, currencyCode string, at time.Time) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("coin", coinUID)
	q.Set("currency", currencyCode)
	q.Set("timestamp", strconv.FormatInt(at.Unix(), 10))
	reqURL := fmt.Sprintf("%s/v1/history?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create price request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}
	return body.Price, nil
}
