// Package enablecoin runs the coin-enable sub-flow: a coin is requested,
// its platform configuration is chosen (defaults, or an explicit approval
// step when settings are involved), and the outcome is published as either
// an enable-completion or a cancellation event.
package enablecoin

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/coinsuite/walletcore/pkg/models"
	"github.com/coinsuite/walletcore/pkg/stream"
)

// CoinRequest is a completed enable request: the coin, the owning account
// and the configured platforms the user settled on.
type CoinRequest struct {
	FullCoin  models.FullCoin
	Account   models.Account
	Platforms []models.ConfiguredPlatform
}

// Service drives the enable/configure sub-flow.
type Service struct {
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]CoinRequest

	enabled   *stream.Subject[CoinRequest]
	cancelled *stream.Subject[models.FullCoin]
}

// NewService creates the sub-flow service.
func NewService(logger *zap.Logger) *Service {
	return &Service{
		logger:    logger,
		pending:   make(map[string]CoinRequest),
		enabled:   stream.NewSubject[CoinRequest](),
		cancelled: stream.NewSubject[models.FullCoin](),
	}
}

// EnableCoinUpdated streams completed enable requests.
func (s *Service) EnableCoinUpdated() (<-chan CoinRequest, func()) {
	return s.enabled.Subscribe()
}

// CancelEnableUpdated streams cancelled requests.
func (s *Service) CancelEnableUpdated() (<-chan models.FullCoin, func()) {
	return s.cancelled.Subscribe()
}

// Enable starts the sub-flow for a coin. Coins without a settings choice
// complete immediately with the default platform configuration; the rest
// stay pending until Approve or Cancel.
func (s *Service) Enable(fullCoin models.FullCoin, account models.Account) {
	req := CoinRequest{
		FullCoin:  fullCoin,
		Account:   account,
		Platforms: defaultPlatforms(fullCoin),
	}

	if !fullCoin.HasSettings() {
		s.logger.Debug("enabling coin with defaults", zap.String("coin_uid", fullCoin.Coin.UID))
		s.enabled.Publish(req)
		return
	}

	s.mu.Lock()
	s.pending[fullCoin.Coin.UID] = req
	s.mu.Unlock()
}

// Configure reopens the sub-flow for an enabled coin, seeding it with the
// currently configured platforms.
func (s *Service) Configure(fullCoin models.FullCoin, account models.Account, current []models.ConfiguredPlatform) {
	s.mu.Lock()
	s.pending[fullCoin.Coin.UID] = CoinRequest{
		FullCoin:  fullCoin,
		Account:   account,
		Platforms: current,
	}
	s.mu.Unlock()
}

// Approve completes a pending request with the chosen platforms. An empty
// choice keeps the request's current selection.
func (s *Service) Approve(coinUID string, platforms []models.ConfiguredPlatform) error {
	s.mu.Lock()
	req, ok := s.pending[coinUID]
	if ok {
		delete(s.pending, coinUID)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending enable request for coin %s", coinUID)
	}
	if len(platforms) > 0 {
		req.Platforms = platforms
	}
	s.enabled.Publish(req)
	return nil
}

// Cancel abandons a pending request and publishes the cancellation.
func (s *Service) Cancel(coinUID string) {
	s.mu.Lock()
	req, ok := s.pending[coinUID]
	if ok {
		delete(s.pending, coinUID)
	}
	s.mu.Unlock()

	if ok {
		s.cancelled.Publish(req.FullCoin)
	}
}

// Close releases both event streams.
func (s *Service) Close() {
	s.enabled.Close()
	s.cancelled.Close()
}

// defaultPlatforms picks the default configuration: the first supported
// platform, with default settings where the platform requires them.
func defaultPlatforms(fullCoin models.FullCoin) []models.ConfiguredPlatform {
	supported := fullCoin.SupportedPlatforms()
	if len(supported) == 0 {
		return nil
	}
	p := supported[0]
	return []models.ConfiguredPlatform{{Platform: p, Settings: DefaultSettings(p)}}
}

// DefaultSettings returns the default settings for a platform that needs
// them; platforms without a settings requirement get nil.
func DefaultSettings(p models.Platform) models.CoinSettings {
	if !p.RequiresSettings {
		return nil
	}
	switch p.Kind {
	case models.PlatformBitcoin:
		return models.CoinSettings{"derivation": "bip84"}
	default:
		return models.CoinSettings{}
	}
}
