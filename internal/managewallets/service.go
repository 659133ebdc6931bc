// Package managewallets maintains the filtered, sorted coin list the
// manage-wallets screen shows: enabled, disabled and unsupported coins
// derived from the catalog, the active-wallet set and a free-text filter.
package managewallets

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coinsuite/walletcore/internal/enablecoin"
	"github.com/coinsuite/walletcore/pkg/models"
	"github.com/coinsuite/walletcore/pkg/stream"
)

// Item is one row of the coin list.
type Item struct {
	FullCoin models.FullCoin  `json:"full_coin"`
	State    models.CoinState `json:"state"`
}

// CoinCatalog is the slice of the market-data capability this service needs.
type CoinCatalog interface {
	FeaturedFullCoins(ctx context.Context, limit int) ([]models.FullCoin, error)
	SearchFullCoins(ctx context.Context, filter string, limit int) ([]models.FullCoin, error)
	FullCoinsByUIDs(ctx context.Context, uids []string) ([]models.FullCoin, error)
}

// WalletManager is the slice of the wallet-manager capability this service
// needs.
type WalletManager interface {
	ActiveWallets() []models.Wallet
	Save(ctx context.Context, wallets []models.Wallet) error
	Delete(ctx context.Context, wallets []models.Wallet) error
	WalletsUpdated() (<-chan []models.Wallet, func())
}

// EnableFlow is the coin-enable sub-flow capability.
type EnableFlow interface {
	Enable(fullCoin models.FullCoin, account models.Account)
	Configure(fullCoin models.FullCoin, account models.Account, current []models.ConfiguredPlatform)
	EnableCoinUpdated() (<-chan enablecoin.CoinRequest, func())
	CancelEnableUpdated() (<-chan models.FullCoin, func())
}

// RestoreSettingsStore persists platform settings chosen during enable.
type RestoreSettingsStore interface {
	Save(ctx context.Context, settings models.CoinSettings, accountID uuid.UUID, kind models.PlatformKind) error
}

// Config sizes the two catalog fetch modes.
type Config struct {
	FeaturedPageSize int
	SearchPageSize   int
}

// Service drives the manage-wallets coin list.
type Service struct {
	catalog    CoinCatalog
	walletMgr  WalletManager
	enableFlow EnableFlow
	restore    RestoreSettingsStore
	account    models.Account
	cfg        Config
	logger     *zap.Logger

	mu        sync.Mutex
	wallets   []models.Wallet
	fullCoins []models.FullCoin
	filter    string
	items     []Item

	itemsUpdated *stream.Subject[[]Item]
	cancelEnable *stream.Subject[models.FullCoin]
	subs         stream.Subscriptions
}

// NewService builds the initial list and starts reacting to wallet-set
// changes and enable sub-flow events.
func NewService(catalog CoinCatalog, walletMgr WalletManager, enableFlow EnableFlow, restore RestoreSettingsStore, account models.Account, cfg Config, logger *zap.Logger) *Service {
	if cfg.FeaturedPageSize <= 0 {
		cfg.FeaturedPageSize = 100
	}
	if cfg.SearchPageSize <= 0 {
		cfg.SearchPageSize = 20
	}

	s := &Service{
		catalog:      catalog,
		walletMgr:    walletMgr,
		enableFlow:   enableFlow,
		restore:      restore,
		account:      account,
		cfg:          cfg,
		logger:       logger,
		itemsUpdated: stream.NewSubject[[]Item](),
		cancelEnable: stream.NewSubject[models.FullCoin](),
	}

	s.mu.Lock()
	s.wallets = s.accountWallets(walletMgr.ActiveWallets())
	s.fullCoins = s.fetchLocked(context.Background())
	s.syncItemsLocked()
	s.mu.Unlock()

	walletCh, cancelWallets := walletMgr.WalletsUpdated()
	s.subs.Add(cancelWallets)
	go s.watchWallets(walletCh)

	enabledCh, cancelEnabled := enableFlow.EnableCoinUpdated()
	s.subs.Add(cancelEnabled)
	go s.watchEnableCompletions(enabledCh)

	cancelledCh, cancelCancelled := enableFlow.CancelEnableUpdated()
	s.subs.Add(cancelCancelled)
	go s.watchCancellations(cancelledCh)

	return s
}

// Items returns the current coin list.
func (s *Service) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// ItemsUpdated streams every republished coin list.
func (s *Service) ItemsUpdated() (<-chan []Item, func()) {
	return s.itemsUpdated.Subscribe()
}

// CancelEnableUpdated streams coins whose enable flow was abandoned while
// they were still disabled.
func (s *Service) CancelEnableUpdated() (<-chan models.FullCoin, func()) {
	return s.cancelEnable.Subscribe()
}

// SetFilter replaces the free-text filter and refetches the catalog.
func (s *Service) SetFilter(text string) {
	s.mu.Lock()
	s.filter = strings.TrimSpace(text)
	s.fullCoins = s.fetchLocked(context.Background())
	s.syncItemsLocked()
	s.mu.Unlock()
}

// Enable starts the enable sub-flow for a coin by uid.
func (s *Service) Enable(uid string) {
	fullCoin, ok := s.fullCoin(uid)
	if !ok {
		s.logger.Warn("enable requested for unknown coin", zap.String("coin_uid", uid))
		return
	}
	s.EnableCoin(fullCoin)
}

// EnableCoin starts the enable sub-flow for an already resolved coin.
func (s *Service) EnableCoin(fullCoin models.FullCoin) {
	s.enableFlow.Enable(fullCoin, s.account)
}

// Disable removes every active wallet holding the coin.
func (s *Service) Disable(uid string) {
	s.mu.Lock()
	var doomed []models.Wallet
	for _, w := range s.wallets {
		if w.CoinUID() == uid {
			doomed = append(doomed, w)
		}
	}
	s.mu.Unlock()

	if err := s.walletMgr.Delete(context.Background(), doomed); err != nil {
		s.logger.Error("failed to disable coin", zap.String("coin_uid", uid), zap.Error(err))
	}
}

// Configure reopens the settings sub-flow for an enabled coin.
func (s *Service) Configure(uid string) {
	fullCoin, ok := s.fullCoin(uid)
	if !ok {
		return
	}

	s.mu.Lock()
	var current []models.ConfiguredPlatform
	for _, w := range s.wallets {
		if w.CoinUID() == uid {
			current = append(current, w.Platform)
		}
	}
	s.mu.Unlock()

	if len(current) == 0 {
		// configure applies to enabled coins only
		return
	}
	s.enableFlow.Configure(fullCoin, s.account, current)
}

// Clear releases the subscriptions and both outgoing streams.
func (s *Service) Clear() {
	s.subs.Clear()
	s.itemsUpdated.Close()
	s.cancelEnable.Close()
}

// fetchLocked implements the catalog policy: without a filter the featured
// page is unioned with enabled coins missing from it and with custom coins
// from the wallets; with a filter only the search query runs.
func (s *Service) fetchLocked(ctx context.Context) []models.FullCoin {
	if s.filter != "" {
		coins, err := s.catalog.SearchFullCoins(ctx, s.filter, s.cfg.SearchPageSize)
		if err != nil {
			s.logger.Error("coin search failed", zap.String("filter", s.filter), zap.Error(err))
			return s.fullCoins
		}
		return s.sortLocked(coins)
	}

	coins, err := s.catalog.FeaturedFullCoins(ctx, s.cfg.FeaturedPageSize)
	if err != nil {
		s.logger.Error("featured coin fetch failed", zap.Error(err))
		return s.fullCoins
	}

	present := make(map[string]struct{}, len(coins))
	for _, fc := range coins {
		present[fc.Coin.UID] = struct{}{}
	}

	var missing []string
	for uid := range s.enabledUIDsLocked() {
		if _, ok := present[uid]; !ok {
			missing = append(missing, uid)
		}
	}
	sort.Strings(missing)

	if len(missing) > 0 {
		extra, err := s.catalog.FullCoinsByUIDs(ctx, missing)
		if err != nil {
			s.logger.Error("enabled coin fetch failed", zap.Error(err))
		} else {
			for _, fc := range extra {
				coins = append(coins, fc)
				present[fc.Coin.UID] = struct{}{}
			}
		}
	}

	// wallets whose coin the catalog does not know surface as custom coins
	for _, w := range s.wallets {
		uid := w.CoinUID()
		if _, ok := present[uid]; ok {
			continue
		}
		coins = append(coins, customFullCoin(w))
		present[uid] = struct{}{}
	}

	return s.sortLocked(coins)
}

// sortLocked stably moves enabled coins to the front, preserving catalog
// order within each group.
func (s *Service) sortLocked(coins []models.FullCoin) []models.FullCoin {
	enabled := s.enabledUIDsLocked()
	sort.SliceStable(coins, func(i, j int) bool {
		_, ei := enabled[coins[i].Coin.UID]
		_, ej := enabled[coins[j].Coin.UID]
		return ei && !ej
	})
	return coins
}

func (s *Service) syncItemsLocked() {
	enabled := s.enabledUIDsLocked()
	items := make([]Item, 0, len(s.fullCoins))
	for _, fc := range s.fullCoins {
		_, on := enabled[fc.Coin.UID]
		items = append(items, Item{FullCoin: fc, State: models.StateFor(fc, on)})
	}
	s.items = items
	s.itemsUpdated.Publish(items)
}

func (s *Service) enabledUIDsLocked() map[string]struct{} {
	enabled := make(map[string]struct{}, len(s.wallets))
	for _, w := range s.wallets {
		enabled[w.CoinUID()] = struct{}{}
	}
	return enabled
}

func (s *Service) accountWallets(all []models.Wallet) []models.Wallet {
	var out []models.Wallet
	for _, w := range all {
		if w.AccountID == s.account.ID {
			out = append(out, w)
		}
	}
	return out
}

func (s *Service) fullCoin(uid string) (models.FullCoin, bool) {
	s.mu.Lock()
	for _, fc := range s.fullCoins {
		if fc.Coin.UID == uid {
			s.mu.Unlock()
			return fc, true
		}
	}
	s.mu.Unlock()

	coins, err := s.catalog.FullCoinsByUIDs(context.Background(), []string{uid})
	if err != nil || len(coins) == 0 {
		return models.FullCoin{}, false
	}
	return coins[0], true
}

func (s *Service) isEnabled(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.enabledUIDsLocked()[uid]
	return ok
}

// watchWallets resyncs on active-set changes. The list is re-derived from
// the new wallet set immediately; the catalog is refetched but only adopted
// when it yields strictly more coins, so a transient smaller result cannot
// drop already visible items.
func (s *Service) watchWallets(ch <-chan []models.Wallet) {
	for all := range ch {
		s.mu.Lock()
		s.wallets = s.accountWallets(all)
		s.fullCoins = s.sortLocked(s.fullCoins)
		s.syncItemsLocked()

		fetched := s.fetchLocked(context.Background())
		if len(fetched) > len(s.fullCoins) {
			s.fullCoins = fetched
			s.syncItemsLocked()
		}
		s.mu.Unlock()
	}
}

// watchEnableCompletions turns a completed enable request into the exact
// wallet add/remove sets and persists restore settings when a single
// configured platform carries them.
func (s *Service) watchEnableCompletions(ch <-chan enablecoin.CoinRequest) {
	for req := range ch {
		s.handleEnableCompletion(req)
	}
}

func (s *Service) handleEnableCompletion(req enablecoin.CoinRequest) {
	ctx := context.Background()

	if len(req.Platforms) == 1 && len(req.Platforms[0].Settings) > 0 {
		err := s.restore.Save(ctx, req.Platforms[0].Settings, s.account.ID, req.Platforms[0].Platform.Kind)
		if err != nil {
			s.logger.Error("failed to persist restore settings",
				zap.String("coin_uid", req.FullCoin.Coin.UID),
				zap.Error(err))
		}
	}

	uid := req.FullCoin.Coin.UID

	s.mu.Lock()
	var existing []models.Wallet
	for _, w := range s.wallets {
		if w.CoinUID() == uid {
			existing = append(existing, w)
		}
	}
	s.mu.Unlock()

	requested := make([]models.Wallet, 0, len(req.Platforms))
	for _, cp := range req.Platforms {
		requested = append(requested, models.Wallet{
			ID:        uuid.New(),
			AccountID: s.account.ID,
			Platform:  cp,
		})
	}

	var toSave []models.Wallet
	for _, w := range requested {
		found := false
		for _, e := range existing {
			if e.Same(w) {
				found = true
				break
			}
		}
		if !found {
			toSave = append(toSave, w)
		}
	}

	var toDelete []models.Wallet
	for _, e := range existing {
		wanted := false
		for _, w := range requested {
			if e.Same(w) {
				wanted = true
				break
			}
		}
		if !wanted {
			toDelete = append(toDelete, e)
		}
	}

	if err := s.walletMgr.Save(ctx, toSave); err != nil {
		s.logger.Error("failed to save wallets", zap.String("coin_uid", uid), zap.Error(err))
	}
	if err := s.walletMgr.Delete(ctx, toDelete); err != nil {
		s.logger.Error("failed to delete wallets", zap.String("coin_uid", uid), zap.Error(err))
	}
}

// watchCancellations re-surfaces a cancellation only while the coin is
// still disabled; a coin enabled through another path in the interim stays
// silent.
func (s *Service) watchCancellations(ch <-chan models.FullCoin) {
	for fullCoin := range ch {
		if s.isEnabled(fullCoin.Coin.UID) {
			continue
		}
		s.cancelEnable.Publish(fullCoin)
	}
}

// customFullCoin synthesizes a catalog entry for a wallet whose coin is
// unknown to the catalog (user-added token).
func customFullCoin(w models.Wallet) models.FullCoin {
	uid := w.CoinUID()
	return models.FullCoin{
		Coin: models.Coin{
			UID:      uid,
			Name:     uid,
			Code:     strings.ToUpper(uid),
			IsCustom: true,
		},
		Platforms: []models.Platform{w.Platform.Platform},
	}
}
