package guest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coinsuite/walletcore/pkg/models"
)

type fakeInteractor struct {
	createCalls int
}

func (f *fakeInteractor) CreateWallet() { f.createCalls++ }

type fakeRouter struct {
	restoreCalls int
	backupCalls  int
}

func (f *fakeRouter) NavigateToRestore()        { f.restoreCalls++ }
func (f *fakeRouter) NavigateToBackupThenMain() { f.backupCalls++ }

func TestPresenter(t *testing.T) {
	t.Run("CreateWalletDelegatesToInteractor", func(t *testing.T) {
		interactor := &fakeInteractor{}
		router := &fakeRouter{}
		p := NewPresenter(interactor, router)

		p.CreateWalletDidClick()
		assert.Equal(t, 1, interactor.createCalls)
		assert.Zero(t, router.restoreCalls)
		assert.Zero(t, router.backupCalls)
	})

	t.Run("RestoreRoutesToRestore", func(t *testing.T) {
		router := &fakeRouter{}
		p := NewPresenter(&fakeInteractor{}, router)

		p.RestoreWalletDidClick()
		assert.Equal(t, 1, router.restoreCalls)
	})

	t.Run("WalletCreatedRoutesToBackup", func(t *testing.T) {
		router := &fakeRouter{}
		p := NewPresenter(&fakeInteractor{}, router)

		p.DidCreateWallet()
		assert.Equal(t, 1, router.backupCalls)
	})
}

type fakeCatalog struct {
	coins map[string]models.FullCoin
}

func (f *fakeCatalog) FullCoinsByUIDs(ctx context.Context, uids []string) ([]models.FullCoin, error) {
	var out []models.FullCoin
	for _, uid := range uids {
		if fc, ok := f.coins[uid]; ok {
			out = append(out, fc)
		}
	}
	return out, nil
}

type fakeWalletStore struct {
	mu    sync.Mutex
	saved []models.Wallet
}

func (f *fakeWalletStore) Save(ctx context.Context, wallets []models.Wallet) error {
	f.mu.Lock()
	f.saved = append(f.saved, wallets...)
	f.mu.Unlock()
	return nil
}

type fakeDelegate struct {
	calls int
}

func (f *fakeDelegate) DidCreateWallet() { f.calls++ }

func TestWalletInteractorCreatesDefaultWallets(t *testing.T) {
	catalog := &fakeCatalog{coins: map[string]models.FullCoin{
		"bitcoin": {
			Coin:      models.Coin{UID: "bitcoin"},
			Platforms: []models.Platform{{CoinUID: "bitcoin", Kind: models.PlatformBitcoin}},
		},
		"ethereum": {
			Coin:      models.Coin{UID: "ethereum"},
			Platforms: []models.Platform{{CoinUID: "ethereum", Kind: models.PlatformEvm}},
		},
	}}
	store := &fakeWalletStore{}
	delegate := &fakeDelegate{}

	interactor := NewWalletInteractor(catalog, store, zap.NewNop())
	interactor.SetDelegate(delegate)

	interactor.CreateWallet()

	require.Len(t, store.saved, 2)
	assert.Equal(t, store.saved[0].AccountID, store.saved[1].AccountID)
	assert.Equal(t, 1, delegate.calls)
}
