package guest

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coinsuite/walletcore/pkg/models"
)

// default coins enabled for a freshly created account
var defaultCoinUIDs = []string{"bitcoin", "ethereum", "binancecoin"}

// InteractorDelegate receives interactor callbacks; the presenter
// implements it.
type InteractorDelegate interface {
	DidCreateWallet()
}

// CoinCatalog is the slice of the market-data capability the interactor
// needs.
type CoinCatalog interface {
	FullCoinsByUIDs(ctx context.Context, uids []string) ([]models.FullCoin, error)
}

// WalletStore is the slice of the wallet-manager capability the interactor
// needs.
type WalletStore interface {
	Save(ctx context.Context, wallets []models.Wallet) error
}

// WalletInteractor creates a fresh account with the default coin set.
type WalletInteractor struct {
	catalog  CoinCatalog
	wallets  WalletStore
	logger   *zap.Logger
	delegate InteractorDelegate
}

// NewWalletInteractor builds the interactor; the delegate is attached
// afterwards because presenter and interactor reference each other.
func NewWalletInteractor(catalog CoinCatalog, wallets WalletStore, logger *zap.Logger) *WalletInteractor {
	return &WalletInteractor{catalog: catalog, wallets: wallets, logger: logger}
}

// SetDelegate attaches the callback receiver.
func (i *WalletInteractor) SetDelegate(delegate InteractorDelegate) {
	i.delegate = delegate
}

// CreateWallet creates an account, enables the default coins on their
// first supported platform and notifies the delegate.
func (i *WalletInteractor) CreateWallet() {
	ctx := context.Background()
	account := models.Account{
		ID:     uuid.New(),
		Name:   "Wallet 1",
		Origin: models.AccountCreated,
	}

	fullCoins, err := i.catalog.FullCoinsByUIDs(ctx, defaultCoinUIDs)
	if err != nil {
		i.logger.Error("failed to load default coins", zap.Error(err))
		return
	}

	var wallets []models.Wallet
	for _, fc := range fullCoins {
		supported := fc.SupportedPlatforms()
		if len(supported) == 0 {
			continue
		}
		wallets = append(wallets, models.Wallet{
			ID:        uuid.New(),
			AccountID: account.ID,
			Platform:  models.ConfiguredPlatform{Platform: supported[0]},
		})
	}

	if err := i.wallets.Save(ctx, wallets); err != nil {
		i.logger.Error("failed to save default wallets", zap.Error(err))
		return
	}

	i.logger.Info("created wallet",
		zap.String("account_id", account.ID.String()),
		zap.Int("wallets", len(wallets)))

	if i.delegate != nil {
		i.delegate.DidCreateWallet()
	}
}
