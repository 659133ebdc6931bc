package walletmanager

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coinsuite/walletcore/pkg/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func btcWallet(account uuid.UUID) models.Wallet {
	return models.Wallet{
		ID:        uuid.New(),
		AccountID: account,
		Platform: models.ConfiguredPlatform{
			Platform: models.Platform{CoinUID: "bitcoin", Kind: models.PlatformBitcoin, RequiresSettings: true},
			Settings: models.CoinSettings{"derivation": "bip84"},
		},
	}
}

func TestSaveAndReload(t *testing.T) {
	db := testDB(t)
	mgr, err := NewManager(db, zap.NewNop())
	require.NoError(t, err)
	defer mgr.Close()

	account := uuid.New()
	w := btcWallet(account)
	require.NoError(t, mgr.Save(context.Background(), []models.Wallet{w}))

	assert.Len(t, mgr.ActiveWallets(), 1)

	// a second manager over the same database sees the persisted set
	again, err := NewManager(db, zap.NewNop())
	require.NoError(t, err)
	defer again.Close()

	active := again.ActiveWallets()
	require.Len(t, active, 1)
	assert.Equal(t, w.ID, active[0].ID)
	assert.Equal(t, account, active[0].AccountID)
	assert.Equal(t, "bitcoin", active[0].CoinUID())
	assert.Equal(t, "bip84", active[0].Platform.Settings["derivation"])
}

func TestSaveSkipsDuplicates(t *testing.T) {
	mgr, err := NewManager(testDB(t), zap.NewNop())
	require.NoError(t, err)
	defer mgr.Close()

	account := uuid.New()
	w := btcWallet(account)
	require.NoError(t, mgr.Save(context.Background(), []models.Wallet{w}))

	dup := w
	dup.ID = uuid.New()
	require.NoError(t, mgr.Save(context.Background(), []models.Wallet{dup}))

	assert.Len(t, mgr.ActiveWallets(), 1)
}

func TestDeleteRemovesFromActiveSet(t *testing.T) {
	mgr, err := NewManager(testDB(t), zap.NewNop())
	require.NoError(t, err)
	defer mgr.Close()

	account := uuid.New()
	w := btcWallet(account)
	require.NoError(t, mgr.Save(context.Background(), []models.Wallet{w}))
	require.NoError(t, mgr.Delete(context.Background(), []models.Wallet{w}))

	assert.Empty(t, mgr.ActiveWallets())
}

func TestChangesArePublished(t *testing.T) {
	mgr, err := NewManager(testDB(t), zap.NewNop())
	require.NoError(t, err)
	defer mgr.Close()

	ch, cancel := mgr.WalletsUpdated()
	defer cancel()

	w := btcWallet(uuid.New())
	require.NoError(t, mgr.Save(context.Background(), []models.Wallet{w}))

	select {
	case active := <-ch:
		require.Len(t, active, 1)
		assert.Equal(t, "bitcoin", active[0].CoinUID())
	case <-time.After(2 * time.Second):
		t.Fatal("wallet change was not published")
	}

	require.NoError(t, mgr.Delete(context.Background(), []models.Wallet{w}))
	select {
	case active := <-ch:
		assert.Empty(t, active)
	case <-time.After(2 * time.Second):
		t.Fatal("wallet deletion was not published")
	}
}
