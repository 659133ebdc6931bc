package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coinsuite/walletcore/internal/adapters"
	"github.com/coinsuite/walletcore/internal/currency"
	"github.com/coinsuite/walletcore/internal/enablecoin"
	"github.com/coinsuite/walletcore/internal/managewallets"
	"github.com/coinsuite/walletcore/internal/marketdata"
	"github.com/coinsuite/walletcore/internal/walletmanager"
	"github.com/coinsuite/walletcore/pkg/models"

	"github.com/google/uuid"
)

func newTestServer(t *testing.T) (*Server, *adapters.EvmAdapter) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	logger := zap.NewNop()

	market, err := marketdata.NewClient(db, nil, "http://127.0.0.1:1", logger)
	require.NoError(t, err)

	seed := []models.FullCoin{
		{
			Coin:      models.Coin{UID: "bitcoin", Name: "Bitcoin", Code: "BTC", MarketCapRank: 1},
			Platforms: []models.Platform{{Kind: models.PlatformBitcoin}},
		},
		{
			Coin:      models.Coin{UID: "ethereum", Name: "Ethereum", Code: "ETH", MarketCapRank: 2},
			Platforms: []models.Platform{{Kind: models.PlatformEvm}},
		},
	}
	require.NoError(t, market.SaveFullCoins(context.Background(), seed))

	walletMgr, err := walletmanager.NewManager(db, logger)
	require.NoError(t, err)

	adapter := adapters.NewEvmAdapter("", "https://etherscan.io", "Etherscan", logger)

	flow := enablecoin.NewService(logger)
	restore, err := enablecoin.NewRestoreSettingsService(db, logger)
	require.NoError(t, err)

	account := models.Account{ID: uuid.New(), Name: "Wallet 1", Origin: models.AccountCreated}
	manage := managewallets.NewService(market, walletMgr, flow, restore, account, managewallets.Config{}, logger)

	server := NewServer(logger, manage, flow, adapter, market, currency.NewManager("USD"))

	t.Cleanup(func() {
		require.NoError(t, server.Stop(context.Background()))
		manage.Clear()
		flow.Close()
		adapter.Close()
		walletMgr.Close()
	})
	return server, adapter
}

func doRequest(t *testing.T, server *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCoinsListAndEnable(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/v1/coins")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []managewallets.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "bitcoin", body.Items[0].FullCoin.Coin.UID)

	rec = doRequest(t, server, http.MethodPost, "/v1/coins/ethereum/enable")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := doRequest(t, server, http.MethodGet, "/v1/coins")
		var body struct {
			Items []managewallets.Item `json:"items"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			return false
		}
		return len(body.Items) == 2 &&
			body.Items[0].FullCoin.Coin.UID == "ethereum" &&
			body.Items[0].State.Enabled()
	}, 2*time.Second, 20*time.Millisecond)

	rec = doRequest(t, server, http.MethodPost, "/v1/coins/ethereum/disable")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestTransactionEndpoints(t *testing.T) {
	server, adapter := newTestServer(t)

	record := models.EvmIncomingRecord{
		EvmRecordBase: models.EvmRecordBase{
			RecordBase: models.RecordBase{Hash: "0xaaa", Time: time.Unix(1700000000, 0)},
			FeeCoin:    "ethereum",
		},
		Value: models.CurrencyValue{CoinUID: "ethereum", Value: decimal.NewFromInt(2)},
		From:  "0x1",
	}
	adapter.IngestRecords([]models.TransactionRecord{record}, map[string]string{"0xaaa": "0xf86c"})

	rec := doRequest(t, server, http.MethodGet, "/v1/transactions/0xaaa")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "0xaaa", body["hash"])
	assert.Equal(t, string(models.RecordEvmIncoming), body["kind"])

	rec = doRequest(t, server, http.MethodGet, "/v1/transactions/0xmissing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/v1/transactions/0xaaa/raw")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0xf86c")

	rec = doRequest(t, server, http.MethodGet, "/v1/transactions/0xmissing/raw")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
