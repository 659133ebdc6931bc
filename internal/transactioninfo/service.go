// Package transactioninfo aggregates a single transaction record with live
// chain-tip updates, historical fiat rates and record-level updates into
// one consistent view item, republished on every change.
package transactioninfo

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coinsuite/walletcore/internal/adapters"
	"github.com/coinsuite/walletcore/internal/currency"
	"github.com/coinsuite/walletcore/pkg/models"
	"github.com/coinsuite/walletcore/pkg/stream"
)

// RateSource is the slice of the market-data capability this service needs.
type RateSource interface {
	HistoricalRate(ctx context.Context, coinUID, currencyCode string, at time.Time) (decimal.Decimal, error)
}

// Item is the immutable view snapshot. Every update replaces exactly one
// field and republishes the whole item, so consumers never observe a
// partially updated view.
type Item struct {
	Record        models.TransactionRecord
	LastBlockInfo *models.LastBlockInfo
	Explorer      models.ExplorerData

	// Rates maps coin uid to its fiat value at the transaction time.
	// Failed lookups are absent, never zero.
	Rates map[string]models.CurrencyValue
}

// Service owns the snapshot for one transaction.
type Service struct {
	hash     string
	source   models.TransactionSource
	adapter  adapters.TransactionsAdapter
	rates    RateSource
	currency *currency.Manager
	logger   *zap.Logger

	// mu serializes every snapshot replacement so the three update
	// triggers cannot interleave a read-modify-write.
	mu   sync.Mutex
	item Item

	updated *stream.Subject[Item]
	subs    stream.Subscriptions
	cancel  context.CancelFunc
}

// NewService builds the initial snapshot and starts the three update
// sources: the rate fetch, the record stream and the chain-tip stream.
func NewService(record models.TransactionRecord, adapter adapters.TransactionsAdapter, rates RateSource, currencyManager *currency.Manager, logger *zap.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		hash:     record.TxHash(),
		source:   record.Source(),
		adapter:  adapter,
		rates:    rates,
		currency: currencyManager,
		logger:   logger,
		item: Item{
			Record:        record,
			LastBlockInfo: adapter.LastBlockInfo(),
			Explorer:      adapter.Explorer(record.TxHash()),
		},
		updated: stream.NewSubject[Item](),
		cancel:  cancel,
	}

	go s.fetchRates(ctx, record)

	recordCh, cancelRecords := adapter.RecordsUpdated()
	s.subs.Add(cancelRecords)
	go s.watchRecords(recordCh)

	blockCh, cancelBlocks := adapter.LastBlockUpdated()
	s.subs.Add(cancelBlocks)
	go s.watchBlocks(blockCh)

	return s
}

// TransactionHash identifies the transaction this service tracks.
func (s *Service) TransactionHash() string { return s.hash }

// Source reports which blockchain the record came from.
func (s *Service) Source() models.TransactionSource { return s.source }

// Item returns the current snapshot.
func (s *Service) Item() Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item
}

// ItemUpdated streams every republished snapshot.
func (s *Service) ItemUpdated() (<-chan Item, func()) {
	return s.updated.Subscribe()
}

// GetRaw fetches the raw transaction payload from the adapter.
func (s *Service) GetRaw() (string, bool) {
	return s.adapter.RawTransaction(s.hash)
}

// Clear releases the subscriptions and abandons the in-flight rate fetch.
// Work already dispatched is discarded on delivery, not interrupted.
func (s *Service) Clear() {
	s.cancel()
	s.subs.Clear()
	s.updated.Close()
}

// fetchRates issues one historical-price lookup per relevant coin at the
// transaction timestamp. A failed lookup becomes the zero sentinel and is
// dropped from the final map, so a single bad lookup never fails the batch
// and zero is never shown as a real price.
func (s *Service) fetchRates(ctx context.Context, record models.TransactionRecord) {
	uids := models.RateCoinUIDs(record)
	if len(uids) == 0 {
		return
	}
	base := s.currency.BaseCurrency()

	fetched := make(map[string]models.CurrencyValue, len(uids))
	for _, uid := range uids {
		rate, err := s.rates.HistoricalRate(ctx, uid, base.Code, record.Timestamp())
		if err != nil {
			s.logger.Debug("rate lookup failed",
				zap.String("coin_uid", uid),
				zap.Error(err))
			rate = decimal.Zero
		}
		fetched[uid] = models.CurrencyValue{CoinUID: uid, Value: rate}
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	rates := make(map[string]models.CurrencyValue, len(fetched))
	for uid, value := range fetched {
		if value.IsZero() {
			continue
		}
		rates[uid] = value
	}

	s.mu.Lock()
	next := s.item
	next.Rates = rates
	s.item = next
	s.updated.Publish(next)
	s.mu.Unlock()
}

// watchRecords replaces the record field when an update for this
// transaction arrives on the all-records stream.
func (s *Service) watchRecords(ch <-chan []models.TransactionRecord) {
	for records := range ch {
		for _, record := range records {
			if record.TxHash() != s.hash {
				continue
			}
			s.mu.Lock()
			next := s.item
			next.Record = record
			s.item = next
			s.updated.Publish(next)
			s.mu.Unlock()
		}
	}
}

// watchBlocks replaces the last-block field on every chain-tip change.
func (s *Service) watchBlocks(ch <-chan models.LastBlockInfo) {
	for info := range ch {
		block := info
		s.mu.Lock()
		next := s.item
		next.LastBlockInfo = &block
		s.item = next
		s.updated.Publish(next)
		s.mu.Unlock()
	}
}
