package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/coinsuite/walletcore/pkg/models"
	"github.com/coinsuite/walletcore/pkg/stream"
)

const reconnectInterval = 5 * time.Second

// EvmAdapter tracks an EVM chain: the tip via an eth_subscribe newHeads
// websocket subscription, plus an in-memory index of the account's
// transaction records and raw payloads.
type EvmAdapter struct {
	explorerBase  string
	explorerTitle string
	logger        *zap.Logger

	mu        sync.RWMutex
	lastBlock *models.LastBlockInfo
	records   map[string]models.TransactionRecord
	raw       map[string]string

	blockUpdated   *stream.Subject[models.LastBlockInfo]
	recordsUpdated *stream.Subject[[]models.TransactionRecord]

	quit chan struct{}
	once sync.Once
}

// NewEvmAdapter creates the adapter. nodeWSURL may be empty, in which case
// no header subscription is started and the tip only moves via SetLastBlock.
func NewEvmAdapter(nodeWSURL, explorerBase, explorerTitle string, logger *zap.Logger) *EvmAdapter {
	a := &EvmAdapter{
		explorerBase:   strings.TrimRight(explorerBase, "/"),
		explorerTitle:  explorerTitle,
		logger:         logger,
		records:        make(map[string]models.TransactionRecord),
		raw:            make(map[string]string),
		blockUpdated:   stream.NewSubject[models.LastBlockInfo](),
		recordsUpdated: stream.NewSubject[[]models.TransactionRecord](),
		quit:           make(chan struct{}),
	}
	if nodeWSURL != "" {
		go a.watchHeads(nodeWSURL)
	}
	return a
}

// LastBlockInfo returns the last known chain tip.
func (a *EvmAdapter) LastBlockInfo() *models.LastBlockInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.lastBlock == nil {
		return nil
	}
	b := *a.lastBlock
	return &b
}

// LastBlockUpdated streams chain-tip changes.
func (a *EvmAdapter) LastBlockUpdated() (<-chan models.LastBlockInfo, func()) {
	return a.blockUpdated.Subscribe()
}

// RecordsUpdated streams record batches.
func (a *EvmAdapter) RecordsUpdated() (<-chan []models.TransactionRecord, func()) {
	return a.recordsUpdated.Subscribe()
}

// Record returns the indexed record for a transaction, if known.
func (a *EvmAdapter) Record(hash string) (models.TransactionRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.records[hash]
	return r, ok
}

// RawTransaction returns the raw RLP hex for a transaction, if indexed.
func (a *EvmAdapter) RawTransaction(hash string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	raw, ok := a.raw[hash]
	return raw, ok
}

// Explorer builds an etherscan-style transaction link.
func (a *EvmAdapter) Explorer(hash string) models.ExplorerData {
	return models.ExplorerData{
		Title: a.explorerTitle,
		URL:   fmt.Sprintf("%s/tx/%s", a.explorerBase, hash),
	}
}

// IngestRecords indexes a record batch (optionally with raw payloads keyed
// by hash) and republishes it to subscribers. The daemon's sync path and
// tests both feed the adapter through here.
func (a *EvmAdapter) IngestRecords(records []models.TransactionRecord, raw map[string]string) {
	if len(records) == 0 {
		return
	}
	a.mu.Lock()
	for _, r := range records {
		a.records[r.TxHash()] = r
	}
	for hash, payload := range raw {
		a.raw[hash] = payload
	}
	a.mu.Unlock()

	a.recordsUpdated.Publish(records)
}

// SetLastBlock replaces the chain tip and republishes it.
func (a *EvmAdapter) SetLastBlock(info models.LastBlockInfo) {
	a.mu.Lock()
	a.lastBlock = &info
	a.mu.Unlock()

	a.blockUpdated.Publish(info)
}

// Close stops the header subscription and closes the streams.
func (a *EvmAdapter) Close() {
	a.once.Do(func() {
		close(a.quit)
		a.blockUpdated.Close()
		a.recordsUpdated.Close()
	})
}

type newHeadsNotification struct {
	Params struct {
		Result struct {
			Number    string `json:"number"`
			Timestamp string `json:"timestamp"`
		} `json:"result"`
	} `json:"params"`
}

// watchHeads keeps a newHeads subscription alive, reconnecting on error.
func (a *EvmAdapter) watchHeads(nodeWSURL string) {
	for {
		select {
		case <-a.quit:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(nodeWSURL, nil)
		if err != nil {
			a.logger.Warn("node dial failed, retrying",
				zap.String("url", nodeWSURL),
				zap.Duration("retry_in", reconnectInterval),
				zap.Error(err))
			select {
			case <-a.quit:
				return
			case <-time.After(reconnectInterval):
			}
			continue
		}

		sub := map[string]interface{}{
			"id":     1,
			"method": "eth_subscribe",
			"params": []string{"newHeads"},
		}
		if err := conn.WriteJSON(sub); err != nil {
			a.logger.Warn("subscribe failed", zap.Error(err))
			conn.Close()
			continue
		}

		a.readHeads(conn)
		conn.Close()
	}
}

func (a *EvmAdapter) readHeads(conn *websocket.Conn) {
	for {
		select {
		case <-a.quit:
			return
		default:
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			a.logger.Warn("node read error", zap.Error(err))
			return
		}

		var note newHeadsNotification
		if err := json.Unmarshal(payload, &note); err != nil || note.Params.Result.Number == "" {
			// subscription confirmations and unrelated frames land here
			continue
		}

		info, err := parseHead(note.Params.Result.Number, note.Params.Result.Timestamp)
		if err != nil {
			a.logger.Warn("malformed header", zap.Error(err))
			continue
		}
		a.SetLastBlock(info)
	}
}

func parseHead(numberHex, timestampHex string) (models.LastBlockInfo, error) {
	height, err := parseHexUint(numberHex)
	if err != nil {
		return models.LastBlockInfo{}, fmt.Errorf("bad block number %q: %w", numberHex, err)
	}
	ts, err := parseHexUint(timestampHex)
	if err != nil {
		return models.LastBlockInfo{}, fmt.Errorf("bad block timestamp %q: %w", timestampHex, err)
	}
	return models.LastBlockInfo{Height: height, Timestamp: time.Unix(ts, 0).UTC()}, nil
}

func parseHexUint(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(s, "0x"), 16, 64)
}
