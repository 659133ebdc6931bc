// Package adapters exposes blockchain transaction adapters: chain-tip
// tracking, transaction record streams and explorer links.
package adapters

import (
	"github.com/coinsuite/walletcore/pkg/models"
)

// TransactionsAdapter is the capability set the wallet services consume
// from a chain adapter.
type TransactionsAdapter interface {
	// LastBlockInfo returns the last known chain tip, nil before the first
	// header arrives.
	LastBlockInfo() *models.LastBlockInfo

	// LastBlockUpdated streams chain-tip changes.
	LastBlockUpdated() (<-chan models.LastBlockInfo, func())

	// RecordsUpdated streams batches of new or updated transaction records.
	RecordsUpdated() (<-chan []models.TransactionRecord, func())

	// Record returns the indexed transaction record, if known.
	Record(hash string) (models.TransactionRecord, bool)

	// RawTransaction returns the raw transaction payload, if known.
	RawTransaction(hash string) (string, bool)

	// Explorer builds block-explorer link data for a transaction.
	Explorer(hash string) models.ExplorerData
}
