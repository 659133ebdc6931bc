package models

import "time"

// RecordKind tags the concrete transaction record variants.
type RecordKind string

const (
	RecordEvmIncoming     RecordKind = "evm_incoming"
	RecordEvmOutgoing     RecordKind = "evm_outgoing"
	RecordSwap            RecordKind = "swap"
	RecordApprove         RecordKind = "approve"
	RecordContractCall    RecordKind = "contract_call"
	RecordBitcoinIncoming RecordKind = "bitcoin_incoming"
	RecordBitcoinOutgoing RecordKind = "bitcoin_outgoing"
	RecordBinanceIncoming RecordKind = "binance_incoming"
	RecordBinanceOutgoing RecordKind = "binance_outgoing"
)

// TransactionSource identifies where a record came from.
type TransactionSource struct {
	Blockchain PlatformKind `json:"blockchain"`
}

// TransactionRecord is the sealed family of concrete transaction kinds.
// Each variant exposes the value/fee fields applicable to that kind via
// CoinUIDs; RateCoinUIDs combines them with the fee-coin rule.
type TransactionRecord interface {
	TxHash() string
	Timestamp() time.Time
	Kind() RecordKind
	Source() TransactionSource

	// CoinUIDs lists the coin uids of the record's value and fee fields,
	// possibly with duplicates or blanks.
	CoinUIDs() []string
}

// evmRecord is implemented by the EVM-family variants; foreign records are
// those the account did not initiate, their fee was paid by someone else.
type evmRecord interface {
	FeeCoinUID() string
	IsForeign() bool
}

// RateCoinUIDs derives the coin uids a transaction-info view needs fiat
// rates for: the record's own value/fee coins, plus the chain fee coin for
// EVM records the account initiated. Blank uids are dropped and the result
// is deduplicated preserving first occurrence.
func RateCoinUIDs(r TransactionRecord) []string {
	uids := r.CoinUIDs()
	if evm, ok := r.(evmRecord); ok && !evm.IsForeign() {
		uids = append(uids, evm.FeeCoinUID())
	}

	seen := make(map[string]struct{}, len(uids))
	out := make([]string, 0, len(uids))
	for _, uid := range uids {
		if uid == "" {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out
}

// RecordBase carries the fields common to every record kind.
type RecordBase struct {
	Hash string    `json:"hash"`
	Time time.Time `json:"time"`
}

func (b RecordBase) TxHash() string       { return b.Hash }
func (b RecordBase) Timestamp() time.Time { return b.Time }

// EvmRecordBase extends RecordBase for the EVM family.
type EvmRecordBase struct {
	RecordBase
	FeeCoin string `json:"fee_coin"`
	Foreign bool   `json:"foreign"`
}

func (b EvmRecordBase) Source() TransactionSource { return TransactionSource{Blockchain: PlatformEvm} }
func (b EvmRecordBase) FeeCoinUID() string        { return b.FeeCoin }
func (b EvmRecordBase) IsForeign() bool           { return b.Foreign }

type BitcoinRecordBase struct{ RecordBase }

func (BitcoinRecordBase) Source() TransactionSource {
	return TransactionSource{Blockchain: PlatformBitcoin}
}

type BinanceRecordBase struct{ RecordBase }

func (BinanceRecordBase) Source() TransactionSource {
	return TransactionSource{Blockchain: PlatformBinance}
}

// EvmIncomingRecord is a plain value transfer to the account.
type EvmIncomingRecord struct {
	EvmRecordBase
	Value CurrencyValue `json:"value"`
	From  string        `json:"from"`
}

func (EvmIncomingRecord) Kind() RecordKind     { return RecordEvmIncoming }
func (r EvmIncomingRecord) CoinUIDs() []string { return []string{r.Value.CoinUID} }

// EvmOutgoingRecord is a plain value transfer from the account.
type EvmOutgoingRecord struct {
	EvmRecordBase
	Value CurrencyValue  `json:"value"`
	Fee   *CurrencyValue `json:"fee,omitempty"`
	To    string         `json:"to"`
}

func (EvmOutgoingRecord) Kind() RecordKind { return RecordEvmOutgoing }
func (r EvmOutgoingRecord) CoinUIDs() []string {
	uids := []string{r.Value.CoinUID}
	if r.Fee != nil {
		uids = append(uids, r.Fee.CoinUID)
	}
	return uids
}

// SwapRecord is a DEX trade executed through an exchange contract.
type SwapRecord struct {
	EvmRecordBase
	ValueIn  CurrencyValue  `json:"value_in"`
	ValueOut *CurrencyValue `json:"value_out,omitempty"`
	Fee      *CurrencyValue `json:"fee,omitempty"`
	Exchange string         `json:"exchange"`
}

func (SwapRecord) Kind() RecordKind { return RecordSwap }
func (r SwapRecord) CoinUIDs() []string {
	uids := []string{r.ValueIn.CoinUID}
	if r.ValueOut != nil {
		uids = append(uids, r.ValueOut.CoinUID)
	}
	if r.Fee != nil {
		uids = append(uids, r.Fee.CoinUID)
	}
	return uids
}

// ApproveRecord grants a spender an allowance over a token.
type ApproveRecord struct {
	EvmRecordBase
	Value   CurrencyValue  `json:"value"`
	Fee     *CurrencyValue `json:"fee,omitempty"`
	Spender string         `json:"spender"`
}

func (ApproveRecord) Kind() RecordKind { return RecordApprove }
func (r ApproveRecord) CoinUIDs() []string {
	uids := []string{r.Value.CoinUID}
	if r.Fee != nil {
		uids = append(uids, r.Fee.CoinUID)
	}
	return uids
}

// ContractCallRecord is an arbitrary method call, value optional.
type ContractCallRecord struct {
	EvmRecordBase
	Value    *CurrencyValue `json:"value,omitempty"`
	Fee      *CurrencyValue `json:"fee,omitempty"`
	Contract string         `json:"contract"`
	Method   string         `json:"method"`
}

func (ContractCallRecord) Kind() RecordKind { return RecordContractCall }
func (r ContractCallRecord) CoinUIDs() []string {
	var uids []string
	if r.Value != nil {
		uids = append(uids, r.Value.CoinUID)
	}
	if r.Fee != nil {
		uids = append(uids, r.Fee.CoinUID)
	}
	return uids
}

// BitcoinIncomingRecord is a UTXO credit to the account.
type BitcoinIncomingRecord struct {
	BitcoinRecordBase
	Value CurrencyValue `json:"value"`
	From  string        `json:"from,omitempty"`
}

func (BitcoinIncomingRecord) Kind() RecordKind     { return RecordBitcoinIncoming }
func (r BitcoinIncomingRecord) CoinUIDs() []string { return []string{r.Value.CoinUID} }

// BitcoinOutgoingRecord is a UTXO spend from the account.
type BitcoinOutgoingRecord struct {
	BitcoinRecordBase
	Value CurrencyValue  `json:"value"`
	Fee   *CurrencyValue `json:"fee,omitempty"`
	To    string         `json:"to,omitempty"`
}

func (BitcoinOutgoingRecord) Kind() RecordKind { return RecordBitcoinOutgoing }
func (r BitcoinOutgoingRecord) CoinUIDs() []string {
	uids := []string{r.Value.CoinUID}
	if r.Fee != nil {
		uids = append(uids, r.Fee.CoinUID)
	}
	return uids
}

// BinanceIncomingRecord is a BEP2 transfer to the account.
type BinanceIncomingRecord struct {
	BinanceRecordBase
	Value CurrencyValue `json:"value"`
	From  string        `json:"from"`
	Memo  string        `json:"memo,omitempty"`
}

func (BinanceIncomingRecord) Kind() RecordKind     { return RecordBinanceIncoming }
func (r BinanceIncomingRecord) CoinUIDs() []string { return []string{r.Value.CoinUID} }

// BinanceOutgoingRecord is a BEP2 transfer from the account.
type BinanceOutgoingRecord struct {
	BinanceRecordBase
	Value CurrencyValue  `json:"value"`
	Fee   *CurrencyValue `json:"fee,omitempty"`
	To    string         `json:"to"`
	Memo  string         `json:"memo,omitempty"`
}

func (BinanceOutgoingRecord) Kind() RecordKind { return RecordBinanceOutgoing }
func (r BinanceOutgoingRecord) CoinUIDs() []string {
	uids := []string{r.Value.CoinUID}
	if r.Fee != nil {
		uids = append(uids, r.Fee.CoinUID)
	}
	return uids
}
