// Package currency tracks the user's base fiat currency.
package currency

import "strings"

// Currency is a fiat currency the app can price coins in.
type Currency struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

var known = map[string]Currency{
	"USD": {Code: "USD", Symbol: "$", Decimals: 2},
	"EUR": {Code: "EUR", Symbol: "€", Decimals: 2},
	"GBP": {Code: "GBP", Symbol: "£", Decimals: 2},
	"JPY": {Code: "JPY", Symbol: "¥", Decimals: 0},
	"BTC": {Code: "BTC", Symbol: "₿", Decimals: 8},
}

// Manager holds the configured base currency.
type Manager struct {
	base Currency
}

// NewManager resolves code against the known currency set, defaulting to USD.
func NewManager(code string) *Manager {
	cur, ok := known[strings.ToUpper(code)]
	if !ok {
		cur = known["USD"]
	}
	return &Manager{base: cur}
}

// BaseCurrency returns the currency all fiat values are denominated in.
func (m *Manager) BaseCurrency() Currency { return m.base }
