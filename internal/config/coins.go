// =================================
// File: internal/config/coins.go
// =================================
package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// SymbolConfig holds the per-symbol monitoring parameters.
type SymbolConfig struct {
	Leverage        float64 `json:"leverage"`
	StopLossPercent float64 `json:"sl_percent"`
}

// Coins is the validated per-symbol configuration. Order preserves the
// declaration order of the config file and drives the default table sort.
type Coins struct {
	Symbols map[string]SymbolConfig
	Order   []string
}

const (
	minLeverage = 1
	maxLeverage = 150
	minStopLoss = 0.1
	maxStopLoss = 100
)

// LoadCoins reads and validates the symbol config file. Any violation is a
// fatal configuration error; there are no per-symbol fallbacks.
func LoadCoins(path string) (*Coins, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coins config: %w", err)
	}
	return ParseCoins(data)
}

// ParseCoins parses the symbol config from raw JSON, keeping field order.
func ParseCoins(data []byte) (*Coins, error) {
	coins := &Coins{Symbols: make(map[string]SymbolConfig)}

	iter := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowIterator(data)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnIterator(iter)

	iter.ReadObjectCB(func(it *jsoniter.Iterator, symbol string) bool {
		var sc SymbolConfig
		it.ReadVal(&sc)
		coins.Symbols[symbol] = sc
		coins.Order = append(coins.Order, symbol)
		return true
	})
	if iter.Error != nil {
		return nil, fmt.Errorf("malformed coins config: %w", iter.Error)
	}
	if len(coins.Symbols) == 0 {
		return nil, fmt.Errorf("coins config is empty")
	}

	return coins, coins.validate()
}

func (c *Coins) validate() error {
	for _, symbol := range c.Order {
		sc := c.Symbols[symbol]
		if sc.Leverage < minLeverage || sc.Leverage > maxLeverage {
			return fmt.Errorf("symbol %s: leverage %.0f out of range (%d-%d)",
				symbol, sc.Leverage, minLeverage, maxLeverage)
		}
		if sc.StopLossPercent < minStopLoss || sc.StopLossPercent > maxStopLoss {
			return fmt.Errorf("symbol %s: sl_percent %.2f out of range (%.1f-%.0f)",
				symbol, sc.StopLossPercent, minStopLoss, float64(maxStopLoss))
		}
	}
	return nil
}

// IndexOf returns the declared position of symbol, or len(Order) for
// symbols missing from the configuration so they sort last.
func (c *Coins) IndexOf(symbol string) int {
	for i, s := range c.Order {
		if s == symbol {
			return i
		}
	}
	return len(c.Order)
}

// Contains reports whether symbol is configured.
func (c *Coins) Contains(symbol string) bool {
	_, ok := c.Symbols[symbol]
	return ok
}
