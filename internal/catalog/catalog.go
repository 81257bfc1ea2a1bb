// Package catalog holds the fixed list of markets offered for selection.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"stocksignal-api/internal/models"
)

//go:embed markets.csv
var defaultMarkets []byte

// Catalog is an immutable list of markets. It is safe for concurrent use.
type Catalog struct {
	markets []models.Market
	index   map[string]int
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultMarkets))
}

// Load reads a catalog from a CSV file. An empty path loads the bundled list.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open market catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads symbol,name rows. A header row whose first column is "symbol"
// is skipped, duplicate symbols keep their first occurrence.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	c := &Catalog{index: map[string]int{}}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read market catalog: %w", err)
		}
		line++

		symbol := strings.ToUpper(strings.TrimSpace(record[0]))
		if line == 1 && symbol == "SYMBOL" {
			continue
		}
		if symbol == "" {
			continue
		}
		name := symbol
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			name = strings.TrimSpace(record[1])
		}
		if _, ok := c.index[symbol]; ok {
			continue
		}
		c.index[symbol] = len(c.markets)
		c.markets = append(c.markets, models.Market{Symbol: symbol, Name: name})
	}

	if len(c.markets) == 0 {
		return nil, errors.New("market catalog is empty")
	}
	return c, nil
}

// All returns a copy of the markets in file order.
func (c *Catalog) All() []models.Market {
	out := make([]models.Market, len(c.markets))
	copy(out, c.markets)
	return out
}

// Lookup finds a market by symbol.
func (c *Catalog) Lookup(symbol string) (models.Market, bool) {
	i, ok := c.index[strings.ToUpper(symbol)]
	if !ok {
		return models.Market{}, false
	}
	return c.markets[i], true
}

// Len returns the number of markets.
func (c *Catalog) Len() int {
	return len(c.markets)
}
