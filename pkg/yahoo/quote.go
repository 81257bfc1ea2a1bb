package yahoo

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"stocksignal-api/internal/models"
)

// QuoteClient fetches real-time quotes through finance-go.
type QuoteClient struct {
	get func(symbol string) (*finance.Quote, error)
}

func NewQuoteClient() *QuoteClient {
	return &QuoteClient{get: quote.Get}
}

// GetQuote returns the current quote for symbol. finance-go has no context
// support, so the call runs in its own goroutine and is abandoned when ctx ends.
func (c *QuoteClient) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	type result struct {
		q   *finance.Quote
		err error
	}
	ch := make(chan result, 1)
	go func() {
		q, err := c.get(symbol)
		ch <- result{q, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-ch:
	}

	if r.err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, r.err)
	}
	if r.q == nil || r.q.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("%w: %s: empty quote", ErrNotFound, symbol)
	}

	q := r.q
	name := q.LongName
	if name == "" {
		name = q.ShortName
	}
	return newQuote(symbol, name, q.FullExchangeName, q.CurrencyID,
		q.RegularMarketPrice, q.RegularMarketPreviousClose, int64(q.RegularMarketVolume), "yahoo"), nil
}
