package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stocksignal-api/internal/models"
	"stocksignal-api/pkg/yahoo"
)

var errNotFoundFake = fmt.Errorf("%w: fake", yahoo.ErrNotFound)

type fakeHistory struct {
	mu    sync.Mutex
	calls []string
	data  map[string]*models.History
	errs  map[string]error
}

func (f *fakeHistory) History(ctx context.Context, symbol string) (*models.History, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if h, ok := f.data[symbol]; ok {
		return h, nil
	}
	return nil, errNotFoundFake
}

func (f *fakeHistory) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeQuote struct {
	q     *models.Quote
	err   error
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (f *fakeQuote) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	q := *f.q
	q.Symbol = symbol
	return &q, nil
}

func trendBars(n int, up bool) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := float64(i + 1)
		if !up {
			c = float64(n - i)
		}
		bars[i] = models.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func history(symbol string, bars []models.Bar) *models.History {
	return &models.History{
		Symbol:        symbol,
		Name:          symbol + " Ltd",
		Exchange:      "NSE",
		Currency:      "INR",
		PreviousClose: bars[len(bars)-2].Close,
		MarketPrice:   bars[len(bars)-1].Close,
		Bars:          bars,
		FetchedAt:     time.Now(),
	}
}
