package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"stocksignal-api/internal/models"
	"stocksignal-api/pkg/yahoo"
)

// ErrNoData means no candidate symbol produced a usable series.
var ErrNoData = errors.New("no data")

type HistorySource interface {
	History(ctx context.Context, symbol string) (*models.History, error)
}

type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// NamedQuoteSource pairs a quote provider with the label used in logs and metrics.
type NamedQuoteSource struct {
	Name   string
	Source QuoteSource
}

// MarketDataService resolves ticker candidates to a daily series and fetches
// quotes from several providers concurrently.
type MarketDataService struct {
	cache   *CacheService
	history HistorySource
	quotes  []NamedQuoteSource
	log     zerolog.Logger
	rec     Recorder
}

func NewMarketDataService(cache *CacheService, history HistorySource, quotes []NamedQuoteSource, log zerolog.Logger, rec Recorder) *MarketDataService {
	return &MarketDataService{
		cache:   cache,
		history: history,
		quotes:  quotes,
		log:     log,
		rec:     recorderOrNop(rec),
	}
}

// FetchHistory tries each candidate in order and returns the first non-empty
// series. A candidate that is not found moves on to the next one; any other
// failure (transport, rate limit, cancellation) stops the chain.
func (s *MarketDataService) FetchHistory(ctx context.Context, candidates []string) (*models.History, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate symbols", ErrNoData)
	}

	for _, symbol := range candidates {
		if cached, found := s.cache.GetHistory(ctx, symbol); found {
			return cached, nil
		}

		h, err := s.history.History(ctx, symbol)
		switch {
		case err == nil && h != nil && len(h.Bars) > 0:
			s.rec.FetchAttempt("yahoo_chart", "ok")
			if err := s.cache.SetHistory(ctx, symbol, h); err != nil {
				s.log.Warn().Err(err).Str("candidate", symbol).Msg("failed to cache history")
			}
			return h, nil
		case err == nil, errors.Is(err, yahoo.ErrNotFound):
			s.rec.FetchAttempt("yahoo_chart", "not_found")
			s.log.Debug().Str("candidate", symbol).Msg("no data for candidate, trying next")
			continue
		case errors.Is(err, yahoo.ErrRateLimited):
			s.rec.FetchAttempt("yahoo_chart", "rate_limited")
		default:
			s.rec.FetchAttempt("yahoo_chart", "error")
		}
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	return nil, fmt.Errorf("%w: tried %s", ErrNoData, strings.Join(candidates, ", "))
}

// FetchQuote fans out to every quote source and returns the first success.
func (s *MarketDataService) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if cached, found := s.cache.GetQuote(ctx, symbol); found {
		return cached, nil
	}
	if len(s.quotes) == 0 {
		return nil, errors.New("no quote sources configured")
	}

	type result struct {
		source string
		data   *models.Quote
		err    error
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan result, len(s.quotes))
	for _, qs := range s.quotes {
		go func(qs NamedQuoteSource) {
			data, err := qs.Source.GetQuote(ctx, symbol)
			resultCh <- result{qs.Name, data, err}
		}(qs)
	}

	// Fan-in: first successful result wins
	var errs []error
	for range s.quotes {
		select {
		case res := <-resultCh:
			if res.err == nil && res.data != nil {
				s.rec.FetchAttempt(res.source, "ok")
				if err := s.cache.SetQuote(ctx, symbol, res.data); err != nil {
					s.log.Warn().Err(err).Str("ticker", symbol).Msg("failed to cache quote")
				}
				return res.data, nil
			}
			s.rec.FetchAttempt(res.source, "error")
			errs = append(errs, fmt.Errorf("%s: %w", res.source, res.err))
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all quote sources failed for %s: %w", symbol, errors.Join(errs...))
}

// FetchQuotes fetches quotes for several symbols with bounded concurrency.
// Symbols that fail are left out of the result.
func (s *MarketDataService) FetchQuotes(ctx context.Context, symbols []string, workers int) map[string]*models.Quote {
	if workers < 1 {
		workers = 1
	}
	results := make(map[string]*models.Quote, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup
	pool := make(chan struct{}, workers)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			pool <- struct{}{}
			defer func() { <-pool }()

			q, err := s.FetchQuote(ctx, symbol)
			if err != nil {
				s.log.Debug().Err(err).Str("ticker", symbol).Msg("quote unavailable")
				return
			}
			mu.Lock()
			results[symbol] = q
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()
	return results
}
