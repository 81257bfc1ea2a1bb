package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stocksignal-api/internal/analysis"
	"stocksignal-api/internal/indicators"
	"stocksignal-api/internal/models"
	"stocksignal-api/internal/ticker"
	"stocksignal-api/pkg/alphavantage"
	"stocksignal-api/pkg/yahoo"
)

const rateLimitMessage = "Yahoo Finance rate limit reached. Please try again after a few minutes."

// MarketData is the subset of MarketDataService the analyzer depends on.
type MarketData interface {
	FetchHistory(ctx context.Context, candidates []string) (*models.History, error)
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

type AnalyzerOptions struct {
	DefaultTicker string
	Normalizer    ticker.Normalizer
	Plan          analysis.PlanPolicy
	Timeout       time.Duration
	QuoteEnabled  bool
	Workers       int
}

// Analyzer runs the request pipeline: sanitize, fetch, compute indicators,
// score, classify, derive the plan and assemble the result.
type Analyzer struct {
	market   MarketData
	computer *indicators.Computer
	engine   *analysis.Engine
	opts     AnalyzerOptions
	log      zerolog.Logger
	rec      Recorder
	now      func() time.Time
}

func NewAnalyzer(market MarketData, computer *indicators.Computer, engine *analysis.Engine, opts AnalyzerOptions, log zerolog.Logger, rec Recorder) *Analyzer {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if engine == nil {
		engine = analysis.NewEngine(analysis.PolicySkip)
	}
	if computer == nil {
		computer = indicators.NewComputer(nil, indicators.DefaultPeriods(), log)
	}
	return &Analyzer{
		market:   market,
		computer: computer,
		engine:   engine,
		opts:     opts,
		log:      log,
		rec:      recorderOrNop(rec),
		now:      time.Now,
	}
}

// DefaultTicker returns the symbol used when input is empty or malformed.
func (a *Analyzer) DefaultTicker() string {
	return a.opts.DefaultTicker
}

// AnalyzeInput analyzes a decoded request body. Malformed input is replaced
// by the default ticker.
func (a *Analyzer) AnalyzeInput(ctx context.Context, in models.TickerInput) *models.AnalysisResult {
	if in.Malformed {
		return a.analyze(ctx, "", true)
	}
	return a.Analyze(ctx, in.Value)
}

// Analyze never returns an error: failures are reported in the result's
// Error and ErrorKind fields.
func (a *Analyzer) Analyze(ctx context.Context, raw string) *models.AnalysisResult {
	return a.analyze(ctx, raw, false)
}

// AnalyzeBatch analyzes several tickers with bounded concurrency. Results keep
// the input order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, raws []string) []*models.AnalysisResult {
	results := make([]*models.AnalysisResult, len(raws))
	var wg sync.WaitGroup
	pool := make(chan struct{}, a.opts.Workers)

	for i, raw := range raws {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()

			pool <- struct{}{}
			defer func() { <-pool }()

			results[i] = a.Analyze(ctx, raw)
		}(i, raw)
	}
	wg.Wait()
	return results
}

func (a *Analyzer) analyze(ctx context.Context, raw string, malformed bool) *models.AnalysisResult {
	start := a.now()
	res := &models.AnalysisResult{Input: raw}

	symbol, ok := ticker.Sanitize(raw)
	if malformed || !ok {
		symbol, _ = ticker.Sanitize(a.opts.DefaultTicker)
		res.FallbackUsed = true
		a.log.Debug().Str("input", raw).Str("ticker", symbol).Msg("using default ticker")
	}
	res.Ticker = symbol
	display := raw
	if display == "" || res.FallbackUsed {
		display = symbol
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	candidates := a.opts.Normalizer.Candidates(symbol)
	hist, err := a.market.FetchHistory(ctx, candidates)
	if err != nil {
		a.fail(res, display, err)
		a.rec.AnalysisCompleted(string(res.ErrorKind), nil, a.now().Sub(start))
		return res
	}

	res.Ticker = hist.Symbol
	res.CompanyName = hist.Name
	res.Exchange = hist.Exchange
	res.Currency = hist.Currency
	res.Bars = len(hist.Bars)

	snap := a.computer.Snapshot(hist.Bars)
	for _, f := range snap.Fields() {
		if f.Value == nil {
			a.rec.IndicatorUnavailable(f.Name)
		}
	}

	scored := a.engine.Score(snap)
	verdict := analysis.Classify(scored.Score)
	plan := analysis.DerivePlan(verdict, snap.Close, a.opts.Plan)

	score := scored.Score
	res.Indicators = &snap
	res.Rationale = scored.Rationale
	res.Contributions = scored.Contributions
	res.Score = &score
	res.Verdict = verdict
	res.Plan = &plan
	res.Entry = plan.Entry
	res.Exit = plan.Exit
	res.StopLoss = plan.StopLossText

	a.enrichPrice(ctx, res, hist, snap.Close)
	res.GeneratedAt = a.now()

	a.log.Info().
		Str("input", raw).
		Str("ticker", res.Ticker).
		Int("score", score).
		Str("verdict", string(verdict)).
		Int("bars", res.Bars).
		Msg("analysis complete")
	a.rec.AnalysisCompleted(string(verdict), res.Score, a.now().Sub(start))
	return res
}

// enrichPrice fills the current price and daily change. The quote sources are
// preferred; the chart metadata is used when they fail. Neither path can fail
// the analysis.
func (a *Analyzer) enrichPrice(ctx context.Context, res *models.AnalysisResult, hist *models.History, lastClose *float64) {
	if a.opts.QuoteEnabled {
		q, err := a.market.FetchQuote(ctx, hist.Symbol)
		if err == nil {
			if res.CompanyName == "" {
				res.CompanyName = q.Name
			}
			if res.Exchange == "" {
				res.Exchange = q.Exchange
			}
			res.CurrentPrice = analysis.Value(q.Price)
			if q.PreviousClose > 0 {
				res.PreviousClose = analysis.Value(q.PreviousClose)
				res.ChangePercent = analysis.Value(q.ChangePercent)
			}
			res.QuoteSource = q.Source
			return
		}
		a.log.Warn().Err(err).Str("ticker", hist.Symbol).Msg("quote unavailable, using chart data")
	}

	price := hist.MarketPrice
	if price == 0 && lastClose != nil {
		price = *lastClose
	}
	if price == 0 {
		return
	}
	res.CurrentPrice = analysis.Value(price)
	if hist.PreviousClose > 0 {
		res.PreviousClose = analysis.Value(hist.PreviousClose)
		res.ChangePercent = analysis.Value((price - hist.PreviousClose) / hist.PreviousClose * 100)
	}
	res.QuoteSource = "chart"
}

func (a *Analyzer) fail(res *models.AnalysisResult, display string, err error) {
	res.ErrorKind = ErrorKindOf(err)
	switch res.ErrorKind {
	case models.ErrorKindNoData:
		res.Error = fmt.Sprintf("No data found for %s", display)
	case models.ErrorKindRateLimited:
		res.Error = rateLimitMessage
	case models.ErrorKindTimeout:
		res.Error = fmt.Sprintf("Timed out fetching data for %s. Please try again.", display)
	default:
		res.Error = fmt.Sprintf("Error fetching data for %s: %v", display, err)
	}
	res.GeneratedAt = a.now()

	a.log.Warn().Err(err).
		Str("input", res.Input).
		Str("ticker", res.Ticker).
		Str("kind", string(res.ErrorKind)).
		Msg("analysis failed")
}

// ErrorKindOf classifies a pipeline error.
func ErrorKindOf(err error) models.ErrorKind {
	switch {
	case errors.Is(err, ErrNoData):
		return models.ErrorKindNoData
	case errors.Is(err, yahoo.ErrRateLimited), errors.Is(err, alphavantage.ErrRateLimited):
		return models.ErrorKindRateLimited
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return models.ErrorKindTimeout
	default:
		return models.ErrorKindUpstream
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
