package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"stocksignal-api/internal/analysis"
	"stocksignal-api/internal/catalog"
	"stocksignal-api/internal/config"
	"stocksignal-api/internal/indicators"
	"stocksignal-api/internal/metrics"
	"stocksignal-api/internal/services"
	"stocksignal-api/internal/ticker"
	"stocksignal-api/pkg/alphavantage"
	"stocksignal-api/pkg/logger"
	"stocksignal-api/pkg/yahoo"
)

// application holds the wired service graph shared by every command.
type application struct {
	cfg        *config.Config
	log        zerolog.Logger
	catalog    *catalog.Catalog
	normalizer ticker.Normalizer
	cache      *services.CacheService
	market     *services.MarketDataService
	analyzer   *services.Analyzer
}

func newApplication(ctx context.Context, cfgPath string, reg prometheus.Registerer) (*application, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.Market.CatalogPath)
	if err != nil {
		return nil, err
	}

	var rec services.Recorder
	if reg != nil {
		rec = metrics.New(reg)
	}

	cache := services.NewCacheService(ctx, cfg.Cache, log, rec)

	chart := yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Market.YahooBaseURL),
		yahoo.WithUserAgent(cfg.Market.UserAgent),
		yahoo.WithTimeout(cfg.Market.FetchTimeout),
		yahoo.WithRange(cfg.Market.Range, cfg.Market.Interval),
	)

	av := alphavantage.NewClient(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.BaseURL)
	quotes := quoteSources(yahoo.NewQuoteClient(), chart, av)

	market := services.NewMarketDataService(cache, chart, quotes, log, rec)
	computer := indicators.NewComputer(indicators.Talib{}, cfg.Indicators, log)
	engine := analysis.NewEngine(cfg.MissingDataPolicy())

	normalizer := ticker.NewNormalizer(cfg.Market.PrimarySuffix, cfg.Market.AlternateSuffix, cfg.Market.RecognizedSuffixes...)

	analyzer := services.NewAnalyzer(market, computer, engine, services.AnalyzerOptions{
		DefaultTicker: cfg.Market.DefaultTicker,
		Normalizer:    normalizer,
		Plan:          cfg.Plan.Policy(),
		Timeout:       cfg.Market.FetchTimeout,
		QuoteEnabled:  cfg.Market.QuoteEnabled,
		Workers:       cfg.Market.MaxConcurrent,
	}, log, rec)

	log.Debug().
		Str("environment", cfg.Environment).
		Int("markets", cat.Len()).
		Bool("firestore", cache.FirestoreEnabled()).
		Bool("alphavantage", av.Enabled()).
		Str("missing_data_policy", string(cfg.MissingDataPolicy())).
		Msg("application wired")

	return &application{
		cfg:        cfg,
		log:        log,
		catalog:    cat,
		normalizer: normalizer,
		cache:      cache,
		market:     market,
		analyzer:   analyzer,
	}, nil
}

// quoteSources lists the providers raced by MarketDataService.FetchQuote.
// The chart endpoint backs up finance-go; Alpha Vantage joins when keyed.
func quoteSources(live, chart services.QuoteSource, av *alphavantage.Client) []services.NamedQuoteSource {
	sources := []services.NamedQuoteSource{
		{Name: "yahoo", Source: live},
		{Name: "yahoo_chart", Source: chart},
	}
	if av.Enabled() {
		sources = append(sources, services.NamedQuoteSource{Name: "alphavantage", Source: av})
	}
	return sources
}

func (a *application) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close cache")
	}
}
