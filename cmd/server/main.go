package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"stocksignal-api/internal/handlers"
	"stocksignal-api/internal/models"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "stocksignal",
		Short: "Technical-analysis signals for NSE/BSE tickers",
		Long: `stocksignal fetches six months of daily prices for a ticker, scores six
technical indicators and turns the score into a verdict with a trade plan.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Configuration file path (default configs/config.yaml or $CONFIG_PATH)")

	rootCmd.AddCommand(newServeCmd(&cfgPath))
	rootCmd.AddCommand(newAnalyzeCmd(&cfgPath))
	rootCmd.AddCommand(newMarketsCmd(&cfgPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfgPath)
		},
	}
}

func newAnalyzeCmd(cfgPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze TICKER [TICKER...]",
		Short: "Analyze one or more tickers and print the verdicts",
		Long: `Analyze one or more tickers from the command line.
Example: stocksignal analyze TCS INFY.NS ^NSEI`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), *cfgPath, args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func newMarketsCmd(cfgPath *string) *cobra.Command {
	var withQuotes bool

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List the selectable markets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkets(cmd.Context(), *cfgPath, withQuotes)
		},
	}

	cmd.Flags().BoolVar(&withQuotes, "quotes", false, "Fetch the current price for every market")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stocksignal %s\n", version)
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApplication(ctx, cfgPath, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := handlers.RouterOptions{
		Server:    a.cfg.Server,
		Version:   version,
		AccessLog: os.Stdout,
		Gatherer:  prometheus.DefaultGatherer,
	}
	app := handlers.NewApp(opts,
		handlers.NewAnalysisHandler(a.analyzer, a.market, a.catalog, a.normalizer, a.cfg.Market.FetchTimeout*3, a.log),
		handlers.NewHealthHandler(version, a.cache),
	)

	// Graceful shutdown
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + a.cfg.Server.Port)
	}()

	a.log.Info().
		Str("port", a.cfg.Server.Port).
		Str("environment", a.cfg.Environment).
		Int("markets", a.catalog.Len()).
		Msg("server started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-listenErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	a.log.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info().Msg("server shutdown complete")
	return nil
}

func runAnalyze(ctx context.Context, cfgPath string, tickers []string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApplication(ctx, cfgPath, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.analyzer.AnalyzeBatch(ctx, tickers)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			fmt.Println(formatResult(res))
		}
	}

	var failed []string
	for _, res := range results {
		if res.Failed() {
			failed = append(failed, res.Ticker)
		}
	}
	if len(failed) == len(results) {
		return errors.New("no ticker could be analyzed: " + strings.Join(failed, ", "))
	}
	return nil
}

func runMarkets(ctx context.Context, cfgPath string, withQuotes bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApplication(ctx, cfgPath, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	markets := a.catalog.All()
	if !withQuotes {
		fmt.Println(formatMarkets(markets, nil))
		return nil
	}

	// Quotes are keyed by the first candidate, e.g. TCS.NS for TCS.
	symbols := make([]string, len(markets))
	for i, m := range markets {
		symbols[i] = m.Symbol
		if c := a.normalizer.Candidates(m.Symbol); len(c) > 0 {
			symbols[i] = c[0]
		}
	}
	fetched := a.market.FetchQuotes(ctx, symbols, a.cfg.Market.MaxConcurrent)

	quotes := make(map[string]*models.Quote, len(fetched))
	for i, m := range markets {
		if q, ok := fetched[symbols[i]]; ok {
			quotes[m.Symbol] = q
		}
	}
	fmt.Println(formatMarkets(markets, quotes))
	return nil
}
