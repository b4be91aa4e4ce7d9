package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/dvloznov/orchestra-ai/internal/cashflow"
	"github.com/dvloznov/orchestra-ai/internal/config"
	"github.com/dvloznov/orchestra-ai/internal/logger"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/dvloznov/orchestra-ai/internal/snapshot"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "orchestra",
	Short: "AI CFO dashboard core on the command line",
	Long: `orchestra runs the dashboard core in-process against the seeded demo
company: executive summaries, chat, what-if forecasts, investor reports and
the guided crisis-to-resolution tour.

Set GEMINI_API_KEY (or API_KEY) to use the live model; without it every
command answers with labelled demo content.`,
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", logger.FormatConsole, "log format (console, json)")
	rootCmd.PersistentFlags().String("model", advisor.DefaultModel, "Gemini model name")
	rootCmd.PersistentFlags().Int64("seed", 0, "cashflow generator seed (0 = time based)")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyGeminiModel, rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag(config.KeyDemoSeed, rootCmd.PersistentFlags().Lookup("seed"))

	// Add commands
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(demoCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the in-process dashboard every command works against.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	advisor advisor.Advisor
	session *session.Session
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log := logger.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	adv := advisor.New(ctx, advisor.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.AITimeout,
	}, log)

	seed := cfg.DemoSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sess := session.New(snapshot.NewStore(snapshot.Seed()), cashflow.NewGenerator(seed), log)

	return &app{cfg: cfg, log: log, advisor: adv, session: sess}, nil
}
