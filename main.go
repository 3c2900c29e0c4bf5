// Package main provides the entry point for the CoinGecko dashboard API
// server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Jubii100/coingecko-dashboard/internal/cache"
	"github.com/Jubii100/coingecko-dashboard/internal/coingecko"
	"github.com/Jubii100/coingecko-dashboard/internal/server"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	listenAddr string

	rootCmd = &cobra.Command{
		Use:   "coingecko-dashboard",
		Short: "Serve cached CoinGecko market data",
		Long: paragraph(
			fmt.Sprintf("\nFront the CoinGecko API with a %s cache: one upstream fetch per resource, every concurrent dashboard client rides along.", keyword("request-coalescing")),
		),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfigFile()
		},
		RunE: runServe,
	}
)

// loadConfigFile honors an explicit --config path, expanding a leading ~.
// Without the flag the config discovered at init time stays in effect.
func loadConfigFile() error {
	if configFile == "" {
		return nil
	}
	path, err := homedir.Expand(configFile)
	if err != nil {
		return fmt.Errorf("unable to expand config path: %w", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config: %w", err)
	}
	return nil
}

// policy reads the freshness policy for one resource kind from the config.
func policy(kind string) server.Policy {
	return server.Policy{
		TTL:   viper.GetDuration("cache." + kind + ".ttl"),
		Grace: viper.GetDuration("cache." + kind + ".grace"),
	}
}

func runServe(*cobra.Command, []string) error {
	upstream := coingecko.Config{
		BaseURL:           viper.GetString("upstream.base_url"),
		RequestsPerMinute: viper.GetInt("upstream.requests_per_minute"),
		Timeout:           viper.GetDuration("upstream.timeout"),
	}
	// The environment wins over the config file for upstream settings, the
	// API key in particular.
	if err := env.Parse(&upstream); err != nil {
		return fmt.Errorf("error parsing upstream config: %w", err)
	}
	log.Info("starting CoinGecko dashboard API",
		"version", Version,
		"api_key_configured", upstream.APIKey != "")

	cfg := server.Config{
		Addr:            viper.GetString("listen"),
		Markets:         policy(server.KindMarkets),
		Charts:          policy(server.KindCharts),
		Tickers:         policy(server.KindTickers),
		StatsInterval:   viper.GetDuration("stats.interval"),
		ShutdownTimeout: viper.GetDuration("shutdown.timeout"),
	}

	// One store and one coordinator for the whole process, built here and
	// handed to every handler path.
	store := cache.NewStore()
	coord := cache.NewCoordinator(store)
	gecko := coingecko.NewClient(upstream)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, store, coord, gecko).Run(ctx)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (host:port)")

	_ = viper.BindPFlag("listen", rootCmd.Flags().Lookup("listen"))

	viper.SetDefault("listen", ":8080")
	viper.SetDefault("stats.interval", "1m")
	viper.SetDefault("shutdown.timeout", "10s")

	// Freshness defaults per resource kind
	viper.SetDefault("cache.markets.ttl", "30s")
	viper.SetDefault("cache.markets.grace", "60s")
	viper.SetDefault("cache.charts.ttl", "60s")
	viper.SetDefault("cache.charts.grace", "120s")
	viper.SetDefault("cache.tickers.ttl", "30s")
	viper.SetDefault("cache.tickers.grace", "60s")

	// Upstream defaults
	viper.SetDefault("upstream.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("upstream.requests_per_minute", 30)
	viper.SetDefault("upstream.timeout", "10s")

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "coingecko-dashboard")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "coingecko-dashboard")}, dirs...)
	}

	if c := os.Getenv("DASHBOARD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("dashboard")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("dashboard")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "dashboard.yml")
	}
}
