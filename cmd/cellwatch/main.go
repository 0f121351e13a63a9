package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cellwatch/cellwatch/pkg/api"
	"github.com/cellwatch/cellwatch/pkg/config"
	"github.com/cellwatch/cellwatch/pkg/log"
	"github.com/cellwatch/cellwatch/pkg/monitor"
	"github.com/cellwatch/cellwatch/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	listenAddr string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cellwatch",
	Short: "Cellwatch - event monitoring and dispatch engine for spreadsheet documents",
	Long: `Cellwatch observes change notifications from a spreadsheet document host,
rate-limits and records them, and delivers them to subscribers with
per-subscription debouncing and priority ordering.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Cellwatch version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "HTTP API bind address (overrides config)")
	replayCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
}

// loadConfig reads the config file if one was given, defaults otherwise.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine with the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}

		log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
		logger := log.WithComponent("main")

		opts := []monitor.Option{}
		if cfg.ArchivePath != "" {
			archive, err := storage.NewBoltArchive(cfg.ArchivePath)
			if err != nil {
				return fmt.Errorf("failed to open archive: %w", err)
			}
			defer archive.Close()
			opts = append(opts, monitor.WithArchive(archive))
		}

		engine := monitor.New(cfg, opts...)
		if err := engine.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize engine: %w", err)
		}

		server := api.NewServer(engine, Version)
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.Listen)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		case err := <-errCh:
			logger.Error().Err(err).Msg("API server failed")
		}

		return engine.Cleanup()
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Feed recorded notifications (JSONL) through the engine and print statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}
