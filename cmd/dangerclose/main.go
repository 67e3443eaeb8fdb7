// Package main implements the dangerclose CLI: a danger-close munitions
// catalog browser with favorites, custom threat rings and a range-ring
// ledger.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dangerclose/internal/config"
	"dangerclose/internal/logging"
	"dangerclose/internal/munitions"
	"dangerclose/internal/rings"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	dataDir     string
	target      string
	fromLine    string
	flightsPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dangerclose",
	Short: "Danger-close REDs and MSDs catalog",
	Long: `dangerclose browses the Risk Estimate Distance (RED) and Minimum Safe
Distance (MSD) catalog, keeps favorites and custom threat rings, and records
the range rings drawn around a target.

Run "dangerclose browse" for the interactive browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <data-dir>/dangerclose.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: ~/.dangerclose)")
	rootCmd.PersistentFlags().StringVarP(&target, "target", "t", "", "Target uid rings are drawn around")
	rootCmd.PersistentFlags().StringVar(&fromLine, "from-line", "", "Request context: fiveline or nineline")
	rootCmd.PersistentFlags().StringVar(&flightsPath, "flights", "", "OSRMunitions document listing current flights")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(favCmd)
	rootCmd.AddCommand(customCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(ringsCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is the state every catalog command works against.
type session struct {
	cfg    *config.Config
	ledger *rings.Ledger
	nav    *munitions.Navigator
}

// loadConfig resolves the config file and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		dir := dataDir
		if dir == "" {
			dir = config.DefaultDataDir()
		}
		path = filepath.Join(dir, config.DefaultFileName)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if target != "" {
		cfg.Session.Target = target
	}
	if fromLine != "" {
		cfg.Session.FromLine = fromLine
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads config, starts category logging, opens the ring ledger
// and builds a navigator wired to it.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := logging.Initialize(cfg.LogsDir(), logging.Settings{
		DebugMode:  cfg.Logging.DebugMode,
		Categories: cfg.Logging.Categories,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.Format == "json",
	}); err != nil {
		logger.Warn("Category logging unavailable", zap.Error(err))
	}
	if err := logging.InitAudit(); err != nil {
		logger.Warn("Audit trail unavailable", zap.Error(err))
	}

	logging.Boot("session: data dir %s, target %q, from-line %q", cfg.DataDir, cfg.Session.Target, cfg.Session.FromLine)

	timer := logging.StartTimer(logging.CategoryBoot, "open ring ledger")
	ledger, err := rings.Open(cfg.RingsPath(), cfg.GetRingsTimeout())
	timer.StopWithThreshold(cfg.GetRingsTimeout())
	if err != nil {
		return nil, fmt.Errorf("failed to open ring ledger: %w", err)
	}

	opts := munitions.Options{
		DataDir:       cfg.DataDir,
		CustomsFile:   cfg.Catalog.CustomsFile,
		FavoritesFile: cfg.Catalog.FavoritesFile,
		Target:        cfg.Session.Target,
		FromLine:      cfg.Session.FromLine,
		Overlays:      ledger,
		Rings:         ledger,
	}
	if cfg.Catalog.StaticPath != "" {
		data, err := os.ReadFile(cfg.Catalog.StaticPath)
		if err != nil {
			ledger.Close()
			return nil, fmt.Errorf("failed to read static catalog: %w", err)
		}
		opts.Static = data
	}
	if flightsPath != "" {
		data, err := os.ReadFile(flightsPath)
		if err != nil {
			ledger.Close()
			return nil, fmt.Errorf("failed to read flights: %w", err)
		}
		opts.Flights = data
	}

	logger.Debug("Session opened",
		zap.String("data_dir", cfg.DataDir),
		zap.String("target", cfg.Session.Target),
		zap.String("from_line", cfg.Session.FromLine))

	return &session{cfg: cfg, ledger: ledger, nav: munitions.NewNavigator(opts)}, nil
}

// Close releases the ledger and flushes the category logs.
func (s *session) Close() {
	if err := s.ledger.Close(); err != nil {
		logger.Warn("Failed to close ring ledger", zap.Error(err))
	}
	logging.CloseAudit()
	logging.CloseAll()
}
