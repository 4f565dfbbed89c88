package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/guml/internal/config"
	"github.com/LynnColeArt/guml/store"
)

var globalConfig *config.Config
var globalStore *store.Store

var (
	configPath string
	dbPath     string
	globalSeed int64
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "guml",
	Short: "CUDA-style machine learning on the CPU",
	Long: `guml runs the device estimator suite (PCA, TruncatedSVD, KMeans, UMAP)
next to float64 host references built on gonum and golearn, verifies the
results within floating-point tolerance, and records every run in a local
database.

Each subcommand is one experiment: load a dataset, fit both backends,
verify, plot, record.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "info" || cmd.Name() == "completion" {
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg

		path := dbPath
		if path == "" {
			path, err = cfg.StorePath()
			if err != nil {
				return fmt.Errorf("failed to resolve store path: %w", err)
			}
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
				return fmt.Errorf("failed to create store directory: %w", err)
			}
		}
		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		globalStore = st

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if globalStore != nil {
			_ = globalStore.Close()
			globalStore = nil
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default $XDG_CONFIG_HOME/guml/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Run database path (default from config)")
	rootCmd.PersistentFlags().Int64Var(&globalSeed, "seed", 0, "Random seed (default from config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable styled output")
}

// seed resolves the effective random seed: the --seed flag when set,
// otherwise the configured default
func seed() int64 {
	if globalSeed != 0 {
		return globalSeed
	}
	return globalConfig.Seed()
}
