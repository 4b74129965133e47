package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/config"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "veritrustx",
	Short: "Proxy Guard risk scoring for remote assessments",
	Long: "VeritrustX scores response latency, keystroke cadence and gaze drift " +
		"to flag proxy test-takers, and keeps an audit trail of every assessment.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides VERITRUSTX_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(auditsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config, then applies VERITRUSTX_* overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured database. For SQLite the --db flag wins,
// then the configured DSN, then the default XDG path.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, error) {
	if cfg.Database.Driver == store.DriverPostgres {
		return store.Open(store.DriverPostgres, cfg.Database.DSN)
	}

	path, err := resolveDBPath(cmd, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	return store.OpenSQLite(path)
}

func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
