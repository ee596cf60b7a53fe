// Package main implements the ariadne CLI: a single binary that serves the
// HTTP surface (serve), drives a rebuild from the shell (rebuild), watches
// a running job's progress in a TUI (jobs watch), and applies the schema
// migration pass standalone (migrate).
//
// File index:
//   - main.go    - entry point, rootCmd, global flags
//   - serve.go   - serveCmd: boots every component and listens
//   - rebuild.go - rebuildCmd: one-shot rebuild against an existing store
//   - jobs.go    - jobsCmd, jobsWatchCmd: bubbletea progress TUI
//   - migrate.go - migrateCmd: opens and closes the store to apply migrations
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jersy/ariadne/internal/config"
	"github.com/jersy/ariadne/internal/logging"
)

var (
	dbPath     string
	vectorPath string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "ariadne",
	Short: "Ariadne - incremental code knowledge graph service",
	Long: `Ariadne ingests a JVM codebase's structural facts into a queryable
knowledge graph, keeps it current through incremental rebuilds, and serves
impact analysis, call-chain tracing, and anti-pattern detection over it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}
		if vectorPath != "" {
			cfg.VectorPath = vectorPath
		}
		if err := logging.Init(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		activeConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// activeConfig is populated by PersistentPreRunE and read by each
// subcommand's RunE. Cobra commands can't share constructor arguments, so
// this follows the teacher's own package-level-config-after-PreRun idiom
// in cmd/nerd/main.go.
var activeConfig *config.Config

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the graph database (overrides ARIADNE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&vectorPath, "vector-dir", "", "path to the vector store directory (overrides ARIADNE_VECTOR_PATH)")

	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8090", "HTTP listen address")

	rebuildCmd.Flags().StringVar(&rebuildMode, "mode", "full", "rebuild mode: full|incremental")
	rebuildCmd.Flags().StringSliceVar(&rebuildTargets, "target", nil, "incremental mode: target symbol FQNs")

	jobsCmd.AddCommand(jobsWatchCmd)

	rootCmd.AddCommand(serveCmd, rebuildCmd, jobsCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
