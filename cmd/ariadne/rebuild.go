package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jersy/ariadne/internal/deptrack"
	"github.com/jersy/ariadne/internal/dualwrite"
	"github.com/jersy/ariadne/internal/embedding"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/incremental"
	"github.com/jersy/ariadne/internal/ingest"
	"github.com/jersy/ariadne/internal/llm"
	"github.com/jersy/ariadne/internal/shadow"
	"github.com/jersy/ariadne/internal/summarizer"
	"github.com/jersy/ariadne/internal/vectorstore"
)

var (
	rebuildMode    string
	rebuildTargets []string
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Run a one-shot rebuild against the configured store, without starting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := activeConfig
		ctx := context.Background()

		if rebuildMode == "full" {
			ingestor := ingest.NewClient(cfg.ASMServiceURL, cfg.IngestTimeout, cfg.IngestBulkTimeout)
			rebuilder := shadow.New(cfg.DBPath, ingestor, cfg.BackupRetention)
			stats, err := rebuilder.RebuildFull(ctx)
			if err != nil {
				return fmt.Errorf("full rebuild: %w", err)
			}
			fmt.Printf("rebuild complete: %d symbols, %d edges, %s\n", stats.SymbolCount, stats.EdgeCount, stats.Duration)
			return nil
		}

		if len(rebuildTargets) == 0 {
			return fmt.Errorf("incremental rebuild requires at least one --target")
		}

		store, err := graphstore.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open graph store: %w", err)
		}
		defer store.Close()

		embedder, err := embedding.NewEngine(cfg.Embedding)
		if err != nil {
			return fmt.Errorf("init embedding engine: %w", err)
		}
		vectors, err := vectorstore.Open(cfg.VectorPath, embedder.Dimensions())
		if err != nil {
			return fmt.Errorf("open vector store: %w", err)
		}
		defer vectors.Close()

		llmClient := llm.NewClient(cfg.LLM)
		summ := summarizer.New(llmClient, cfg.MaxSummaryWorkers, cfg.LLM.RequestTimeout)
		dw := dualwrite.New(store, vectors)
		tracker := deptrack.New(store)
		coord := incremental.New(store, tracker, summ, dw, embedder)

		source := make(map[string]string, len(rebuildTargets))
		for _, fqn := range rebuildTargets {
			sym, err := store.GetSymbol(fqn)
			if err != nil || sym.FilePath == "" {
				continue
			}
			if data, err := os.ReadFile(sym.FilePath); err == nil {
				source[fqn] = string(data)
			}
		}

		result, err := coord.Run(ctx, rebuildTargets, source)
		if err != nil {
			return fmt.Errorf("incremental rebuild: %w", err)
		}
		fmt.Printf("incremental rebuild complete: %d regenerated, %d cached\n", result.RegeneratedCount, result.SkippedCached)
		return nil
	},
}
