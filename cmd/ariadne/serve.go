package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jersy/ariadne/internal/embedding"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/httpapi"
	"github.com/jersy/ariadne/internal/ingest"
	"github.com/jersy/ariadne/internal/llm"
	"github.com/jersy/ariadne/internal/logging"
	"github.com/jersy/ariadne/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server fronting the knowledge graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := activeConfig
		log := logging.Get(logging.CategoryAPI)

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
		ingestor := ingest.NewClient(cfg.ASMServiceURL, cfg.IngestTimeout, cfg.IngestBulkTimeout)

		srv := httpapi.NewServer(store, vectors, embedder, llmClient, ingestor, cfg.BackupRetention, cfg.MaxSummaryWorkers, cfg.LLM.RequestTimeout)
		router := httpapi.NewRouter(srv)

		log.Infow("starting server", "addr", listenAddr, "db", cfg.DBPath, "vector_dir", cfg.VectorPath)
		return http.ListenAndServe(listenAddr, router)
	},
}
