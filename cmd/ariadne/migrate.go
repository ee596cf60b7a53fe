package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jersy/ariadne/internal/graphstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema and startup migration pass, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graphstore.Open(activeConfig.DBPath)
		if err != nil {
			return fmt.Errorf("open graph store: %w", err)
		}
		defer store.Close()
		fmt.Printf("migration applied to %s\n", activeConfig.DBPath)
		return nil
	},
}
