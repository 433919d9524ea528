/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/finsight-be/config"
	"github.com/tieubaoca/finsight-be/database"
	"github.com/tieubaoca/finsight-be/logger"
)

// reinitIndexCmd drops every stored segment vector.
var reinitIndexCmd = &cobra.Command{
	Use:   "reinit-index",
	Short: "Drop and recreate the Weaviate segment class",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.VectorStore != config.StoreWeaviate {
			return fmt.Errorf("vector_store is %q, nothing to reinitialize", cfg.VectorStore)
		}

		store, err := database.NewWeaviateStore(cmd.Context(), cfg.WeaviateStoreConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to Weaviate: %w", err)
		}
		if err := store.ReInit(cmd.Context()); err != nil {
			return err
		}
		logger.NewModuleLogger("cmd", "reinit-index").Info("segment class recreated", "class", database.SEGMENT_CLASS)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reinitIndexCmd)
}
