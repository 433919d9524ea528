/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/service"
	"github.com/tieubaoca/finsight-be/types"
)

// batchAskCmd asks the same question of every statement in a directory.
var batchAskCmd = &cobra.Command{
	Use:   "batch-ask",
	Short: "Ask one question of every statement PDF in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		directory, _ := cmd.Flags().GetString("directory")
		question, _ := cmd.Flags().GetString("question")
		if directory == "" || question == "" {
			return errors.New("--directory and --question are required")
		}

		entries, err := os.ReadDir(directory)
		if err != nil {
			return fmt.Errorf("failed to read directory: %w", err)
		}

		app, files, err := localSetup(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(context.Background())
		log := logger.NewModuleLogger("cmd", "batch-ask")

		failed := 0
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
				continue
			}
			filePath := filepath.Join(directory, entry.Name())
			answer, err := askFile(cmd.Context(), app, files, filePath, question)
			if err != nil {
				log.Error("failed to process statement", "file", filePath, "error", err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n%s\n\n", service.GetFileNameWithoutExt(filePath), answer)
		}
		if failed > 0 {
			return fmt.Errorf("%d statements failed", failed)
		}
		return nil
	},
}

func askFile(ctx context.Context, app *core, files *service.FileService, filePath, question string) (string, error) {
	id, err := files.IngestLocal(ctx, types.AnonymousOwner, filePath)
	if err != nil {
		return "", err
	}
	return app.router.Answer(ctx, id, question)
}

func init() {
	rootCmd.AddCommand(batchAskCmd)

	batchAskCmd.Flags().String("directory", "", "Directory holding statement PDFs")
	batchAskCmd.Flags().StringP("question", "q", "", "Question to ask of every statement")
}
