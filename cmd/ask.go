/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/finsight-be/service"
	"github.com/tieubaoca/finsight-be/types"
)

// askCmd ingests one statement and prints the routed answer to a question.
var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about a local statement PDF",
	Long: `Indexes a local statement PDF and prints the answer to one or more
questions. Questions are asked in order, so later ones see the history of the
earlier ones.

  finsight-be ask -f statement.pdf -q "What was my total spending in March?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		questions, _ := cmd.Flags().GetStringArray("question")
		if filePath == "" || len(questions) == 0 {
			return errors.New("--file and --question are required")
		}

		app, files, err := localSetup(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		id, err := files.IngestLocal(cmd.Context(), types.AnonymousOwner, filePath)
		if err != nil {
			return err
		}
		for _, q := range questions {
			answer, err := app.router.Answer(cmd.Context(), id, q)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Q: %s\nA: %s\n\n", q, answer)
		}
		return nil
	},
}

// insightsCmd ingests one statement and prints its chart data as JSON.
var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print chart insights for a local statement PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		if filePath == "" {
			return errors.New("--file is required")
		}

		app, files, err := localSetup(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		id, err := files.IngestLocal(cmd.Context(), types.AnonymousOwner, filePath)
		if err != nil {
			return err
		}
		insights, err := app.insights.Extract(cmd.Context(), id)
		if err != nil {
			return err
		}

		var out any = map[string]any{}
		if insights != nil {
			out = insights
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func localSetup(ctx context.Context) (*core, *service.FileService, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateBackends(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	app, err := buildCore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	files, err := service.NewFileService(cfg.UploadDir, nil, app.documents)
	if err != nil {
		app.Close(context.Background())
		return nil, nil, err
	}
	return app, files, nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(insightsCmd)

	askCmd.Flags().StringP("file", "f", "", "Path to the statement PDF")
	askCmd.Flags().StringArrayP("question", "q", []string{}, "Question to ask (repeatable)")
	insightsCmd.Flags().StringP("file", "f", "", "Path to the statement PDF")
}
