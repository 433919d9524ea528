/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finsight-be",
	Short: "Chat with and chart an uploaded bank statement",
	Long: `finsight-be indexes uploaded bank statement PDFs, answers questions about
them through a retrieval router that chooses between summarizing the whole
statement and looking up the relevant passages, and extracts chart data for
the statement dashboard.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file (empty uses defaults and environment only)")
}
