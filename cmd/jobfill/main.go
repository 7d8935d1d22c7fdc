// Package main provides the jobfill command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobfill/internal/config"
	"github.com/jonathan/jobfill/internal/logging"
)

var (
	configPath string
	verbose    bool
	logJSON    bool

	// cfg is the merged configuration, loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jobfill",
	Short: "Detect job postings and autofill application forms",
	Long: "jobfill reads job pages, extracts the posting, scores application form fields " +
		"and fills them from your stored resume profile.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	logging.Setup(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose || cfg.Verbose,
		JSON:    logJSON,
	})
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
