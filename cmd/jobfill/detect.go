package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobfill/internal/observability"
	"github.com/jonathan/jobfill/internal/store"
)

var detectCmd = &cobra.Command{
	Use:   "detect <url|file>",
	Short: "Extract the job posting from a page",
	Long:  "Fetch a job page (or read a saved HTML file), identify the job board and extract title, company, location and description.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

var (
	detectBrowser bool
	detectJSON    bool
	detectSave    bool
)

func init() {
	detectCmd.Flags().BoolVar(&detectBrowser, "browser", false, "Render the page in a headless browser")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Print the posting as JSON")
	detectCmd.Flags().BoolVar(&detectSave, "save", false, "Store the posting in the detected jobs list")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	extractor, err := newExtractor()
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(ctx, args[0], detectBrowser, nil)
	if err != nil {
		return err
	}

	job, ok := extractor.Detect(snap)
	if !ok {
		return fmt.Errorf("no job posting found on %s", args[0])
	}

	if detectSave {
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		key, err := store.SaveDetectedJob(ctx, s, *job)
		if err != nil {
			return fmt.Errorf("failed to save posting: %w", err)
		}
		if _, err := store.IncrementBadge(ctx, s); err != nil {
			return fmt.Errorf("failed to update badge: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved as %s\n", key)
	}

	if detectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintJob(job)
	return nil
}
