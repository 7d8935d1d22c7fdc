package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobfill/internal/observability"
	"github.com/jonathan/jobfill/internal/store"
	"github.com/jonathan/jobfill/internal/types"
)

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List recorded applications",
	RunE:  runApplications,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List detected job postings",
	Long:  "List postings saved by watch, scan --save or detect --save. Listing clears the unseen counter.",
	RunE:  runJobs,
}

var (
	applicationsJSON bool
	jobsJSON         bool
	jobsKeepBadge    bool
)

func init() {
	applicationsCmd.Flags().BoolVar(&applicationsJSON, "json", false, "Print records as JSON")
	jobsCmd.Flags().BoolVar(&jobsJSON, "json", false, "Print postings as JSON")
	jobsCmd.Flags().BoolVar(&jobsKeepBadge, "keep-badge", false, "Do not reset the unseen counter")
	rootCmd.AddCommand(applicationsCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runApplications(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := store.ListApplications(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	if applicationsJSON {
		if records == nil {
			records = []types.ApplicationRecord{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintApplications(records)
	return nil
}

func runJobs(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	badge, err := store.Badge(ctx, s)
	if err != nil {
		return err
	}
	jobs, err := store.ListDetectedJobs(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if jobsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(jobs); err != nil {
			return err
		}
	} else {
		if badge > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d new since last check\n", badge)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintJobs(jobs)
	}

	if !jobsKeepBadge && badge > 0 {
		return store.ResetBadge(ctx, s)
	}
	return nil
}
