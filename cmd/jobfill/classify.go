package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/observability"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url|file>",
	Short: "Score the fields of an application form",
	Long:  "List every visible input, textarea and select on a page with the profile field it most likely asks for and a confidence score.",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var (
	classifyBrowser bool
	classifyJSON    bool
	classifyAll     bool
)

func init() {
	classifyCmd.Flags().BoolVar(&classifyBrowser, "browser", false, "Render the page in a headless browser")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print fields as JSON")
	classifyCmd.Flags().BoolVar(&classifyAll, "all", false, "Include fields that match no category")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot(cmd.Context(), args[0], classifyBrowser, nil)
	if err != nil {
		return err
	}

	fields := forms.Classify(snap)
	if !classifyAll {
		fields = forms.Fillable(fields)
	}
	if !forms.HasApplicationForm(snap) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no application form detected on this page")
	}

	if classifyJSON {
		if fields == nil {
			fields = []forms.FormField{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintFields(fields)
	return nil
}
