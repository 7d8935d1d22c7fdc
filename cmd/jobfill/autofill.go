package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobfill/internal/autofill"
	"github.com/jonathan/jobfill/internal/browser"
	"github.com/jonathan/jobfill/internal/extract"
	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/observability"
	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/store"
	"github.com/jonathan/jobfill/internal/types"
)

var autofillCmd = &cobra.Command{
	Use:   "autofill <url|file>",
	Short: "Fill an application form from your resume profile",
	Long: "Open the page in a browser, classify its form fields and type your profile values into them. " +
		"With --dry-run the page is filled in memory and the values are printed instead.",
	Args: cobra.ExactArgs(1),
	RunE: runAutofill,
}

var (
	autofillDryRun   bool
	autofillProfile  string
	autofillAttach   string
	autofillNoRecord bool
	autofillKeepOpen bool
)

func init() {
	autofillCmd.Flags().BoolVar(&autofillDryRun, "dry-run", false, "Fill a parsed copy of the page and print the values")
	autofillCmd.Flags().StringVar(&autofillProfile, "profile", "", "Resume profile JSON to use instead of the stored one")
	autofillCmd.Flags().StringVar(&autofillAttach, "attach", "", "Resume file to attach (defaults to resume_file from config)")
	autofillCmd.Flags().BoolVar(&autofillNoRecord, "no-record", false, "Do not record the application")
	autofillCmd.Flags().BoolVar(&autofillKeepOpen, "keep-open", false, "Keep the browser open until interrupted")
	rootCmd.AddCommand(autofillCmd)
}

// consoleNotifier prints engine notifications in color.
func consoleNotifier(w io.Writer) autofill.NotifierFunc {
	return func(level autofill.Level, message string) {
		if level == autofill.LevelError {
			fmt.Fprintln(w, color.RedString("✗ %s", message))
			return
		}
		fmt.Fprintln(w, color.GreenString("✓ %s", message))
	}
}

// resolveProfile reads the --profile file, or the stored profile.
func resolveProfile(ctx context.Context, s store.Store) (*types.ResumeProfile, error) {
	if autofillProfile != "" {
		data, err := os.ReadFile(autofillProfile)
		if err != nil {
			return nil, fmt.Errorf("failed to read profile: %w", err)
		}
		return store.DecodeProfile(data)
	}
	if s == nil {
		return nil, autofill.ErrNoProfile
	}
	profile, err := store.LoadProfile(ctx, s)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return profile, err
}

func runAutofill(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if autofillDryRun {
		return dryRunAutofill(ctx, cmd.OutOrStdout(), args[0])
	}
	if !isURL(args[0]) {
		return fmt.Errorf("live autofill needs a URL; use --dry-run for files")
	}
	return liveAutofill(ctx, cmd.OutOrStdout(), args[0])
}

// dryRunAutofill fills a parsed copy of target and prints each filled value.
func dryRunAutofill(ctx context.Context, out io.Writer, target string) error {
	var s store.Store
	if autofillProfile == "" {
		opened, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer opened.Close()
		s = opened
	}

	profile, err := resolveProfile(ctx, s)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(ctx, target, false, nil)
	if err != nil {
		return err
	}
	job := detectJob(snap)

	typist := autofill.NewDOMTypist(snap)
	engine := autofill.New(typist,
		autofill.WithPacer(autofill.NoDelay),
		autofill.WithNotifier(consoleNotifier(out)),
	)

	fields := forms.Classify(snap)
	filled, err := engine.Autofill(ctx, fields, profile, job)
	if err != nil {
		return err
	}

	for _, f := range forms.Fillable(fields) {
		if v := typist.Value(f.Selector); v != "" {
			fmt.Fprintf(out, "%-14s %-40s %s\n", f.Category, f.Selector, firstLine(v))
		}
	}
	log.Debug().Int("filled", filled).Msg("dry run complete")
	return nil
}

// liveAutofill drives a browser tab at url.
func liveAutofill(ctx context.Context, out io.Writer, url string) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	profile, err := resolveProfile(ctx, s)
	if err != nil {
		return err
	}

	session, err := browser.NewSession(ctx, browserOptions())
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	snap, err := session.Snapshot(ctx)
	if err != nil {
		return err
	}
	job := detectJob(snap)
	if job != nil {
		observability.NewPrinter(out).PrintJob(job)
	}

	opts := []autofill.Option{
		autofill.WithPacer(cfg.Pacer()),
		autofill.WithNotifier(consoleNotifier(out)),
	}
	if !autofillNoRecord {
		opts = append(opts, autofill.WithRecorder(store.Recorder{Store: s}))
	}
	engine := autofill.New(browser.NewTypist(session), opts...)

	fields := forms.Classify(snap)
	if _, err := engine.Autofill(ctx, fields, profile, job); err != nil {
		return err
	}

	attach := autofillAttach
	if attach == "" {
		attach = cfg.ResumeFile
	}
	if attach != "" {
		if err := engine.AttachResume(ctx, fields, attach); err != nil && !errors.Is(err, autofill.ErrNoResumeField) {
			return err
		}
	}

	if autofillKeepOpen {
		fmt.Fprintln(out, "Review the form in the browser. Press Ctrl+C to close.")
		<-ctx.Done()
	}
	return nil
}

// detectJob runs the extractor over snap. A bad site file falls back to the
// built-in strategies; a page without a posting yields nil.
func detectJob(snap *page.Snapshot) *types.JobPosting {
	extractor, err := newExtractor()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring site strategies, using built-in ones")
		extractor = extract.New()
	}
	job, ok := extractor.Detect(snap)
	if !ok {
		log.Debug().Str("url", snap.URL).Msg("no job posting on page")
		return nil
	}
	return job
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
