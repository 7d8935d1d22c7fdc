package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobfill/internal/extract"
	"github.com/jonathan/jobfill/internal/fetch"
	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/store"
	"github.com/jonathan/jobfill/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [url...]",
	Short: "Detect postings on many pages at once",
	Long:  "Fetch many job pages concurrently, politely pacing requests per host, and report which ones hold a posting and an application form.",
	RunE:  runScan,
}

var (
	scanFile string
	scanJSON bool
	scanSave bool
)

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "File with one URL per line")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print results as JSON")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Store every detected posting")
	rootCmd.AddCommand(scanCmd)
}

// ScanResult is the outcome for one URL.
type ScanResult struct {
	URL     string            `json:"url"`
	Job     *types.JobPosting `json:"job,omitempty"`
	HasForm bool              `json:"hasForm"`
	Error   string            `json:"error,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	urls := append([]string{}, args...)
	if scanFile != "" {
		fromFile, err := readURLList(scanFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given; pass them as arguments or with --file")
	}

	extractor, err := newExtractor()
	if err != nil {
		return err
	}
	opts := fetch.DefaultOptions()
	opts.Limiter = fetch.NewHostLimiter(cfg.HostRatePerSecond, 1)

	results := scanURLs(ctx, urls, extractor, opts, cfg.ScanConcurrency)

	if scanSave {
		if err := saveScanned(ctx, results); err != nil {
			return err
		}
	}

	if scanJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printScan(cmd.OutOrStdout(), results)
	return nil
}

// readURLList reads non-empty, non-comment lines from path.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

// scanURLs fetches and inspects every URL with at most limit in flight.
// Results keep the input order; per-URL failures are recorded, not returned.
func scanURLs(ctx context.Context, urls []string, extractor *extract.Extractor, opts *fetch.Options, limit int) []ScanResult {
	results := make([]ScanResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, u := range urls {
		g.Go(func() error {
			results[i] = scanOne(gctx, u, extractor, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func scanOne(ctx context.Context, url string, extractor *extract.Extractor, opts *fetch.Options) ScanResult {
	res := ScanResult{URL: url}
	fetched, err := fetch.URL(ctx, url, opts)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	snap, err := page.Parse(fetched.URL, fetched.HTML)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if job, ok := extractor.Detect(snap); ok {
		res.Job = job
	}
	res.HasForm = forms.HasApplicationForm(snap)
	log.Debug().Str("url", url).Bool("job", res.Job != nil).Bool("form", res.HasForm).Msg("scanned")
	return res
}

// saveScanned persists detected postings. Postings detected within the same
// millisecond are spread out so each gets its own key.
func saveScanned(ctx context.Context, results []ScanResult) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var last time.Time
	for _, r := range results {
		if r.Job == nil {
			continue
		}
		job := *r.Job
		if job.DetectedAt.UnixMilli() <= last.UnixMilli() {
			job.DetectedAt = time.UnixMilli(last.UnixMilli() + 1)
		}
		last = job.DetectedAt
		if _, err := store.SaveDetectedJob(ctx, s, job); err != nil {
			return fmt.Errorf("failed to save %s: %w", r.URL, err)
		}
		if _, err := store.IncrementBadge(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func printScan(out io.Writer, results []ScanResult) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tTITLE\tCOMPANY\tFORM\tURL")
	found := 0
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(tw, "%s\t\t\t\t%s\n", color.RedString("error"), r.URL)
		case r.Job == nil:
			fmt.Fprintf(tw, "%s\t\t\t%s\t%s\n", color.YellowString("none"), yesNo(r.HasForm), r.URL)
		default:
			found++
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", color.GreenString("found"), r.Job.Title, r.Job.Company, yesNo(r.HasForm), r.URL)
		}
	}
	tw.Flush()
	fmt.Fprintf(out, "\n%d of %d pages hold a job posting.\n", found, len(results))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
