// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// descriptionPreview bounds the description shown in the job box
	descriptionPreview = 200
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJob outputs a summary of a detected posting.
func (p *Printer) PrintJob(job *types.JobPosting) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", job.Title))
	sb.WriteString(fmt.Sprintf("Company:  %s\n", job.Company))
	if job.Location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", job.Location))
	}
	if job.Platform != "" {
		sb.WriteString(fmt.Sprintf("Platform: %s\n", job.Platform))
	}
	if job.SourceURL != "" {
		sb.WriteString(fmt.Sprintf("URL:      %s\n", job.SourceURL))
	}
	if job.Description != "" {
		sb.WriteString("\n")
		desc := strings.Join(strings.Fields(job.Description), " ")
		sb.WriteString(wrap(truncate(desc, descriptionPreview), boxWidth-4))
	}

	p.printBox("DETECTED JOB", strings.TrimRight(sb.String(), "\n"))
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// PrintJobs outputs one line per posting, newest last.
func (p *Printer) PrintJobs(jobs []types.JobPosting) {
	if len(jobs) == 0 {
		fmt.Fprintln(p.out, "No detected jobs.") //nolint:errcheck
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total detected: %d\n\n", len(jobs)))
	for i, job := range jobs {
		sb.WriteString(fmt.Sprintf("%s  %s @ %s", job.DetectedAt.Format("2006-01-02"), job.Title, job.Company))
		if i < len(jobs)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("DETECTED JOBS", sb.String())
}

// ConfidenceString renders a confidence score colored by strength.
func ConfidenceString(confidence int) string {
	switch {
	case confidence >= 80:
		return color.GreenString("%d", confidence)
	case confidence >= 50:
		return color.YellowString("%d", confidence)
	case confidence > 0:
		return color.RedString("%d", confidence)
	default:
		return color.New(color.Faint).Sprint("-")
	}
}

// PrintFields outputs the classified fields as a table, strongest first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFields(fields []forms.FormField) {
	if len(fields) == 0 {
		fmt.Fprintln(p.out, "No form fields found.")
		return
	}

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tKIND\tNAME\tLABEL\tSELECTOR\tCONF")
	for _, f := range fields {
		category := string(f.Category)
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			category,
			f.Kind,
			truncate(f.RawName, 24),
			truncate(f.RawLabel, 32),
			truncate(f.Selector, 40),
			ConfidenceString(f.Confidence),
		)
	}
	tw.Flush()

	fillable := forms.Fillable(fields)
	fmt.Fprintf(p.out, "\n%d of %d fields can be filled.\n", len(fillable), len(fields))
}

// PrintApplications outputs recorded applications, most recent first.
func (p *Printer) PrintApplications(records []types.ApplicationRecord) {
	if len(records) == 0 {
		fmt.Fprintln(p.out, "No applications recorded.") //nolint:errcheck
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total applications: %d\n\n", len(records)))

	count := min(len(records), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := records[len(records)-1-i]
		sb.WriteString(fmt.Sprintf("%s  %s @ %s\n", rec.AppliedAt.Format("2006-01-02"), rec.JobTitle, rec.Company))
		sb.WriteString(fmt.Sprintf("    Status: %s", rec.Status))
		if rec.ResumeVersion != "" {
			sb.WriteString(fmt.Sprintf("  Resume: %s", rec.ResumeVersion))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(records) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n\n... and %d more", len(records)-maxItemsToShow))
	}

	p.printBox("APPLICATIONS", sb.String())
}

// PrintAutofillResult outputs the outcome of an autofill pass.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAutofillResult(filled int, err error) {
	if err != nil {
		fmt.Fprintln(p.out, color.RedString("✗ %s", err))
		return
	}
	fmt.Fprintln(p.out, color.GreenString("✓ filled %d fields", filled))
}
