// Package extract detects job postings in a page snapshot using a per-site
// selector table with a generic fallback.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/types"
)

// Extractor runs site dispatch and selector lookup over snapshots.
type Extractor struct {
	strategies []Strategy
	now        func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrategies adds site strategies that take precedence over the built-ins.
func WithStrategies(extra ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies = append(append([]Strategy{}, extra...), e.strategies...)
	}
}

// WithClock overrides the detection timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New creates an Extractor over the built-in site table.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: BuiltinStrategies(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the strategy that applies to snap.
func (e *Extractor) Strategy(snap *page.Snapshot) Strategy {
	host, path := snap.Host(), snap.Path()
	for _, s := range e.strategies {
		if s.Matches(host, path) {
			return s
		}
	}
	return GenericStrategy()
}

// Detect extracts a job posting from snap. It returns false when the title or
// company cannot be found; a miss is not an error.
func (e *Extractor) Detect(snap *page.Snapshot) (*types.JobPosting, bool) {
	if snap == nil || snap.Doc == nil {
		return nil, false
	}

	s := e.Strategy(snap)
	doc := snap.Doc

	title := firstText(doc, s.Title)
	company := firstText(doc, s.Company)
	if title == "" || company == "" {
		log.Debug().
			Str("platform", string(s.Name)).
			Str("url", snap.URL).
			Bool("title", title != "").
			Bool("company", company != "").
			Msg("no job detected on this page")
		return nil, false
	}

	job := &types.JobPosting{
		Title:       title,
		Company:     company,
		Location:    firstText(doc, s.Location),
		Description: firstBlock(doc, append(append([]string{}, s.Description...), descriptionFallback...)),
		SourceURL:   snap.URL,
		Platform:    string(s.Name),
		DetectedAt:  e.now().UTC(),
	}

	log.Debug().
		Str("platform", job.Platform).
		Str("title", job.Title).
		Str("company", job.Company).
		Msg("job detected")
	return job, true
}

var defaultExtractor = New()

// Detect runs the default Extractor.
func Detect(snap *page.Snapshot) (*types.JobPosting, bool) {
	return defaultExtractor.Detect(snap)
}

// firstText returns the first non-empty single-line value among candidates.
func firstText(doc *goquery.Document, candidates []string) string {
	for _, c := range candidates {
		if v := collapseSpace(lookup(doc, c)); v != "" {
			return v
		}
	}
	return ""
}

// firstBlock is firstText for multi-line content; line breaks are kept.
func firstBlock(doc *goquery.Document, candidates []string) string {
	for _, c := range candidates {
		if v := cleanWhitespace(lookup(doc, c)); v != "" {
			return v
		}
	}
	return ""
}

// lookup evaluates one candidate. A plain selector yields the first match's
// text, falling back to its title attribute; "selector@attr" yields the attribute.
func lookup(doc *goquery.Document, candidate string) string {
	selector, attr := splitCandidate(candidate)
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	if attr != "" {
		return sel.AttrOr(attr, "")
	}
	if text := strings.TrimSpace(sel.Text()); text != "" {
		return text
	}
	return sel.AttrOr("title", "")
}

func splitCandidate(candidate string) (selector, attr string) {
	i := strings.LastIndex(candidate, "@")
	if i <= 0 || strings.ContainsAny(candidate[i+1:], " []'\"=") {
		return candidate, ""
	}
	return candidate[:i], candidate[i+1:]
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanWhitespace trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
