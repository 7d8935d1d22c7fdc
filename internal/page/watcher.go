package page

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/safe"
)

// JobIndicativeSelector matches nodes whose arrival suggests a new job view.
const JobIndicativeSelector = `h1, [data-testid="job-title"], [data-jk]`

// DefaultPollInterval is how often a Watcher re-snapshots its source.
const DefaultPollInterval = 250 * time.Millisecond

// Change describes what differed between two consecutive snapshots.
type Change struct {
	// Any is true whenever the document changed at all.
	Any bool
	// JobNodes is true when job-indicative nodes were added.
	JobNodes bool
}

// Watcher turns successive snapshots into mutation notifications, standing in
// for a DOM MutationObserver.
type Watcher struct {
	src      Source
	interval time.Duration

	primed   bool
	lastHash string
	lastJobs map[string]int
}

// NewWatcher creates a Watcher polling src every interval.
func NewWatcher(src Source, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{src: src, interval: interval}
}

// Check takes one snapshot and compares it with the previous one. The first
// call only records a baseline and reports no change.
func (w *Watcher) Check(ctx context.Context) (Change, error) {
	snap, err := w.src.Snapshot(ctx)
	if err != nil {
		return Change{}, err
	}

	html, err := snap.Doc.Html()
	if err != nil {
		return Change{}, fmt.Errorf("render snapshot: %w", err)
	}
	sum := sha256.Sum256([]byte(html))
	hash := hex.EncodeToString(sum[:])
	jobs := jobNodeCounts(snap.Doc)

	if !w.primed {
		w.primed = true
		w.lastHash = hash
		w.lastJobs = jobs
		return Change{}, nil
	}

	var c Change
	if hash != w.lastHash {
		c.Any = true
		for key, n := range jobs {
			if n > w.lastJobs[key] {
				c.JobNodes = true
				break
			}
		}
	}

	w.lastHash = hash
	w.lastJobs = jobs
	return c, nil
}

// Run polls until ctx is done, calling onChange for every detected change.
// Snapshot errors are logged and polling continues; a panic in a check or in
// onChange is recovered and polling continues too.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = safe.Do("watcher.check", func() error {
				c, err := w.Check(ctx)
				if err != nil {
					log.Debug().Err(err).Msg("watcher: snapshot failed")
					return nil
				}
				if c.Any {
					onChange(c)
				}
				return nil
			})
		}
	}
}

func jobNodeCounts(doc *goquery.Document) map[string]int {
	counts := make(map[string]int)
	doc.Find(JobIndicativeSelector).Each(func(_ int, s *goquery.Selection) {
		key := goquery.NodeName(s) + "|" + s.AttrOr("data-jk", "") + "|" + strings.TrimSpace(s.Text())
		counts[key]++
	})
	return counts
}
