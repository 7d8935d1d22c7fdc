package fetch

import (
	"context"

	"github.com/jonathan/jobfill/internal/page"
)

// Source snapshots a page by fetching it over HTTP on every call.
type Source struct {
	URL     string
	Options *Options
}

// NewSource returns a Source for urlStr.
func NewSource(urlStr string, opts *Options) *Source {
	return &Source{URL: urlStr, Options: opts}
}

// Snapshot implements page.Source.
func (s *Source) Snapshot(ctx context.Context) (*page.Snapshot, error) {
	res, err := URL(ctx, s.URL, s.Options)
	if err != nil {
		return nil, err
	}
	snap, err := page.Parse(res.URL, res.HTML)
	if err != nil {
		return nil, &Error{URL: s.URL, Message: "failed to parse HTML", Cause: err}
	}
	return snap, nil
}
