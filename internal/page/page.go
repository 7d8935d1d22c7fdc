// Package page models the DOM of the page a session is attached to.
// A Snapshot is a parse of the page at one moment; a Source hands out fresh
// snapshots so callers never hold on to stale DOM.
package page

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a parsed copy of a page's DOM together with its URL.
type Snapshot struct {
	URL string
	Doc *goquery.Document
}

// Parse builds a Snapshot from raw HTML.
func Parse(pageURL, html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Snapshot{URL: pageURL, Doc: doc}, nil
}

// Host returns the lower-cased host of the snapshot URL, or "" if unparsable.
func (s *Snapshot) Host() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Path returns the URL path of the snapshot.
func (s *Snapshot) Path() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return u.Path
}

// Source produces snapshots of a page.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Static is a Source over an in-memory HTML document. SetHTML replaces the
// document, which is how tests and dry runs simulate page mutations.
type Static struct {
	mu   sync.RWMutex
	url  string
	html string
}

// NewStatic creates a Static source.
func NewStatic(pageURL, html string) *Static {
	return &Static{url: pageURL, html: html}
}

// SetHTML replaces the page content.
func (s *Static) SetHTML(html string) {
	s.mu.Lock()
	s.html = html
	s.mu.Unlock()
}

// HTML returns the current page content.
func (s *Static) HTML() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.html
}

// Snapshot parses the current page content.
func (s *Static) Snapshot(_ context.Context) (*Snapshot, error) {
	s.mu.RLock()
	pageURL, html := s.url, s.html
	s.mu.RUnlock()
	return Parse(pageURL, html)
}
