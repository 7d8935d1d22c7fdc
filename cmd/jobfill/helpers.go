package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/browser"
	"github.com/jonathan/jobfill/internal/extract"
	"github.com/jonathan/jobfill/internal/fetch"
	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/store"
)

// isURL reports whether target names a web page rather than a local file.
func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// openStore opens the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	driver, dsn := cfg.StoreTarget()
	s, err := store.Open(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	log.Debug().Str("driver", driver).Msg("store opened")
	return s, nil
}

// newExtractor builds an extractor with any configured site strategies.
func newExtractor() (*extract.Extractor, error) {
	if cfg.SitesFile == "" {
		return extract.New(), nil
	}
	extra, err := extract.LoadStrategies(cfg.SitesFile)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("count", len(extra)).Str("file", cfg.SitesFile).Msg("loaded site strategies")
	return extract.New(extract.WithStrategies(extra...)), nil
}

// browserOptions returns browser options honoring the headed setting.
func browserOptions() browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = !cfg.Headed
	return opts
}

// loadSnapshot reads target from disk, or fetches it, falling back to a
// headless browser when forced or when the static page looks script-rendered.
func loadSnapshot(ctx context.Context, target string, useBrowser bool, opts *fetch.Options) (*page.Snapshot, error) {
	if !isURL(target) {
		return snapshotFile(target)
	}

	if !useBrowser {
		res, err := fetch.URL(ctx, target, opts)
		if err != nil {
			return nil, err
		}
		snap, err := page.Parse(res.URL, res.HTML)
		if err != nil {
			return nil, err
		}
		if !fetch.ShouldUseBrowser(snap.Doc.Find("body").Text()) {
			return snap, nil
		}
		log.Info().Str("url", target).Msg("page looks script-rendered, retrying in browser")
	}

	html, err := browser.Render(ctx, target, browserOptions())
	if err != nil {
		return nil, err
	}
	return page.Parse(target, html)
}

// snapshotFile parses a saved HTML page. The page URL is the file URL.
func snapshotFile(path string) (*page.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return page.Parse("file://"+filepath.ToSlash(abs), string(data))
}
