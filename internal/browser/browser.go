// Package browser drives a headless Chrome tab for pages that need
// JavaScript, and for filling forms on a live page.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/page"
)

// Defaults for Options.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultSettleDelay = 3 * time.Second
)

// Options configures a Session.
type Options struct {
	Headless bool
	// Timeout bounds each navigation.
	Timeout time.Duration
	// SettleDelay is how long to let client-side rendering run after load.
	SettleDelay time.Duration
}

// DefaultOptions returns headless options with the default delays.
func DefaultOptions() Options {
	return Options{Headless: true, Timeout: DefaultTimeout, SettleDelay: DefaultSettleDelay}
}

// Session owns one browser process with a single tab.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
}

// NewSession starts a browser. Requires Chrome/Chromium to be installed.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		opts: opts,
	}

	// an empty Run starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return s, nil
}

// Navigate loads url, waits for the body and the settle delay, and tries to
// dismiss a cookie banner.
func (s *Session) Navigate(ctx context.Context, url string) error {
	log.Debug().Str("url", url).Msg("navigating")

	return s.run(ctx, s.opts.Timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(s.opts.SettleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Click common "Accept" buttons - don't fail if not found
			acceptCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.ByQuery).Do(acceptCtx)
			return nil
		}),
	)
}

// Snapshot implements page.Source over the current tab.
func (s *Session) Snapshot(ctx context.Context) (*page.Snapshot, error) {
	var url, html string
	if err := s.run(ctx, s.opts.Timeout,
		chromedp.Location(&url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to snapshot tab: %w", err)
	}
	return page.Parse(url, html)
}

// Close shuts the browser down.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// run executes actions on the tab, stopping early if ctx is done.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Render loads url in a throwaway headless browser and returns the rendered HTML.
func Render(ctx context.Context, url string, opts Options) (string, error) {
	s, err := NewSession(ctx, opts)
	if err != nil {
		return "", err
	}
	defer s.Close()

	if err := s.Navigate(ctx, url); err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	html, err := snap.Doc.Html()
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	log.Debug().Int("bytes", len(html)).Msg("rendered page")
	return html, nil
}
