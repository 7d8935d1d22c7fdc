package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobfill/internal/autofill"
	"github.com/jonathan/jobfill/internal/browser"
	"github.com/jonathan/jobfill/internal/content"
	"github.com/jonathan/jobfill/internal/messaging"
	"github.com/jonathan/jobfill/internal/observability"
	"github.com/jonathan/jobfill/internal/server"
	"github.com/jonathan/jobfill/internal/store"
	"github.com/jonathan/jobfill/internal/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Attach to a live page, detect the job and serve the bridge",
	Long: "Open the page in a browser and keep watching it: detect the posting as it renders, " +
		"persist detections, and accept AUTOFILL / ATTACH_RESUME / REDETECT triggers over HTTP.",
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchPort     int
	watchNoServer bool
	watchAutofill bool
)

func init() {
	watchCmd.Flags().IntVar(&watchPort, "port", 0, "Bridge port (defaults to port from config)")
	watchCmd.Flags().BoolVar(&watchNoServer, "no-server", false, "Do not start the HTTP bridge")
	watchCmd.Flags().BoolVar(&watchAutofill, "autofill", false, "Fill the form as soon as it is ready")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !isURL(args[0]) {
		return fmt.Errorf("watch needs a URL")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	extractor, err := newExtractor()
	if err != nil {
		return err
	}

	tab, err := browser.NewSession(ctx, browserOptions())
	if err != nil {
		return err
	}
	defer tab.Close()
	if err := tab.Navigate(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}

	bus := messaging.NewBus(0)
	defer bus.Close()

	engine := autofill.New(browser.NewTypist(tab),
		autofill.WithPacer(cfg.Pacer()),
		autofill.WithRecorder(store.Recorder{Store: s}),
		autofill.WithNotifier(consoleNotifier(out)),
	)
	printer := observability.NewPrinter(out)
	session := content.New(tab, engine, store.Profiles{Store: s}, bus,
		content.WithConfig(cfg.SessionConfig()),
		content.WithExtractor(extractor),
		content.WithPanelOpener(content.PanelOpenerFunc(func(job types.JobPosting) {
			printer.PrintJob(&job)
		})),
	)

	// Subscribe before anything can publish.
	detected, unsubDetected := bus.Subscribe(messaging.TypeJobDetected)
	defer unsubDetected()
	completed, unsubCompleted := bus.Subscribe(messaging.TypeAutofillComplete)
	defer unsubCompleted()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		messaging.NewBackground(s).Run(gctx, detected)
		return nil
	})
	g.Go(func() error {
		reportResults(gctx, printer, completed)
		return nil
	})
	g.Go(func() error {
		session.Run(gctx)
		return nil
	})

	if watchAutofill {
		g.Go(func() error {
			return autofillWhenReady(gctx, session, bus)
		})
	}

	if !watchNoServer {
		port := watchPort
		if port == 0 {
			port = cfg.Port
		}
		srv, err := server.New(server.Config{Port: port, RateLimit: cfg.RateLimitConfig()}, server.Deps{
			Bus:   bus,
			Jobs:  session,
			Store: s,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Start(gctx) })
		fmt.Fprintf(out, "Bridge listening on http://localhost:%d\n", port)
	}

	fmt.Fprintln(out, "Watching page. Press Ctrl+C to stop.")
	return g.Wait()
}

// reportResults prints each AUTOFILL_COMPLETE payload.
func reportResults(ctx context.Context, printer *observability.Printer, ch <-chan messaging.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var res messaging.AutofillResult
			if err := json.Unmarshal(msg.Data, &res); err != nil {
				log.Warn().Err(err).Msg("bad autofill result")
				continue
			}
			var err error
			if res.Error != "" {
				err = fmt.Errorf("%s", res.Error)
			}
			printer.PrintAutofillResult(res.Filled, err)
		}
	}
}

// formWaiter is the part of a session autofillWhenReady needs.
type formWaiter interface {
	FormReady() bool
}

// autofillWhenReady posts one AUTOFILL trigger once the form is ready.
func autofillWhenReady(ctx context.Context, session formWaiter, bus *messaging.Bus) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if session.FormReady() {
				bus.Publish(messaging.Message{Type: messaging.TypeAutofill})
				return nil
			}
		}
	}
}

