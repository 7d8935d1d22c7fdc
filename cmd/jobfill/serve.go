package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobfill/internal/detection"
	"github.com/jonathan/jobfill/internal/messaging"
	"github.com/jonathan/jobfill/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background bridge without a browser",
	Long: "Start the HTTP bridge on its own. Postings posted as JOB_DETECTED messages are persisted " +
		"and counted, and the latest one is served on /job.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to port from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	bus := messaging.NewBus(0)
	defer bus.Close()
	slot := detection.NewSlot()

	persist, unsubPersist := bus.Subscribe(messaging.TypeJobDetected)
	defer unsubPersist()
	latest, unsubLatest := bus.Subscribe(messaging.TypeJobDetected)
	defer unsubLatest()

	port := servePort
	if port == 0 {
		port = cfg.Port
	}
	srv, err := server.New(server.Config{Port: port, RateLimit: cfg.RateLimitConfig()}, server.Deps{
		Bus:   bus,
		Jobs:  slot,
		Store: s,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		messaging.NewBackground(s).Run(gctx, persist)
		return nil
	})
	g.Go(func() error {
		trackLatest(gctx, slot, latest)
		return nil
	})
	g.Go(func() error { return srv.Start(gctx) })

	return g.Wait()
}

// trackLatest keeps slot pointing at the most recently announced posting.
func trackLatest(ctx context.Context, slot detection.JobHolder, ch <-chan messaging.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if job, err := msg.Job(); err == nil {
				slot.SetDetectedJob(job)
			}
		}
	}
}

