package messaging

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/safe"
	"github.com/jonathan/jobfill/internal/store"
)

// Background persists detections announced on the bus and keeps the badge
// counter, the way an extension's service worker would.
type Background struct {
	store store.Store
	now   func() time.Time
}

// NewBackground returns a handler writing to s.
func NewBackground(s store.Store) *Background {
	return &Background{store: s, now: time.Now}
}

// Handle processes one message. Messages it has no use for are ignored.
func (b *Background) Handle(ctx context.Context, msg Message) error {
	if msg.Type != TypeJobDetected {
		return nil
	}
	job, err := msg.Job()
	if err != nil {
		return err
	}
	if job.DetectedAt.IsZero() {
		job.DetectedAt = b.now()
	}

	key, err := store.SaveDetectedJob(ctx, b.store, *job)
	if err != nil {
		return err
	}
	badge, err := store.IncrementBadge(ctx, b.store)
	if err != nil {
		return err
	}
	log.Info().Str("key", key).Str("title", job.Title).Str("company", job.Company).Int("badge", badge).Msg("job detected")
	return nil
}

// Run handles messages from ch until it closes or ctx is done. A failing
// message is logged and skipped.
func (b *Background) Run(ctx context.Context, ch <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = safe.Do("background."+string(msg.Type), func() error {
				return b.Handle(ctx, msg)
			})
		}
	}
}
