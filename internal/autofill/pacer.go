package autofill

import (
	"context"
	"math/rand/v2"
	"time"
)

// Typing delays used by NewRandomPacer.
const (
	DefaultCharDelayMin  = 30 * time.Millisecond
	DefaultCharDelayMax  = 80 * time.Millisecond
	DefaultFieldDelayMin = 200 * time.Millisecond
	DefaultFieldDelayMax = 500 * time.Millisecond
)

// Pacer decides how long to wait between typed characters and between
// filled fields.
type Pacer interface {
	CharDelay() time.Duration
	FieldDelay() time.Duration
}

// RandomPacer draws delays uniformly from [Min, Max).
type RandomPacer struct {
	CharMin, CharMax   time.Duration
	FieldMin, FieldMax time.Duration
}

// NewRandomPacer returns a pacer with the default human-like bounds.
func NewRandomPacer() *RandomPacer {
	return &RandomPacer{
		CharMin:  DefaultCharDelayMin,
		CharMax:  DefaultCharDelayMax,
		FieldMin: DefaultFieldDelayMin,
		FieldMax: DefaultFieldDelayMax,
	}
}

func (p *RandomPacer) CharDelay() time.Duration  { return between(p.CharMin, p.CharMax) }
func (p *RandomPacer) FieldDelay() time.Duration { return between(p.FieldMin, p.FieldMax) }

func between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

type noDelay struct{}

func (noDelay) CharDelay() time.Duration  { return 0 }
func (noDelay) FieldDelay() time.Duration { return 0 }

// NoDelay never waits.
var NoDelay Pacer = noDelay{}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
