package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/safe"
	"github.com/jonathan/jobfill/internal/types"
)

const (
	// DefaultRetryInterval is the wait between retry passes.
	DefaultRetryInterval = 500 * time.Millisecond
	// DefaultMaxRetries is the number of timer-driven retries after the first pass.
	DefaultMaxRetries = 10
	// DefaultDebounce delays a mutation-triggered pass so bursts collapse into one.
	DefaultDebounce = time.Second
)

// JobDetector extracts a job from a snapshot.
type JobDetector interface {
	Detect(snap *page.Snapshot) (*types.JobPosting, bool)
}

// Config controls retry and debounce timing.
type Config struct {
	RetryInterval time.Duration
	MaxRetries    int
	Debounce      time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		RetryInterval: DefaultRetryInterval,
		MaxRetries:    DefaultMaxRetries,
		Debounce:      DefaultDebounce,
	}
}

// Detector owns the detection state machine for one page.
type Detector struct {
	src        page.Source
	extractor  JobDetector
	holder     JobHolder
	cfg        Config
	onDetected func(*types.JobPosting)

	mu      sync.Mutex
	state   State
	retries int

	mutations chan struct{}
	manual    chan struct{}
}

// New creates a Detector. onDetected may be nil.
func New(src page.Source, extractor JobDetector, holder JobHolder, cfg Config, onDetected func(*types.JobPosting)) *Detector {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	return &Detector{
		src:        src,
		extractor:  extractor,
		holder:     holder,
		cfg:        cfg,
		onDetected: onDetected,
		state:      Idle,
		mutations:  make(chan struct{}, 1),
		manual:     make(chan struct{}, 1),
	}
}

// State returns the current state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Handle feeds one event through the state machine, running a detection pass
// if the transition table calls for one, and returns the resulting state.
func (d *Detector) Handle(ctx context.Context, ev Event) State {
	from := d.State()
	if !RunsPass(from, ev) {
		return from
	}

	found := d.pass(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	exhausted := false
	if from == Detecting && ev == TimerTick && !found {
		d.retries++
		exhausted = d.retries >= d.cfg.MaxRetries
	}
	if from == Idle && !found && d.cfg.MaxRetries == 0 {
		d.state = GaveUp
		return d.state
	}

	d.state = Next(from, ev, found, exhausted)
	log.Debug().
		Str("event", ev.String()).
		Str("from", from.String()).
		Str("to", d.state.String()).
		Int("retries", d.retries).
		Msg("detection transition")
	return d.state
}

// NotifyMutation reports a DOM mutation. It never blocks; bursts coalesce.
func (d *Detector) NotifyMutation() {
	select {
	case d.mutations <- struct{}{}:
	default:
	}
}

// Trigger requests an immediate detection pass. It never blocks.
func (d *Detector) Trigger() {
	select {
	case d.manual <- struct{}{}:
	default:
	}
}

// Run performs the initial pass and then serves timer, mutation and manual
// events until ctx is done. All passes run on the calling goroutine.
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.RetryInterval)
	defer ticker.Stop()

	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	d.Handle(ctx, ManualTrigger)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.State() == Detecting {
				d.Handle(ctx, TimerTick)
			}
		case <-d.mutations:
			if fire == nil {
				debounce = time.NewTimer(d.cfg.Debounce)
				fire = debounce.C
			}
		case <-fire:
			fire = nil
			log.Debug().Msg("page content changed, re-detecting job")
			d.Handle(ctx, MutationEvent)
		case <-d.manual:
			d.Handle(ctx, ManualTrigger)
		}
	}
}

// pass runs one detection. Failures of any kind count as a miss.
func (d *Detector) pass(ctx context.Context) bool {
	found := false
	_ = safe.Do("detect", func() error {
		snap, err := d.src.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}
		job, ok := d.extractor.Detect(snap)
		if !ok {
			return nil
		}
		d.holder.SetDetectedJob(job)
		found = true
		if d.onDetected != nil {
			d.onDetected(job)
		}
		return nil
	})
	return found
}
