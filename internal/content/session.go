// Package content runs everything attached to one job page: job detection,
// application-form watching, autofill and the message loop that drives them.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/autofill"
	"github.com/jonathan/jobfill/internal/detection"
	"github.com/jonathan/jobfill/internal/extract"
	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/messaging"
	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/safe"
	"github.com/jonathan/jobfill/internal/types"
)

const (
	// DefaultFormCheckDelay is the wait before the first application-form check.
	DefaultFormCheckDelay = 2 * time.Second
	// DefaultFormDebounce delays a form re-check after the page changes.
	DefaultFormDebounce = time.Second
)

// ProfileLoader supplies the resume profile autofill uses.
type ProfileLoader interface {
	LoadProfile(ctx context.Context) (*types.ResumeProfile, error)
}

// PanelOpener shows the review panel for a job.
type PanelOpener interface {
	OpenPanel(job types.JobPosting)
}

// PanelOpenerFunc adapts a function to PanelOpener.
type PanelOpenerFunc func(job types.JobPosting)

func (f PanelOpenerFunc) OpenPanel(job types.JobPosting) { f(job) }

// Config holds session timings.
type Config struct {
	Detection      detection.Config
	PollInterval   time.Duration
	FormCheckDelay time.Duration
	FormDebounce   time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		Detection:      detection.DefaultConfig(),
		PollInterval:   page.DefaultPollInterval,
		FormCheckDelay: DefaultFormCheckDelay,
		FormDebounce:   DefaultFormDebounce,
	}
}

// Session is the per-page controller.
type Session struct {
	src      page.Source
	slot     *detection.Slot
	detector *detection.Detector
	watcher  *page.Watcher
	engine   *autofill.Engine
	profiles ProfileLoader
	bus      *messaging.Bus
	panel    PanelOpener
	cfg      Config

	extractor *extract.Extractor
	formReady atomic.Bool
	changes   chan struct{}
	fillMu    sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithConfig replaces the default timings.
func WithConfig(cfg Config) Option { return func(s *Session) { s.cfg = cfg } }

// WithExtractor sets the job extractor. The default uses the built-in sites.
func WithExtractor(e *extract.Extractor) Option { return func(s *Session) { s.extractor = e } }

// WithPanelOpener sets what OPEN_ANALYSIS_PANEL does. The default logs.
func WithPanelOpener(p PanelOpener) Option { return func(s *Session) { s.panel = p } }

// New creates a Session over src. Messages are exchanged on bus.
func New(src page.Source, engine *autofill.Engine, profiles ProfileLoader, bus *messaging.Bus, opts ...Option) *Session {
	s := &Session{
		src:      src,
		slot:     detection.NewSlot(),
		engine:   engine,
		profiles: profiles,
		bus:      bus,
		cfg:      DefaultConfig(),
		changes:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = extract.New()
	}
	if s.panel == nil {
		s.panel = PanelOpenerFunc(func(job types.JobPosting) {
			log.Info().Str("title", job.Title).Str("company", job.Company).Msg("opening review panel")
		})
	}

	s.detector = detection.New(src, s.extractor, s.slot, s.cfg.Detection, s.announce)
	s.watcher = page.NewWatcher(src, s.cfg.PollInterval)
	return s
}

// Run drives the session until ctx is done. Detection and page watching run
// on their own goroutines; messages and form checks are handled here, one at
// a time.
func (s *Session) Run(ctx context.Context) {
	inbox, unsubscribe := s.bus.Subscribe(
		messaging.TypeOpenAnalysisPanel,
		messaging.TypeAutofill,
		messaging.TypeAttachResume,
		messaging.TypeRedetect,
	)
	defer unsubscribe()

	var wg sync.WaitGroup
	safe.Go(&wg, "session.detector", func() error {
		s.detector.Run(ctx)
		return nil
	})
	safe.Go(&wg, "session.watcher", func() error {
		s.watcher.Run(ctx, s.onChange)
		return nil
	})
	defer wg.Wait()

	formTimer := time.NewTimer(s.cfg.FormCheckDelay)
	defer formTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			_ = safe.Do("session."+string(msg.Type), func() error {
				return s.HandleMessage(ctx, msg)
			})
		case <-s.changes:
			if !formTimer.Stop() {
				select {
				case <-formTimer.C:
				default:
				}
			}
			formTimer.Reset(s.cfg.FormDebounce)
		case <-formTimer.C:
			_ = safe.Do("session.form-check", func() error {
				s.CheckForm(ctx)
				return nil
			})
		}
	}
}

// HandleMessage reacts to one inbound message.
func (s *Session) HandleMessage(ctx context.Context, msg messaging.Message) error {
	switch msg.Type {
	case messaging.TypeOpenAnalysisPanel:
		s.OpenPanel()
	case messaging.TypeAutofill:
		_, err := s.Autofill(ctx)
		if errors.Is(err, autofill.ErrNoProfile) {
			return nil
		}
		return err
	case messaging.TypeAttachResume:
		var req messaging.AttachRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				return fmt.Errorf("failed to decode attach request: %w", err)
			}
		}
		return s.AttachResume(ctx, req.Path)
	case messaging.TypeRedetect:
		s.detector.Trigger()
	default:
		log.Debug().Str("type", string(msg.Type)).Msg("ignoring message")
	}
	return nil
}

// OpenPanel opens the review panel for the detected job, or for a
// placeholder when nothing has been detected.
func (s *Session) OpenPanel() {
	job := types.PlaceholderJob
	if detected := s.slot.DetectedJob(); detected != nil {
		job = *detected
	}
	s.panel.OpenPanel(job)
}

// Autofill classifies the current page and fills it from the stored profile.
// A profile that cannot be loaded is treated as missing.
func (s *Session) Autofill(ctx context.Context) (int, error) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	snap, err := s.src.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	fields := forms.Classify(snap)

	profile, err := s.profiles.LoadProfile(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not load resume profile")
		profile = nil
	}

	filled, err := s.engine.Autofill(ctx, fields, profile, s.slot.DetectedJob())
	s.publish(messaging.TypeAutofillComplete, result(filled, err))
	return filled, err
}

// AttachResume attaches the resume file at path, or opens the file picker
// when path is empty.
func (s *Session) AttachResume(ctx context.Context, path string) error {
	snap, err := s.src.Snapshot(ctx)
	if err != nil {
		return err
	}
	err = s.engine.AttachResume(ctx, forms.Classify(snap), path)
	if errors.Is(err, autofill.ErrNoResumeField) {
		return nil
	}
	return err
}

// CheckForm looks for an application form and records the answer.
func (s *Session) CheckForm(ctx context.Context) bool {
	snap, err := s.src.Snapshot(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("form check snapshot failed")
		return s.formReady.Load()
	}
	ready := forms.HasApplicationForm(snap)
	if ready && !s.formReady.Load() {
		log.Info().Str("url", snap.URL).Msg("job application form detected")
	}
	s.formReady.Store(ready)
	return ready
}

// FormReady reports whether the last form check found an application form.
func (s *Session) FormReady() bool { return s.formReady.Load() }

// DetectedJob returns the last detected job, or nil.
func (s *Session) DetectedJob() *types.JobPosting { return s.slot.DetectedJob() }

// DetectionState returns the detector's current state.
func (s *Session) DetectionState() detection.State { return s.detector.State() }

// Redetect requests a detection pass.
func (s *Session) Redetect() { s.detector.Trigger() }

func (s *Session) onChange(c page.Change) {
	if c.JobNodes {
		s.detector.NotifyMutation()
	}
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) announce(job *types.JobPosting) {
	msg, err := messaging.JobDetected(*job)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode detected job")
		return
	}
	s.bus.Publish(msg)
}

func (s *Session) publish(t messaging.Type, data any) {
	msg, err := messaging.New(t, data)
	if err != nil {
		log.Warn().Err(err).Str("type", string(t)).Msg("failed to encode message")
		return
	}
	s.bus.Publish(msg)
}

func result(filled int, err error) messaging.AutofillResult {
	r := messaging.AutofillResult{Filled: filled}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
