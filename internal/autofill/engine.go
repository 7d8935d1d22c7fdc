// Package autofill fills classified application-form fields from a resume
// profile, one field at a time, typing like a person would.
package autofill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/letters"
	"github.com/jonathan/jobfill/internal/safe"
	"github.com/jonathan/jobfill/internal/types"
)

var (
	// ErrStaleElement means a field's element was detached or replaced
	// before it could be filled.
	ErrStaleElement = errors.New("form element is no longer attached")
	// ErrNoProfile means no resume profile was available to fill from.
	ErrNoProfile = errors.New("no resume profile available")
	// ErrNoResumeField means the page has no resume upload input.
	ErrNoResumeField = errors.New("no resume upload field found")
	// ErrAttachUnsupported means the typist cannot drive file inputs.
	ErrAttachUnsupported = errors.New("typist cannot attach files")
)

// User-facing notification texts.
const (
	MsgFilled           = "Successfully filled %d fields with your resume data!"
	MsgNoMatchingFields = "No matching fields found to fill."
	MsgNoProfile        = "No resume data available. Please set up your resume first."
	MsgFilePickerOpened = "File picker opened. Please select your resume file."
	MsgResumeAttached   = "Resume file attached."
	MsgNoResumeField    = "No resume upload field found on this page."
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Recorder persists an application record after a successful fill.
type Recorder interface {
	RecordApplication(ctx context.Context, rec types.ApplicationRecord) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, rec types.ApplicationRecord) error

func (f RecorderFunc) RecordApplication(ctx context.Context, rec types.ApplicationRecord) error {
	return f(ctx, rec)
}

// Engine fills form fields through a Typist.
type Engine struct {
	typist   Typist
	pacer    Pacer
	recorder Recorder
	notifier Notifier
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPacer sets the typing pacer. The default is NewRandomPacer.
func WithPacer(p Pacer) Option { return func(e *Engine) { e.pacer = p } }

// WithRecorder sets where application records go.
func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

// WithNotifier sets the user notification sink.
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithClock overrides time.Now for application timestamps.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New creates an Engine typing through typist.
func New(typist Typist, opts ...Option) *Engine {
	e := &Engine{
		typist: typist,
		pacer:  NewRandomPacer(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValueFor maps a field category to the profile value that fills it.
// Resume uploads are not typed and map to "".
func ValueFor(category forms.Category, profile *types.ResumeProfile, job *types.JobPosting) string {
	if profile == nil {
		return ""
	}
	info := profile.PersonalInfo
	switch category {
	case forms.CategoryFirstName:
		return info.FirstName()
	case forms.CategoryLastName:
		return info.LastName()
	case forms.CategoryFullName:
		return strings.TrimSpace(info.Name)
	case forms.CategoryEmail:
		return info.Email
	case forms.CategoryPhone:
		return info.Phone
	case forms.CategoryLocation:
		return info.Location
	case forms.CategoryLinkedIn:
		return info.LinkedIn
	case forms.CategoryGitHub:
		return info.GitHub
	case forms.CategoryCoverLetter:
		return letters.CoverLetter(info, profile.SummaryText, job)
	default:
		return ""
	}
}

// Autofill fills fields in order and returns how many were filled.
// Zero-confidence fields and fields whose value is empty are skipped. A field
// that fails to type, stale or otherwise, is logged and skipped. Only a nil
// profile or a cancelled ctx end the pass early.
func (e *Engine) Autofill(ctx context.Context, fields []forms.FormField, profile *types.ResumeProfile, job *types.JobPosting) (int, error) {
	if profile == nil {
		e.notify(LevelError, MsgNoProfile)
		return 0, ErrNoProfile
	}

	fillCount := 0
	for _, field := range fields {
		if field.Confidence == 0 {
			continue
		}
		value := ValueFor(field.Category, profile, job)
		if value == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fillCount, err
		}

		err := safe.Do("autofill.type", func() error {
			return e.typist.Type(ctx, field, value, e.pacer)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fillCount, ctxErr
			}
			log.Debug().Bool("stale", errors.Is(err, ErrStaleElement)).Str("selector", field.Selector).Msg("skipping field")
			continue
		}
		fillCount++
		log.Debug().Str("selector", field.Selector).Str("category", string(field.Category)).Msg("filled field")

		if err := Pause(ctx, e.pacer.FieldDelay()); err != nil {
			return fillCount, err
		}
	}

	if fillCount == 0 {
		e.notify(LevelError, MsgNoMatchingFields)
		return 0, nil
	}

	e.notify(LevelSuccess, fmt.Sprintf(MsgFilled, fillCount))
	if job != nil && e.recorder != nil {
		rec := types.NewApplicationRecord(*job, profile.VersionID, e.now())
		if err := e.recorder.RecordApplication(ctx, rec); err != nil {
			log.Warn().Err(err).Str("company", job.Company).Msg("failed to record application")
		}
	}
	return fillCount, nil
}

// AttachResume finds the resume upload input among fields and hands it to the
// typist. An empty path opens the file picker instead of attaching a file.
func (e *Engine) AttachResume(ctx context.Context, fields []forms.FormField, path string) error {
	field, ok := ResumeField(fields)
	if !ok {
		e.notify(LevelError, MsgNoResumeField)
		return ErrNoResumeField
	}
	attacher, ok := e.typist.(Attacher)
	if !ok {
		return ErrAttachUnsupported
	}

	if err := attacher.Attach(ctx, field, path); err != nil {
		return fmt.Errorf("attach resume to %s: %w", field.Selector, err)
	}
	if path == "" {
		e.notify(LevelSuccess, MsgFilePickerOpened)
	} else {
		e.notify(LevelSuccess, MsgResumeAttached)
	}
	return nil
}

// ResumeField returns the first file input whose name or label mentions a
// resume or CV, regardless of its confidence.
func ResumeField(fields []forms.FormField) (forms.FormField, bool) {
	for _, f := range fields {
		if f.Kind != forms.KindFile {
			continue
		}
		name := strings.ToLower(f.RawName)
		label := strings.ToLower(f.RawLabel)
		for _, word := range []string{"resume", "cv"} {
			if strings.Contains(name, word) || strings.Contains(label, word) {
				return f, true
			}
		}
	}
	return forms.FormField{}, false
}

func (e *Engine) notify(level Level, message string) {
	if e.notifier == nil {
		log.Info().Str("level", string(level)).Msg(message)
		return
	}
	e.notifier.Notify(level, message)
}
