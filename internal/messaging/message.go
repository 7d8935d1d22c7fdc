// Package messaging carries typed messages between a page session and the
// processes that react to it.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/jobfill/internal/types"
)

// Type names a message.
type Type string

const (
	// TypeOpenAnalysisPanel asks the session to open the review panel.
	TypeOpenAnalysisPanel Type = "OPEN_ANALYSIS_PANEL"
	// TypeJobDetected carries a freshly detected posting outward.
	TypeJobDetected Type = "JOB_DETECTED"
	// TypeAutofill asks the session to classify and fill the current form.
	TypeAutofill Type = "AUTOFILL"
	// TypeAttachResume asks the session to attach the resume file.
	TypeAttachResume Type = "ATTACH_RESUME"
	// TypeRedetect forces a detection pass.
	TypeRedetect Type = "REDETECT"
	// TypeAutofillComplete reports the outcome of an autofill pass.
	TypeAutofillComplete Type = "AUTOFILL_COMPLETE"
)

// ErrMissingData means a message type that needs a payload arrived without one.
var ErrMissingData = errors.New("message data is required")

var validate = validator.New()

// Message is the envelope exchanged between contexts.
type Message struct {
	Type Type            `json:"type" validate:"required,oneof=OPEN_ANALYSIS_PANEL JOB_DETECTED AUTOFILL ATTACH_RESUME REDETECT AUTOFILL_COMPLETE"`
	Data json.RawMessage `json:"data,omitempty"`
}

// AutofillResult is the payload of TypeAutofillComplete.
type AutofillResult struct {
	Filled int    `json:"filled"`
	Error  string `json:"error,omitempty"`
}

// AttachRequest is the optional payload of TypeAttachResume.
type AttachRequest struct {
	Path string `json:"path,omitempty"`
}

// Validate checks the envelope and, for job messages, the posting itself.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return err
	}
	if m.Type == TypeJobDetected {
		job, err := m.Job()
		if err != nil {
			return err
		}
		if err := validate.Struct(job); err != nil {
			return fmt.Errorf("invalid job posting: %w", err)
		}
	}
	return nil
}

// Job decodes the posting carried by a JOB_DETECTED message.
func (m Message) Job() (*types.JobPosting, error) {
	if len(m.Data) == 0 || string(m.Data) == "null" {
		return nil, ErrMissingData
	}
	var job types.JobPosting
	if err := json.Unmarshal(m.Data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job posting: %w", err)
	}
	return &job, nil
}

// Decode parses and validates a message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// New builds a message of type t with data encoded as its payload.
// A nil data leaves the payload empty.
func New(t Type, data any) (Message, error) {
	m := Message{Type: t}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Message{}, fmt.Errorf("failed to encode %s payload: %w", t, err)
		}
		m.Data = raw
	}
	return m, nil
}

// JobDetected builds the outbound detection message for job.
func JobDetected(job types.JobPosting) (Message, error) {
	return New(TypeJobDetected, job)
}
