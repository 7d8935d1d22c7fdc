package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/jobfill/internal/messaging"
	"github.com/jonathan/jobfill/internal/store"
	"github.com/jonathan/jobfill/internal/types"
)

// maxMessageBytes bounds a posted message body.
const maxMessageBytes = 1 << 20

// inbound lists the message types clients may post.
var inbound = map[messaging.Type]bool{
	messaging.TypeOpenAnalysisPanel: true,
	messaging.TypeAutofill:          true,
	messaging.TypeAttachResume:      true,
	messaging.TypeRedetect:          true,
	messaging.TypeJobDetected:       true,
}

// outbound lists the message types streamed on /events by default.
var outbound = []messaging.Type{
	messaging.TypeJobDetected,
	messaging.TypeAutofillComplete,
}

// MessageResponse acknowledges a posted message.
type MessageResponse struct {
	RequestID string         `json:"request_id"`
	Type      messaging.Type `json:"type"`
	Delivered int            `json:"delivered"`
}

// handleMessage validates a posted message and publishes it on the bus.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		errorResponse(w, http.StatusRequestEntityTooLarge, "message body too large")
		return
	}

	msg, err := messaging.Decode(body)
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "message", Message: err.Error()})
		return
	}
	if !inbound[msg.Type] {
		s.writeError(w, r, &ErrValidation{Field: "type", Message: string(msg.Type) + " cannot be posted"})
		return
	}

	delivered := s.bus.Publish(msg)
	log.Debug().
		Str("request_id", RequestID(r.Context())).
		Str("type", string(msg.Type)).
		Int("delivered", delivered).
		Msg("message published")

	jsonResponse(w, http.StatusAccepted, MessageResponse{
		RequestID: RequestID(r.Context()),
		Type:      msg.Type,
		Delivered: delivered,
	})
}

// handleJob returns the job held by the session.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		s.writeError(w, r, &ErrUnavailable{Component: "session"})
		return
	}
	job := s.jobs.DetectedJob()
	if job == nil {
		s.writeError(w, r, &ErrNotFound{Resource: "job"})
		return
	}
	jsonResponse(w, http.StatusOK, job)
}

// handleApplications lists recorded applications.
func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, &ErrUnavailable{Component: "store"})
		return
	}
	records, err := store.ListApplications(r.Context(), s.store)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []types.ApplicationRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// handleDetectedJobs lists postings persisted by the background process.
func (s *Server) handleDetectedJobs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, &ErrUnavailable{Component: "store"})
		return
	}
	jobs, err := store.ListDetectedJobs(r.Context(), s.store)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []types.JobPosting{}
	}
	jsonResponse(w, http.StatusOK, jobs)
}

// handleEvents streams bus messages as SSE until the client goes away.
// A ?type= query narrows the stream; the held job, if any, is sent first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := outbound
	if q := r.URL.Query()["type"]; len(q) > 0 {
		filter = make([]messaging.Type, 0, len(q))
		for _, t := range q {
			filter = append(filter, messaging.Type(t))
		}
	}

	stream, err := openEventStream(w)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ch, unsubscribe := s.bus.Subscribe(filter...)
	defer unsubscribe()

	if err := stream.Ping("connected"); err != nil {
		return
	}
	if s.jobs != nil {
		if job := s.jobs.DetectedJob(); job != nil {
			if msg, err := messaging.JobDetected(*job); err == nil {
				if err := stream.Send(msg); err != nil {
					return
				}
			}
		}
	}

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := stream.Ping("keep-alive"); err != nil {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				stream.Fail("bus closed")
				return
			}
			if err := stream.Send(msg); err != nil {
				log.Debug().Err(err).Str("request_id", RequestID(r.Context())).Msg("event stream closed")
				return
			}
		}
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps err to a status and writes it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	var verr *ErrValidation
	if errors.As(err, &verr) {
		jsonResponse(w, status, map[string]string{"error": verr.Error(), "field": verr.Field})
		return
	}
	errorResponse(w, status, err.Error())
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
