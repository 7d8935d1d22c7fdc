package detection

import (
	"sync"

	"github.com/jonathan/jobfill/internal/types"
)

// JobHolder gives page components access to the last detected job without
// re-running DOM queries.
type JobHolder interface {
	DetectedJob() *types.JobPosting
	SetDetectedJob(job *types.JobPosting)
}

// Slot is the in-memory JobHolder for one page session. The detector is its
// only writer; readers get a copy.
type Slot struct {
	mu  sync.RWMutex
	job *types.JobPosting
}

// NewSlot creates an empty Slot.
func NewSlot() *Slot {
	return &Slot{}
}

// DetectedJob returns a copy of the held job, or nil.
func (s *Slot) DetectedJob() *types.JobPosting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.job == nil {
		return nil
	}
	job := *s.job
	return &job
}

// SetDetectedJob replaces the held job. A nil job clears the slot.
func (s *Slot) SetDetectedJob(job *types.JobPosting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job == nil {
		s.job = nil
		return
	}
	copied := *job
	s.job = &copied
}
