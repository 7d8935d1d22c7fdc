// Package types provides the data model shared by detection, autofill and storage.
package types

import (
	"strings"
	"time"
)

// JobPosting is a job summary scraped from a third-party job page.
// A posting is never mutated after detection; a re-scan produces a new value.
type JobPosting struct {
	Title       string    `json:"title" validate:"required"`
	Company     string    `json:"company" validate:"required"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	SourceURL   string    `json:"sourceUrl"`
	Platform    string    `json:"platform,omitempty"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// PlaceholderJob is shown in the review panel when nothing has been detected.
var PlaceholderJob = JobPosting{Title: "Job Title", Company: "Company"}

// SameAs reports whether two postings describe the same job, ignoring when
// each was detected.
func (j *JobPosting) SameAs(other *JobPosting) bool {
	if j == nil || other == nil {
		return j == other
	}
	return j.Title == other.Title &&
		j.Company == other.Company &&
		j.Location == other.Location &&
		j.Description == other.Description &&
		j.SourceURL == other.SourceURL &&
		j.Platform == other.Platform
}

// IsComplete reports whether the posting has the two fields detection requires.
func (j *JobPosting) IsComplete() bool {
	return j != nil && strings.TrimSpace(j.Title) != "" && strings.TrimSpace(j.Company) != ""
}
