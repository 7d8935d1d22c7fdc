package types

import (
	"strconv"
	"time"
)

// ApplicationStatus is the lifecycle state of a recorded application.
type ApplicationStatus string

// StatusApplied is the only status this module writes.
const StatusApplied ApplicationStatus = "applied"

// ApplicationRecord marks that an autofill was performed against a job posting.
// It stores copies of the job fields so it survives the page navigating away.
type ApplicationRecord struct {
	ID            string            `json:"id"`
	JobTitle      string            `json:"jobTitle"`
	Company       string            `json:"company"`
	Location      string            `json:"location,omitempty"`
	AppliedAt     time.Time         `json:"appliedAt"`
	ResumeVersion string            `json:"resumeVersion,omitempty"`
	SourceURL     string            `json:"url"`
	Status        ApplicationStatus `json:"status"`
}

// NewApplicationRecord builds a record for job with a time-derived ID.
func NewApplicationRecord(job JobPosting, resumeVersion string, now time.Time) ApplicationRecord {
	return ApplicationRecord{
		ID:            strconv.FormatInt(now.UnixMilli(), 10),
		JobTitle:      job.Title,
		Company:       job.Company,
		Location:      job.Location,
		AppliedAt:     now.UTC(),
		ResumeVersion: resumeVersion,
		SourceURL:     job.SourceURL,
		Status:        StatusApplied,
	}
}
