package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobPosting_SameAs(t *testing.T) {
	a := &JobPosting{Title: "Senior Engineer", Company: "Acme Corp", DetectedAt: time.Now()}
	b := &JobPosting{Title: "Senior Engineer", Company: "Acme Corp", DetectedAt: time.Now().Add(time.Second)}
	c := &JobPosting{Title: "Staff Engineer", Company: "Acme Corp"}

	assert.True(t, a.SameAs(b))
	assert.False(t, a.SameAs(c))
	assert.False(t, a.SameAs(nil))

	var nilJob *JobPosting
	assert.True(t, nilJob.SameAs(nil))
}

func TestJobPosting_IsComplete(t *testing.T) {
	tests := []struct {
		name     string
		job      *JobPosting
		expected bool
	}{
		{"nil", nil, false},
		{"title and company", &JobPosting{Title: "Engineer", Company: "Acme"}, true},
		{"missing title", &JobPosting{Company: "Acme"}, false},
		{"whitespace company", &JobPosting{Title: "Engineer", Company: "  "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.job.IsComplete())
		})
	}
}

func TestPersonalInfo_NameSplit(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Jane", "Jane", ""},
		{"Mary Ann van der Berg", "Mary", "Ann van der Berg"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := PersonalInfo{Name: tt.name}
			assert.Equal(t, tt.first, pi.FirstName())
			assert.Equal(t, tt.last, pi.LastName())
		})
	}
}

func TestResumeProfile_Validate(t *testing.T) {
	valid := &ResumeProfile{PersonalInfo: PersonalInfo{Name: "Jane Doe", Email: "jane@x.com"}}
	require.NoError(t, valid.Validate())

	invalid := &ResumeProfile{PersonalInfo: PersonalInfo{Name: "Jane Doe", Email: "not-an-email"}}
	assert.Error(t, invalid.Validate())
}

func TestNewApplicationRecord(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	job := JobPosting{Title: "Engineer", Company: "Acme", Location: "Remote", SourceURL: "https://acme.example/jobs/1"}

	rec := NewApplicationRecord(job, "v2", now)

	assert.Equal(t, "1700000000123", rec.ID)
	assert.Equal(t, "Engineer", rec.JobTitle)
	assert.Equal(t, "Acme", rec.Company)
	assert.Equal(t, "Remote", rec.Location)
	assert.Equal(t, "v2", rec.ResumeVersion)
	assert.Equal(t, "https://acme.example/jobs/1", rec.SourceURL)
	assert.Equal(t, StatusApplied, rec.Status)
}
