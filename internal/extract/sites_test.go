package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://www.linkedin.com/jobs/view/123", PlatformLinkedIn},
		{"https://www.linkedin.com/feed/", PlatformGeneric},
		{"https://www.indeed.com/viewjob?jk=1", PlatformIndeed},
		{"https://jobs.google.com/search", PlatformGoogleJobs},
		{"https://www.glassdoor.com/job-listing/x", PlatformGlassdoor},
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", PlatformGreenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/company/job-id", PlatformLever},
		{"https://company.wd5.myworkdayjobs.com/en-US/External", PlatformWorkday},
		{"https://example.com/careers", PlatformGeneric},
		{"://bad url", PlatformGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestStrategy_Matches(t *testing.T) {
	s := Strategy{Hosts: []string{"LinkedIn.com"}, PathContains: "/jobs/"}

	assert.True(t, s.Matches("www.linkedin.com", "/jobs/view/1"))
	assert.False(t, s.Matches("www.linkedin.com", "/in/someone"))
	assert.False(t, s.Matches("example.com", "/jobs/"))
}

func TestBuiltinStrategies_Complete(t *testing.T) {
	for _, s := range BuiltinStrategies() {
		t.Run(string(s.Name), func(t *testing.T) {
			assert.NotEmpty(t, s.Hosts)
			assert.NotEmpty(t, s.Title)
			assert.NotEmpty(t, s.Company)
		})
	}
}

func TestParseStrategies(t *testing.T) {
	data := []byte(`
sites:
  - name: ashby
    hosts: [jobs.ashbyhq.com]
    title: [".ashby-job-posting-heading"]
    company: ["meta[property='og:site_name']@content"]
    location: [".ashby-job-posting-location"]
`)

	sites, err := ParseStrategies(data)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, Platform("ashby"), sites[0].Name)
	assert.Equal(t, []string{"jobs.ashbyhq.com"}, sites[0].Hosts)
	assert.Equal(t, []string{".ashby-job-posting-location"}, sites[0].Location)
}

func TestParseStrategies_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing hosts", "sites:\n  - name: x\n    title: [h1]\n    company: [.c]\n"},
		{"missing company", "sites:\n  - name: x\n    hosts: [x.com]\n    title: [h1]\n"},
		{"bad yaml", "sites: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStrategies([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
