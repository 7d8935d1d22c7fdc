package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobfill/internal/page"
)

func snapshot(t *testing.T, url, html string) *page.Snapshot {
	t.Helper()
	snap, err := page.Parse(url, html)
	require.NoError(t, err)
	return snap
}

func TestDetect_GenericSite(t *testing.T) {
	snap := snapshot(t, "https://careers.example.org/openings/42", `
		<html><body>
			<h1>Senior Engineer</h1>
			<div class="company">Acme Corp</div>
		</body></html>`)

	job, ok := Detect(snap)
	require.True(t, ok)
	assert.Equal(t, "Senior Engineer", job.Title)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Empty(t, job.Location)
	assert.Equal(t, "https://careers.example.org/openings/42", job.SourceURL)
	assert.Equal(t, string(PlatformGeneric), job.Platform)
	assert.False(t, job.DetectedAt.IsZero())
}

func TestDetect_RequiresTitleAndCompany(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"company without title", `<div class="company">Acme Corp</div>`},
		{"title without company", `<h1>Senior Engineer</h1>`},
		{"empty title text", `<h1>   </h1><div class="company">Acme Corp</div>`},
		{"empty page", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, ok := Detect(snapshot(t, "https://example.org/job", tt.html))
			assert.False(t, ok)
			assert.Nil(t, job)
		})
	}
}

func TestDetect_NilSnapshot(t *testing.T) {
	job, ok := Detect(nil)
	assert.False(t, ok)
	assert.Nil(t, job)
}

func TestDetect_Idempotent(t *testing.T) {
	snap := snapshot(t, "https://example.org/job", `
		<h1>Senior Engineer</h1>
		<span id="company-name">Acme Corp</span>
		<span class="job-location">Berlin</span>`)

	first, ok := Detect(snap)
	require.True(t, ok)
	second, ok := Detect(snap)
	require.True(t, ok)

	assert.True(t, first.SameAs(second))
	assert.NotSame(t, first, second)
}

func TestDetect_FixedClock(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := New(WithClock(func() time.Time { return at }))

	snap := snapshot(t, "https://example.org/job", `<h1>Engineer</h1><p class="company">Acme</p>`)
	job, ok := e.Detect(snap)
	require.True(t, ok)
	assert.Equal(t, at, job.DetectedAt)
}

func TestDetect_LinkedIn(t *testing.T) {
	html := `
		<h1 class="t-24">Backend Engineer</h1>
		<div class="jobs-unified-top-card__company-name"><a href="/company/acme">Acme</a></div>
		<span class="jobs-unified-top-card__bullet">Remote</span>
		<div class="jobs-description__content">
			Build   services.
			Ship often.
		</div>`

	job, ok := Detect(snapshot(t, "https://www.linkedin.com/jobs/view/123", html))
	require.True(t, ok)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, "Remote", job.Location)
	assert.Equal(t, "Build   services.\nShip often.", job.Description)
	assert.Equal(t, string(PlatformLinkedIn), job.Platform)
}

func TestDetect_SiteStrategyDoesNotFallBackToGeneric(t *testing.T) {
	// an Indeed page whose markup matches only the generic selectors
	html := `<h1>Engineer</h1><div class="company">Acme</div>`
	_, ok := Detect(snapshot(t, "https://www.indeed.com/viewjob?jk=1", html))
	assert.False(t, ok)
}

func TestDetect_IndeedTitleAttribute(t *testing.T) {
	html := `
		<div class="jobsearch-JobInfoHeader-title"><span title="Data Engineer"></span></div>
		<div data-testid="inlineHeader-companyName"><a>Globex</a></div>
		<div data-testid="job-location">Austin, TX</div>
		<div id="jobDescriptionText">Pipelines.</div>`

	job, ok := Detect(snapshot(t, "https://www.indeed.com/viewjob?jk=abc", html))
	require.True(t, ok)
	assert.Equal(t, "Data Engineer", job.Title)
	assert.Equal(t, "Globex", job.Company)
	assert.Equal(t, "Austin, TX", job.Location)
	assert.Equal(t, "Pipelines.", job.Description)
}

func TestDetect_SelectorOrder(t *testing.T) {
	// the first candidate with text wins even when a later one also matches
	html := `
		<h1 data-jk="1">First Title</h1>
		<h1 class="jobsearch-JobInfoHeader-title">Second Title</h1>
		<a data-testid="company-name">Initech</a>`

	job, ok := Detect(snapshot(t, "https://indeed.com/viewjob", html))
	require.True(t, ok)
	assert.Equal(t, "First Title", job.Title)
}

func TestDetect_GreenhouseMetaCompany(t *testing.T) {
	html := `
		<html><head><meta property="og:site_name" content="Hooli"></head>
		<body><div class="job__title"><h1>Site Reliability Engineer</h1></div>
		<div class="job__location">New York</div></body></html>`

	job, ok := Detect(snapshot(t, "https://job-boards.greenhouse.io/hooli/jobs/1", html))
	require.True(t, ok)
	assert.Equal(t, "Site Reliability Engineer", job.Title)
	assert.Equal(t, "Hooli", job.Company)
	assert.Equal(t, "New York", job.Location)
}

func TestWithStrategies_TakesPrecedence(t *testing.T) {
	custom := Strategy{
		Name:    "ashby",
		Hosts:   []string{"example.org"},
		Title:   []string{".posting-title"},
		Company: []string{".org-name"},
	}
	e := New(WithStrategies(custom))

	snap := snapshot(t, "https://jobs.example.org/1", `
		<h1>Ignored</h1>
		<div class="posting-title">Platform Engineer</div>
		<div class="org-name">Umbrella</div>`)

	job, ok := e.Detect(snap)
	require.True(t, ok)
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, "Umbrella", job.Company)
	assert.Equal(t, "ashby", job.Platform)
}

func TestSplitCandidate(t *testing.T) {
	tests := []struct {
		in       string
		selector string
		attr     string
	}{
		{"h1", "h1", ""},
		{"meta[property='og:site_name']@content", "meta[property='og:site_name']", "content"},
		{".logo img@alt", ".logo img", "alt"},
		{"a[href*='@x']", "a[href*='@x']", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			selector, attr := splitCandidate(tt.in)
			assert.Equal(t, tt.selector, selector)
			assert.Equal(t, tt.attr, attr)
		})
	}
}
