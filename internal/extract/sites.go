package extract

import (
	"net/url"
	"strings"
)

// Platform names a known job site.
type Platform string

const (
	// PlatformLinkedIn is LinkedIn Jobs
	PlatformLinkedIn Platform = "linkedin"
	// PlatformIndeed is Indeed
	PlatformIndeed Platform = "indeed"
	// PlatformGoogleJobs is Google Jobs
	PlatformGoogleJobs Platform = "google-jobs"
	// PlatformGlassdoor is Glassdoor
	PlatformGlassdoor Platform = "glassdoor"
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformGeneric is any site without a dedicated strategy
	PlatformGeneric Platform = "generic"
)

// Strategy lists, per job field, the CSS selector candidates to try in order.
// A candidate may end in "@attr" to read an attribute instead of text.
type Strategy struct {
	Name         Platform `yaml:"name" validate:"required"`
	Hosts        []string `yaml:"hosts" validate:"required,min=1,dive,required"`
	PathContains string   `yaml:"path_contains,omitempty"`
	Title        []string `yaml:"title" validate:"required,min=1"`
	Company      []string `yaml:"company" validate:"required,min=1"`
	Location     []string `yaml:"location,omitempty"`
	Description  []string `yaml:"description,omitempty"`
}

// Matches reports whether the strategy applies to a page at host/path.
func (s Strategy) Matches(host, path string) bool {
	host = strings.ToLower(host)
	hostMatch := false
	for _, h := range s.Hosts {
		if strings.Contains(host, strings.ToLower(h)) {
			hostMatch = true
			break
		}
	}
	if !hostMatch {
		return false
	}
	return s.PathContains == "" || strings.Contains(path, s.PathContains)
}

// descriptionFallback is shared by every strategy after its own description candidates.
var descriptionFallback = []string{
	".jobsearch-jobDescriptionText",
	".description",
	".job-desc",
	".job-description",
	"#job-description",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
}

// BuiltinStrategies returns the canonical site table, in dispatch order.
func BuiltinStrategies() []Strategy {
	return []Strategy{
		{
			Name:         PlatformLinkedIn,
			Hosts:        []string{"linkedin.com"},
			PathContains: "/jobs/",
			Title: []string{
				"h1.t-24",
				"h1.jobs-unified-top-card__job-title",
				".job-details-jobs-unified-top-card__job-title h1",
			},
			Company: []string{
				".jobs-unified-top-card__company-name a",
				".jobs-unified-top-card__company-name",
				".job-details-jobs-unified-top-card__company-name a",
			},
			Location: []string{
				".jobs-unified-top-card__bullet",
				".job-details-jobs-unified-top-card__bullet",
			},
			Description: []string{
				".jobs-description__content",
				"#job-details",
			},
		},
		{
			Name:  PlatformIndeed,
			Hosts: []string{"indeed.com"},
			Title: []string{
				"h1[data-jk]",
				"h1.jobsearch-JobInfoHeader-title",
				"[data-testid='job-title']",
				".jobsearch-JobInfoHeader-title span[title]",
				"h1 span[title]",
				".jobsearch-JobComponent-description h1",
			},
			Company: []string{
				"div[data-testid='inlineHeader-companyName'] a",
				".jobsearch-InlineCompanyRating a",
				"[data-testid='company-name']",
				".jobsearch-JobInfoHeader-subtitle a",
				"a[data-testid='company-name']",
				".jobsearch-CompanyReview--heading a",
			},
			Location: []string{
				"[data-testid='job-location']",
				".jobsearch-JobInfoHeader-subtitle div",
				".companyLocation",
			},
			Description: []string{
				"#jobDescriptionText",
			},
		},
		{
			Name:  PlatformGoogleJobs,
			Hosts: []string{"jobs.google.com"},
			Title: []string{
				"h2[jsname='r4nke']",
				".VfPpkd-WsjYwc-OWXEXe-INsAgc h2",
			},
			Company: []string{
				"div[jsname='qXLe6d'] span",
				".VfPpkd-WsjYwc-OWXEXe-INsAgc .BjJfJf",
			},
		},
		{
			Name:  PlatformGlassdoor,
			Hosts: []string{"glassdoor.com"},
			Title: []string{
				"h1[data-test='job-title']",
				".JobDetails_jobTitle__Rw_gn",
			},
			Company: []string{
				"div[data-test='employer-name']",
				".JobDetails_companyName__t12ci a",
			},
			Location: []string{
				"div[data-test='location']",
			},
			Description: []string{
				".JobDetails_jobDescription__uW_fK",
			},
		},
		{
			Name:  PlatformGreenhouse,
			Hosts: []string{"greenhouse.io"},
			Title: []string{
				".app-title",
				".job__title h1",
				"h1.section-header",
			},
			Company: []string{
				".company-name",
				"meta[property='og:site_name']@content",
			},
			Location: []string{
				".location",
				".job__location",
			},
			Description: []string{
				".job__description.body",
				".job__description",
				"#content",
			},
		},
		{
			Name:  PlatformLever,
			Hosts: []string{"lever.co"},
			Title: []string{
				".posting-headline h2",
			},
			Company: []string{
				".main-header-logo img@alt",
				"meta[property='og:site_name']@content",
			},
			Location: []string{
				".posting-categories .location",
				".posting-category.location",
			},
			Description: []string{
				".posting-description",
				".section-wrapper.page-full-width",
			},
		},
		{
			Name:  PlatformWorkday,
			Hosts: []string{"myworkdayjobs.com", "workday.com"},
			Title: []string{
				"[data-automation-id='jobPostingHeader']",
			},
			Company: []string{
				"meta[property='og:site_name']@content",
			},
			Location: []string{
				"[data-automation-id='locations'] dd",
			},
			Description: []string{
				"[data-automation-id='jobDescription']",
			},
		},
	}
}

// GenericStrategy is the fallback used when no site strategy matches.
func GenericStrategy() Strategy {
	return Strategy{
		Name:     PlatformGeneric,
		Title:    []string{"h1", "[class*='title']", "[id*='title']"},
		Company:  []string{"[class*='company']", "[id*='company']"},
		Location: []string{"[class*='location']", "[id*='location']"},
	}
}

// DetectPlatform identifies the job site from a URL using the built-in table.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformGeneric
	}
	for _, s := range BuiltinStrategies() {
		if s.Matches(parsed.Hostname(), parsed.Path) {
			return s.Name
		}
	}
	return PlatformGeneric
}
