package forms

import "github.com/jonathan/jobfill/internal/page"

// ApplicationFormSelectors mark pages that host a job application form.
var ApplicationFormSelectors = []string{
	`form[class*="application"]`,
	`form[class*="apply"]`,
	`form[id*="job"]`,
	`form[id*="application"]`,
	`.application-form`,
	`.job-application`,
	`[data-testid*="apply"]`,
	`[class*="apply-form"]`,
	`.jobs-apply-form`,
	`#apply-form`,
	`.application-form-container`,
	`[data-cy="job-apply-form"]`,
}

// HasApplicationForm reports whether snap contains a job application form.
func HasApplicationForm(snap *page.Snapshot) bool {
	if snap == nil || snap.Doc == nil {
		return false
	}
	for _, sel := range ApplicationFormSelectors {
		if snap.Doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}
