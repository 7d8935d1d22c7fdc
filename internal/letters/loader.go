// Package letters renders cover letters from templates embedded at compile time.
package letters

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/jobfill/internal/types"
)

//go:embed cover_letters.json
var coverLettersJSON []byte

// Template keys in cover_letters.json.
const (
	KeyGeneric     = "generic"
	KeyJobSpecific = "job-specific"
)

var parseTemplates = sync.OnceValues(func() (map[string]string, error) {
	var t map[string]string
	if err := json.Unmarshal(coverLettersJSON, &t); err != nil {
		return nil, fmt.Errorf("parse cover letter templates: %w", err)
	}
	for _, key := range []string{KeyGeneric, KeyJobSpecific} {
		if t[key] == "" {
			return nil, fmt.Errorf("cover letter template %q is missing", key)
		}
	}
	return t, nil
})

// ErrUnknownTemplate means no template has the requested key.
var ErrUnknownTemplate = errors.New("unknown cover letter template")

// Template returns the raw template stored under key.
func Template(key string) (string, error) {
	t, err := parseTemplates()
	if err != nil {
		return "", err
	}
	tmpl, ok := t[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}
	return tmpl, nil
}

// Render substitutes {{.Key}} placeholders in one pass. Substituted values are
// never rescanned, so a value containing placeholder text is kept literally.
// Unknown placeholders are left as they are.
func Render(tmpl string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{{."+k+"}}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// CoverLetter renders the job-specific letter when job is known and the
// generic one otherwise. The output depends only on its arguments.
func CoverLetter(info types.PersonalInfo, summary string, job *types.JobPosting) string {
	data := map[string]string{
		"Name":    info.Name,
		"Summary": summary,
	}
	key := KeyGeneric
	if job != nil {
		key = KeyJobSpecific
		data["Company"] = job.Company
		data["Title"] = job.Title
	}
	tmpl, err := Template(key)
	if err != nil {
		// the templates are compiled in; this only fails on a broken build
		panic(err)
	}
	return Render(tmpl, data)
}
