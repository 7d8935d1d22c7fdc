package letters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobfill/internal/types"
)

func TestTemplate(t *testing.T) {
	tmpl, err := Template(KeyGeneric)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tmpl, "Dear Hiring Manager,"))

	tmpl, err = Template(KeyJobSpecific)
	require.NoError(t, err)
	assert.Contains(t, tmpl, "{{.Company}}")
}

func TestTemplate_UnknownKey(t *testing.T) {
	_, err := Template("nonexistent-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRender(t *testing.T) {
	out := Render("Hi {{.Name}}, {{.Name}} at {{.Company}} {{.Missing}}", map[string]string{
		"Name":    "Jane",
		"Company": "Acme",
	})
	assert.Equal(t, "Hi Jane, Jane at Acme {{.Missing}}", out)
}

func TestRender_ValuesAreNotRescanned(t *testing.T) {
	out := Render("{{.Company}} / {{.Name}}", map[string]string{
		"Name":    "Jane {{.Company}}",
		"Company": "Acme {{.Name}}",
	})
	assert.Equal(t, "Acme {{.Name}} / Jane {{.Company}}", out)
}

func TestCoverLetter_Generic(t *testing.T) {
	info := types.PersonalInfo{Name: "Jane Doe"}

	letter := CoverLetter(info, "I build distributed systems.", nil)

	assert.Equal(t, "Dear Hiring Manager,\n\nI build distributed systems.\n\n"+
		"I am excited about the opportunity to contribute to your team.\n\nBest regards,\nJane Doe", letter)
}

func TestCoverLetter_JobSpecific(t *testing.T) {
	info := types.PersonalInfo{Name: "Jane Doe"}
	job := &types.JobPosting{Title: "Senior Engineer", Company: "Acme Corp"}

	letter := CoverLetter(info, "I build distributed systems.", job)

	assert.True(t, strings.HasPrefix(letter, "Dear Acme Corp Hiring Team,\n\n"))
	assert.Contains(t, letter, "the Senior Engineer position at Acme Corp.")
	assert.Contains(t, letter, "I am particularly drawn to Acme Corp because")
	assert.Contains(t, letter, "I build distributed systems.")
	assert.True(t, strings.HasSuffix(letter, "Best regards,\nJane Doe"))
	assert.NotContains(t, letter, "{{.")
}

func TestCoverLetter_Deterministic(t *testing.T) {
	info := types.PersonalInfo{Name: "Jane Doe"}
	job := &types.JobPosting{Title: "SRE", Company: "Acme {{.Name}}"}
	summary := "Summary mentions {{.Company}}"

	first := CoverLetter(info, summary, job)
	for i := 0; i < 500; i++ {
		require.Equal(t, first, CoverLetter(info, summary, job))
	}
	assert.Contains(t, first, "Dear Acme {{.Name}} Hiring Team")
	assert.Contains(t, first, "Summary mentions {{.Company}}")
}
