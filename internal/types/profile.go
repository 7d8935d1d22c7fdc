package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// PersonalInfo holds the contact details used to populate application forms.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// ResumeProfile is the read-only resume data autofill draws from.
// VersionID identifies the stored resume version the profile came from, if any.
type ResumeProfile struct {
	VersionID    string       `json:"versionId,omitempty"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
	SummaryText  string       `json:"summaryText,omitempty"`
}

// Validate validates the ResumeProfile using the validator.
func (p *ResumeProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// FirstName returns the first whitespace-separated token of the name.
func (pi PersonalInfo) FirstName() string {
	parts := strings.Fields(pi.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// LastName returns every token of the name after the first.
func (pi PersonalInfo) LastName() string {
	parts := strings.Fields(pi.Name)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}
