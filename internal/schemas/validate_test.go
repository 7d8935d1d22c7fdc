package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeProfileSchema_IsValidJSON(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(ResumeProfileSchema()), &doc))
	assert.Equal(t, "ResumeProfile", doc["title"])
}

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"minimal", `{"personalInfo":{"name":"Jane Doe"}}`, false},
		{"full", `{"versionId":"v1","personalInfo":{"name":"Jane Doe","email":"jane@x.com","github":"jd"},"summaryText":"hi"}`, false},
		{"missing personal info", `{"summaryText":"hi"}`, true},
		{"empty name", `{"personalInfo":{"name":""}}`, true},
		{"wrong type", `{"personalInfo":{"name":"Jane","phone":5550100}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfile([]byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateProfile_NestedFieldPath(t *testing.T) {
	err := ValidateProfile([]byte(`{"personalInfo":{"name":"Jane","email":42}}`))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "personalInfo.email", validationErr.Errors[0].Field)
}

func TestValidateProfile_Malformed(t *testing.T) {
	err := ValidateProfile([]byte(`{"personalInfo":`))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "resume profile document", loadErr.What)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestCompile(t *testing.T) {
	v, err := Compile("posting", `{"type":"object","required":["title"],"properties":{"title":{"type":"string"}}}`)
	require.NoError(t, err)

	assert.NoError(t, v.Validate([]byte(`{"title":"Engineer"}`)))

	err = v.Validate([]byte(`{}`))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestCompile_BadSchema(t *testing.T) {
	_, err := Compile("broken", `{"type":`)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "broken schema")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "personalInfo.name", Message: "is required"},
		{Field: "summaryText", Message: "must be a string"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "1. personalInfo.name: is required")
	assert.Contains(t, msg, "2. summaryText: must be a string")
}
