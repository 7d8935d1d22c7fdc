// Package schemas validates stored documents against JSON Schemas.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed resume_profile.schema.json
var resumeProfileSchema string

// ResumeProfileSchema returns the JSON Schema that stored resume profiles
// must satisfy once normalized to the flat shape.
func ResumeProfileSchema() string {
	return resumeProfileSchema
}

// FieldError is one violation at a dotted field path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// LoadError means a schema or document could not be parsed at all.
type LoadError struct {
	What  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.What, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Validator checks documents against one compiled schema.
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schemaJSON. name appears in load errors.
func Compile(name, schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, &LoadError{What: name + " schema", Cause: err}
	}
	return &Validator{name: name, schema: schema}, nil
}

// Validate checks doc, returning a *ValidationError listing each violation
// or a *LoadError when doc is not JSON.
func (v *Validator) Validate(doc []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &LoadError{What: v.name + " document", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

var profileValidator = sync.OnceValues(func() (*Validator, error) {
	return Compile("resume profile", resumeProfileSchema)
})

// ValidateProfile validates a flat resume profile document against the
// embedded schema.
func ValidateProfile(doc []byte) error {
	v, err := profileValidator()
	if err != nil {
		return err
	}
	return v.Validate(doc)
}
