package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/jonathan/jobfill/internal/schemas"
	"github.com/jonathan/jobfill/internal/types"
)

// ErrInvalidProfile wraps every profile decoding failure.
var ErrInvalidProfile = errors.New("invalid resume profile")

// profileKeys are consulted in order; a selected version wins over the
// current resume.
var profileKeys = []string{KeySelectedVersion, KeyCurrentResume}

// LoadProfile returns the active resume profile, or ErrNotFound when neither
// a selected version nor a current resume is stored.
func LoadProfile(ctx context.Context, s Store) (*types.ResumeProfile, error) {
	for _, key := range profileKeys {
		data, ok, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok || string(data) == "null" {
			continue
		}
		profile, err := DecodeProfile(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return profile, nil
	}
	return nil, fmt.Errorf("resume profile: %w", ErrNotFound)
}

// SaveProfile validates data and stores it as the current resume.
func SaveProfile(ctx context.Context, s Store, data []byte) (*types.ResumeProfile, error) {
	profile, err := DecodeProfile(data)
	if err != nil {
		return nil, err
	}
	if err := s.Set(ctx, KeyCurrentResume, data); err != nil {
		return nil, err
	}
	return profile, nil
}

// DecodeProfile accepts either the flat {personalInfo, summaryText} shape or
// a sectioned resume document, where personal details live in the section
// of type "personal" and the summary in the "summary" section's content.text.
func DecodeProfile(data []byte) (*types.ResumeProfile, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidProfile)
	}

	flat := data
	root := gjson.ParseBytes(data)
	if root.Get("sections").IsArray() {
		var err error
		if flat, err = flattenSections(root); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
	}

	if err := schemas.ValidateProfile(flat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	var profile types.ResumeProfile
	if err := json.Unmarshal(flat, &profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return &profile, nil
}

func flattenSections(root gjson.Result) ([]byte, error) {
	doc := map[string]any{}

	personal := root.Get(`sections.#(type=="personal").content`)
	if personal.IsObject() {
		doc["personalInfo"] = json.RawMessage(personal.Raw)
	} else {
		doc["personalInfo"] = map[string]any{}
	}

	if summary := root.Get(`sections.#(type=="summary").content.text`); summary.Exists() {
		doc["summaryText"] = summary.String()
	}

	for _, path := range []string{"versionId", "id"} {
		if v := root.Get(path); v.Exists() && v.String() != "" {
			doc["versionId"] = v.String()
			break
		}
	}

	return json.Marshal(doc)
}

// Profiles loads the active resume profile from a Store.
type Profiles struct {
	Store Store
}

// LoadProfile returns the active profile; see LoadProfile.
func (p Profiles) LoadProfile(ctx context.Context) (*types.ResumeProfile, error) {
	return LoadProfile(ctx, p.Store)
}
