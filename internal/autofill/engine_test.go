package autofill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/types"
)

type notice struct {
	level   Level
	message string
}

type captureNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (c *captureNotifier) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice{level, message})
}

func (c *captureNotifier) last() notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.notices) == 0 {
		return notice{}
	}
	return c.notices[len(c.notices)-1]
}

type captureRecorder struct {
	records []types.ApplicationRecord
	err     error
}

func (c *captureRecorder) RecordApplication(_ context.Context, rec types.ApplicationRecord) error {
	c.records = append(c.records, rec)
	return c.err
}

// fakeTypist records values and fails for selectors listed in fail.
type fakeTypist struct {
	values map[string]string
	fail   map[string]error
	panics map[string]bool
}

func newFakeTypist() *fakeTypist {
	return &fakeTypist{values: map[string]string{}, fail: map[string]error{}, panics: map[string]bool{}}
}

func (f *fakeTypist) Type(_ context.Context, field forms.FormField, value string, _ Pacer) error {
	if f.panics[field.Selector] {
		panic("element exploded")
	}
	if err := f.fail[field.Selector]; err != nil {
		return err
	}
	f.values[field.Selector] = value
	return nil
}

func janeDoe() *types.ResumeProfile {
	return &types.ResumeProfile{
		VersionID: "v2",
		PersonalInfo: types.PersonalInfo{
			Name:  "Jane Doe",
			Email: "jane@x.com",
		},
		SummaryText: "I ship reliable backend systems.",
	}
}

func field(selector string, category forms.Category, confidence int) forms.FormField {
	return forms.FormField{Selector: selector, RawName: selector, Category: category, Confidence: confidence}
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestValueFor(t *testing.T) {
	profile := &types.ResumeProfile{
		PersonalInfo: types.PersonalInfo{
			Name:     "Mary Ann Smith",
			Email:    "mary@example.com",
			Phone:    "555-0100",
			Location: "Austin, TX",
			LinkedIn: "https://linkedin.com/in/mary",
			GitHub:   "https://github.com/mary",
		},
	}

	tests := []struct {
		category forms.Category
		expected string
	}{
		{forms.CategoryFirstName, "Mary"},
		{forms.CategoryLastName, "Ann Smith"},
		{forms.CategoryFullName, "Mary Ann Smith"},
		{forms.CategoryEmail, "mary@example.com"},
		{forms.CategoryPhone, "555-0100"},
		{forms.CategoryLocation, "Austin, TX"},
		{forms.CategoryLinkedIn, "https://linkedin.com/in/mary"},
		{forms.CategoryGitHub, "https://github.com/mary"},
		{forms.CategoryResume, ""},
		{forms.CategoryNone, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.expected, ValueFor(tt.category, profile, nil))
		})
	}

	assert.Empty(t, ValueFor(forms.CategoryEmail, nil, nil))
	assert.Contains(t, ValueFor(forms.CategoryCoverLetter, profile, nil), "Dear Hiring Manager,")
}

func TestAutofill_CountsOnlyNonEmptyValues(t *testing.T) {
	typist := newFakeTypist()
	notifier := &captureNotifier{}
	engine := New(typist, WithPacer(NoDelay), WithNotifier(notifier))

	fields := []forms.FormField{
		field("#first", forms.CategoryFirstName, 100),
		field("#email", forms.CategoryEmail, 100),
		field("#phone", forms.CategoryPhone, 100), // profile has no phone
	}

	count, err := engine.Autofill(context.Background(), fields, janeDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NotContains(t, typist.values, "#phone")
	assert.Equal(t, notice{LevelSuccess, "Successfully filled 2 fields with your resume data!"}, notifier.last())
}

func TestAutofill_SkipsZeroConfidence(t *testing.T) {
	typist := newFakeTypist()
	notifier := &captureNotifier{}
	engine := New(typist, WithPacer(NoDelay), WithNotifier(notifier))

	// a zero-confidence field is never typed even if its category would map
	fields := []forms.FormField{field("#phone_number", forms.CategoryPhone, 0)}
	profile := janeDoe()
	profile.PersonalInfo.Phone = "555-0100"

	count, err := engine.Autofill(context.Background(), fields, profile, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, typist.values)
	assert.Equal(t, notice{LevelError, MsgNoMatchingFields}, notifier.last())
}

func TestAutofill_ApplicationForm(t *testing.T) {
	snap, err := page.Parse("https://boards.example.com/acme/jobs/1", `
		<form class="application-form">
			<label for="fn">First Name</label><input id="fn" name="first_name">
			<label for="ln">Last Name</label><input id="ln" name="last_name">
			<label for="em">Email</label><input id="em" name="email" type="email">
			<label for="ph">Phone Number</label><input id="ph" name="phone_number">
			<label for="cl">Cover Letter</label><textarea id="cl" name="cover_letter"></textarea>
		</form>`)
	require.NoError(t, err)

	fields := forms.Classify(snap)
	typist := NewDOMTypist(snap)
	recorder := &captureRecorder{}
	engine := New(typist, WithPacer(NoDelay), WithRecorder(recorder), WithNotifier(&captureNotifier{}), WithClock(fixedClock))

	job := &types.JobPosting{
		Title:     "Senior Engineer",
		Company:   "Acme Corp",
		SourceURL: "https://boards.example.com/acme/jobs/1",
	}
	profile := janeDoe()
	profile.PersonalInfo.Phone = "555-0100"

	count, err := engine.Autofill(context.Background(), fields, profile, job)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	assert.Equal(t, "Jane", typist.Value(`input[id="fn"]`))
	assert.Equal(t, "Doe", typist.Value(`input[id="ln"]`))
	assert.Equal(t, "jane@x.com", typist.Value(`input[id="em"]`))
	assert.Empty(t, typist.Value(`input[id="ph"]`))

	letter := typist.Value(`textarea[id="cl"]`)
	assert.Contains(t, letter, "Jane Doe")
	assert.Contains(t, letter, "Acme Corp")
	assert.Contains(t, letter, "Senior Engineer")

	require.Len(t, recorder.records, 1)
	rec := recorder.records[0]
	assert.Equal(t, "Senior Engineer", rec.JobTitle)
	assert.Equal(t, "Acme Corp", rec.Company)
	assert.Equal(t, "v2", rec.ResumeVersion)
	assert.Equal(t, types.StatusApplied, rec.Status)
	assert.Equal(t, fmt.Sprint(fixedClock().UnixMilli()), rec.ID)
}

func TestAutofill_GenericLetterWithoutJob(t *testing.T) {
	typist := newFakeTypist()
	recorder := &captureRecorder{}
	engine := New(typist, WithPacer(NoDelay), WithRecorder(recorder), WithNotifier(&captureNotifier{}))

	count, err := engine.Autofill(context.Background(),
		[]forms.FormField{field("#cl", forms.CategoryCoverLetter, 80)}, janeDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, strings.HasPrefix(typist.values["#cl"], "Dear Hiring Manager,"))
	assert.Empty(t, recorder.records, "no record without a detected job")
}

func TestAutofill_StaleElementDoesNotAbort(t *testing.T) {
	typist := newFakeTypist()
	typist.fail["#first"] = fmt.Errorf("#first: %w", ErrStaleElement)
	typist.fail["#last"] = errors.New("element not interactable")
	typist.panics["#full"] = true
	engine := New(typist, WithPacer(NoDelay), WithNotifier(&captureNotifier{}))

	fields := []forms.FormField{
		field("#first", forms.CategoryFirstName, 100),
		field("#last", forms.CategoryLastName, 100),
		field("#full", forms.CategoryFullName, 95),
		field("#email", forms.CategoryEmail, 100),
	}

	count, err := engine.Autofill(context.Background(), fields, janeDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "jane@x.com", typist.values["#email"])
}

func TestAutofill_NoProfile(t *testing.T) {
	notifier := &captureNotifier{}
	engine := New(newFakeTypist(), WithPacer(NoDelay), WithNotifier(notifier))

	count, err := engine.Autofill(context.Background(), []forms.FormField{field("#email", forms.CategoryEmail, 100)}, nil, nil)
	assert.ErrorIs(t, err, ErrNoProfile)
	assert.Zero(t, count)
	assert.Equal(t, notice{LevelError, MsgNoProfile}, notifier.last())
}

func TestAutofill_RecorderFailureStillSucceeds(t *testing.T) {
	notifier := &captureNotifier{}
	recorder := &captureRecorder{err: errors.New("storage unavailable")}
	engine := New(newFakeTypist(), WithPacer(NoDelay), WithRecorder(recorder), WithNotifier(notifier))

	job := &types.JobPosting{Title: "SRE", Company: "Initech"}
	count, err := engine.Autofill(context.Background(), []forms.FormField{field("#email", forms.CategoryEmail, 100)}, janeDoe(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, LevelSuccess, notifier.last().level)
}

func TestAutofill_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := New(newFakeTypist(), WithPacer(NoDelay), WithNotifier(&captureNotifier{}))
	count, err := engine.Autofill(ctx, []forms.FormField{field("#email", forms.CategoryEmail, 100)}, janeDoe(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, count)
}

func TestAttachResume(t *testing.T) {
	snap, err := page.Parse("https://example.com/apply", `
		<form>
			<div><label>Photo</label><input type="file" name="photo"></div>
			<div><label>Upload your CV</label><input type="file" name="attachment"></div>
		</form>`)
	require.NoError(t, err)

	notifier := &captureNotifier{}
	typist := NewDOMTypist(snap)
	engine := New(typist, WithPacer(NoDelay), WithNotifier(notifier))

	fields := forms.Classify(snap)
	require.NoError(t, engine.AttachResume(context.Background(), fields, "/tmp/jane.pdf"))
	assert.Equal(t, notice{LevelSuccess, MsgResumeAttached}, notifier.last())
	assert.Equal(t, "/tmp/jane.pdf", snap.Doc.Find(`input[name="attachment"]`).AttrOr("data-attached", ""))

	require.NoError(t, engine.AttachResume(context.Background(), fields, ""))
	assert.Equal(t, notice{LevelSuccess, MsgFilePickerOpened}, notifier.last())
}

func TestAttachResume_NoField(t *testing.T) {
	notifier := &captureNotifier{}
	engine := New(newFakeTypist(), WithNotifier(notifier))

	err := engine.AttachResume(context.Background(), []forms.FormField{field("#email", forms.CategoryEmail, 100)}, "")
	assert.ErrorIs(t, err, ErrNoResumeField)
	assert.Equal(t, notice{LevelError, MsgNoResumeField}, notifier.last())
}

func TestAttachResume_Unsupported(t *testing.T) {
	engine := New(newFakeTypist(), WithNotifier(&captureNotifier{}))

	fields := []forms.FormField{{Selector: "#cv", RawName: "cv", Kind: forms.KindFile}}
	assert.ErrorIs(t, engine.AttachResume(context.Background(), fields, ""), ErrAttachUnsupported)
}
