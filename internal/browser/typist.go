package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/jobfill/internal/autofill"
	"github.com/jonathan/jobfill/internal/forms"
)

const stepTimeout = 5 * time.Second

// fieldStepJS performs one typing step on the element matching sel and
// reports whether the element was still attached.
const fieldStepJS = `(function(sel, step, arg) {
	const el = document.querySelector(sel);
	if (!el || !el.isConnected) return false;
	switch (step) {
	case "focus":
		el.focus();
		el.value = "";
		el.dispatchEvent(new Event("focus"));
		break;
	case "append":
		el.value += arg;
		el.dispatchEvent(new Event("input", { bubbles: true }));
		break;
	case "set":
		el.value = arg;
		el.dispatchEvent(new Event("input", { bubbles: true }));
		break;
	case "finish":
		el.dispatchEvent(new Event("change", { bubbles: true }));
		el.dispatchEvent(new Event("blur"));
		el.blur();
		break;
	case "click":
		el.click();
		break;
	}
	return true;
})(%s, %s, %s)`

// Typist types into the live tab of a Session.
type Typist struct {
	session *Session
}

// NewTypist returns a Typist for s.
func NewTypist(s *Session) *Typist {
	return &Typist{session: s}
}

// Type implements autofill.Typist. Select elements are set in one step;
// everything else is typed a character at a time.
func (t *Typist) Type(ctx context.Context, field forms.FormField, value string, pacer autofill.Pacer) error {
	if err := t.step(ctx, field, "focus", ""); err != nil {
		return err
	}

	if field.Kind == forms.KindSelect {
		if err := t.step(ctx, field, "set", value); err != nil {
			return err
		}
	} else {
		for _, r := range value {
			if err := autofill.Pause(ctx, pacer.CharDelay()); err != nil {
				return err
			}
			if err := t.step(ctx, field, "append", string(r)); err != nil {
				return err
			}
		}
	}
	return t.step(ctx, field, "finish", "")
}

// Attach implements autofill.Attacher. With a path the file is set on the
// input directly; without one the input is clicked to open the picker.
func (t *Typist) Attach(ctx context.Context, field forms.FormField, path string) error {
	if path == "" {
		return t.step(ctx, field, "click", "")
	}
	if err := t.step(ctx, field, "focus", ""); err != nil {
		return err
	}
	return t.session.run(ctx, stepTimeout,
		chromedp.SetUploadFiles(field.Selector, []string{path}, chromedp.ByQuery))
}

func (t *Typist) step(ctx context.Context, field forms.FormField, step, arg string) error {
	script, err := stepScript(field.Selector, step, arg)
	if err != nil {
		return err
	}

	var attached bool
	if err := t.session.run(ctx, stepTimeout, chromedp.Evaluate(script, &attached)); err != nil {
		return fmt.Errorf("%s %s: %w", step, field.Selector, err)
	}
	if !attached {
		return fmt.Errorf("%s: %w", field.Selector, autofill.ErrStaleElement)
	}
	return nil
}

func stepScript(selector, step, arg string) (string, error) {
	args := make([]any, 0, 3)
	for _, v := range []string{selector, step, arg} {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		args = append(args, string(b))
	}
	return fmt.Sprintf(fieldStepJS, args...), nil
}
