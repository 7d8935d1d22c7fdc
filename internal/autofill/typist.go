package autofill

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobfill/internal/forms"
	"github.com/jonathan/jobfill/internal/page"
)

// Typist enters a value into one form field, one character at a time, with
// the focus, input, change and blur events a user would produce. It returns
// an error wrapping ErrStaleElement when the field can no longer be found.
type Typist interface {
	Type(ctx context.Context, field forms.FormField, value string, pacer Pacer) error
}

// Attacher is implemented by typists that can drive file inputs. An empty
// path only opens the file picker.
type Attacher interface {
	Attach(ctx context.Context, field forms.FormField, path string) error
}

// DOMEvent is one event dispatched by DOMTypist.
type DOMEvent struct {
	Selector string
	Type     string
	Value    string
}

// DOMTypist types into a parsed snapshot. It backs dry runs and tests.
type DOMTypist struct {
	doc *goquery.Document

	mu     sync.Mutex
	events []DOMEvent
}

// NewDOMTypist returns a typist writing into snap's document.
func NewDOMTypist(snap *page.Snapshot) *DOMTypist {
	return &DOMTypist{doc: snap.Doc}
}

// Type implements Typist.
func (t *DOMTypist) Type(ctx context.Context, field forms.FormField, value string, pacer Pacer) error {
	el, err := t.find(field)
	if err != nil {
		return err
	}

	t.emit(field.Selector, "focus", "")
	setValue(el, "")

	var typed strings.Builder
	for _, r := range value {
		if err := Pause(ctx, pacer.CharDelay()); err != nil {
			return err
		}
		if !t.attached(el) {
			return fmt.Errorf("%s: %w", field.Selector, ErrStaleElement)
		}
		typed.WriteRune(r)
		t.emit(field.Selector, "input", "")
	}

	if err := setValue(el, typed.String()); err != nil {
		return fmt.Errorf("%s: %w", field.Selector, err)
	}
	t.emit(field.Selector, "change", typed.String())
	t.emit(field.Selector, "blur", "")
	return nil
}

// Attach implements Attacher by marking the input with the chosen file.
func (t *DOMTypist) Attach(_ context.Context, field forms.FormField, path string) error {
	el, err := t.find(field)
	if err != nil {
		return err
	}
	if path == "" {
		t.emit(field.Selector, "click", "")
		return nil
	}
	el.SetAttr("data-attached", path)
	t.emit(field.Selector, "change", path)
	return nil
}

// Value returns the current value of the element matching selector.
func (t *DOMTypist) Value(selector string) string {
	el := t.doc.Find(selector).First()
	switch goquery.NodeName(el) {
	case "textarea":
		return el.Text()
	case "select":
		return el.Find("option[selected]").First().AttrOr("value", "")
	default:
		return el.AttrOr("value", "")
	}
}

// Events returns a copy of the events dispatched so far.
func (t *DOMTypist) Events() []DOMEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]DOMEvent, len(t.events))
	copy(out, t.events)
	return out
}

func (t *DOMTypist) find(field forms.FormField) (*goquery.Selection, error) {
	if field.Selector == "" {
		return nil, fmt.Errorf("field %q has no selector: %w", field.RawName, ErrStaleElement)
	}
	el := t.doc.Find(field.Selector)
	if el.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", field.Selector, ErrStaleElement)
	}
	return el.First(), nil
}

// attached reports whether el is still reachable from the document root. A
// removed ancestor detaches el even though el keeps its own parent.
func (t *DOMTypist) attached(el *goquery.Selection) bool {
	root := t.doc.Get(0)
	for n := el.Get(0); n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

func (t *DOMTypist) emit(selector, typ, value string) {
	t.mu.Lock()
	t.events = append(t.events, DOMEvent{Selector: selector, Type: typ, Value: value})
	t.mu.Unlock()
}

func setValue(el *goquery.Selection, value string) error {
	switch goquery.NodeName(el) {
	case "textarea":
		el.SetText(value)
	case "select":
		if value == "" {
			el.Find("option").RemoveAttr("selected")
			return nil
		}
		option := el.Find("option").FilterFunction(func(_ int, o *goquery.Selection) bool {
			return o.AttrOr("value", "") == value || strings.TrimSpace(o.Text()) == value
		}).First()
		if option.Length() == 0 {
			return fmt.Errorf("no option %q", value)
		}
		el.Find("option").RemoveAttr("selected")
		option.SetAttr("selected", "selected")
		if _, ok := option.Attr("value"); !ok {
			option.SetAttr("value", value)
		}
	default:
		el.SetAttr("value", value)
	}
	return nil
}
