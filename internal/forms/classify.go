// Package forms finds and scores the fields of a job application form.
package forms

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobfill/internal/page"
)

// Kind is the input kind of a form field.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindTel      Kind = "tel"
	KindFile     Kind = "file"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
)

// maxParentLabelLen bounds how much surrounding text may be used as a label.
const maxParentLabelLen = 100

// skippedInputTypes are inputs that never take typed text.
var skippedInputTypes = map[string]bool{
	"hidden":   true,
	"submit":   true,
	"button":   true,
	"reset":    true,
	"image":    true,
	"checkbox": true,
	"radio":    true,
}

// FormField is one scored form element. Element points into the snapshot it
// was classified from; Selector finds the same element in a later snapshot
// or a live page.
type FormField struct {
	Selector   string             `json:"selector"`
	Kind       Kind               `json:"kind"`
	RawName    string             `json:"name"`
	RawLabel   string             `json:"label"`
	Category   Category           `json:"category,omitempty"`
	Confidence int                `json:"confidence"`
	Element    *goquery.Selection `json:"-"`
}

// Classify scores every visible input, textarea and select in snap and returns
// them by descending confidence. Zero-confidence fields are included.
func Classify(snap *page.Snapshot) []FormField {
	if snap == nil || snap.Doc == nil {
		return nil
	}
	doc := snap.Doc

	var fields []FormField
	doc.Find("input, textarea, select").Each(func(_ int, el *goquery.Selection) {
		kind, ok := fieldKind(el)
		if !ok || isHidden(el) {
			return
		}

		name := el.AttrOr("name", "")
		if name == "" {
			name = el.AttrOr("id", "")
		}
		label := FieldLabel(doc, el)
		category, confidence := Score(name, label)

		fields = append(fields, FormField{
			Selector:   SelectorFor(doc, el),
			Kind:       kind,
			RawName:    name,
			RawLabel:   label,
			Category:   category,
			Confidence: confidence,
			Element:    el,
		})
	})

	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Confidence > fields[j].Confidence
	})
	return fields
}

// Fillable drops zero-confidence fields, keeping order.
func Fillable(fields []FormField) []FormField {
	out := make([]FormField, 0, len(fields))
	for _, f := range fields {
		if f.Confidence > 0 {
			out = append(out, f)
		}
	}
	return out
}

// FieldLabel finds the human-readable label of el: a label[for=id], else the
// first label inside el's parent, else the parent's text when it is short.
func FieldLabel(doc *goquery.Document, el *goquery.Selection) string {
	if id, ok := el.Attr("id"); ok && id != "" {
		label := doc.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			return l.AttrOr("for", "") == id
		}).First()
		if label.Length() > 0 {
			return strings.TrimSpace(label.Text())
		}
	}

	parent := el.Parent()
	if parent.Length() == 0 {
		return ""
	}
	if label := parent.Find("label").First(); label.Length() > 0 {
		return strings.TrimSpace(label.Text())
	}
	if text := strings.TrimSpace(parent.Text()); len(text) < maxParentLabelLen {
		return text
	}
	return ""
}

func fieldKind(el *goquery.Selection) (Kind, bool) {
	switch goquery.NodeName(el) {
	case "textarea":
		return KindTextarea, true
	case "select":
		return KindSelect, true
	}

	typ := strings.ToLower(strings.TrimSpace(el.AttrOr("type", "text")))
	if skippedInputTypes[typ] {
		return "", false
	}
	switch typ {
	case "email":
		return KindEmail, true
	case "tel":
		return KindTel, true
	case "file":
		return KindFile, true
	default:
		return KindText, true
	}
}

func isHidden(el *goquery.Selection) bool {
	if _, ok := el.Attr("hidden"); ok {
		return true
	}
	style := strings.ToLower(strings.ReplaceAll(el.AttrOr("style", ""), " ", ""))
	return strings.Contains(style, "display:none")
}
