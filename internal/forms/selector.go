package forms

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// SelectorFor builds a CSS selector that matches exactly el in doc, preferring
// id, then name, then a structural nth-of-type path.
func SelectorFor(doc *goquery.Document, el *goquery.Selection) string {
	tag := goquery.NodeName(el)

	if id := el.AttrOr("id", ""); id != "" {
		sel := fmt.Sprintf(`%s[id="%s"]`, tag, quote(id))
		if doc.Find(sel).Length() == 1 {
			return sel
		}
	}
	if name := el.AttrOr("name", ""); name != "" {
		sel := fmt.Sprintf(`%s[name="%s"]`, tag, quote(name))
		if doc.Find(sel).Length() == 1 {
			return sel
		}
	}
	return structuralPath(el)
}

func structuralPath(el *goquery.Selection) string {
	var parts []string
	for cur := el; cur.Length() > 0; cur = cur.Parent() {
		node := cur.Get(0)
		if node.Type != html.ElementNode {
			break
		}
		tag := goquery.NodeName(cur)
		idx := cur.PrevAllFiltered(tag).Length() + 1
		parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", tag, idx))
		if tag == "html" {
			break
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
