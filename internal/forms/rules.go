package forms

import (
	"regexp"
	"strings"
)

// Category is the semantic role a form field is believed to play.
type Category string

const (
	CategoryNone        Category = ""
	CategoryFirstName   Category = "first_name"
	CategoryLastName    Category = "last_name"
	CategoryFullName    Category = "full_name"
	CategoryEmail       Category = "email"
	CategoryPhone       Category = "phone"
	CategoryLocation    Category = "location"
	CategoryLinkedIn    Category = "linkedin"
	CategoryGitHub      Category = "github"
	CategoryCoverLetter Category = "cover_letter"
	CategoryResume      Category = "resume"
)

// Rule maps a pattern over a field's name and label text to a category and
// a fixed confidence score.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
	Score    int
}

// Rules is the ordered scoring table. Order is significant: the first rule
// that matches decides the score, even if a later rule scores higher.
var Rules = []Rule{
	{CategoryFirstName, regexp.MustCompile(`^(first.?name|fname|firstname)$`), 100},
	{CategoryLastName, regexp.MustCompile(`^(last.?name|lname|lastname|surname)$`), 100},
	{CategoryFullName, regexp.MustCompile(`^(full.?name|name)$`), 95},
	{CategoryEmail, regexp.MustCompile(`^email$`), 100},
	{CategoryPhone, regexp.MustCompile(`^phone$`), 100},
	{CategoryLocation, regexp.MustCompile(`^(address|location)$`), 90},
	{CategoryLinkedIn, regexp.MustCompile(`linkedin`), 85},
	{CategoryGitHub, regexp.MustCompile(`github`), 85},
	{CategoryCoverLetter, regexp.MustCompile(`(cover.?letter|message)`), 80},
	{CategoryResume, regexp.MustCompile(`(resume|cv)`), 75},
}

// Score classifies a field from its raw name and label. Each rule is tested
// against the combined "name label" text, then against the trimmed name on
// its own, so anchored rules still match a field whose label repeats its
// name. A label is never matched by itself: `phone_number` labelled "Phone"
// stays unclassified. It returns CategoryNone and 0 when nothing matches.
func Score(rawName, rawLabel string) (Category, int) {
	return ScoreWith(Rules, rawName, rawLabel)
}

// ScoreWith is Score over a caller-supplied rule table.
func ScoreWith(rules []Rule, rawName, rawLabel string) (Category, int) {
	combined := strings.ToLower(rawName + " " + rawLabel)
	name := strings.ToLower(strings.TrimSpace(rawName))

	for _, r := range rules {
		if r.Pattern.MatchString(combined) || (name != "" && r.Pattern.MatchString(name)) {
			return r.Category, r.Score
		}
	}
	return CategoryNone, 0
}
