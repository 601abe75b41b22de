// Package symptom holds the fixed symptom categories and their yes/no
// screening questions asked during triage.
package symptom

import (
	"strconv"
	"strings"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

type Category string

const (
	Gastrointestinal Category = "gastrointestinal"
	Respiratory      Category = "respiratory"
	Cardiovascular   Category = "cardiovascular"
	Trauma           Category = "trauma"
	Dermatologic     Category = "dermatologic"
	Other            Category = "other"
)

type entry struct {
	category  Category
	label     string
	questions []string
}

// catalog order is the menu order presented to the triage nurse.
var catalog = []entry{
	{Gastrointestinal, "Gastrointestinal", []string{
		"nausea or vomiting",
		"diarrhea",
		"constipation",
		"abdominal pain",
		"unexplained weight loss",
		"fever",
	}},
	{Respiratory, "Respiratory", []string{
		"cough",
		"dyspnea",
		"expectoration",
		"hemoptysis",
		"chest pain",
		"fever",
	}},
	{Cardiovascular, "Cardiovascular", []string{
		"oppressive chest pain",
		"palpitations",
		"dizziness or fainting",
		"lower-limb edema",
	}},
	{Trauma, "Trauma", []string{
		"loss of consciousness",
		"active bleeding",
		"visible deformity",
		"inability to move the affected area",
	}},
	{Dermatologic, "Dermatologic", []string{
		"skin lesion",
		"pruritus",
		"skin pain",
		"fever",
	}},
	{Other, "Other", []string{
		"motor or sensory deficit",
		"improvement after glucose intake",
		"tachycardia and anxiety",
		"fever without focus for more than 3 weeks",
	}},
}

func lookup(c Category) (entry, bool) {
	for _, e := range catalog {
		if e.category == c {
			return e, true
		}
	}
	return entry{}, false
}

// Categories returns every category in menu order.
func Categories() []Category {
	out := make([]Category, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e.category)
	}
	return out
}

func (c Category) Valid() bool {
	_, ok := lookup(c)
	return ok
}

// Label is the display name of the category.
func (c Category) Label() string {
	if e, ok := lookup(c); ok {
		return e.label
	}
	return string(c)
}

// QuestionsFor returns a copy of the ordered screening questions for c.
func QuestionsFor(c Category) ([]string, error) {
	e, ok := lookup(c)
	if !ok {
		return nil, apperr.NotFound("symptom category", string(c))
	}
	out := make([]string, len(e.questions))
	copy(out, e.questions)
	return out, nil
}

// ParseCategory accepts a category key or its 1-based menu position.
func ParseCategory(raw string) (Category, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(catalog) {
			return catalog[n-1].category, nil
		}
		return "", apperr.Range("category", n, 1, len(catalog))
	}
	for _, e := range catalog {
		if string(e.category) == s || strings.ToLower(e.label) == s {
			return e.category, nil
		}
	}
	return "", apperr.Format("category", raw, "one of "+strings.Join(keys(), ", "))
}

func keys() []string {
	out := make([]string, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, string(e.category))
	}
	return out
}
