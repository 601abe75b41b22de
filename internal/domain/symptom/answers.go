package symptom

import (
	"fmt"
	"strings"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// ParseAnswer reads a yes/no answer. Portuguese forms are accepted as well
// since the unit's staff answers in either language.
func ParseAnswer(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "s", "sim", "true":
		return true, nil
	case "n", "no", "não", "nao", "false":
		return false, nil
	}
	return false, apperr.Format("answer", raw, "yes or no")
}

// ParseAnswers parses every raw answer, reporting the first malformed one.
func ParseAnswers(raw []string) ([]bool, error) {
	out := make([]bool, 0, len(raw))
	for i, r := range raw {
		b, err := ParseAnswer(r)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w", i+1, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Answer is one screening question with its yes/no response.
type Answer struct {
	Question string `json:"question"`
	Yes      bool   `json:"yes"`
}

// Answers keeps the question order of the category.
type Answers []Answer

// BuildAnswers pairs values with the questions of c. Every question must be
// answered exactly once, in order.
func BuildAnswers(c Category, values []bool) (Answers, error) {
	qs, err := QuestionsFor(c)
	if err != nil {
		return nil, err
	}
	if len(values) != len(qs) {
		return nil, apperr.Format("answers", fmt.Sprintf("%d answers", len(values)),
			fmt.Sprintf("exactly %d yes/no answers for %s", len(qs), c))
	}
	out := make(Answers, len(qs))
	for i, q := range qs {
		out[i] = Answer{Question: q, Yes: values[i]}
	}
	return out, nil
}

func (a Answers) String() string {
	parts := make([]string, len(a))
	for i, ans := range a {
		v := "no"
		if ans.Yes {
			v = "yes"
		}
		parts[i] = ans.Question + ": " + v
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
