// Package decision suggests diagnoses from a triage category, a subgroup
// selection and follow-up yes/no answers. The rules live in a static table
// walked by a single evaluator; evaluation is deterministic and has no side
// effects.
package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mediclass/mediclass/internal/domain/exam"
	"github.com/mediclass/mediclass/internal/domain/symptom"
	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// Suggestion is a possible diagnosis with the exams recommended to confirm it.
type Suggestion struct {
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Exams       []exam.Type `json:"recommended_exams"`
}

func (s Suggestion) String() string {
	names := make([]string, len(s.Exams))
	for i, e := range s.Exams {
		names[i] = string(e)
	}
	return fmt.Sprintf("%s: %s (Suggested exams: %s)", s.Category, s.Description, strings.Join(names, ", "))
}

type branch struct {
	conditions []string
	leaf       Suggestion
}

// Subgroup is a category-specific branch selector.
type Subgroup struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	branches []branch
}

// Questions lists the distinct follow-up questions of the subgroup in the
// order they may be asked.
func (s Subgroup) Questions() []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range s.branches {
		for _, c := range b.conditions {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Tree is the decision tree of one symptom category.
type Tree struct {
	Category  symptom.Category `json:"category"`
	Subgroups []Subgroup       `json:"subgroups"`
}

// Subgroups lists the subgroups of category c.
func Subgroups(c symptom.Category) ([]Subgroup, error) {
	t, err := TreeFor(c)
	if err != nil {
		return nil, err
	}
	return t.Subgroups, nil
}

// TreeFor returns the tree of category c.
func TreeFor(c symptom.Category) (Tree, error) {
	for _, t := range forest {
		if t.Category == c {
			return t, nil
		}
	}
	return Tree{}, apperr.NotFound("decision tree", string(c))
}

func (t Tree) subgroup(index int) (Subgroup, error) {
	for _, s := range t.Subgroups {
		if s.Index == index {
			return s, nil
		}
	}
	return Subgroup{}, apperr.NotFound(string(t.Category)+" subgroup", strconv.Itoa(index))
}

// ParseSubgroup reads a 1-based subgroup selection for category c.
func ParseSubgroup(c symptom.Category, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Format("subgroup", raw, "a subgroup number")
	}
	t, err := TreeFor(c)
	if err != nil {
		return 0, err
	}
	if _, err := t.subgroup(n); err != nil {
		return 0, err
	}
	return n, nil
}

// Step is one asked question and its answer.
type Step struct {
	Question string `json:"question"`
	Yes      bool   `json:"yes"`
}

// Outcome is the result of walking a subgroup with the answers given so far.
// When Complete is false, Next holds the question to ask and Suggestions is
// empty. A complete outcome without suggestions is inconclusive, not an
// error.
type Outcome struct {
	Category    symptom.Category `json:"category"`
	Subgroup    int              `json:"subgroup"`
	Label       string           `json:"subgroup_label"`
	Steps       []Step           `json:"steps"`
	Suggestions []Suggestion     `json:"suggestions"`
	Next        string           `json:"next_question,omitempty"`
	Complete    bool             `json:"complete"`
}

// Inconclusive reports a finished walk that matched no branch.
func (o Outcome) Inconclusive() bool {
	return o.Complete && len(o.Suggestions) == 0
}

// Evaluate walks the subgroup's branches top to bottom. A branch's
// conditions are asked in order and the first "no" abandons it; a condition
// already answered by an earlier branch is not asked again. The first fully
// satisfied branch wins. Answers left over after the walk ends are rejected.
func Evaluate(c symptom.Category, subgroup int, answers []bool) (Outcome, error) {
	t, err := TreeFor(c)
	if err != nil {
		return Outcome{}, err
	}
	sg, err := t.subgroup(subgroup)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Category: c, Subgroup: sg.Index, Label: sg.Label, Steps: []Step{}, Suggestions: []Suggestion{}}
	known := map[string]bool{}
	next := 0

walk:
	for _, b := range sg.branches {
		for _, cond := range b.conditions {
			yes, asked := known[cond]
			if !asked {
				if next == len(answers) {
					out.Next = cond
					return out, nil
				}
				yes = answers[next]
				next++
				known[cond] = yes
				out.Steps = append(out.Steps, Step{Question: cond, Yes: yes})
			}
			if !yes {
				continue walk
			}
		}
		out.Suggestions = append(out.Suggestions, b.leaf)
		break
	}

	if next < len(answers) {
		return Outcome{}, apperr.Format("answers", fmt.Sprintf("%d answers", len(answers)),
			fmt.Sprintf("at most %d answers for this path", next))
	}
	out.Complete = true
	return out, nil
}
