// Package catalog serves the fixed reference tables: symptom categories,
// exam types and decision trees.
package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediclass/mediclass/internal/domain/decision"
	"github.com/mediclass/mediclass/internal/domain/exam"
	"github.com/mediclass/mediclass/internal/domain/symptom"
	"github.com/mediclass/mediclass/internal/platform/apperr"
)

type SymptomCategory struct {
	Key       symptom.Category `json:"key"`
	Label     string           `json:"label"`
	Questions []string         `json:"questions"`
}

// ExamType is a recordable exam with its 1-based menu index.
type ExamType struct {
	Index int       `json:"index"`
	Name  exam.Type `json:"name"`
}

type SubgroupView struct {
	Index     int      `json:"index"`
	Label     string   `json:"label"`
	Questions []string `json:"questions"`
}

type DecisionTree struct {
	Category  symptom.Category `json:"category"`
	Subgroups []SubgroupView   `json:"subgroups"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/catalog")
	g.GET("/symptoms", h.Symptoms)
	g.GET("/exams", h.Exams)
	g.GET("/decision/:category", h.Decision)
}

func (h *Handler) Symptoms(c echo.Context) error {
	cats := symptom.Categories()
	out := make([]SymptomCategory, 0, len(cats))
	for _, cat := range cats {
		qs, err := symptom.QuestionsFor(cat)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		out = append(out, SymptomCategory{Key: cat, Label: cat.Label(), Questions: qs})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Exams(c echo.Context) error {
	all := exam.All()
	out := make([]ExamType, len(all))
	for i, t := range all {
		out[i] = ExamType{Index: i + 1, Name: t}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Decision(c echo.Context) error {
	cat, err := symptom.ParseCategory(c.Param("category"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	sgs, err := decision.Subgroups(cat)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	tree := DecisionTree{Category: cat, Subgroups: make([]SubgroupView, len(sgs))}
	for i, sg := range sgs {
		tree.Subgroups[i] = SubgroupView{Index: sg.Index, Label: sg.Label, Questions: sg.Questions()}
	}
	return c.JSON(http.StatusOK, tree)
}
