// Package exam lists the exam types a technician may record results for.
package exam

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// Type is the display name of an exam.
type Type string

const (
	AbdominalUltrasound   Type = "Abdominal ultrasound"
	BloodCount            Type = "Blood count"
	StoolCulture          Type = "Stool culture"
	PlainAbdominalXRay    Type = "Plain abdominal X-ray"
	ChestXRay             Type = "Chest X-ray"
	PleuralUltrasound     Type = "Pleural ultrasound"
	ECG                   Type = "ECG"
	CardiacMarkers        Type = "Cardiac markers"
	StressTest            Type = "Stress test"
	Perfusion             Type = "Perfusion"
	BNP                   Type = "BNP"
	Echocardiogram        Type = "Echocardiogram"
	HipFemurXRay          Type = "Hip/femur X-ray"
	FASTUltrasound        Type = "FAST ultrasound"
	SkinCulture           Type = "Skin culture"
	PatchTest             Type = "Patch test"
	SkinBiopsy            Type = "Skin biopsy"
	ProvocationTest       Type = "Provocation test"
	UrgentHeadCT          Type = "Urgent head CT"
	Glucose               Type = "Capillary and venous glucose"
	BloodCultures         Type = "Blood cultures"
	InflammatoryMarkers   Type = "Inflammatory markers"
	PsychiatricEvaluation Type = "Psychiatric evaluation"
)

// Recommendation-only entries: the decision tree may suggest them, but no
// result can be recorded against them.
const (
	SymptomaticManagement Type = "Symptomatic management"
	SpirometryOrPEFR      Type = "Spirometry or PEFR"
	ChestXRayPALateral    Type = "Chest X-ray PA and lateral"
	HeadCTIfNeuroChanges  Type = "Head CT if neurological changes"
)

var recordable = []Type{
	AbdominalUltrasound,
	BloodCount,
	StoolCulture,
	PlainAbdominalXRay,
	ChestXRay,
	PleuralUltrasound,
	ECG,
	CardiacMarkers,
	StressTest,
	Perfusion,
	BNP,
	Echocardiogram,
	HipFemurXRay,
	FASTUltrasound,
	SkinCulture,
	PatchTest,
	SkinBiopsy,
	ProvocationTest,
	UrgentHeadCT,
	Glucose,
	BloodCultures,
	InflammatoryMarkers,
	PsychiatricEvaluation,
}

// All returns the recordable exam types in menu order.
func All() []Type {
	out := make([]Type, len(recordable))
	copy(out, recordable)
	return out
}

func (t Type) Recordable() bool {
	for _, r := range recordable {
		if r == t {
			return true
		}
	}
	return false
}

// Lookup resolves an exam by name (case-insensitive) or 1-based menu index.
func Lookup(raw string) (Type, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > len(recordable) {
			return "", apperr.Range("exam", n, 1, len(recordable))
		}
		return recordable[n-1], nil
	}
	for _, t := range recordable {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", apperr.NotFound("exam type", raw)
}

// Result is one recorded exam outcome.
type Result struct {
	Type       Type      `json:"exam"`
	Result     string    `json:"result"`
	RecordedAt time.Time `json:"recorded_at"`
	RecordedBy string    `json:"recorded_by,omitempty"`
}

// LedgerText is the history line written when the result is recorded.
func (r Result) LedgerText() string {
	return fmt.Sprintf("Exam: %s | Result: %s", r.Type, r.Result)
}
