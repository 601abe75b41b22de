// Package vitals validates triage vital signs against their clinical ranges.
package vitals

import (
	"strconv"
	"strings"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// Vital names a captured vital sign.
type Vital string

const (
	HeartRate        Vital = "heart_rate"
	SystolicBP       Vital = "systolic_bp"
	DiastolicBP      Vital = "diastolic_bp"
	OxygenSaturation Vital = "oxygen_saturation"
)

// Range is an inclusive integer interval.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// Definition holds the valid and normal ranges of one vital sign. Values
// outside Valid are rejected; values inside Valid but outside Normal are
// abnormal and raise the priority flag.
type Definition struct {
	Vital  Vital  `json:"vital"`
	Label  string `json:"label"`
	Unit   string `json:"unit"`
	Valid  Range  `json:"valid"`
	Normal Range  `json:"normal"`
}

// Order matters: triage captures vitals in this sequence.
var definitions = []Definition{
	{Vital: HeartRate, Label: "heart rate", Unit: "bpm", Valid: Range{40, 200}, Normal: Range{70, 120}},
	{Vital: SystolicBP, Label: "systolic blood pressure", Unit: "mmHg", Valid: Range{70, 250}, Normal: Range{90, 140}},
	{Vital: DiastolicBP, Label: "diastolic blood pressure", Unit: "mmHg", Valid: Range{40, 150}, Normal: Range{60, 90}},
	{Vital: OxygenSaturation, Label: "oxygen saturation", Unit: "%", Valid: Range{85, 100}, Normal: Range{95, 100}},
}

// All returns the vital definitions in capture order.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition of v.
func Lookup(v Vital) (Definition, error) {
	for _, d := range definitions {
		if d.Vital == v {
			return d, nil
		}
	}
	return Definition{}, apperr.NotFound("vital", string(v))
}

// Reading is a validated vital sign value.
type Reading struct {
	Vital    Vital `json:"vital"`
	Value    int   `json:"value"`
	Abnormal bool  `json:"abnormal"`
}

// Validate checks value against the valid range of v and reports whether it
// falls outside the normal range.
func Validate(v Vital, value int) (Reading, error) {
	d, err := Lookup(v)
	if err != nil {
		return Reading{}, err
	}
	if !d.Valid.Contains(value) {
		return Reading{}, apperr.Range(string(v), value, d.Valid.Min, d.Valid.Max)
	}
	return Reading{Vital: v, Value: value, Abnormal: !d.Normal.Contains(value)}, nil
}

// Parse converts raw operator input to an integer and validates it.
func Parse(v Vital, raw string) (Reading, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err != nil {
		return Reading{}, apperr.Format(string(v), raw, "an integer")
	}
	return Validate(v, n)
}

// Assessment is the outcome of one triage pass over all vitals.
type Assessment struct {
	Readings []Reading `json:"readings"`
	Abnormal []Vital   `json:"abnormal,omitempty"`
}

// AnyAbnormal is the OR over every reading of the pass.
func (a Assessment) AnyAbnormal() bool { return len(a.Abnormal) > 0 }

// Value returns the reading for v, if present.
func (a Assessment) Value(v Vital) (int, bool) {
	for _, r := range a.Readings {
		if r.Vital == v {
			return r.Value, true
		}
	}
	return 0, false
}

func Assess(readings ...Reading) Assessment {
	a := Assessment{Readings: readings}
	for _, r := range readings {
		if r.Abnormal {
			a.Abnormal = append(a.Abnormal, r.Vital)
		}
	}
	return a
}
