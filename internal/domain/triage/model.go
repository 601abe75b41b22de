// Package triage builds the immutable record of one triage pass.
package triage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mediclass/mediclass/internal/domain/symptom"
	"github.com/mediclass/mediclass/internal/domain/vitals"
	"github.com/mediclass/mediclass/internal/platform/apperr"
)

const timestampLayout = "2006-01-02 15:04:05"

// Record is a snapshot of one triage pass. It is never modified after Build.
type Record struct {
	HeartRate        int              `json:"heart_rate"`
	Systolic         int              `json:"systolic_bp"`
	Diastolic        int              `json:"diastolic_bp"`
	OxygenSaturation int              `json:"oxygen_saturation"`
	Category         symptom.Category `json:"category"`
	Answers          symptom.Answers  `json:"answers"`
	Detail           string           `json:"detail,omitempty"`
	Abnormal         []vitals.Vital   `json:"abnormal,omitempty"`
	NurseName        string           `json:"nurse_name,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// BloodPressure renders systolic/diastolic.
func (r *Record) BloodPressure() string {
	return fmt.Sprintf("%d/%d", r.Systolic, r.Diastolic)
}

// AnyAbnormal reports whether the pass raises the priority flag.
func (r *Record) AnyAbnormal() bool { return len(r.Abnormal) > 0 }

// Field is a labelled value for document rendering.
type Field struct {
	Name  string
	Value string
}

// Fields lists the record's values in display order.
func (r *Record) Fields() []Field {
	detail := r.Detail
	if detail == "" {
		detail = "none"
	}
	return []Field{
		{"heart_rate", fmt.Sprint(r.HeartRate)},
		{"blood_pressure", r.BloodPressure()},
		{"oxygen_saturation", fmt.Sprint(r.OxygenSaturation)},
		{"answers", r.Answers.String()},
		{"category", string(r.Category)},
		{"detail", detail},
		{"timestamp", r.CreatedAt.Format(timestampLayout)},
	}
}

// Summary is the history line describing the pass.
func (r *Record) Summary() string {
	parts := make([]string, 0, 7)
	for _, f := range r.Fields() {
		parts = append(parts, f.Name+"="+f.Value)
	}
	return "Triage: " + strings.Join(parts, "; ")
}

// Input is the raw operator input of a triage pass.
type Input struct {
	Vitals   map[vitals.Vital]string `json:"vitals"`
	Category string                  `json:"category"`
	Answers  []string                `json:"answers"`
	Detail   string                  `json:"detail,omitempty"`
}

// Build validates the input and produces the record together with the vitals
// assessment. All malformed or out-of-range vitals are reported at once.
func Build(in Input, nurse string, now time.Time) (*Record, vitals.Assessment, error) {
	var (
		errs     []error
		readings []vitals.Reading
	)
	for _, def := range vitals.All() {
		raw, ok := in.Vitals[def.Vital]
		if !ok {
			errs = append(errs, apperr.Format(string(def.Vital), "", "an integer"))
			continue
		}
		r, err := vitals.Parse(def.Vital, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		readings = append(readings, r)
	}

	category, err := symptom.ParseCategory(in.Category)
	if err != nil {
		errs = append(errs, err)
	}
	var answers symptom.Answers
	if err == nil {
		values, perr := symptom.ParseAnswers(in.Answers)
		if perr != nil {
			errs = append(errs, perr)
		} else if answers, perr = symptom.BuildAnswers(category, values); perr != nil {
			errs = append(errs, perr)
		}
	}
	if err := apperr.SingleLine("detail", in.Detail); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, vitals.Assessment{}, errors.Join(errs...)
	}

	a := vitals.Assess(readings...)
	rec := &Record{
		Category:  category,
		Answers:   answers,
		Detail:    strings.TrimSpace(in.Detail),
		Abnormal:  a.Abnormal,
		NurseName: nurse,
		CreatedAt: now,
	}
	rec.HeartRate, _ = a.Value(vitals.HeartRate)
	rec.Systolic, _ = a.Value(vitals.SystolicBP)
	rec.Diastolic, _ = a.Value(vitals.DiastolicBP)
	rec.OxygenSaturation, _ = a.Value(vitals.OxygenSaturation)
	return rec, a, nil
}
