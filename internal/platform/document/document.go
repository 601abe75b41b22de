// Package document renders the patient record, prescription and attendance
// certificate as plain-text files and hands them to a Sink.
package document

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

const contentType = "text/plain; charset=utf-8"

// Field is a labelled value.
type Field struct {
	Name  string
	Value string
}

// RecordData is everything printed on a patient record export.
type RecordData struct {
	PatientID   string
	Name        string
	Contact     string
	Insurance   string
	BirthDate   string
	Bed         string
	TriageNurse string
	Priority    bool
	History     []string
	Triage      []Field
	Exams       []Field
}

type PrescriptionItem struct {
	Medication    string `json:"medication"`
	DoseMg        int    `json:"dose_mg"`
	IntervalHours int    `json:"interval_hours"`
	Days          int    `json:"days"`
}

type PrescriptionData struct {
	GeneratedAt        time.Time
	PatientID          string
	PatientName        string
	DoctorName         string
	DoctorRegistration string
	Items              []PrescriptionItem
}

type CertificateData struct {
	IssuedAt           time.Time
	PatientID          string
	PatientName        string
	DoctorName         string
	DoctorRegistration string
	Category           string
}

// Stored describes a document written to a sink.
type Stored struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Size     int    `json:"size"`
}

// Exporter renders documents and writes them to its sink.
type Exporter struct {
	sink Sink
	tmpl *template.Template
}

func NewExporter(sink Sink) *Exporter {
	return &Exporter{sink: sink, tmpl: templates}
}

func RecordName(cpf string) string       { return "record_" + cpf + ".txt" }
func PrescriptionName(cpf string) string { return "prescription_" + cpf + ".txt" }
func CertificateName(cpf string) string  { return "certificate_" + cpf + ".txt" }

func (e *Exporter) Record(ctx context.Context, d RecordData) (Stored, error) {
	return e.render(ctx, "record", RecordName(d.PatientID), d)
}

func (e *Exporter) Prescription(ctx context.Context, d PrescriptionData) (Stored, error) {
	return e.render(ctx, "prescription", PrescriptionName(d.PatientID), d)
}

func (e *Exporter) Certificate(ctx context.Context, d CertificateData) (Stored, error) {
	if d.Category == "" {
		d.Category = "unspecified"
	}
	return e.render(ctx, "certificate", CertificateName(d.PatientID), d)
}

func (e *Exporter) render(ctx context.Context, tmpl, name string, data any) (Stored, error) {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return Stored{}, fmt.Errorf("render %s: %w", tmpl, err)
	}
	location, err := e.sink.Put(ctx, name, contentType, buf.Bytes())
	if err != nil {
		return Stored{}, fmt.Errorf("store %s: %w", name, err)
	}
	return Stored{Name: name, Location: location, Size: buf.Len()}, nil
}
