package patient

import (
	"regexp"
	"strings"
	"time"

	"github.com/mediclass/mediclass/internal/domain/exam"
	"github.com/mediclass/mediclass/internal/domain/triage"
	"github.com/mediclass/mediclass/internal/platform/apperr"
)

const birthDateLayout = "2006-01-02"

var cpfPattern = regexp.MustCompile(`^[0-9][0-9.\-]{0,19}$`)

// Patient maps to the patient table; Exams come from patient_exam.
type Patient struct {
	CPF           string         `json:"cpf"`
	Name          string         `json:"name"`
	Contact       string         `json:"contact"`
	Insurance     string         `json:"insurance"`
	BirthDate     string         `json:"birth_date"`
	Bed           string         `json:"bed"`
	TriageNurse   string         `json:"triage_nurse"`
	AdmittedAt    *time.Time     `json:"admitted_at,omitempty"`
	Priority      bool           `json:"priority"`
	Exams         []exam.Result  `json:"exams"`
	CurrentTriage *triage.Record `json:"current_triage,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// clone copies p deeply enough that mutating the copy never touches p. The
// triage record is immutable and shared.
func (p *Patient) clone() *Patient {
	cp := *p
	cp.Exams = append([]exam.Result(nil), p.Exams...)
	if p.AdmittedAt != nil {
		at := *p.AdmittedAt
		cp.AdmittedAt = &at
	}
	return &cp
}

// CategoryLabel is the symptom category of the current triage record, or
// "unspecified".
func (p *Patient) CategoryLabel() string {
	if p.CurrentTriage == nil {
		return "unspecified"
	}
	return string(p.CurrentTriage.Category)
}

// Registration is the intake form for a new or returning patient.
type Registration struct {
	CPF       string `json:"cpf"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Insurance string `json:"insurance"`
	BirthDate string `json:"birth_date"`
	Bed       string `json:"bed"`
}

// ValidateCPF checks the patient key is a plain document number.
func ValidateCPF(cpf string) error {
	if !cpfPattern.MatchString(cpf) {
		return apperr.Format("cpf", cpf, "digits, optionally with . and -")
	}
	return nil
}

// validateNew checks the fields required to create a patient.
func (r *Registration) validateNew() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Bed = strings.TrimSpace(r.Bed)
	if r.Name == "" {
		return apperr.Format("name", "", "a non-empty name")
	}
	if r.Bed == "" {
		return apperr.Format("bed", "", "a bed identifier")
	}
	if _, err := time.Parse(birthDateLayout, r.BirthDate); err != nil {
		return apperr.Format("birth_date", r.BirthDate, "a date as YYYY-MM-DD")
	}
	for _, f := range []struct{ name, value string }{
		{"name", r.Name}, {"bed", r.Bed}, {"contact", r.Contact}, {"insurance", r.Insurance},
	} {
		if err := apperr.SingleLine(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}
