// Package consult is the diagnostician's workflow over a triaged patient:
// decision-tree consultation and the follow-up referral, prescription and
// attendance certificate.
package consult

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediclass/mediclass/internal/domain/decision"
	"github.com/mediclass/mediclass/internal/domain/history"
	"github.com/mediclass/mediclass/internal/domain/patient"
	"github.com/mediclass/mediclass/internal/domain/symptom"
	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/auth"
	"github.com/mediclass/mediclass/internal/platform/document"
)

const (
	noSuggestionText = "No diagnosis suggested."
	examRequestText  = "Exam request sent to technician."
	stampLayout      = "2006-01-02 15:04"
)

type Service struct {
	patients *patient.Service
	exporter *document.Exporter
	logger   zerolog.Logger
}

func NewService(patients *patient.Service, exporter *document.Exporter, logger zerolog.Logger) *Service {
	return &Service{patients: patients, exporter: exporter, logger: logger}
}

// Request is one consultation step: a subgroup selection and the follow-up
// answers given so far.
type Request struct {
	Subgroup string   `json:"subgroup"`
	Answers  []string `json:"answers"`
}

// Result is the decision outcome together with the ledger entries it
// produced. Entries is empty until the walk completes.
type Result struct {
	Outcome decision.Outcome `json:"outcome"`
	Entries []history.Entry  `json:"entries"`
}

func consultationLines(sess auth.Session, out decision.Outcome) []string {
	lines := []string{fmt.Sprintf("Consultation by %s: category %s, subgroup %d", sess.Signature(), out.Category, out.Subgroup)}
	if len(out.Suggestions) == 0 {
		return append(lines, noSuggestionText)
	}
	for _, s := range out.Suggestions {
		lines = append(lines, "Suggestion: "+s.String())
	}
	return lines
}

// Consult runs the decision tree for the patient's current triage category.
// An incomplete walk returns the next question and writes nothing; a
// complete one is written to the ledger in one batch. A patient without a
// current triage record fails with apperr.ErrNoCurrentTriage.
func (s *Service) Consult(ctx context.Context, sess auth.Session, cpf string, req Request) (*Result, error) {
	if err := sess.Require(auth.CapDiagnose, "run the decision tree"); err != nil {
		return nil, err
	}
	answers, err := symptom.ParseAnswers(req.Answers)
	if err != nil {
		return nil, err
	}

	var out decision.Outcome
	_, entries, err := s.patients.Mutate(ctx, cpf, func(p *patient.Patient) ([]string, error) {
		if p.CurrentTriage == nil {
			return nil, apperr.NoCurrentTriage(cpf)
		}
		category := p.CurrentTriage.Category
		subgroup, err := decision.ParseSubgroup(category, req.Subgroup)
		if err != nil {
			return nil, err
		}
		if out, err = decision.Evaluate(category, subgroup, answers); err != nil {
			return nil, err
		}
		if !out.Complete {
			return nil, nil
		}
		return consultationLines(sess, out), nil
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	if out.Complete {
		s.logger.Info().Str("cpf", cpf).Str("category", string(out.Category)).
			Int("subgroup", out.Subgroup).Int("suggestions", len(out.Suggestions)).Msg("consultation recorded")
	}
	return &Result{Outcome: out, Entries: entries}, nil
}

// RequestExam records that the diagnostician referred the patient to a
// technician.
func (s *Service) RequestExam(ctx context.Context, sess auth.Session, cpf string) (*history.Entry, error) {
	if err := sess.Require(auth.CapDiagnose, "request exams"); err != nil {
		return nil, err
	}
	_, entries, err := s.patients.Mutate(ctx, cpf, func(*patient.Patient) ([]string, error) {
		return []string{examRequestText}, nil
	})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// DocumentResult is a stored document with its ledger entries.
type DocumentResult struct {
	Document document.Stored `json:"document"`
	Entries  []history.Entry `json:"entries"`
}

func validateItem(i int, it document.PrescriptionItem) error {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
	if strings.TrimSpace(it.Medication) == "" {
		return apperr.Format(field("medication"), "", "a medication name")
	}
	if err := apperr.SingleLine(field("medication"), it.Medication); err != nil {
		return err
	}
	if it.DoseMg <= 0 {
		return apperr.Range(field("dose_mg"), it.DoseMg, 1, 100000)
	}
	if it.IntervalHours <= 0 || it.IntervalHours > 168 {
		return apperr.Range(field("interval_hours"), it.IntervalHours, 1, 168)
	}
	if it.Days <= 0 || it.Days > 365 {
		return apperr.Range(field("days"), it.Days, 1, 365)
	}
	return nil
}

// Prescribe records each prescription item in the ledger and then exports
// the prescription document. Nothing is exported unless the ledger batch
// committed.
func (s *Service) Prescribe(ctx context.Context, sess auth.Session, cpf string, items []document.PrescriptionItem) (*DocumentResult, error) {
	if err := sess.Require(auth.CapDiagnose, "prescribe"); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.Format("items", "", "at least one prescription item")
	}
	for i, it := range items {
		if err := validateItem(i, it); err != nil {
			return nil, err
		}
	}

	now := s.patients.Now()
	p, entries, err := s.patients.Mutate(ctx, cpf, func(*patient.Patient) ([]string, error) {
		lines := make([]string, len(items))
		for i, it := range items {
			lines[i] = fmt.Sprintf("Prescription added on %s: %s, %dmg, every %d hours, for %d days",
				now.Format(stampLayout), strings.TrimSpace(it.Medication), it.DoseMg, it.IntervalHours, it.Days)
		}
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	stored, err := s.exporter.Prescription(ctx, document.PrescriptionData{
		GeneratedAt:        now,
		PatientID:          p.CPF,
		PatientName:        p.Name,
		DoctorName:         sess.Name,
		DoctorRegistration: sess.Registration,
		Items:              items,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("cpf", cpf).Msg("prescription recorded but not exported")
		return nil, fmt.Errorf("export prescription: %w", err)
	}
	return &DocumentResult{Document: stored, Entries: entries}, nil
}

// AttendanceCertificate records the certificate's issue and then exports
// it.
func (s *Service) AttendanceCertificate(ctx context.Context, sess auth.Session, cpf string) (*DocumentResult, error) {
	if err := sess.Require(auth.CapDiagnose, "issue attendance certificates"); err != nil {
		return nil, err
	}
	now := s.patients.Now()
	p, entries, err := s.patients.Mutate(ctx, cpf, func(*patient.Patient) ([]string, error) {
		return []string{fmt.Sprintf("Attendance certificate issued on %s at %s.",
			now.Format("2006-01-02"), now.Format("15:04"))}, nil
	})
	if err != nil {
		return nil, err
	}
	stored, err := s.exporter.Certificate(ctx, document.CertificateData{
		IssuedAt:           now,
		PatientID:          p.CPF,
		PatientName:        p.Name,
		DoctorName:         sess.Name,
		DoctorRegistration: sess.Registration,
		Category:           p.CategoryLabel(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("cpf", cpf).Msg("certificate recorded but not exported")
		return nil, fmt.Errorf("export certificate: %w", err)
	}
	return &DocumentResult{Document: stored, Entries: entries}, nil
}
