// Package patient is the patient registry and the operations that change a
// patient: admission, triage and exam recording.
package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediclass/mediclass/internal/domain/exam"
	"github.com/mediclass/mediclass/internal/domain/history"
	"github.com/mediclass/mediclass/internal/domain/triage"
	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/auth"
	"github.com/mediclass/mediclass/internal/platform/db"
	"github.com/mediclass/mediclass/internal/platform/document"
	"github.com/mediclass/mediclass/internal/platform/events"
	"github.com/mediclass/mediclass/internal/platform/lock"
)

const (
	admissionDateLayout = "2006-01-02"
	priorityFlagText    = "FLAG: Priority activated due to abnormal values."
)

// Deps are the collaborators of a Service.
type Deps struct {
	Repo      Repository
	Ledger    history.Ledger
	Locker    lock.Locker
	Tx        db.Transactor
	Publisher events.Publisher
	Exporter  *document.Exporter
	Logger    zerolog.Logger
}

type Service struct {
	repo     Repository
	ledger   history.Ledger
	locker   lock.Locker
	tx       db.Transactor
	pub      events.Publisher
	exporter *document.Exporter
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:     d.Repo,
		ledger:   d.Ledger,
		locker:   d.Locker,
		tx:       d.Tx,
		pub:      d.Publisher,
		exporter: d.Exporter,
		logger:   d.Logger,
		now:      time.Now,
	}
	if s.tx == nil {
		s.tx = db.NopTransactor{}
	}
	if s.pub == nil {
		s.pub = events.Nop{}
	}
	return s
}

// SetClock replaces the time source used for triage and admission stamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Mutation changes a patient loaded by Mutate and returns the ledger lines
// describing the change.
type Mutation func(p *Patient) ([]string, error)

// Mutate is the single-writer path for an existing patient: under the
// patient's lock and in one transaction it loads the patient, applies fn,
// appends the returned lines as one ledger batch and stores the patient. The
// committed entries are published afterwards.
func (s *Service) Mutate(ctx context.Context, cpf string, fn Mutation) (*Patient, []history.Entry, error) {
	release, err := s.locker.Lock(ctx, cpf)
	if err != nil {
		return nil, nil, fmt.Errorf("lock patient %s: %w", cpf, err)
	}
	defer release()

	var (
		out     *Patient
		entries []history.Entry
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, cpf)
		if err != nil {
			return err
		}
		lines, err := fn(p)
		if err != nil {
			return err
		}
		if entries, err = s.ledger.AppendBatch(ctx, cpf, lines...); err != nil {
			return err
		}
		if err := s.repo.Put(ctx, p); err != nil {
			return fmt.Errorf("store patient %s: %w", cpf, err)
		}
		out = p
		return nil
	})
	if err != nil {
		s.logInvariant(err, cpf)
		return nil, nil, err
	}
	s.publish(ctx, cpf, entries)
	return out, entries, nil
}

func (s *Service) logInvariant(err error, cpf string) {
	if apperr.IsInvariant(err) && !apperr.Surfaced(err) {
		s.logger.Error().Err(err).Str("cpf", cpf).Msg("invariant violation")
	}
}

func (s *Service) publish(ctx context.Context, cpf string, entries []history.Entry) {
	if len(entries) == 0 {
		return
	}
	evs := make([]events.LedgerAppended, len(entries))
	for i, e := range entries {
		evs[i] = events.LedgerAppended{PatientID: cpf, Seq: e.Seq, Timestamp: e.Timestamp, Text: e.Text, Hash: e.Hash}
	}
	if err := s.pub.PublishLedger(ctx, evs...); err != nil {
		s.logger.Warn().Err(err).Str("cpf", cpf).Msg("publish ledger events")
	}
}

func admissionText(bed string, at time.Time) string {
	return fmt.Sprintf("Admitted to bed %s on %s", bed, at.Format(admissionDateLayout))
}

// Register admits a patient. A new patient is created with its ledger
// header; a returning patient keeps its record and only gets a new
// admission line.
func (s *Service) Register(ctx context.Context, sess auth.Session, r Registration) (*Patient, error) {
	if err := sess.Require(auth.CapRegister, "register patients"); err != nil {
		return nil, err
	}
	if err := ValidateCPF(r.CPF); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, r.CPF)
	if err != nil {
		return nil, fmt.Errorf("lock patient %s: %w", r.CPF, err)
	}
	defer release()

	var (
		out     *Patient
		entries []history.Entry
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		p, err := s.repo.Get(ctx, r.CPF)
		switch {
		case apperr.IsNotFound(err):
			if err := r.validateNew(); err != nil {
				return err
			}
			nurse := ""
			if sess.Role == auth.RoleIntake {
				nurse = sess.Name
			}
			p = &Patient{
				CPF:         r.CPF,
				Name:        r.Name,
				Contact:     r.Contact,
				Insurance:   r.Insurance,
				BirthDate:   r.BirthDate,
				Bed:         r.Bed,
				TriageNurse: nurse,
				CreatedAt:   now,
			}
			if err := s.ledger.Create(ctx, p.CPF, p.Name); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		p.AdmittedAt = &now
		p.UpdatedAt = now
		e, err := s.ledger.Append(ctx, p.CPF, admissionText(p.Bed, now))
		if err != nil {
			return err
		}
		entries = []history.Entry{e}
		if err := s.repo.Put(ctx, p); err != nil {
			return fmt.Errorf("store patient %s: %w", p.CPF, err)
		}
		out = p
		return nil
	})
	if err != nil {
		s.logInvariant(err, r.CPF)
		return nil, err
	}
	s.publish(ctx, r.CPF, entries)
	s.logger.Info().Str("cpf", r.CPF).Str("bed", out.Bed).Str("by", sess.Login).Msg("patient admitted")
	return out, nil
}

// TriageResult is what a triage pass produced.
type TriageResult struct {
	Record   *triage.Record  `json:"record"`
	Priority bool            `json:"priority"`
	Raised   bool            `json:"priority_raised"`
	Entries  []history.Entry `json:"entries"`
}

// Triage validates a triage pass, makes it the patient's current record and
// writes it to the ledger. The priority flag is OR-accumulated and never
// cleared.
func (s *Service) Triage(ctx context.Context, sess auth.Session, cpf string, in triage.Input) (*TriageResult, error) {
	if err := sess.Require(auth.CapTriage, "perform triage"); err != nil {
		return nil, err
	}
	rec, _, err := triage.Build(in, sess.Name, s.now())
	if err != nil {
		return nil, err
	}

	var raised bool
	p, entries, err := s.Mutate(ctx, cpf, func(p *Patient) ([]string, error) {
		lines := []string{rec.Summary()}
		if rec.AnyAbnormal() {
			lines = append(lines, priorityFlagText)
		}
		raised = !p.Priority && rec.AnyAbnormal()
		p.Priority = p.Priority || rec.AnyAbnormal()
		p.CurrentTriage = rec
		if p.TriageNurse == "" {
			p.TriageNurse = sess.Name
		}
		p.UpdatedAt = rec.CreatedAt
		return lines, nil
	})
	if err != nil {
		return nil, err
	}

	if rec.AnyAbnormal() {
		abnormal := make([]string, len(rec.Abnormal))
		for i, v := range rec.Abnormal {
			abnormal[i] = string(v)
		}
		s.logger.Warn().Str("cpf", cpf).Strs("abnormal", abnormal).Msg("priority activated")
		alert := events.PriorityRaised{
			PatientID: cpf, Name: p.Name, Bed: p.Bed, Abnormal: abnormal,
			RaisedAt: rec.CreatedAt, RaisedBy: sess.Login,
		}
		if err := s.pub.PublishPriority(ctx, alert); err != nil {
			s.logger.Warn().Err(err).Str("cpf", cpf).Msg("publish priority alert")
		}
	}
	return &TriageResult{Record: rec, Priority: p.Priority, Raised: raised, Entries: entries}, nil
}

// RecordExam appends a technician's exam result to the patient.
func (s *Service) RecordExam(ctx context.Context, sess auth.Session, cpf, examName, result string) (*exam.Result, error) {
	if err := sess.Require(auth.CapRecordExam, "record exam results"); err != nil {
		return nil, err
	}
	t, err := exam.Lookup(examName)
	if err != nil {
		return nil, err
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return nil, apperr.Format("result", "", "a non-empty result")
	}
	if err := apperr.SingleLine("result", result); err != nil {
		return nil, err
	}

	res := exam.Result{Type: t, Result: result, RecordedAt: s.now(), RecordedBy: sess.Name}
	_, _, err = s.Mutate(ctx, cpf, func(p *Patient) ([]string, error) {
		p.Exams = append(p.Exams, res)
		p.UpdatedAt = res.RecordedAt
		return []string{res.LedgerText()}, nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) Get(ctx context.Context, cpf string) (*Patient, error) {
	return s.repo.Get(ctx, cpf)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// History returns the patient's full ledger.
func (s *Service) History(ctx context.Context, cpf string) ([]history.Entry, error) {
	if _, err := s.repo.Get(ctx, cpf); err != nil {
		return nil, err
	}
	return s.ledger.ReadAll(ctx, cpf)
}

// VerifyHistory recomputes the patient's hash chain.
func (s *Service) VerifyHistory(ctx context.Context, cpf string) error {
	return s.ledger.Verify(ctx, cpf)
}

// Export renders the patient record document.
func (s *Service) Export(ctx context.Context, cpf string) (document.Stored, error) {
	p, err := s.repo.Get(ctx, cpf)
	if err != nil {
		return document.Stored{}, err
	}
	entries, err := s.ledger.ReadAll(ctx, cpf)
	if err != nil {
		return document.Stored{}, err
	}
	data := document.RecordData{
		PatientID:   p.CPF,
		Name:        p.Name,
		Contact:     p.Contact,
		Insurance:   p.Insurance,
		BirthDate:   p.BirthDate,
		Bed:         p.Bed,
		TriageNurse: p.TriageNurse,
		Priority:    p.Priority,
		History:     history.Lines(entries),
	}
	for _, e := range p.Exams {
		data.Exams = append(data.Exams, document.Field{Name: string(e.Type), Value: e.Result})
	}
	if p.CurrentTriage != nil {
		for _, f := range p.CurrentTriage.Fields() {
			data.Triage = append(data.Triage, document.Field{Name: f.Name, Value: f.Value})
		}
	}
	stored, err := s.exporter.Record(ctx, data)
	if err != nil {
		return document.Stored{}, err
	}
	s.logger.Info().Str("cpf", cpf).Str("location", stored.Location).Msg("record exported")
	return stored, nil
}
