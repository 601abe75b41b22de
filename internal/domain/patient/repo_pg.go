package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediclass/mediclass/internal/domain/exam"
	"github.com/mediclass/mediclass/internal/domain/triage"
	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const patientCols = `cpf, name, contact, insurance, birth_date, bed, triage_nurse,
	admitted_at, priority, current_triage, created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p       Patient
		rawTria []byte
	)
	err := row.Scan(&p.CPF, &p.Name, &p.Contact, &p.Insurance, &p.BirthDate, &p.Bed, &p.TriageNurse,
		&p.AdmittedAt, &p.Priority, &rawTria, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(rawTria) > 0 {
		var rec triage.Record
		if err := json.Unmarshal(rawTria, &rec); err != nil {
			return nil, fmt.Errorf("decode current triage of %s: %w", p.CPF, err)
		}
		p.CurrentTriage = &rec
	}
	return &p, nil
}

func (r *repoPG) Get(ctx context.Context, cpf string) (*Patient, error) {
	conn := db.Conn(ctx, r.pool)
	p, err := r.scanPatient(conn.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE cpf = $1`, cpf))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient", cpf)
	}
	if err != nil {
		return nil, err
	}
	if p.Exams, err = r.exams(ctx, conn, cpf); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) exams(ctx context.Context, conn db.Queryable, cpf string) ([]exam.Result, error) {
	rows, err := conn.Query(ctx, `
		SELECT exam_type, result, recorded_at, recorded_by
		FROM patient_exam WHERE patient_cpf = $1 ORDER BY seq`, cpf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []exam.Result
	for rows.Next() {
		var res exam.Result
		if err := rows.Scan(&res.Type, &res.Result, &res.RecordedAt, &res.RecordedBy); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *repoPG) Put(ctx context.Context, p *Patient) error {
	var rawTria []byte
	if p.CurrentTriage != nil {
		var err error
		if rawTria, err = json.Marshal(p.CurrentTriage); err != nil {
			return fmt.Errorf("encode current triage of %s: %w", p.CPF, err)
		}
	}
	conn := db.Conn(ctx, r.pool)
	_, err := conn.Exec(ctx, `
		INSERT INTO patient (cpf, name, contact, insurance, birth_date, bed, triage_nurse,
			admitted_at, priority, current_triage)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (cpf) DO UPDATE SET
			name=EXCLUDED.name, contact=EXCLUDED.contact, insurance=EXCLUDED.insurance,
			birth_date=EXCLUDED.birth_date, bed=EXCLUDED.bed, triage_nurse=EXCLUDED.triage_nurse,
			admitted_at=EXCLUDED.admitted_at, priority=EXCLUDED.priority,
			current_triage=EXCLUDED.current_triage, updated_at=NOW()`,
		p.CPF, p.Name, p.Contact, p.Insurance, p.BirthDate, p.Bed, p.TriageNurse,
		p.AdmittedAt, p.Priority, rawTria)
	if err != nil {
		return err
	}
	for i, res := range p.Exams {
		_, err := conn.Exec(ctx, `
			INSERT INTO patient_exam (id, patient_cpf, seq, exam_type, result, recorded_by, recorded_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (patient_cpf, seq) DO NOTHING`,
			uuid.New(), p.CPF, i, string(res.Type), res.Result, res.RecordedBy, res.RecordedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn.Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY cpf LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
