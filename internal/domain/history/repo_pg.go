package history

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediclass/mediclass/internal/platform/db"
)

const uniqueViolation = "23505"

type storePG struct {
	pool *pgxpool.Pool
	tx   db.Transactor
}

// NewStorePG stores ledgers in the history_event table. Inserts join the
// transaction carried by ctx when there is one.
func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool, tx: db.NewTransactor(pool)}
}

const entryCols = `seq, recorded_at, text, prev_hash, hash`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.Seq, &e.Timestamp, &e.Text, &e.PrevHash, &e.Hash)
	return e, err
}

func (s *storePG) Head(ctx context.Context, patientID string) (*Entry, error) {
	e, err := scanEntry(db.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT `+entryCols+` FROM history_event WHERE patient_cpf = $1 ORDER BY seq DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *storePG) Insert(ctx context.Context, patientID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		conn := db.Conn(ctx, s.pool)
		for _, e := range entries {
			_, err := conn.Exec(ctx, `
				INSERT INTO history_event (id, patient_cpf, seq, recorded_at, text, prev_hash, hash)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New(), patientID, e.Seq, e.Timestamp, e.Text, e.PrevHash, e.Hash)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
					return ErrConflict
				}
				return err
			}
		}
		return nil
	})
}

func (s *storePG) Load(ctx context.Context, patientID string) ([]Entry, error) {
	rows, err := db.Conn(ctx, s.pool).Query(ctx,
		`SELECT `+entryCols+` FROM history_event WHERE patient_cpf = $1 ORDER BY seq`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
