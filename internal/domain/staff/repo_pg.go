package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const memberCols = `login, name, registration, role, password_hash, created_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.Login, &m.Name, &m.Registration, &m.Role, &m.PasswordHash, &m.CreatedAt)
	return &m, err
}

func (r *repoPG) Get(ctx context.Context, login string) (*Member, error) {
	m, err := scanMember(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+memberCols+` FROM staff_member WHERE login = $1`, login))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("staff member", login)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) Put(ctx context.Context, m *Member) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO staff_member (login, name, registration, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (login) DO UPDATE SET
			name=EXCLUDED.name, registration=EXCLUDED.registration,
			role=EXCLUDED.role, password_hash=EXCLUDED.password_hash`,
		m.Login, m.Name, m.Registration, string(m.Role), m.PasswordHash)
	return err
}

func (r *repoPG) List(ctx context.Context) ([]*Member, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+memberCols+` FROM staff_member ORDER BY login`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
