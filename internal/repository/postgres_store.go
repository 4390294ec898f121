package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deppfellow/patient-api/internal/model/patient"
	"github.com/deppfellow/patient-api/internal/sqlerr"
)

// Pool is the subset of *pgxpool.Pool the postgres store needs.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore keeps records in the patients table.
//
// Constraint violations that slip past model validation are surfaced as
// *errs.HTTPError through sqlerr.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore returns a store using pool, normally a *pgxpool.Pool.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const patientColumns = `name, city, age, gender, height, weight, bmi, verdict`

func scanRecord(row pgx.Row) (patient.Record, error) {
	var rec patient.Record
	err := row.Scan(&rec.Name, &rec.City, &rec.Age, &rec.Gender, &rec.Height, &rec.Weight, &rec.BMI, &rec.Verdict)
	return rec, err
}

func (s *PostgresStore) All(ctx context.Context) ([]patient.Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, `+patientColumns+` FROM patients ORDER BY id`)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (patient.Entry, error) {
		var e patient.Entry
		err := row.Scan(&e.ID, &e.Record.Name, &e.Record.City, &e.Record.Age, &e.Record.Gender,
			&e.Record.Height, &e.Record.Weight, &e.Record.BMI, &e.Record.Verdict)
		return e, err
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return entries, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*patient.Record, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return &rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, id string, rec patient.Record) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO patients (id, `+patientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		id, rec.Name, rec.City, rec.Age, rec.Gender, rec.Height, rec.Weight, rec.BMI, rec.Verdict,
	)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Update locks the row for the duration of fn.
func (s *PostgresStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	defer tx.Rollback(ctx)

	current, err := scanRecord(tx.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return sqlerr.HandleError(err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE patients
		SET name = $2, city = $3, age = $4, gender = $5, height = $6, weight = $7,
		    bmi = $8, verdict = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		id, next.Name, next.City, next.Age, next.Gender, next.Height, next.Weight, next.BMI, next.Verdict,
	)
	if err != nil {
		return sqlerr.HandleError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing patient update: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
