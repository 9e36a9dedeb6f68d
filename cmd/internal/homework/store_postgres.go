package homework

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a RecordStore backed by PostgreSQL.
//
// Ownership model:
//   - PostgresStore does NOT own the pgx pool. The caller must close the pool.
//
// The record set lives in <schema>.homework_records. A single row in
// <schema>.homework_record_state carries the set version used for
// optimistic concurrency.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures PostgresStore behavior.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the DB schema used by this store (default: "homeworksync").
// The schema name is validated and safely quoted in queries.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("homework: empty schema")
		}
		if !isValidPGIdent(schema) {
			return errors.New("homework: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a Postgres-backed RecordStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "homeworksync",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("homework: nil pool")
	}
	return st, nil
}

// Migrate creates the schema and tables when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	records := pgIdent(s.schema, "homework_records")
	state := pgIdent(s.schema, "homework_record_state")

	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + records + ` (
		   position         INTEGER NOT NULL,
		   id               TEXT    NOT NULL,
		   status           TEXT    NOT NULL DEFAULT '',
		   tea_name_surname TEXT    NOT NULL DEFAULT '',
		   lesson           TEXT    NOT NULL DEFAULT '',
		   start_date       TEXT    NOT NULL DEFAULT '',
		   end_date         TEXT    NOT NULL DEFAULT '',
		   description      TEXT    NOT NULL DEFAULT '',
		   PRIMARY KEY (position)
		 )`,
		`CREATE TABLE IF NOT EXISTS ` + state + ` (
		   singleton  BOOLEAN     PRIMARY KEY DEFAULT TRUE CHECK (singleton),
		   version    BIGINT      NOT NULL,
		   message    TEXT        NOT NULL DEFAULT '',
		   updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("homework: migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	if s == nil || s.pool == nil {
		return Snapshot{}, errors.New("homework: nil store")
	}

	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT version FROM `+pgIdent(s.schema, "homework_record_state")+` WHERE singleton`,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, status, tea_name_surname, lesson, start_date, end_date, description
		   FROM `+pgIdent(s.schema, "homework_records")+`
		  ORDER BY position ASC`,
	)
	if err != nil {
		return Snapshot{}, err
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.ID, &r.Status, &r.Teacher, &r.Lesson, &r.StartDate, &r.EndDate, &r.Description)
		return r, err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Records: recs, Version: strconv.FormatInt(version, 10)}, nil
}

// Save replaces the whole set inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, snap Snapshot, message string) error {
	if s == nil || s.pool == nil {
		return errors.New("homework: nil store")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	state := pgIdent(s.schema, "homework_record_state")

	var cur int64
	err = tx.QueryRow(ctx, `SELECT version FROM `+state+` WHERE singleton FOR UPDATE`).Scan(&cur)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if snap.Version != "" {
			return ErrStale
		}
	case err != nil:
		return err
	default:
		if snap.Version != strconv.FormatInt(cur, 10) {
			return ErrStale
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM `+pgIdent(s.schema, "homework_records")); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	rows := make([][]any, 0, len(snap.Records))
	for i, r := range snap.Records {
		rows = append(rows, []any{i, r.ID, r.Status, r.Teacher, r.Lesson, r.StartDate, r.EndDate, r.Description})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{s.schema, "homework_records"},
		[]string{"position", "id", "status", "tea_name_surname", "lesson", "start_date", "end_date", "description"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy records: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+state+` AS st (singleton, version, message, updated_at)
		 VALUES (TRUE, 1, $1, now())
		 ON CONFLICT (singleton) DO UPDATE
		   SET version = st.version + 1,
		       message = EXCLUDED.message,
		       updated_at = now()`,
		message,
	); err != nil {
		return fmt.Errorf("bump version: %w", err)
	}

	return tx.Commit(ctx)
}

var pgIdentRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidPGIdent(s string) bool {
	return pgIdentRE.MatchString(s)
}

func pgIdent(schema, table string) string {
	// pgx.Identifier safely quotes identifiers, preventing SQL injection.
	return pgx.Identifier{schema, table}.Sanitize()
}
