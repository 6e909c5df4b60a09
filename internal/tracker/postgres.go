package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the tracker uses. pgxmock satisfies it,
// which keeps the Postgres paths unit-testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS attempts (
	id           TEXT PRIMARY KEY,
	entity_key   TEXT NOT NULL,
	display_name TEXT NOT NULL,
	page_token   TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	entity_key   TEXT NOT NULL,
	display_name TEXT NOT NULL,
	row_number   INTEGER NOT NULL,
	page_token   TEXT NOT NULL,
	filing_date  TEXT NOT NULL,
	doc_type     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metadata (
	id             TEXT PRIMARY KEY,
	file_name      TEXT NOT NULL,
	entity_key     TEXT NOT NULL,
	reference_name TEXT NOT NULL,
	source_name    TEXT NOT NULL,
	year           TEXT NOT NULL,
	date           TEXT NOT NULL,
	doc_type       TEXT NOT NULL,
	disk_path      TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS matching (
	id         TEXT PRIMARY KEY,
	entity_key TEXT NOT NULL,
	name       TEXT NOT NULL,
	year       TEXT NOT NULL,
	data_date  TEXT NOT NULL,
	status     TEXT NOT NULL,
	year_match TEXT NOT NULL,
	file_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verifications (
	id                 TEXT PRIMARY KEY,
	disk_path          TEXT NOT NULL,
	entity_key         TEXT NOT NULL,
	reference_name     TEXT NOT NULL,
	source_name        TEXT NOT NULL,
	year               TEXT NOT NULL,
	doc_type_confirmed TEXT NOT NULL,
	name_confirmed     TEXT NOT NULL,
	year_confirmed     TEXT NOT NULL,
	reference_index    TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cursor (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	ordinal INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_entity ON attempts(entity_key);
CREATE INDEX IF NOT EXISTS idx_artifacts_entity ON artifacts(entity_key);
CREATE INDEX IF NOT EXISTS idx_matching_entity ON matching(entity_key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) AppendAttempt(ctx context.Context, a model.Attempt) (bool, error) {
	if a.PageToken == model.PageSK {
		blocked, err := s.exists(ctx,
			`SELECT COUNT(*) FROM attempts WHERE entity_key = $1 AND display_name = $2 AND page_token = $3`,
			a.EntityKey, a.DisplayName, string(model.PageNA))
		if err != nil {
			return false, eris.Wrap(err, "postgres: scan attempts for NA")
		}
		if blocked {
			return false, nil
		}
	}

	dup, err := s.exists(ctx,
		`SELECT COUNT(*) FROM attempts WHERE entity_key = $1 AND display_name = $2 AND page_token = $3`,
		a.EntityKey, a.DisplayName, string(a.PageToken))
	if err != nil {
		return false, eris.Wrap(err, "postgres: scan attempts")
	}
	if dup {
		return false, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, entity_key, display_name, page_token) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), a.EntityKey, a.DisplayName, string(a.PageToken))
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert attempt")
	}
	return true, nil
}

func (s *PostgresStore) AppendArtifact(ctx context.Context, a model.Artifact) (bool, error) {
	dup, err := s.exists(ctx,
		`SELECT COUNT(*) FROM artifacts
		 WHERE entity_key = $1 AND display_name = $2 AND row_number = $3 AND page_token = $4 AND filing_date = $5 AND doc_type = $6`,
		a.EntityKey, a.DisplayName, a.RowNumber, string(a.PageToken), a.FilingDate, a.DocType)
	if err != nil {
		return false, eris.Wrap(err, "postgres: scan artifacts")
	}
	if dup {
		return false, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO artifacts (id, entity_key, display_name, row_number, page_token, filing_date, doc_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), a.EntityKey, a.DisplayName, a.RowNumber, string(a.PageToken), a.FilingDate, a.DocType)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert artifact")
	}
	return true, nil
}

func (s *PostgresStore) Attempts(ctx context.Context) ([]model.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity_key, display_name, page_token FROM attempts ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list attempts")
	}
	defer rows.Close()

	var out []model.Attempt
	for rows.Next() {
		var a model.Attempt
		var token string
		if err := rows.Scan(&a.EntityKey, &a.DisplayName, &token); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attempt")
		}
		a.PageToken = model.PageToken(token)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list attempts iterate")
}

func (s *PostgresStore) Artifacts(ctx context.Context) ([]model.Artifact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity_key, display_name, row_number, page_token, filing_date, doc_type
		 FROM artifacts ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list artifacts")
	}
	defer rows.Close()

	var out []model.Artifact
	for rows.Next() {
		var a model.Artifact
		var token string
		if err := rows.Scan(&a.EntityKey, &a.DisplayName, &a.RowNumber, &token, &a.FilingDate, &a.DocType); err != nil {
			return nil, eris.Wrap(err, "postgres: scan artifact")
		}
		a.PageToken = model.PageToken(token)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list artifacts iterate")
}

func (s *PostgresStore) AppendMetadata(ctx context.Context, m model.MetadataRow) (bool, error) {
	dup, err := s.exists(ctx,
		`SELECT COUNT(*) FROM metadata
		 WHERE file_name = $1 AND entity_key = $2 AND reference_name = $3 AND source_name = $4
		   AND year = $5 AND date = $6 AND doc_type = $7 AND disk_path = $8`,
		m.FileName, m.EntityKey, m.ReferenceName, m.SourceName, m.Year, m.Date, m.DocType, m.DiskPath)
	if err != nil {
		return false, eris.Wrap(err, "postgres: scan metadata")
	}
	if dup {
		return false, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO metadata (id, file_name, entity_key, reference_name, source_name, year, date, doc_type, disk_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New().String(), m.FileName, m.EntityKey, m.ReferenceName, m.SourceName, m.Year, m.Date, m.DocType, m.DiskPath)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert metadata")
	}
	return true, nil
}

func (s *PostgresStore) AppendMatching(ctx context.Context, m model.MatchingRow) (bool, error) {
	dup, err := s.exists(ctx,
		`SELECT COUNT(*) FROM matching
		 WHERE entity_key = $1 AND name = $2 AND year = $3 AND data_date = $4
		   AND status = $5 AND year_match = $6 AND file_count = $7`,
		m.EntityKey, m.Name, m.Year, m.DataDate, string(m.Status), m.YearMatch, m.FileCount)
	if err != nil {
		return false, eris.Wrap(err, "postgres: scan matching")
	}
	if dup {
		return false, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO matching (id, entity_key, name, year, data_date, status, year_match, file_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), m.EntityKey, m.Name, m.Year, m.DataDate, string(m.Status), m.YearMatch, m.FileCount)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert matching")
	}
	return true, nil
}

func (s *PostgresStore) AppendVerification(ctx context.Context, v model.VerificationRecord) (bool, error) {
	dup, err := s.exists(ctx,
		`SELECT COUNT(*) FROM verifications
		 WHERE disk_path = $1 AND entity_key = $2 AND reference_name = $3 AND source_name = $4 AND year = $5
		   AND doc_type_confirmed = $6 AND name_confirmed = $7 AND year_confirmed = $8 AND reference_index = $9`,
		v.DiskPath, v.EntityKey, v.ReferenceName, v.SourceName, v.Year,
		v.DocTypeConfirmed, v.NameConfirmed, v.YearConfirmed, v.ReferenceIndex)
	if err != nil {
		return false, eris.Wrap(err, "postgres: scan verifications")
	}
	if dup {
		return false, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO verifications
		 (id, disk_path, entity_key, reference_name, source_name, year, doc_type_confirmed, name_confirmed, year_confirmed, reference_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New().String(), v.DiskPath, v.EntityKey, v.ReferenceName, v.SourceName, v.Year,
		v.DocTypeConfirmed, v.NameConfirmed, v.YearConfirmed, v.ReferenceIndex)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert verification")
	}
	return true, nil
}

func (s *PostgresStore) Metadata(ctx context.Context) ([]model.MetadataRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT file_name, entity_key, reference_name, source_name, year, date, doc_type, disk_path
		 FROM metadata ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list metadata")
	}
	defer rows.Close()

	var out []model.MetadataRow
	for rows.Next() {
		var m model.MetadataRow
		if err := rows.Scan(&m.FileName, &m.EntityKey, &m.ReferenceName, &m.SourceName, &m.Year, &m.Date, &m.DocType, &m.DiskPath); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metadata row")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list metadata iterate")
}

func (s *PostgresStore) Matching(ctx context.Context) ([]model.MatchingRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity_key, name, year, data_date, status, year_match, file_count
		 FROM matching ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matching")
	}
	defer rows.Close()

	var out []model.MatchingRow
	for rows.Next() {
		var m model.MatchingRow
		var status string
		if err := rows.Scan(&m.EntityKey, &m.Name, &m.Year, &m.DataDate, &status, &m.YearMatch, &m.FileCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan matching row")
		}
		m.Status = model.Status(status)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list matching iterate")
}

func (s *PostgresStore) Verifications(ctx context.Context) ([]model.VerificationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT disk_path, entity_key, reference_name, source_name, year, doc_type_confirmed, name_confirmed, year_confirmed, reference_index
		 FROM verifications ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list verifications")
	}
	defer rows.Close()

	var out []model.VerificationRecord
	for rows.Next() {
		var v model.VerificationRecord
		if err := rows.Scan(&v.DiskPath, &v.EntityKey, &v.ReferenceName, &v.SourceName, &v.Year,
			&v.DocTypeConfirmed, &v.NameConfirmed, &v.YearConfirmed, &v.ReferenceIndex); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verification row")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list verifications iterate")
}

func (s *PostgresStore) Cursor(ctx context.Context) (int, error) {
	var ordinal int
	err := s.pool.QueryRow(ctx, `SELECT ordinal FROM cursor WHERE id = 1`).Scan(&ordinal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "postgres: read cursor")
	}
	return ordinal, nil
}

func (s *PostgresStore) StoreCursor(ctx context.Context, ordinal int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cursor (id, ordinal) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET ordinal = EXCLUDED.ordinal
		 WHERE cursor.ordinal < EXCLUDED.ordinal`,
		ordinal)
	return eris.Wrap(err, "postgres: store cursor")
}
