package tracker

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/arc-research/harvest-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS attempts (
	id           TEXT PRIMARY KEY,
	entity_key   TEXT NOT NULL,
	display_name TEXT NOT NULL,
	page_token   TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	entity_key   TEXT NOT NULL,
	display_name TEXT NOT NULL,
	row_number   INTEGER NOT NULL,
	page_token   TEXT NOT NULL,
	filing_date  TEXT NOT NULL,
	doc_type     TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
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
	disk_path      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matching (
	id         TEXT PRIMARY KEY,
	entity_key TEXT NOT NULL,
	name       TEXT NOT NULL,
	year       TEXT NOT NULL,
	data_date  TEXT NOT NULL,
	status     TEXT NOT NULL,
	year_match TEXT NOT NULL,
	file_count INTEGER NOT NULL
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
	reference_index    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cursor (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	ordinal INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_entity ON attempts(entity_key);
CREATE INDEX IF NOT EXISTS idx_artifacts_entity ON artifacts(entity_key);
CREATE INDEX IF NOT EXISTS idx_matching_entity ON matching(entity_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendAttempt appends one attempt record unless an identical record
// exists. A "SK" write is additionally suppressed when the entity already
// carries an "NA" record: an entity confirmed empty stays empty.
func (s *SQLiteStore) AppendAttempt(ctx context.Context, a model.Attempt) (bool, error) {
	if a.PageToken == model.PageSK {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM attempts WHERE entity_key = ? AND display_name = ? AND page_token = ?`,
			a.EntityKey, a.DisplayName, string(model.PageNA),
		).Scan(&n)
		if err != nil {
			return false, eris.Wrap(err, "sqlite: scan attempts for NA")
		}
		if n > 0 {
			return false, nil
		}
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE entity_key = ? AND display_name = ? AND page_token = ?`,
		a.EntityKey, a.DisplayName, string(a.PageToken),
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: scan attempts")
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, entity_key, display_name, page_token) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), a.EntityKey, a.DisplayName, string(a.PageToken),
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert attempt")
	}
	return true, nil
}

func (s *SQLiteStore) AppendArtifact(ctx context.Context, a model.Artifact) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM artifacts
		 WHERE entity_key = ? AND display_name = ? AND row_number = ? AND page_token = ? AND filing_date = ? AND doc_type = ?`,
		a.EntityKey, a.DisplayName, a.RowNumber, string(a.PageToken), a.FilingDate, a.DocType,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: scan artifacts")
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, entity_key, display_name, row_number, page_token, filing_date, doc_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), a.EntityKey, a.DisplayName, a.RowNumber, string(a.PageToken), a.FilingDate, a.DocType,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert artifact")
	}
	return true, nil
}

func (s *SQLiteStore) Attempts(ctx context.Context) ([]model.Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_key, display_name, page_token FROM attempts ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list attempts")
	}
	defer rows.Close()

	var out []model.Attempt
	for rows.Next() {
		var a model.Attempt
		var token string
		if err := rows.Scan(&a.EntityKey, &a.DisplayName, &token); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attempt")
		}
		a.PageToken = model.PageToken(token)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list attempts iterate")
}

func (s *SQLiteStore) Artifacts(ctx context.Context) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_key, display_name, row_number, page_token, filing_date, doc_type
		 FROM artifacts ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list artifacts")
	}
	defer rows.Close()

	var out []model.Artifact
	for rows.Next() {
		var a model.Artifact
		var token string
		if err := rows.Scan(&a.EntityKey, &a.DisplayName, &a.RowNumber, &token, &a.FilingDate, &a.DocType); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan artifact")
		}
		a.PageToken = model.PageToken(token)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list artifacts iterate")
}

func (s *SQLiteStore) AppendMetadata(ctx context.Context, m model.MetadataRow) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM metadata
		 WHERE file_name = ? AND entity_key = ? AND reference_name = ? AND source_name = ?
		   AND year = ? AND date = ? AND doc_type = ? AND disk_path = ?`,
		m.FileName, m.EntityKey, m.ReferenceName, m.SourceName, m.Year, m.Date, m.DocType, m.DiskPath,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: scan metadata")
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO metadata (id, file_name, entity_key, reference_name, source_name, year, date, doc_type, disk_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), m.FileName, m.EntityKey, m.ReferenceName, m.SourceName, m.Year, m.Date, m.DocType, m.DiskPath,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert metadata")
	}
	return true, nil
}

func (s *SQLiteStore) AppendMatching(ctx context.Context, m model.MatchingRow) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matching
		 WHERE entity_key = ? AND name = ? AND year = ? AND data_date = ?
		   AND status = ? AND year_match = ? AND file_count = ?`,
		m.EntityKey, m.Name, m.Year, m.DataDate, string(m.Status), m.YearMatch, m.FileCount,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: scan matching")
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matching (id, entity_key, name, year, data_date, status, year_match, file_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), m.EntityKey, m.Name, m.Year, m.DataDate, string(m.Status), m.YearMatch, m.FileCount,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert matching")
	}
	return true, nil
}

func (s *SQLiteStore) AppendVerification(ctx context.Context, v model.VerificationRecord) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verifications
		 WHERE disk_path = ? AND entity_key = ? AND reference_name = ? AND source_name = ? AND year = ?
		   AND doc_type_confirmed = ? AND name_confirmed = ? AND year_confirmed = ? AND reference_index = ?`,
		v.DiskPath, v.EntityKey, v.ReferenceName, v.SourceName, v.Year,
		v.DocTypeConfirmed, v.NameConfirmed, v.YearConfirmed, v.ReferenceIndex,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: scan verifications")
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verifications
		 (id, disk_path, entity_key, reference_name, source_name, year, doc_type_confirmed, name_confirmed, year_confirmed, reference_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), v.DiskPath, v.EntityKey, v.ReferenceName, v.SourceName, v.Year,
		v.DocTypeConfirmed, v.NameConfirmed, v.YearConfirmed, v.ReferenceIndex,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert verification")
	}
	return true, nil
}

func (s *SQLiteStore) Metadata(ctx context.Context) ([]model.MetadataRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_name, entity_key, reference_name, source_name, year, date, doc_type, disk_path
		 FROM metadata ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list metadata")
	}
	defer rows.Close()

	var out []model.MetadataRow
	for rows.Next() {
		var m model.MetadataRow
		if err := rows.Scan(&m.FileName, &m.EntityKey, &m.ReferenceName, &m.SourceName, &m.Year, &m.Date, &m.DocType, &m.DiskPath); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metadata row")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list metadata iterate")
}

func (s *SQLiteStore) Matching(ctx context.Context) ([]model.MatchingRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_key, name, year, data_date, status, year_match, file_count
		 FROM matching ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matching")
	}
	defer rows.Close()

	var out []model.MatchingRow
	for rows.Next() {
		var m model.MatchingRow
		var status string
		if err := rows.Scan(&m.EntityKey, &m.Name, &m.Year, &m.DataDate, &status, &m.YearMatch, &m.FileCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan matching row")
		}
		m.Status = model.Status(status)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list matching iterate")
}

func (s *SQLiteStore) Verifications(ctx context.Context) ([]model.VerificationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT disk_path, entity_key, reference_name, source_name, year, doc_type_confirmed, name_confirmed, year_confirmed, reference_index
		 FROM verifications ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list verifications")
	}
	defer rows.Close()

	var out []model.VerificationRecord
	for rows.Next() {
		var v model.VerificationRecord
		if err := rows.Scan(&v.DiskPath, &v.EntityKey, &v.ReferenceName, &v.SourceName, &v.Year,
			&v.DocTypeConfirmed, &v.NameConfirmed, &v.YearConfirmed, &v.ReferenceIndex); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verification row")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list verifications iterate")
}

func (s *SQLiteStore) Cursor(ctx context.Context) (int, error) {
	var ordinal int
	err := s.db.QueryRowContext(ctx, `SELECT ordinal FROM cursor WHERE id = 1`).Scan(&ordinal)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: read cursor")
	}
	return ordinal, nil
}

// StoreCursor persists the last completed entity ordinal. The write is
// monotonic: a value lower than the stored one is a no-op.
func (s *SQLiteStore) StoreCursor(ctx context.Context, ordinal int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cursor (id, ordinal) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET ordinal = excluded.ordinal
		 WHERE excluded.ordinal > cursor.ordinal`,
		ordinal,
	)
	return eris.Wrap(err, "sqlite: store cursor")
}
