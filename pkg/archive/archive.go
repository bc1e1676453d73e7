// Package archive provides an optional write-only SQLite record of every
// evaluated candidate, keyed by the candidates' weak lineage references.
// It exists for post-run lineage analysis; the search never reads it back
// and does not depend on it.
package archive

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	errs "github.com/XiaoConstantine/funsearch-go/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS candidates (
	id          TEXT PRIMARY KEY,
	parent_id   TEXT,
	generation  INTEGER NOT NULL,
	fitness     REAL NOT NULL,
	accepted    INTEGER NOT NULL,
	error       TEXT,
	source      TEXT NOT NULL,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_candidates_parent ON candidates(parent_id);
CREATE INDEX IF NOT EXISTS idx_candidates_generation ON candidates(generation);
`

// Entry is one evaluated candidate's archival record.
type Entry struct {
	CandidateID string
	ParentID    string
	Generation  int
	Fitness     float64
	Accepted    bool
	Error       string
	Source      string
}

// Archive records evaluated candidates in a SQLite database.
type Archive struct {
	db *sql.DB
}

// Open creates or opens an archive at path. Use ":memory:" for an ephemeral
// archive in tests.
func Open(path string) (*Archive, error) {
	if path == "" {
		return nil, errs.New(errs.InvalidInput, "archive path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(err, errs.Unknown, "failed to open archive")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(err, errs.Unknown, "failed to initialize archive schema")
	}

	return &Archive{db: db}, nil
}

// Record stores one entry.
func (a *Archive) Record(ctx context.Context, e Entry) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO candidates (id, parent_id, generation, fitness, accepted, error, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.CandidateID, e.ParentID, e.Generation, e.Fitness, e.Accepted, e.Error, e.Source)
	if err != nil {
		return errs.WithFields(
			errs.Wrap(err, errs.Unknown, "failed to record candidate"),
			errs.Fields{"candidate_id": e.CandidateID})
	}
	return nil
}

// Lineage walks the parent chain of a candidate, most recent first. A parent
// missing from the archive ends the walk; ParentID is identity only, never a
// liveness guarantee.
func (a *Archive) Lineage(ctx context.Context, candidateID string) ([]Entry, error) {
	var chain []Entry
	id := candidateID
	for id != "" {
		row := a.db.QueryRowContext(ctx,
			`SELECT id, parent_id, generation, fitness, accepted, error, source
			 FROM candidates WHERE id = ?`, id)

		var e Entry
		if err := row.Scan(&e.CandidateID, &e.ParentID, &e.Generation, &e.Fitness,
			&e.Accepted, &e.Error, &e.Source); err != nil {
			if err == sql.ErrNoRows {
				break
			}
			return nil, errs.Wrap(err, errs.Unknown, "failed to read lineage")
		}
		chain = append(chain, e)
		id = e.ParentID
	}
	return chain, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}
