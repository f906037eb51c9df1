package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/bayesnet/internal/query"
)

// Record is one stored diagnosis: a single target of a processed query.
type Record struct {
	ID           string             `json:"id"`
	QueryID      string             `json:"query_id"`
	CreatedAt    time.Time          `json:"created_at"`
	Algorithm    string             `json:"algorithm"`
	Samples      int                `json:"samples"`
	Evidence     map[string]string  `json:"evidence"`
	Target       string             `json:"target"`
	Distribution map[string]float64 `json:"distribution"`
	Empty        bool               `json:"empty"`
}

// Store persists diagnoses in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS diagnoses (
		id TEXT PRIMARY KEY,
		query_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		algorithm TEXT NOT NULL,
		samples INTEGER NOT NULL,
		evidence JSON NOT NULL,
		target TEXT NOT NULL,
		distribution JSON NOT NULL,
		empty INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_diagnoses_created ON diagnoses(created_at);
	CREATE INDEX IF NOT EXISTS idx_diagnoses_query ON diagnoses(query_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one row per target of res.
func (s *Store) Record(ctx context.Context, q *query.Query, res *query.Result) error {
	evidence, err := json.Marshal(nonNilEvidence(q.Evidence))
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	created := q.ReceivedAt
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, tr := range res.Results {
		dist := tr.Distribution
		if dist == nil {
			dist = map[string]float64{}
		}
		distJSON, err := json.Marshal(dist)
		if err != nil {
			return fmt.Errorf("marshal distribution: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO diagnoses (id, query_id, created_at, algorithm, samples, evidence, target, distribution, empty)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), res.QueryID, created.UnixNano(), res.Algorithm, res.Samples,
			string(evidence), tr.Target, string(distJSON), boolToInt(tr.Empty),
		)
		if err != nil {
			return fmt.Errorf("insert diagnosis: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query_id, created_at, algorithm, samples, evidence, target, distribution, empty
		FROM diagnoses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                  Record
			created            int64
			evidence, distJSON string
			empty              int64
		)
		if err := rows.Scan(&r.ID, &r.QueryID, &created, &r.Algorithm, &r.Samples, &evidence, &r.Target, &distJSON, &empty); err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		r.Empty = empty != 0
		if err := json.Unmarshal([]byte(evidence), &r.Evidence); err != nil {
			return nil, fmt.Errorf("decode evidence of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(distJSON), &r.Distribution); err != nil {
			return nil, fmt.Errorf("decode distribution of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNilEvidence(ev map[string]string) map[string]string {
	if ev == nil {
		return map[string]string{}
	}
	return ev
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
