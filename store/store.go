// Package store persists estimator runs in a SQLite database through the
// pure-Go modernc.org/sqlite driver. Each run keeps its parameters and
// metrics as JSON and its embedding as a float32 BLOB, so past results
// can be compared without rerunning anything.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// ErrRunNotFound is returned by GetRun for an unknown id
var ErrRunNotFound = errors.New("store: run not found")

// Fixed-width timestamps keep string order equal to time order, which
// the ORDER BY created_at queries rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    created_at   TEXT NOT NULL,
    dataset      TEXT NOT NULL,
    estimator    TEXT NOT NULL,
    backend      TEXT NOT NULL,
    params       TEXT,
    n_samples    INTEGER NOT NULL,
    n_features   INTEGER NOT NULL,
    n_components INTEGER NOT NULL,
    duration_ns  INTEGER NOT NULL,
    metrics      TEXT,
    embedding    BLOB
);
CREATE INDEX IF NOT EXISTS idx_runs_estimator ON runs(estimator, created_at);
`

// Run is one recorded estimator execution
type Run struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	Dataset     string             `json:"dataset"`
	Estimator   string             `json:"estimator"`
	Backend     string             `json:"backend"`
	Params      map[string]any     `json:"params,omitempty"`
	NSamples    int                `json:"n_samples"`
	NFeatures   int                `json:"n_features"`
	NComponents int                `json:"n_components"`
	Duration    time.Duration      `json:"duration_ns"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Embedding   []float32          `json:"-"`
}

// Store is a SQLite-backed run archive
type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at path. Pass ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run. An empty ID gets a fresh UUID and a zero
// CreatedAt gets the current time; both are written back to r.
func (s *Store) SaveRun(ctx context.Context, r *Run) error {
	if r == nil {
		return fmt.Errorf("store: nil run")
	}
	if r.Estimator == "" {
		return fmt.Errorf("store: run has no estimator")
	}
	if len(r.Embedding) > 0 && r.NSamples*r.NComponents != len(r.Embedding) {
		return fmt.Errorf("store: embedding has %d values, shape says %d",
			len(r.Embedding), r.NSamples*r.NComponents)
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	params, err := marshalOrNull(r.Params)
	if err != nil {
		return fmt.Errorf("store: encode params: %w", err)
	}
	metrics, err := marshalOrNull(r.Metrics)
	if err != nil {
		return fmt.Errorf("store: encode metrics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs(id, created_at, dataset, estimator, backend, params,
		                 n_samples, n_features, n_components, duration_ns, metrics, embedding)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.Format(timeLayout), r.Dataset, r.Estimator, r.Backend,
		params, r.NSamples, r.NFeatures, r.NComponents, int64(r.Duration), metrics,
		EncodeEmbedding(r.Embedding))
	if err != nil {
		return fmt.Errorf("store: insert run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun loads a run by id
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, dataset, estimator, backend, params,
		       n_samples, n_features, n_components, duration_ns, metrics, embedding
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// LatestRuns returns up to n runs, newest first. A non-empty estimator
// filters by estimator name.
func (s *Store) LatestRuns(ctx context.Context, estimator string, n int) ([]*Run, error) {
	if n <= 0 {
		n = 10
	}

	query := `
		SELECT id, created_at, dataset, estimator, backend, params,
		       n_samples, n_features, n_components, duration_ns, metrics, embedding
		FROM runs`
	args := []any{}
	if estimator != "" {
		query += ` WHERE estimator = ?`
		args = append(args, estimator)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, n)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// ExportJSON writes every stored run as an indented JSON array, newest
// first. Embeddings are omitted; the export is a comparison baseline,
// not a backup.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	runs, err := s.LatestRuns(ctx, "", 1<<30)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runs)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r          Run
		createdAt  string
		params     sql.NullString
		metrics    sql.NullString
		durationNs int64
		blob       []byte
	)
	err := row.Scan(&r.ID, &createdAt, &r.Dataset, &r.Estimator, &r.Backend, &params,
		&r.NSamples, &r.NFeatures, &r.NComponents, &durationNs, &metrics, &blob)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("store: run %s has bad timestamp %q: %w", r.ID, createdAt, err)
	}
	r.Duration = time.Duration(durationNs)

	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &r.Params); err != nil {
			return nil, fmt.Errorf("store: run %s params: %w", r.ID, err)
		}
	}
	if metrics.Valid && metrics.String != "" {
		if err := json.Unmarshal([]byte(metrics.String), &r.Metrics); err != nil {
			return nil, fmt.Errorf("store: run %s metrics: %w", r.ID, err)
		}
	}
	if r.Embedding, err = DecodeEmbedding(blob); err != nil {
		return nil, fmt.Errorf("store: run %s: %w", r.ID, err)
	}
	return &r, nil
}

func marshalOrNull(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 0 {
			return nil, nil
		}
	case map[string]float64:
		if len(x) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
