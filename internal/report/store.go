// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/gapfinder/pkg/types"
)

// RunKind names the command that produced a run.
type RunKind string

const (
	KindExtract RunKind = "extract"
	KindAnalyze RunKind = "analyze"
	KindRun     RunKind = "run"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrRunNotFound is returned when no run matches an ID or ID prefix.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousID is returned when an ID prefix matches several runs.
	ErrAmbiguousID = errors.New("ambiguous run id prefix")
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID        string                 `json:"id" yaml:"id"`
	Kind      RunKind                `json:"kind" yaml:"kind"`
	Query     string                 `json:"query,omitempty" yaml:"query,omitempty"`
	CreatedAt time.Time              `json:"created_at" yaml:"created_at"`
	Overview  types.ExtractionResult `json:"overview" yaml:"overview"`
	Batch     *types.BatchReport     `json:"batch,omitempty" yaml:"batch,omitempty"`
}

// RunSummary is the listing row for a run.
type RunSummary struct {
	ID              string    `json:"id" yaml:"id"`
	Kind            RunKind   `json:"kind" yaml:"kind"`
	Query           string    `json:"query" yaml:"query"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	Found           bool      `json:"found" yaml:"found"`
	Articles        int       `json:"articles" yaml:"articles"`
	AverageCoverage float64   `json:"average_coverage" yaml:"average_coverage"`
}

// CoveragePoint is one historical coverage measurement of an article.
type CoveragePoint struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Query     string    `json:"query" yaml:"query"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Coverage  float64   `json:"coverage" yaml:"coverage"`
	Missing   []string  `json:"missing" yaml:"missing"`
}

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the run history database at path, creating its
// directory and schema when missing.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			query TEXT,
			created_at TEXT NOT NULL,
			found INTEGER NOT NULL,
			overview TEXT NOT NULL,
			articles INTEGER NOT NULL DEFAULT 0,
			average_coverage REAL NOT NULL DEFAULT 0,
			summary TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			title TEXT,
			word_count INTEGER,
			success INTEGER NOT NULL,
			error TEXT,
			coverage REAL,
			report TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_url ON articles(url)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run in a single transaction. An empty ID is filled with a
// new UUID and a zero CreatedAt with the current time. The stored ID is
// returned.
func (s *Store) Record(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	overview, err := json.Marshal(run.Overview)
	if err != nil {
		return "", fmt.Errorf("marshaling overview: %w", err)
	}

	var (
		articles int
		avg      float64
		summary  []byte
	)
	if run.Batch != nil {
		articles = len(run.Batch.IndividualResults)
		avg = run.Batch.Summary.AverageCoveragePercentage
		if summary, err = json.Marshal(run.Batch.Summary); err != nil {
			return "", fmt.Errorf("marshaling summary: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, query, created_at, found, overview, articles, average_coverage, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Query, run.CreatedAt.UTC().Format(timeLayout),
		run.Overview.Found, string(overview), articles, avg, nullString(summary),
	); err != nil {
		return "", fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	if run.Batch != nil {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO articles (run_id, position, url, title, word_count, success, error, coverage, report)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("preparing article insert: %w", err)
		}
		defer stmt.Close()

		for i, a := range run.Batch.IndividualResults {
			var (
				coverage sql.NullFloat64
				report   []byte
			)
			if a.GapAnalysis != nil {
				coverage = sql.NullFloat64{Float64: a.GapAnalysis.CoveragePercentage, Valid: true}
				if report, err = json.Marshal(a.GapAnalysis); err != nil {
					return "", fmt.Errorf("marshaling report for %s: %w", a.URL, err)
				}
			}
			if _, err := stmt.ExecContext(ctx, run.ID, i, a.URL, a.Title, a.WordCount,
				a.Success, a.Error, coverage, nullString(report)); err != nil {
				return "", fmt.Errorf("inserting article %s: %w", a.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, query, created_at, found, articles, average_coverage
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r       RunSummary
			kind    string
			query   sql.NullString
			created string
		)
		if err := rows.Scan(&r.ID, &kind, &query, &created, &r.Found, &r.Articles, &r.AverageCoverage); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Kind = RunKind(kind)
		r.Query = query.String
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get loads a run by ID or by a unique ID prefix.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (*Run, error) {
	id, err := s.resolveID(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	var (
		run      Run
		kind     string
		query    sql.NullString
		created  string
		overview string
		summary  sql.NullString
	)
	if err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, query, created_at, overview, summary FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &kind, &query, &created, &overview, &summary); err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	run.Kind = RunKind(kind)
	run.Query = query.String
	run.CreatedAt, _ = time.Parse(timeLayout, created)
	if err := json.Unmarshal([]byte(overview), &run.Overview); err != nil {
		return nil, fmt.Errorf("decoding overview of run %s: %w", id, err)
	}

	if summary.Valid {
		batch := &types.BatchReport{IndividualResults: []types.ArticleResult{}}
		if err := json.Unmarshal([]byte(summary.String), &batch.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary of run %s: %w", id, err)
		}
		if batch.IndividualResults, err = s.articles(ctx, id); err != nil {
			return nil, err
		}
		run.Batch = batch
	}
	return &run, nil
}

func (s *Store) resolveID(ctx context.Context, idOrPrefix string) (string, error) {
	if idOrPrefix == "" {
		return "", ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`,
		idOrPrefix, len(idOrPrefix), idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolving run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scanning run id: %w", err)
		}
		if id == idOrPrefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%s: %w", idOrPrefix, ErrRunNotFound)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("%s: %w", idOrPrefix, ErrAmbiguousID)
}

func (s *Store) articles(ctx context.Context, runID string) ([]types.ArticleResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, word_count, success, error, report
		 FROM articles WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading articles of run %s: %w", runID, err)
	}
	defer rows.Close()

	out := []types.ArticleResult{}
	for rows.Next() {
		var (
			a      types.ArticleResult
			title  sql.NullString
			words  sql.NullInt64
			errMsg sql.NullString
			report sql.NullString
		)
		if err := rows.Scan(&a.URL, &title, &words, &a.Success, &errMsg, &report); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		a.Title, a.WordCount, a.Error = title.String, int(words.Int64), errMsg.String
		if report.Valid {
			var g types.GapReport
			if err := json.Unmarshal([]byte(report.String), &g); err != nil {
				return nil, fmt.Errorf("decoding report for %s: %w", a.URL, err)
			}
			a.GapAnalysis = &g
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Coverage returns every successful measurement of url, oldest first.
func (s *Store) Coverage(ctx context.Context, url string) ([]CoveragePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.created_at, a.coverage, a.report
		 FROM articles a JOIN runs r ON r.id = a.run_id
		 WHERE a.url = ? AND a.success = 1
		 ORDER BY r.created_at, r.id`, url)
	if err != nil {
		return nil, fmt.Errorf("querying coverage of %s: %w", url, err)
	}
	defer rows.Close()

	var out []CoveragePoint
	for rows.Next() {
		var (
			p       CoveragePoint
			query   sql.NullString
			created string
			report  sql.NullString
		)
		if err := rows.Scan(&p.RunID, &query, &created, &p.Coverage, &report); err != nil {
			return nil, fmt.Errorf("scanning coverage: %w", err)
		}
		p.Query = query.String
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		p.Missing = []string{}
		if report.Valid {
			var g types.GapReport
			if err := json.Unmarshal([]byte(report.String), &g); err == nil && g.Missing != nil {
				p.Missing = g.Missing
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a run and its articles.
func (s *Store) Delete(ctx context.Context, idOrPrefix string) error {
	id, err := s.resolveID(ctx, idOrPrefix)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	return nil
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
