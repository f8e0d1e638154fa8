// Package report persists generated narrative reports, one row per report,
// always scoped to the owning user.
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// ErrNotFound is returned when a report does not exist or belongs to another
// user; callers cannot tell the difference, by contract.
var ErrNotFound = errors.New("report not found")

// FileMeta describes one input file a report was generated from.
type FileMeta struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Report is one stored narrative report.
type Report struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	ProjectID string     `json:"projectId"`
	Name      string     `json:"name"`
	Provider  string     `json:"provider"`
	Content   string     `json:"content"`
	Files     []FileMeta `json:"files,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Store is a PostgreSQL-backed report store.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and verifies connectivity.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the reports table when missing.
func (s *Store) CreateTables(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		project_id VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		provider VARCHAR(64) NOT NULL,
		content TEXT NOT NULL,
		files JSONB NOT NULL DEFAULT '[]',
		status VARCHAR(32) NOT NULL DEFAULT 'completed',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create reports table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS reports_user_idx ON reports (user_id, created_at DESC)`); err != nil {
		return fmt.Errorf("create reports index: %w", err)
	}
	return nil
}

// Create inserts a report, assigning the id and timestamps.
func (s *Store) Create(ctx context.Context, r *Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = "completed"
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	files, err := json.Marshal(r.Files)
	if err != nil {
		return fmt.Errorf("marshal files metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, project_id, name, provider, content, files, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.UserID, r.ProjectID, r.Name, r.Provider, r.Content, files, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Get returns one report owned by the user.
func (s *Store) Get(ctx context.Context, userID, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, project_id, name, provider, content, files, status, created_at, updated_at
		 FROM reports WHERE id = $1 AND user_id = $2`, id, userID)
	return scanReport(row)
}

// List returns the user's reports, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]*Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, project_id, name, provider, content, files, status, created_at, updated_at
		 FROM reports WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Delete removes one report owned by the user.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*Report, error) {
	var r Report
	var files []byte
	err := row.Scan(&r.ID, &r.UserID, &r.ProjectID, &r.Name, &r.Provider,
		&r.Content, &files, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &r.Files); err != nil {
			return nil, fmt.Errorf("decode files metadata: %w", err)
		}
	}
	return &r, nil
}
