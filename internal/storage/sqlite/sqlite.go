package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.HistoryRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository, the database is created and
// migrated if required.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite history initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

const recordColumns = `
	launch_id, task_id, kind, status,
	failure_reason, failure_message,
	params, result,
	launched_at, finished_at
`

// SaveTaskRecord saves a finished task record.
func (r *Repository) SaveTaskRecord(ctx context.Context, rec model.TaskRecord) error {
	if rec.LaunchID == "" || rec.TaskID == "" {
		return fmt.Errorf("launch and task ID are required: %w", model.ErrNotValid)
	}

	var params, result *string
	if rec.Params != nil {
		b, err := json.Marshal(rec.Params)
		if err != nil {
			return fmt.Errorf("could not marshal params: %w", err)
		}
		s := string(b)
		params = &s
	}
	if len(rec.Result) > 0 {
		s := string(rec.Result)
		result = &s
	}

	query := `INSERT INTO task_records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.LaunchID,
		rec.TaskID,
		rec.Kind,
		rec.Status,
		rec.FailureReason,
		rec.FailureMessage,
		params,
		result,
		rec.LaunchedAt.UnixNano(),
		rec.FinishedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: task_records.") {
			return fmt.Errorf("task record %s: %w", rec.LaunchID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task record: %w", err)
	}

	r.logger.Debugf("Saved task record in repository: %s", rec.LaunchID)
	return nil
}

// GetTaskRecord returns the latest record with the launch ID or task ID.
func (r *Repository) GetTaskRecord(ctx context.Context, id string) (*model.TaskRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM task_records
		WHERE launch_id = ? OR task_id = ?
		ORDER BY launched_at DESC, rowid DESC
		LIMIT 1
	`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task record %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task record: %w", err)
	}

	return &rec, nil
}

// ListTaskRecords returns the records matching the filter, latest launched first.
func (r *Repository) ListTaskRecords(ctx context.Context, filter model.TaskRecordFilter) ([]model.TaskRecord, error) {
	var where []string
	var args []any
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + recordColumns + ` FROM task_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY launched_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query task records: %w", err)
	}
	defer rows.Close()

	records := []model.TaskRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.TaskRecord, error) {
	var rec model.TaskRecord
	var params, result sql.NullString
	var launchedAt, finishedAt int64

	err := s.Scan(
		&rec.LaunchID,
		&rec.TaskID,
		&rec.Kind,
		&rec.Status,
		&rec.FailureReason,
		&rec.FailureMessage,
		&params,
		&result,
		&launchedAt,
		&finishedAt,
	)
	if err != nil {
		return model.TaskRecord{}, err
	}

	if params.Valid {
		if err := json.Unmarshal([]byte(params.String), &rec.Params); err != nil {
			return model.TaskRecord{}, fmt.Errorf("invalid params of %s: %w", rec.LaunchID, err)
		}
	}
	if result.Valid {
		rec.Result = json.RawMessage(result.String)
	}
	rec.LaunchedAt = timeFromUnixNano(launchedAt)
	rec.FinishedAt = timeFromUnixNano(finishedAt)

	return rec, nil
}

func timeFromUnixNano(ns int64) time.Time { return time.Unix(0, ns).UTC() }
