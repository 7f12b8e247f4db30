package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-harvester/internal/domain"
	"github.com/jsamuelsen/quote-harvester/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-harvester/internal/ports"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// Compile-time interface checks.
var (
	_ ports.SnapshotStore = (*SQLiteStore)(nil)
	_ ports.HealthChecker = (*SQLiteStore)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_categories (
	date_key TEXT NOT NULL,
	position INTEGER NOT NULL,
	category TEXT NOT NULL,
	PRIMARY KEY (date_key, position),
	UNIQUE (date_key, category)
);

CREATE TABLE IF NOT EXISTS snapshot_quotes (
	date_key TEXT NOT NULL,
	category TEXT NOT NULL,
	position INTEGER NOT NULL,
	text     TEXT NOT NULL,
	author   TEXT NOT NULL,
	tags     TEXT NOT NULL,
	PRIMARY KEY (date_key, category, position)
);
`

// SQLiteStore archives snapshots in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// OpenSQLiteStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite store: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteStore{db: db, tracer: telemetry.Tracer()}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Write replaces every row stored for the date in one transaction.
func (s *SQLiteStore) Write(ctx context.Context, dateKey string, snapshot *domain.Snapshot) (err error) {
	if err := domain.ValidateDateKey(dateKey); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "storage.sqlite.write",
		trace.WithAttributes(attribute.String("snapshot.date", dateKey)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	if snapshot == nil {
		snapshot = domain.NewSnapshot(0)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"snapshot_quotes", "snapshot_categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE date_key = ?", dateKey); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for pos, category := range snapshot.Categories() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO snapshot_categories (date_key, position, category) VALUES (?, ?, ?)",
			dateKey, pos, category,
		); err != nil {
			return fmt.Errorf("inserting category %q: %w", category, err)
		}

		result, _ := snapshot.Get(category)
		for i, q := range result {
			tags, err := json.Marshal(q.Tags)
			if err != nil {
				return fmt.Errorf("encoding tags: %w", err)
			}

			if _, err := tx.ExecContext(ctx,
				"INSERT INTO snapshot_quotes (date_key, category, position, text, author, tags) VALUES (?, ?, ?, ?, ?, ?)",
				dateKey, category, i, q.Text, q.Author, string(tags),
			); err != nil {
				return fmt.Errorf("inserting quote %d of %q: %w", i, category, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot %s: %w", dateKey, err)
	}

	span.SetAttributes(attribute.Int("snapshot.records", snapshot.TotalRecords()))

	return nil
}

// Read rebuilds the snapshot stored for a date.
func (s *SQLiteStore) Read(ctx context.Context, dateKey string) (*domain.Snapshot, error) {
	if err := domain.ValidateDateKey(dateKey); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "storage.sqlite.read",
		trace.WithAttributes(attribute.String("snapshot.date", dateKey)),
	)
	defer span.End()

	categories, err := s.categories(ctx, dateKey)
	if err != nil {
		return nil, err
	}

	if len(categories) == 0 {
		return nil, domain.NewNotFoundError("snapshot", dateKey)
	}

	results := make(map[string]domain.CategoryResult, len(categories))

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, text, author, tags FROM snapshot_quotes WHERE date_key = ? ORDER BY category, position",
		dateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q    domain.QuoteRecord
			tags string
		)

		if err := rows.Scan(&q.Category, &q.Text, &q.Author, &tags); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}

		if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}

		results[q.Category] = append(results[q.Category], q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading quotes: %w", err)
	}

	snapshot := domain.NewSnapshot(len(categories))
	for _, c := range categories {
		snapshot.Set(c, results[c])
	}

	return snapshot, nil
}

func (s *SQLiteStore) categories(ctx context.Context, dateKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT category FROM snapshot_categories WHERE date_key = ? ORDER BY position",
		dateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []string

	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// List returns the archived dates, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT date_key FROM snapshot_categories ORDER BY date_key DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	keys := []string{}

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning date: %w", err)
		}

		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Name implements ports.HealthChecker.
func (s *SQLiteStore) Name() string {
	return "snapshot-archive"
}

// Check pings the database.
func (s *SQLiteStore) Check(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.NewUnavailableError(s.Name(), err.Error())
	}

	return nil
}
