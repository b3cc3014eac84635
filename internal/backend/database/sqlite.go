package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

const conversionColumns = "id, style, params, format, width, height, input_bytes, output_bytes, duration_ms, cache_hit, status, error, created_at"

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS conversions (
		id TEXT PRIMARY KEY,
		style TEXT NOT NULL,
		params TEXT NOT NULL DEFAULT '{}',
		format TEXT NOT NULL DEFAULT '',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		input_bytes INTEGER NOT NULL DEFAULT 0,
		output_bytes INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		cache_hit INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions (created_at)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) RecordConversion(ctx context.Context, rec *ConversionRecord) (string, error) {
	if rec.ID == "" {
		id, err := generateID()
		if err != nil {
			return "", err
		}
		rec.ID = id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Params == "" {
		rec.Params = "{}"
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversions ("+conversionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Style, rec.Params, rec.Format, rec.Width, rec.Height,
		rec.InputBytes, rec.OutputBytes, rec.DurationMS, rec.CacheHit,
		rec.Status, rec.Error, rec.CreatedAt.UnixMilli())
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *SQLiteDatabase) GetConversions(ctx context.Context, limit int) ([]*ConversionRecord, error) {
	if limit <= 0 {
		return []*ConversionRecord{}, nil
	}
	// rowid breaks ties between records written in the same millisecond
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+conversionColumns+" FROM conversions ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	records := []*ConversionRecord{}
	for rows.Next() {
		rec, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteDatabase) GetConversionByID(ctx context.Context, id string) (*ConversionRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+conversionColumns+" FROM conversions WHERE id = ?", id)
	rec, err := scanConversion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteDatabase) CountConversions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversions").Scan(&n)
	return n, err
}

func (s *SQLiteDatabase) DeleteConversion(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM conversions WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversion(row rowScanner) (*ConversionRecord, error) {
	var rec ConversionRecord
	var createdAt int64
	err := row.Scan(&rec.ID, &rec.Style, &rec.Params, &rec.Format, &rec.Width, &rec.Height,
		&rec.InputBytes, &rec.OutputBytes, &rec.DurationMS, &rec.CacheHit,
		&rec.Status, &rec.Error, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}
