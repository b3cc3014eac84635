package database

import (
	"context"
	"database/sql"
)

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// RecordConversion stores rec, assigning ID and CreatedAt when empty, and returns the ID.
	RecordConversion(ctx context.Context, rec *ConversionRecord) (string, error)
	// GetConversions returns at most limit records, newest first.
	GetConversions(ctx context.Context, limit int) ([]*ConversionRecord, error)
	// GetConversionByID returns nil without error when no record matches.
	GetConversionByID(ctx context.Context, id string) (*ConversionRecord, error)
	CountConversions(ctx context.Context) (int, error)
	DeleteConversion(ctx context.Context, id string) error
}
