package database

import "time"

// Journal statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ConversionRecord is one journal row. It holds metadata only, never image
// bytes.
type ConversionRecord struct {
	ID          string    `db:"id" json:"id"`
	Style       string    `db:"style" json:"style"`
	Params      string    `db:"params" json:"params"` // JSON object of the effective parameters
	Format      string    `db:"format" json:"format"`
	Width       int       `db:"width" json:"width"`
	Height      int       `db:"height" json:"height"`
	InputBytes  int       `db:"input_bytes" json:"input_bytes"`
	OutputBytes int       `db:"output_bytes" json:"output_bytes"`
	DurationMS  int64     `db:"duration_ms" json:"duration_ms"`
	CacheHit    bool      `db:"cache_hit" json:"cache_hit"`
	Status      string    `db:"status" json:"status"`
	Error       string    `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
