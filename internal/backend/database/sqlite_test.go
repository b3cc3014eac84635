package database

import (
	"context"
	"testing"
	"time"
)

func newTestDB(t *testing.T) DatabaseService {
	t.Helper()

	ds, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	_, err = ds.CreateDatabase()
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestSQLite_DoesDatabaseExist(t *testing.T) {
	ds := newTestDB(t)
	if !ds.DoesDatabaseExist() {
		t.Fatalf("expected DoesDatabaseExist to return true")
	}
}

func TestSQLite_CreateDatabaseIsIdempotent(t *testing.T) {
	ds := newTestDB(t)
	if _, err := ds.CreateDatabase(); err != nil {
		t.Fatalf("second CreateDatabase error: %v", err)
	}
}

func TestSQLite_RecordAndGetConversion(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &ConversionRecord{
		Style:       "outline",
		Params:      `{"threshold1":50,"threshold2":150}`,
		Format:      "PNG",
		Width:       64,
		Height:      48,
		InputBytes:  1200,
		OutputBytes: 900,
		DurationMS:  15,
		CacheHit:    true,
		Status:      StatusSucceeded,
		CreatedAt:   created,
	}
	id, err := ds.RecordConversion(ctx, rec)
	if err != nil {
		t.Fatalf("RecordConversion error: %v", err)
	}
	if id == "" || rec.ID != id {
		t.Fatalf("expected ID to be assigned, got %q (record has %q)", id, rec.ID)
	}

	got, err := ds.GetConversionByID(ctx, id)
	if err != nil {
		t.Fatalf("GetConversionByID error: %v", err)
	}
	if got == nil {
		t.Fatalf("GetConversionByID returned nil; expected record")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	gotCopy, wantCopy := *got, *rec
	gotCopy.CreatedAt, wantCopy.CreatedAt = time.Time{}, time.Time{}
	if gotCopy != wantCopy {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", gotCopy, wantCopy)
	}

	// Test non-existent ID
	missing, err := ds.GetConversionByID(ctx, "non-existent-id")
	if err != nil {
		t.Fatalf("GetConversionByID(non-existent) error: %v", err)
	}
	if missing != nil {
		t.Fatalf("GetConversionByID(non-existent) returned non-nil; expected nil")
	}
}

func TestSQLite_RecordConversion_Defaults(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	rec := &ConversionRecord{Style: "mosaic", Status: StatusFailed, Error: "invalid value"}
	id, err := ds.RecordConversion(ctx, rec)
	if err != nil {
		t.Fatalf("RecordConversion error: %v", err)
	}
	got, err := ds.GetConversionByID(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("GetConversionByID error: %v", err)
	}
	if got.Params != "{}" {
		t.Errorf("expected empty params object, got %q", got.Params)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if got.Error != "invalid value" || got.Status != StatusFailed {
		t.Errorf("unexpected status/error: %q %q", got.Status, got.Error)
	}
}

func TestSQLite_GetConversions_NewestFirstWithLimit(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := ds.RecordConversion(ctx, &ConversionRecord{
			Style:     "vintage",
			Status:    StatusSucceeded,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordConversion #%d error: %v", i, err)
		}
		ids = append(ids, id)
	}

	records, err := ds.GetConversions(ctx, 3)
	if err != nil {
		t.Fatalf("GetConversions error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if records[i].ID != want {
			t.Errorf("record[%d] = %q, want %q", i, records[i].ID, want)
		}
	}

	empty, err := ds.GetConversions(ctx, 0)
	if err != nil {
		t.Fatalf("GetConversions(0) error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no records for limit 0, got %d", len(empty))
	}
}

func TestSQLite_CountAndDelete(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	id1, err := ds.RecordConversion(ctx, &ConversionRecord{Style: "a", Status: StatusSucceeded})
	if err != nil {
		t.Fatalf("RecordConversion #1 error: %v", err)
	}
	id2, err := ds.RecordConversion(ctx, &ConversionRecord{Style: "b", Status: StatusSucceeded})
	if err != nil {
		t.Fatalf("RecordConversion #2 error: %v", err)
	}

	if err := ds.DeleteConversion(ctx, id1); err != nil {
		t.Fatalf("DeleteConversion error: %v", err)
	}

	n, err := ds.CountConversions(ctx)
	if err != nil {
		t.Fatalf("CountConversions error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record after deletion, got %d", n)
	}
	records, err := ds.GetConversions(ctx, 10)
	if err != nil {
		t.Fatalf("GetConversions error: %v", err)
	}
	if records[0].ID != id2 {
		t.Fatalf("expected remaining ID %q, got %q", id2, records[0].ID)
	}
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	if _, err := NewDatabase("postgres", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	ds, err := NewDatabase("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewDatabase(sqlite) error: %v", err)
	}
	defer func() { _ = ds.Close() }()
	if _, err := ds.CountConversions(context.Background()); err != nil {
		t.Fatalf("schema should exist after NewDatabase: %v", err)
	}
}
