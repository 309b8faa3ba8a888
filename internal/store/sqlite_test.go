package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xielang86/mindora-user/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProfile(uid string) *model.UserProfile {
	return &model.UserProfile{
		UID:       uid,
		Embedding: []float64{0.125, -1.5, 3.0000001},
		LongTermProfile: []model.WeightedLabel{
			{Label: "running", Weight: 0.8},
			{Label: "jazz", Weight: 0.2},
		},
		Behaviors: map[string][]model.Sample{
			"heart_rate": {
				{Timestamp: 1758101400, Value: json.RawMessage(`90`)},
				{Timestamp: 1758101430, Value: json.RawMessage(`85`)},
			},
			"clicks": {
				{Timestamp: 1758101400, Value: json.RawMessage(`"product_page_1"`)},
				{Timestamp: 1758101430, Value: json.RawMessage(`{"button":"checkout","x":[1,2]}`)},
			},
			"plays": {},
		},
	}
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := sampleProfile("client007")
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get(ctx, "client007")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected profile to be found")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	got, ok, err := s.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok || got != nil {
		t.Errorf("expected absent profile, got ok=%v profile=%+v", ok, got)
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, sampleProfile("u1"))

	updated := sampleProfile("u1")
	updated.Embedding = []float64{9}
	delete(updated.Behaviors, "clicks")
	if err := s.Put(ctx, updated); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, _, _ := s.Get(ctx, "u1")
	if !reflect.DeepEqual(got, updated) {
		t.Errorf("expected overwritten profile, got %+v", got)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 profile, got %d", n)
	}
}

func TestPutRejectsEmptyUID(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put(context.Background(), &model.UserProfile{}); err == nil {
		t.Error("expected error for empty uid")
	}
}

func TestGetNormalizesNullCollections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Put(ctx, &model.UserProfile{UID: "bare"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get(ctx, "bare")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Embedding == nil || got.LongTermProfile == nil || got.Behaviors == nil {
		t.Errorf("expected empty collections, got %+v", got)
	}
}

func TestReopenExisting(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "profiles.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	want := sampleProfile("persist")
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	got, ok, err := s2.Get(ctx, "persist")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("profile changed across reopen: %+v", got)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	_, err := decodeProfile("u1", []byte(`{"format":99,"profile":{"uid":"u1"}}`))
	if err == nil {
		t.Error("expected error for unknown record format")
	}

	_, err = decodeProfile("u1", []byte(`{"format":1}`))
	if err == nil {
		t.Error("expected error for empty record")
	}
}
