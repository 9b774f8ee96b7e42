package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/nucleus/harvest-core/internal/endpoint"
)

func newTestSink(t *testing.T, format Format) (*Sink, ObjectStore) {
	t.Helper()
	store := NewLocalStore(t.TempDir())
	s := New(store, &Config{
		Bucket:     "test-bucket",
		BasePrefix: "raw",
		Format:     format,
		LoadDate:   "2024-06-15",
	})
	if err := s.Provision(context.Background()); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	return s, store
}

func TestSink_Unit_WriteJSONL(t *testing.T) {
	s, store := newTestSink(t, FormatJSONL)
	ctx := context.Background()

	records := []endpoint.Record{
		{"id": float64(10), "first_name": "Ada", "updated_at": "2024-03-01T10:00:00Z"},
		{"id": float64(20), "first_name": "Grace", "updated_at": "2024-03-05T09:30:00Z"},
	}
	result, err := s.WriteBatch(ctx, "users", records)
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if result.Records != 2 || len(result.Objects) != 1 {
		t.Fatalf("result = %+v", result)
	}

	key := result.Objects[0]
	wantPrefix := "raw/users/dt=2024-06-15/run=" + s.RunID() + "/part-000000.jsonl.gz"
	if key != wantPrefix {
		t.Fatalf("key = %q, want %q", key, wantPrefix)
	}

	data, err := store.GetObject(ctx, "test-bucket", key)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	lines, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var envelopes []recordEnvelope
	dec := json.NewDecoder(bytes.NewReader(lines))
	for dec.More() {
		var env recordEnvelope
		if err := dec.Decode(&env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		envelopes = append(envelopes, env)
	}

	if len(envelopes) != 2 {
		t.Fatalf("got %d envelopes, want 2", len(envelopes))
	}
	if envelopes[0].Stream != "users" || envelopes[0].RecordID != "10" {
		t.Errorf("envelope = %+v", envelopes[0])
	}
	if envelopes[1].Cursor != "2024-03-05T09:30:00Z" {
		t.Errorf("cursor = %q", envelopes[1].Cursor)
	}
	if !strings.Contains(envelopes[0].Payload, `"first_name":"Ada"`) {
		t.Errorf("payload = %q", envelopes[0].Payload)
	}
}

func TestSink_Unit_WriteParquet(t *testing.T) {
	s, store := newTestSink(t, FormatParquet)
	ctx := context.Background()

	result, err := s.WriteBatch(ctx, "projects", []endpoint.Record{
		{"id": float64(1), "name": "Apollo", "updated_at": "2024-02-01T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if !strings.HasSuffix(result.Objects[0], "part-000000.parquet") {
		t.Fatalf("key = %q, want parquet part", result.Objects[0])
	}

	data, err := store.GetObject(ctx, "test-bucket", result.Objects[0])
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	// PAR1 magic brackets every parquet file.
	if len(data) < 8 || string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Errorf("object is not a parquet file (%d bytes)", len(data))
	}
}

func TestSink_Unit_PartSequencePerStream(t *testing.T) {
	s, _ := newTestSink(t, FormatJSONL)
	ctx := context.Background()

	batch := []endpoint.Record{{"id": float64(1)}}
	first, _ := s.WriteBatch(ctx, "users", batch)
	second, _ := s.WriteBatch(ctx, "users", batch)
	other, _ := s.WriteBatch(ctx, "projects", batch)

	if !strings.Contains(first.Objects[0], "part-000000") {
		t.Errorf("first part = %q", first.Objects[0])
	}
	if !strings.Contains(second.Objects[0], "part-000001") {
		t.Errorf("second part = %q", second.Objects[0])
	}
	// Streams number their parts independently.
	if !strings.Contains(other.Objects[0], "part-000000") {
		t.Errorf("other stream part = %q", other.Objects[0])
	}
}

func TestSink_Unit_EmptyBatch(t *testing.T) {
	s, store := newTestSink(t, FormatJSONL)
	ctx := context.Background()

	result, err := s.WriteBatch(ctx, "users", nil)
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if result.Records != 0 || len(result.Objects) != 0 {
		t.Fatalf("result = %+v, want empty", result)
	}

	keys, err := store.ListPrefix(ctx, "test-bucket", "raw/users")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("empty batch wrote objects: %v", keys)
	}
}

func TestLocalStore_Unit_ListPrefix(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	_ = store.PutObject(ctx, "b", "raw/users/part-000000.jsonl.gz", []byte("a"))
	_ = store.PutObject(ctx, "b", "raw/users/part-000001.jsonl.gz", []byte("b"))
	_ = store.PutObject(ctx, "b", "raw/projects/part-000000.jsonl.gz", []byte("c"))

	keys, err := store.ListPrefix(ctx, "b", "raw/users")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 under raw/users", keys)
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "raw/users/") {
			t.Errorf("key %q outside prefix", k)
		}
	}
}
