package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/nucleus/harvest-core/internal/endpoint"
)

// Format selects the artifact encoding.
type Format string

const (
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

const (
	defaultBucket = "harvest-sink"
	defaultPrefix = "raw"
)

// Config configures artifact placement.
type Config struct {
	Bucket     string
	BasePrefix string
	Format     Format

	// LoadDate partitions artifacts by day; defaults to today (UTC).
	LoadDate string
}

// WriteResult reports one batch write.
type WriteResult struct {
	Objects []string
	Records int64
	Bytes   int64
}

// Sink writes record batches as partitioned objects under
// <prefix>/<stream>/dt=<date>/run=<id>/part-NNNNNN.<ext>. Each Sink is one
// run: the run ID is fixed at construction and part numbers grow per stream.
type Sink struct {
	store ObjectStore
	cfg   *Config
	runID string
	seq   map[string]int
}

// New creates a sink for one sync run.
func New(store ObjectStore, cfg *Config) *Sink {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Bucket == "" {
		cfg.Bucket = defaultBucket
	}
	if cfg.BasePrefix == "" {
		cfg.BasePrefix = defaultPrefix
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSONL
	}
	if cfg.LoadDate == "" {
		cfg.LoadDate = time.Now().UTC().Format("2006-01-02")
	}
	return &Sink{
		store: store,
		cfg:   cfg,
		runID: uuid.NewString(),
		seq:   make(map[string]int),
	}
}

// RunID identifies this sync run in artifact paths.
func (s *Sink) RunID() string {
	return s.runID
}

// Provision verifies the destination bucket is usable, creating it when the
// store allows that.
func (s *Sink) Provision(ctx context.Context) error {
	return s.store.EnsureBucket(ctx, s.cfg.Bucket)
}

// WriteBatch writes one batch of records for a stream as a single part
// object. Empty batches write nothing.
func (s *Sink) WriteBatch(ctx context.Context, stream string, records []endpoint.Record) (*WriteResult, error) {
	if len(records) == 0 {
		return &WriteResult{}, nil
	}

	envelopes := make([]recordEnvelope, 0, len(records))
	for _, rec := range records {
		env, err := newEnvelope(stream, rec)
		if err != nil {
			return nil, wrapError(CodeWriteFailed, false, err)
		}
		envelopes = append(envelopes, env)
	}

	var data []byte
	var ext string
	var err error
	switch s.cfg.Format {
	case FormatParquet:
		data, err = encodeParquet(envelopes)
		ext = "parquet"
	default:
		data, err = encodeJSONL(envelopes)
		ext = "jsonl.gz"
	}
	if err != nil {
		return nil, wrapError(CodeWriteFailed, true, err)
	}

	key := joinPath(
		s.cfg.BasePrefix,
		stream,
		fmt.Sprintf("dt=%s", s.cfg.LoadDate),
		fmt.Sprintf("run=%s", s.runID),
		fmt.Sprintf("part-%06d.%s", s.seq[stream], ext),
	)
	if err := s.store.PutObject(ctx, s.cfg.Bucket, key, data); err != nil {
		return nil, err
	}
	s.seq[stream]++

	return &WriteResult{
		Objects: []string{key},
		Records: int64(len(records)),
		Bytes:   int64(len(data)),
	}, nil
}

// recordEnvelope is the fixed artifact row shape. The source record travels
// as a JSON payload; the id and cursor are lifted out for pruning without
// payload parsing.
type recordEnvelope struct {
	Stream   string `json:"stream"`
	RecordID string `json:"record_id"`
	Cursor   string `json:"cursor"`
	Payload  string `json:"payload"`
}

func newEnvelope(stream string, rec endpoint.Record) (recordEnvelope, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return recordEnvelope{}, fmt.Errorf("encode record: %w", err)
	}
	env := recordEnvelope{Stream: stream, Payload: string(payload)}
	if id, ok := rec["id"]; ok {
		env.RecordID = fmt.Sprint(id)
	}
	if cursor, ok := rec["updated_at"].(string); ok {
		env.Cursor = cursor
	}
	return env, nil
}

func encodeJSONL(envelopes []recordEnvelope) ([]byte, error) {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	enc := json.NewEncoder(gz)
	for _, env := range envelopes {
		if err := enc.Encode(env); err != nil {
			_ = gz.Close()
			return nil, err
		}
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// envelopeParquetSchema matches recordEnvelope's JSON field names.
const envelopeParquetSchema = `{
	"Tag": "name=parquet_go_root, repetitiontype=REQUIRED",
	"Fields": [
		{"Tag": "name=stream, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"},
		{"Tag": "name=record_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"},
		{"Tag": "name=cursor, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"},
		{"Tag": "name=payload, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"}
	]
}`

func encodeParquet(envelopes []recordEnvelope) ([]byte, error) {
	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(envelopeParquetSchema, pfw, 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, env := range envelopes {
		row, err := json.Marshal(env)
		if err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, err
		}
		if err := pw.Write(string(row)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return nil, err
	}
	_ = pfw.Close()
	return buf.Bytes(), nil
}
