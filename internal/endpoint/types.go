package endpoint

// Record represents a single data record as key-value pairs.
type Record = map[string]any

// Iterator provides streaming access to records.
type Iterator[T any] interface {
	// Next advances to the next record. Returns false when done or on error.
	Next() bool

	// Value returns the current record. Only valid after Next() returns true.
	Value() T

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases resources. Must be called when done.
	Close() error
}

// --- Validation Types ---

type ValidationResult struct {
	Valid           bool
	Message         string
	DetectedCompany string
}

// --- Capabilities ---

type Capabilities struct {
	SupportsFull        bool
	SupportsIncremental bool
	SupportsPreview     bool

	// Incremental details
	IncrementalLiteral string // "timestamp" | "epoch"
	DefaultFetchSize   int
}

// --- Dataset Types ---

type Dataset struct {
	ID                  string
	Name                string
	Kind                string // "entity", "report"
	SupportsIncremental bool
	IncrementalColumn   string
	IncrementalLiteral  string // "timestamp"
	PrimaryKeys         []string
}

// --- Schema Types ---

type Schema struct {
	Fields []*FieldDefinition
}

type FieldDefinition struct {
	Name     string
	DataType string
	Nullable bool
	Comment  string
	Position int
}

// --- Read Types ---

type ReadRequest struct {
	DatasetID string
	Limit     int64

	// State carries the stream's persisted cursor checkpoint, keyed by
	// cursor field name. Nil or empty means full history.
	State map[string]string
}
