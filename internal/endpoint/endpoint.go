// Package endpoint defines the contracts between the connector framework
// and concrete source connectors.
//
// Architecture:
//
//	Endpoint        - Base contract (ID, Validate, Capabilities, Descriptor)
//	SourceEndpoint  - Read data (ListDatasets, GetSchema, Read)
//
// A connector implements SourceEndpoint and registers a Factory with the
// default Registry from an init function. The framework drives one dataset
// at a time through Read and persists the checkpoint the iterator reports.
package endpoint

import "context"

// Endpoint is the base contract every connector must implement.
type Endpoint interface {
	// ID returns the unique template identifier (e.g., "http.harvest").
	ID() string

	// ValidateConfig tests configuration validity and connectivity.
	ValidateConfig(ctx context.Context, config map[string]any) (*ValidationResult, error)

	// GetCapabilities returns the set of supported operations.
	GetCapabilities() *Capabilities

	// GetDescriptor returns metadata about this endpoint type.
	GetDescriptor() *Descriptor

	// Close releases any resources held by the endpoint.
	Close() error
}

// SourceEndpoint can read data from an external system.
type SourceEndpoint interface {
	Endpoint

	// ListDatasets returns available datasets/streams.
	ListDatasets(ctx context.Context) ([]*Dataset, error)

	// GetSchema returns the schema for a specific dataset.
	GetSchema(ctx context.Context, datasetID string) (*Schema, error)

	// Read streams records from a dataset.
	// Returns an Iterator that must be closed after use.
	Read(ctx context.Context, req *ReadRequest) (Iterator[Record], error)
}

// CheckpointingIterator is implemented by iterators whose streams track an
// incremental cursor. Checkpoint reflects every record emitted so far.
type CheckpointingIterator interface {
	Iterator[Record]

	// Checkpoint returns the cursor state accumulated during iteration.
	Checkpoint() map[string]string
}
