package http

import (
	"context"
	"fmt"

	"github.com/nucleus/harvest-core/internal/endpoint"
)

// Base provides common HTTP endpoint functionality.
// Embed this in concrete REST connectors.
type Base struct {
	// Client is the HTTP client for making requests.
	Client *Client

	// EndpointID is the unique identifier for this endpoint.
	EndpointID string

	// EndpointName is the display name.
	EndpointName string

	// Vendor is the vendor name.
	Vendor string
}

// NewBase creates a new HTTP base with the given configuration.
func NewBase(id, name, vendor string, config *ClientConfig) *Base {
	return &Base{
		Client:       NewClient(config),
		EndpointID:   id,
		EndpointName: name,
		Vendor:       vendor,
	}
}

// ID returns the endpoint identifier.
func (b *Base) ID() string {
	return b.EndpointID
}

// Close releases client resources. The HTTP client needs no explicit cleanup.
func (b *Base) Close() error {
	return nil
}

// Probe makes a GET request to probePath and reports reachability.
func (b *Base) Probe(ctx context.Context, probePath string) (*endpoint.ValidationResult, error) {
	resp, err := b.Client.Get(ctx, probePath, nil)
	if err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			return &endpoint.ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("Connection failed: HTTP %d", httpErr.StatusCode),
			}, nil
		}
		return nil, err
	}

	return &endpoint.ValidationResult{
		Valid:   resp.IsSuccess(),
		Message: "Connection successful",
	}, nil
}

// FetchJSON fetches a JSON response and unmarshals it.
func (b *Base) FetchJSON(ctx context.Context, path string, target any) error {
	resp, err := b.Client.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	return resp.JSON(target)
}
