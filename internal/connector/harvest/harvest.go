package harvest

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/nucleus/harvest-core/internal/connector/http"
	"github.com/nucleus/harvest-core/internal/endpoint"
)

// =============================================================================
// HARVEST CONNECTOR
// Implements endpoint.SourceEndpoint.
// =============================================================================

// Ensure interface compliance
var (
	_ endpoint.SourceEndpoint        = (*Harvest)(nil)
	_ endpoint.CheckpointingIterator = (*recordIterator)(nil)
)

// DatasetPrefix namespaces Harvest dataset IDs (e.g. "harvest.time_entries").
const DatasetPrefix = "harvest."

// Harvest is the Harvest v2 API connector.
type Harvest struct {
	*http.Base
	config *Config

	// fromDate is the report window lower bound, fixed at construction.
	fromDate time.Time

	// now is the clock used for report upper bounds; tests pin it.
	now func() time.Time
}

// New creates a new Harvest connector with the given configuration.
func New(config *Config) (*Harvest, error) {
	return newHarvest(config, nil)
}

// NewWithTransport creates a connector whose requests are served by the
// given transport instead of the network. Tests pair it with a StubServer.
func NewWithTransport(config *Config, transport nethttp.RoundTripper) (*Harvest, error) {
	return newHarvest(config, transport)
}

func newHarvest(config *Config, transport nethttp.RoundTripper) (*Harvest, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpConfig := http.DefaultClientConfig()
	httpConfig.BaseURL = config.BaseURL
	httpConfig.Transport = transport
	httpConfig.Auth = http.AccountAuth{
		AccountID: config.AccountID,
		Token:     config.AccessToken,
	}
	httpConfig.Headers["Accept"] = "application/json"

	h := &Harvest{
		Base:   http.NewBase("http.harvest", "Harvest", "Harvest", httpConfig),
		config: config,
		now:    time.Now,
	}

	if config.ReportsFromDate != "" {
		fromDate, _ := time.Parse("2006-01-02", config.ReportsFromDate)
		h.fromDate = fromDate
	} else {
		// Reports require an explicit window; the API allows at most one
		// year of history, so that is the default lower bound.
		h.fromDate = h.now().AddDate(-1, 0, 0)
	}

	return h, nil
}

// Stream binds a catalog descriptor to this connector.
func (h *Harvest) Stream(name string) (*Stream, error) {
	def, ok := StreamDefinitions[name]
	if !ok {
		return nil, fmt.Errorf("unknown stream: %s", name)
	}
	return &Stream{
		StreamDescriptor: def,
		client:           h.Client,
		pageSize:         h.config.PageSize,
		replicationStart: h.config.ReplicationStartDate,
		fromDate:         h.fromDate,
		now:              h.now,
		resolveParent:    h.Stream,
	}, nil
}

// =============================================================================
// ENDPOINT INTERFACE
// =============================================================================

// ValidateConfig tests the connection by fetching the company resource.
func (h *Harvest) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	resp, err := h.Client.Get(ctx, "company", nil)
	if err != nil {
		if httpErr, ok := err.(*http.HTTPError); ok {
			return &endpoint.ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("Connection failed: HTTP %d", httpErr.StatusCode),
			}, nil
		}
		return nil, err
	}

	var company struct {
		Name string `json:"name"`
	}
	if err := resp.JSON(&company); err != nil {
		return nil, fmt.Errorf("parse company: %w", err)
	}

	return &endpoint.ValidationResult{
		Valid:           true,
		Message:         "Connection successful",
		DetectedCompany: company.Name,
	}, nil
}

// GetCapabilities returns Harvest source capabilities.
func (h *Harvest) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:        true,
		SupportsIncremental: true, // updated_since filtering on most streams
		SupportsPreview:     true,
		IncrementalLiteral:  "timestamp",
		DefaultFetchSize:    h.config.PageSize,
	}
}

// GetDescriptor returns the Harvest endpoint descriptor.
func (h *Harvest) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:          "http.harvest",
		Family:      "http",
		Title:       "Harvest",
		Vendor:      "Harvest",
		Description: "Harvest v2 REST API connector for clients, invoices, expenses, and timesheets",
		Categories:  []string{"work", "invoicing", "time-tracking"},
		Protocols:   []string{"https"},
		DocsURL:     "https://help.getharvest.com/api-v2/",
		Fields: []*endpoint.FieldDescriptor{
			{Key: "accountId", Label: "Account ID", ValueType: "string", Required: true, Placeholder: "123456"},
			{Key: "accessToken", Label: "Access Token", ValueType: "password", Required: true, Sensitive: true},
			{Key: "replicationStartDate", Label: "Replication Start Date", ValueType: "string", Description: "ISO 8601 timestamp; sync records updated after this point"},
			{Key: "reportsFromDate", Label: "Reports From Date", ValueType: "string", Description: "YYYY-MM-DD lower bound for report streams"},
		},
	}
}

// =============================================================================
// SOURCE ENDPOINT - Catalog-Driven
// =============================================================================

// ListDatasets returns available Harvest datasets from the catalog.
func (h *Harvest) ListDatasets(ctx context.Context) ([]*endpoint.Dataset, error) {
	names := StreamNames()
	datasets := make([]*endpoint.Dataset, 0, len(names))

	for _, name := range names {
		def := StreamDefinitions[name]
		kind := "entity"
		if def.Report != nil {
			kind = "report"
		}

		ds := &endpoint.Dataset{
			ID:                  DatasetPrefix + name,
			Name:                name,
			Kind:                kind,
			SupportsIncremental: def.Incremental != nil,
			IncrementalColumn:   def.CursorField(),
		}
		if def.Incremental != nil {
			ds.IncrementalLiteral = "timestamp"
		}
		if pk := def.PrimaryKeyField(); pk != "" {
			ds.PrimaryKeys = []string{pk}
		}
		datasets = append(datasets, ds)
	}

	return datasets, nil
}

// GetSchema returns the structurally assumed fields for a dataset. Harvest
// records are otherwise passed through as-is, so only the identifying and
// cursor fields are declared.
func (h *Harvest) GetSchema(ctx context.Context, datasetID string) (*endpoint.Schema, error) {
	def, ok := StreamDefinitions[streamName(datasetID)]
	if !ok {
		return nil, fmt.Errorf("unknown dataset: %s", datasetID)
	}

	var fields []*endpoint.FieldDefinition
	if pk := def.PrimaryKeyField(); pk != "" {
		fields = append(fields, &endpoint.FieldDefinition{
			Name: pk, DataType: "INTEGER", Nullable: false, Position: 1,
		})
	}
	if cursor := def.CursorField(); cursor != "" {
		fields = append(fields, &endpoint.FieldDefinition{
			Name: cursor, DataType: "TIMESTAMP", Nullable: false,
			Comment:  "Incremental cursor.",
			Position: len(fields) + 1,
		})
	}

	return &endpoint.Schema{Fields: fields}, nil
}

// Read streams records from a dataset, resuming from req.State.
func (h *Harvest) Read(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	stream, err := h.Stream(streamName(req.DatasetID))
	if err != nil {
		return nil, err
	}
	return newRecordIterator(ctx, stream, req.State, int(req.Limit)), nil
}

func streamName(datasetID string) string {
	return strings.TrimPrefix(datasetID, DatasetPrefix)
}
