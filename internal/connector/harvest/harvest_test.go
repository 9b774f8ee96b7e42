package harvest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nucleus/harvest-core/internal/endpoint"
)

// =============================================================================
// UNIT TESTS (stub-backed, no network)
// =============================================================================

func newStubConnector(t *testing.T, mutate func(*Config)) (*Harvest, *StubServer) {
	t.Helper()
	stub := NewStubServer()
	cfg := stub.Config()
	if mutate != nil {
		mutate(cfg)
	}
	h, err := NewWithTransport(cfg, stub.Transport())
	if err != nil {
		t.Fatalf("NewWithTransport: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h, stub
}

func collectRecords(t *testing.T, it endpoint.Iterator[endpoint.Record]) []Record {
	t.Helper()
	var records []Record
	for it.Next() {
		records = append(records, it.Value())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator: %v", err)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return records
}

func recordIDs(records []Record) []float64 {
	ids := make([]float64, 0, len(records))
	for _, r := range records {
		id, _ := r["id"].(float64)
		ids = append(ids, id)
	}
	return ids
}

func checkpointOf(t *testing.T, it endpoint.Iterator[endpoint.Record]) StreamState {
	t.Helper()
	ck, ok := it.(endpoint.CheckpointingIterator)
	if !ok {
		t.Fatalf("iterator %T does not checkpoint", it)
	}
	return ck.Checkpoint()
}

func TestHarvest_Unit_ValidateConfig(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	result, err := h.ValidateConfig(context.Background(), nil)
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if !result.Valid {
		t.Fatalf("validation failed: %s", result.Message)
	}
	if result.DetectedCompany != "Stub Industries" {
		t.Errorf("DetectedCompany = %q, want Stub Industries", result.DetectedCompany)
	}
}

func TestHarvest_Unit_ValidateConfigBadToken(t *testing.T) {
	h, _ := newStubConnector(t, func(c *Config) {
		c.AccessToken = "wrong-token"
	})

	result, err := h.ValidateConfig(context.Background(), nil)
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if result.Valid {
		t.Error("expected validation failure with a bad token")
	}
}

func TestHarvest_Unit_ReadPaginates(t *testing.T) {
	h, _ := newStubConnector(t, func(c *Config) {
		c.PageSize = 2 // forces three pages over five time entries
	})

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "harvest.time_entries"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)

	want := []float64{501, 502, 503, 504, 505}
	got := recordIDs(records)
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record order %v, want %v", got, want)
		}
	}

	state := checkpointOf(t, it)
	if got := state["updated_at"]; got != "2024-03-05T08:00:00Z" {
		t.Errorf("checkpoint = %q, want latest updated_at", got)
	}
}

func TestHarvest_Unit_ReadResumesFromState(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{
		DatasetID: "harvest.users",
		State:     map[string]string{"updated_at": "2024-03-01T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)

	// User 30 was last touched in February and must be filtered server-side.
	ids := recordIDs(records)
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Fatalf("ids = %v, want [10 20]", ids)
	}

	state := checkpointOf(t, it)
	if got := state["updated_at"]; got != "2024-03-05T09:30:00Z" {
		t.Errorf("checkpoint = %q, want advanced watermark", got)
	}
}

func TestHarvest_Unit_ReadHonorsLimit(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{
		DatasetID: "harvest.time_entries",
		Limit:     3,
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
}

func TestHarvest_Unit_ChildFanOut(t *testing.T) {
	h, _ := newStubConnector(t, func(c *Config) {
		// A start date must not stop the parent enumeration: invoice 1 is
		// older than this watermark but its newer messages still sync. The
		// messages themselves are filtered by updated_since, so message 100
		// (January) stays out.
		c.ReplicationStartDate = "2024-02-01T00:00:00Z"
	})

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "harvest.invoice_messages"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)

	// Slices follow the parent's emission order: invoice 1 then invoice 2.
	ids := recordIDs(records)
	if len(ids) != 2 || ids[0] != 101 || ids[1] != 200 {
		t.Fatalf("ids = %v, want [101 200]", ids)
	}

	state := checkpointOf(t, it)
	if got := state["updated_at"]; got != "2024-03-01T08:00:00Z" {
		t.Errorf("checkpoint = %q, want max message updated_at", got)
	}
}

func TestHarvest_Unit_ChildWithoutCursor(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "harvest.billable_rates"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)

	ids := recordIDs(records)
	if len(ids) != 3 || ids[0] != 900 || ids[1] != 901 || ids[2] != 910 {
		t.Fatalf("ids = %v, want [900 901 910]", ids)
	}

	if state := checkpointOf(t, it); len(state) != 0 {
		t.Errorf("full-refresh stream produced checkpoint %v", state)
	}
}

func TestHarvest_Unit_ReadEmptyChildPages(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	// Invoice 2 has no payments; the read must skip past it cleanly.
	it, err := h.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "harvest.invoice_payments"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)
	if len(records) != 1 || records[0]["id"] != float64(300) {
		t.Fatalf("records = %v, want single payment 300", records)
	}
}

func TestHarvest_Unit_ReadReport(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "harvest.time_clients"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)

	// The stub rejects report requests without a from/to window, so reaching
	// here proves the window was sent.
	if len(records) != 2 {
		t.Fatalf("got %d report rows, want 2", len(records))
	}
	if records[0]["client_name"] != "Acme" {
		t.Errorf("first row = %v, want Acme", records[0])
	}
}

func TestHarvest_Unit_ReadCompanySingleton(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "harvest.company"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)
	if len(records) != 1 || records[0]["name"] != "Stub Industries" {
		t.Fatalf("records = %v, want the company object", records)
	}
}

func TestHarvest_Unit_ReadUnknownDataset(t *testing.T) {
	h, _ := newStubConnector(t, nil)
	if _, err := h.Read(context.Background(), &endpoint.ReadRequest{DatasetID: "harvest.nonsense"}); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

func TestHarvest_Unit_ListDatasets(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	datasets, err := h.ListDatasets(context.Background())
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if len(datasets) != len(StreamDefinitions) {
		t.Fatalf("got %d datasets, want %d", len(datasets), len(StreamDefinitions))
	}

	byID := make(map[string]*endpoint.Dataset, len(datasets))
	for _, ds := range datasets {
		byID[ds.ID] = ds
	}

	users := byID["harvest.users"]
	if users == nil || !users.SupportsIncremental || users.IncrementalColumn != "updated_at" {
		t.Errorf("users dataset = %+v, want incremental on updated_at", users)
	}
	if len(users.PrimaryKeys) != 1 || users.PrimaryKeys[0] != "id" {
		t.Errorf("users primary keys = %v, want [id]", users.PrimaryKeys)
	}

	company := byID["harvest.company"]
	if company == nil || company.SupportsIncremental || len(company.PrimaryKeys) != 0 {
		t.Errorf("company dataset = %+v, want keyless full refresh", company)
	}

	report := byID["harvest.time_clients"]
	if report == nil || report.Kind != "report" || report.SupportsIncremental {
		t.Errorf("time_clients dataset = %+v, want full-refresh report", report)
	}
}

func TestHarvest_Unit_GetSchema(t *testing.T) {
	h, _ := newStubConnector(t, nil)

	schema, err := h.GetSchema(context.Background(), "harvest.users")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if len(schema.Fields) != 2 {
		t.Fatalf("users schema has %d fields, want id and updated_at", len(schema.Fields))
	}
	if schema.Fields[0].Name != "id" || schema.Fields[1].Name != "updated_at" {
		t.Errorf("fields = [%s %s], want [id updated_at]", schema.Fields[0].Name, schema.Fields[1].Name)
	}

	if _, err := h.GetSchema(context.Background(), "harvest.nonsense"); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

func TestHarvest_Unit_RegistryFactory(t *testing.T) {
	ep, err := endpoint.DefaultRegistry().Create("http.harvest", map[string]any{
		"accountId":   "424242",
		"accessToken": "stub-token",
		"pageSize":    float64(25), // JSON numbers decode as float64
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer ep.Close()

	h, ok := ep.(*Harvest)
	if !ok {
		t.Fatalf("factory returned %T, want *Harvest", ep)
	}
	if h.config.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", h.config.PageSize)
	}
	if h.config.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", h.config.BaseURL)
	}
}

func TestHarvest_Unit_ReportWindowDefaults(t *testing.T) {
	stub := NewStubServer()
	cfg := stub.Config()
	h, err := NewWithTransport(cfg, stub.Transport())
	if err != nil {
		t.Fatalf("NewWithTransport: %v", err)
	}
	defer h.Close()

	wantFrom := time.Now().AddDate(-1, 0, 0)
	if h.fromDate.After(wantFrom.Add(time.Minute)) || h.fromDate.Before(wantFrom.Add(-time.Minute)) {
		t.Errorf("fromDate = %v, want about one year ago", h.fromDate)
	}
}

// =============================================================================
// INTEGRATION TESTS (live API, env-gated)
// =============================================================================

func liveConfig(t *testing.T) *Config {
	t.Helper()
	accountID := os.Getenv("HARVEST_ACCOUNT_ID")
	token := os.Getenv("HARVEST_ACCESS_TOKEN")
	if accountID == "" || token == "" {
		t.Skip("HARVEST_ACCOUNT_ID and HARVEST_ACCESS_TOKEN not set; skipping integration test")
	}
	return &Config{AccountID: accountID, AccessToken: token}
}

func TestHarvest_Integration_ValidateConfig(t *testing.T) {
	h, err := New(liveConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	result, err := h.ValidateConfig(context.Background(), nil)
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if !result.Valid {
		t.Fatalf("validation failed: %s", result.Message)
	}
	t.Logf("connected to company %q", result.DetectedCompany)
}

func TestHarvest_Integration_ReadUsers(t *testing.T) {
	h, err := New(liveConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	it, err := h.Read(context.Background(), &endpoint.ReadRequest{
		DatasetID: "harvest.users",
		Limit:     5,
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records := collectRecords(t, it)
	if len(records) == 0 {
		t.Fatal("expected at least one user")
	}
	for _, r := range records {
		if _, ok := r["id"]; !ok {
			t.Errorf("user record missing id: %v", r)
		}
	}
	t.Logf("read %d users", len(records))
}
