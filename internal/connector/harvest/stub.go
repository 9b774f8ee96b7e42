package harvest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
)

// StubServer hosts an in-memory Harvest API for tests (no network listeners).
// It honors per_page/page pagination, updated_since filtering, and the
// from/to requirement on report endpoints.
type StubServer struct {
	token     string
	accountID string

	company     map[string]any
	collections map[string][]map[string]any
	reports     map[string][]map[string]any

	handler   http.Handler
	transport http.RoundTripper
	baseURL   string
}

// NewStubServer constructs a deterministic stub without binding to a port.
func NewStubServer() *StubServer {
	s := &StubServer{
		token:     "stub-token",
		accountID: "424242",
		baseURL:   "http://harvest.local/v2",
		company: map[string]any{
			"name":      "Stub Industries",
			"is_active": true,
			"base_uri":  "https://stubindustries.harvestapp.com",
		},
		collections: map[string][]map[string]any{
			"users": {
				{"id": 10, "first_name": "Ada", "updated_at": "2024-03-01T10:00:00Z"},
				{"id": 20, "first_name": "Grace", "updated_at": "2024-03-05T09:30:00Z"},
				{"id": 30, "first_name": "Edsger", "updated_at": "2024-02-20T16:45:00Z"},
			},
			"invoices": {
				{"id": 1, "number": "INV-0001", "updated_at": "2024-01-15T08:00:00Z"},
				{"id": 2, "number": "INV-0002", "updated_at": "2024-02-28T12:00:00Z"},
			},
			"time_entries": {
				{"id": 501, "hours": 2.5, "updated_at": "2024-03-01T08:00:00Z"},
				{"id": 502, "hours": 1.0, "updated_at": "2024-03-02T08:00:00Z"},
				{"id": 503, "hours": 4.25, "updated_at": "2024-03-03T08:00:00Z"},
				{"id": 504, "hours": 0.5, "updated_at": "2024-03-04T08:00:00Z"},
				{"id": 505, "hours": 3.0, "updated_at": "2024-03-05T08:00:00Z"},
			},
			"invoices/1/messages": {
				{"id": 100, "subject": "Invoice sent", "updated_at": "2024-01-16T08:00:00Z"},
				{"id": 101, "subject": "Reminder", "updated_at": "2024-02-01T08:00:00Z"},
			},
			"invoices/2/messages": {
				{"id": 200, "subject": "Invoice sent", "updated_at": "2024-03-01T08:00:00Z"},
			},
			"invoices/1/payments": {
				{"id": 300, "amount": 1200.0, "updated_at": "2024-02-10T08:00:00Z"},
			},
			"invoices/2/payments": {},
			"users/10/billable_rates": {
				{"id": 900, "amount": 120.0},
				{"id": 901, "amount": 140.0},
			},
			"users/20/billable_rates": {
				{"id": 910, "amount": 95.0},
			},
			"users/30/billable_rates": {},
		},
		reports: map[string][]map[string]any{
			"time/clients": {
				{"client_id": 7, "client_name": "Acme", "total_hours": 12.5},
				{"client_id": 8, "client_name": "Globex", "total_hours": 4.0},
			},
			"uninvoiced": {
				{"client_id": 7, "uninvoiced_amount": 340.0},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.handler = mux
	s.transport = &stubRoundTripper{handler: mux}
	return s
}

// URL returns the stub base URL (no network listener is used).
func (s *StubServer) URL() string {
	return s.baseURL
}

// Transport returns a RoundTripper that serves requests in-process.
func (s *StubServer) Transport() http.RoundTripper {
	return s.transport
}

// Config returns a connector config wired to this stub.
func (s *StubServer) Config() *Config {
	return &Config{
		AccountID:   s.accountID,
		AccessToken: s.token,
		BaseURL:     s.baseURL,
	}
}

func (s *StubServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+s.token || r.Header.Get("Harvest-Account-Id") != s.accountID {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
		return
	}

	path := strings.Trim(strings.TrimPrefix(strings.Trim(r.URL.Path, "/"), "v2/"), "/")

	switch {
	case path == "company":
		writeJSON(w, s.company)
	case strings.HasPrefix(path, "reports/"):
		s.handleReport(w, r, strings.TrimPrefix(path, "reports/"))
	default:
		items, ok := s.collections[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not_found"}`))
			return
		}
		field := path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			// Nested endpoints name their array after the child resource
			// (e.g. invoices/1/messages -> invoice_messages).
			field = childFieldName(path)
		}
		s.writePage(w, r, field, filterSince(items, r.URL.Query().Get("updated_since")))
	}
}

func (s *StubServer) handleReport(w http.ResponseWriter, r *http.Request, suffix string) {
	query := r.URL.Query()
	if query.Get("from") == "" || query.Get("to") == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"from and to are required"}`))
		return
	}
	results, ok := s.reports[suffix]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found"}`))
		return
	}
	s.writePage(w, r, "results", results)
}

// writePage slices items according to per_page/page and emits the standard
// Harvest pagination envelope with a next_page marker.
func (s *StubServer) writePage(w http.ResponseWriter, r *http.Request, field string, items []map[string]any) {
	query := r.URL.Query()

	perPage := 50
	if v, err := strconv.Atoi(query.Get("per_page")); err == nil && v > 0 {
		perPage = v
	}
	page := 1
	if v, err := strconv.Atoi(query.Get("page")); err == nil && v > 0 {
		page = v
	}

	start := (page - 1) * perPage
	if start > len(items) {
		start = len(items)
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	body := map[string]any{
		field:           items[start:end],
		"per_page":      perPage,
		"page":          page,
		"total_entries": len(items),
		"next_page":     nil,
	}
	if end < len(items) {
		body["next_page"] = page + 1
	}
	writeJSON(w, body)
}

func filterSince(items []map[string]any, since string) []map[string]any {
	if since == "" {
		return items
	}
	var out []map[string]any
	for _, item := range items {
		updated, _ := item["updated_at"].(string)
		if updated >= since {
			out = append(out, item)
		}
	}
	return out
}

// childFieldName maps a nested path to its response array field, e.g.
// invoices/1/messages -> invoice_messages, users/10/cost_rates -> cost_rates.
func childFieldName(path string) string {
	parts := strings.Split(path, "/")
	parent := strings.TrimSuffix(parts[0], "s")
	child := parts[len(parts)-1]
	switch child {
	case "messages", "payments":
		return parent + "_" + child
	default:
		return child
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

type stubRoundTripper struct {
	handler http.Handler
}

func (rt *stubRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rr := httptest.NewRecorder()
	rt.handler.ServeHTTP(rr, req)
	res := rr.Result()
	res.Request = req
	return res, nil
}
