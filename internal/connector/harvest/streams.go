package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nucleus/harvest-core/internal/connector/http"
	"github.com/nucleus/harvest-core/internal/endpoint"
)

// =============================================================================
// STREAM MODEL
// A stream is a catalog descriptor bound to a client and sync configuration.
// Capabilities (incremental cursor, parent/child fan-out, report window) are
// optional specs on the descriptor; each operation applies the specs that
// are present rather than dispatching through a type hierarchy.
// =============================================================================

// Record is a single API record as decoded JSON.
type Record = endpoint.Record

// StreamState maps a cursor field name to the maximum cursor value observed.
// The framework persists it between runs.
type StreamState = map[string]string

// StreamSlice is a per-request context. For child streams it carries the
// parent record's id under "parent_id"; nil for everything else. Never
// persisted.
type StreamSlice = map[string]any

// PageToken points at the next page of a paginated response.
type PageToken struct {
	Page int
}

// DefaultCursorField is the cursor used by incremental streams unless the
// descriptor overrides it.
const DefaultCursorField = "updated_at"

// dateParamLayout is the YYYYMMDD format the reports API requires.
const dateParamLayout = "20060102"

// IncrementalSpec marks a stream as cursor-filterable via updated_since.
type IncrementalSpec struct {
	// CursorField defaults to DefaultCursorField when empty.
	CursorField string
}

// ChildSpec marks a stream as nested under a parent resource.
type ChildSpec struct {
	// Parent is the catalog name of the parent stream.
	Parent string

	// PathTemplate is the request path with a {parent_id} placeholder.
	PathTemplate string
}

// ReportSpec marks a stream as a date-ranged report.
type ReportSpec struct {
	// PathSuffix is appended to "reports/" to form the request path.
	PathSuffix string
}

// StreamDescriptor is the static, zero-logic definition of one stream.
type StreamDescriptor struct {
	// Name is the catalog key and, for plain streams, the request path and
	// the response field holding the records.
	Name string

	// DataField overrides the response field holding the records.
	DataField string

	// WholeResponse treats the response body itself as the record payload
	// (singleton resources like company).
	WholeResponse bool

	// Keyless marks streams whose records carry no primary key.
	Keyless bool

	// DocsURL links the Harvest API reference for this stream.
	DocsURL string

	Incremental *IncrementalSpec
	Child       *ChildSpec
	Report      *ReportSpec
}

// PrimaryKeyField returns the record field identifying a record, or "" for
// keyless streams.
func (d *StreamDescriptor) PrimaryKeyField() string {
	if d.Keyless {
		return ""
	}
	return "id"
}

// CursorField returns the incremental cursor field, or "" when the stream
// is not incremental.
func (d *StreamDescriptor) CursorField() string {
	if d.Incremental == nil {
		return ""
	}
	if d.Incremental.CursorField == "" {
		return DefaultCursorField
	}
	return d.Incremental.CursorField
}

// dataField resolves the response field holding the records. The second
// return is false when the whole body is the payload.
func (d *StreamDescriptor) dataField() (string, bool) {
	if d.WholeResponse {
		return "", false
	}
	if d.Report != nil {
		return "results", true
	}
	if d.DataField != "" {
		return d.DataField, true
	}
	return d.Name, true
}

// =============================================================================
// BOUND STREAM
// =============================================================================

// Stream binds a descriptor to the connector's transport and sync settings.
type Stream struct {
	StreamDescriptor

	client   *http.Client
	pageSize int

	// replicationStart seeds updated_since when no checkpoint exists.
	// Empty when reading a parent stream for slice generation: the parent
	// is always enumerated in full.
	replicationStart string

	// fromDate is the report window lower bound, fixed at connector
	// construction.
	fromDate time.Time

	// now supplies the report window upper bound; it is re-evaluated on
	// every request on purpose, so a long sync's window keeps extending to
	// "now" rather than freezing at the first request.
	now func() time.Time

	// resolveParent instantiates a sibling stream for child fan-out.
	resolveParent func(name string) (*Stream, error)
}

// RequestPath returns the request path relative to the API root. Child
// streams require a slice carrying parent_id; passing one without it is a
// caller bug, not a recoverable condition.
func (s *Stream) RequestPath(slice StreamSlice) (string, error) {
	switch {
	case s.Child != nil:
		parentID, ok := slice["parent_id"]
		if !ok {
			return "", fmt.Errorf("stream %s: slice is missing parent_id", s.Name)
		}
		return strings.ReplaceAll(s.Child.PathTemplate, "{parent_id}", fmt.Sprint(parentID)), nil
	case s.Report != nil:
		return "reports/" + s.Report.PathSuffix, nil
	default:
		return s.Name, nil
	}
}

// RequestParams builds the query parameters for one page request. Each
// capability contributes independently: pagination from the token,
// updated_since from the incremental spec, from/to from the report spec.
func (s *Stream) RequestParams(state StreamState, slice StreamSlice, token *PageToken) url.Values {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(s.pageSize))

	if token != nil {
		params.Set("page", strconv.Itoa(token.Page))
	}

	if s.Incremental != nil {
		since := state[s.CursorField()]
		if since == "" {
			since = s.replicationStart
		}
		if since != "" {
			params.Set("updated_since", since)
		}
	}

	if s.Report != nil {
		params.Set("from", s.fromDate.Format(dateParamLayout))
		params.Set("to", s.now().Format(dateParamLayout))
	}

	return params
}

// NextPageToken reads the next_page marker from a response body. A nil
// token means pagination is complete.
func (s *Stream) NextPageToken(body []byte) (*PageToken, error) {
	var envelope struct {
		NextPage *int `json:"next_page"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("stream %s: decode pagination marker: %w", s.Name, err)
	}
	if envelope.NextPage == nil || *envelope.NextPage == 0 {
		return nil, nil
	}
	return &PageToken{Page: *envelope.NextPage}, nil
}

// ParseRecords extracts the records contained in one response body.
// Depending on the stream the body holds either a nested record array, a
// bare array, or a single object.
func (s *Stream) ParseRecords(body []byte) ([]Record, error) {
	field, nested := s.dataField()

	var payload any
	if nested {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("stream %s: decode response: %w", s.Name, err)
		}
		raw, ok := envelope[field]
		if !ok {
			return nil, nil
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("stream %s: decode %s: %w", s.Name, field, err)
		}
	} else {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("stream %s: decode response: %w", s.Name, err)
		}
	}

	return recordsFromPayload(s.Name, payload)
}

func recordsFromPayload(stream string, payload any) ([]Record, error) {
	switch data := payload.(type) {
	case nil:
		return nil, nil
	case []any:
		records := make([]Record, 0, len(data))
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("stream %s: record is %T, want object", stream, item)
			}
			records = append(records, record)
		}
		return records, nil
	case map[string]any:
		return []Record{data}, nil
	default:
		return nil, fmt.Errorf("stream %s: payload is %T, want object or array", stream, payload)
	}
}

// MergeState folds one emitted record into the stream state. The stored
// cursor value only ever moves forward: the merge keeps the maximum of the
// stored and observed values under their natural ordering (ISO timestamps
// compare correctly as strings).
func (s *Stream) MergeState(state StreamState, record Record) (StreamState, error) {
	cursor := s.CursorField()
	if cursor == "" {
		return state, nil
	}

	raw, ok := record[cursor]
	if !ok {
		return nil, fmt.Errorf("stream %s: record is missing cursor field %q", s.Name, cursor)
	}
	latest := fmt.Sprint(raw)

	if existing, ok := state[cursor]; ok && existing > latest {
		latest = existing
	}
	return StreamState{cursor: latest}, nil
}

// Slices returns the per-request contexts for one sync of this stream.
// Plain streams get a single nil slice. Child streams enumerate every
// parent record (a full, checkpoint-ignoring read) and yield one slice per
// parent id, in the parent's emission order. The sequence is lazy; each
// call re-reads the parent from the start.
func (s *Stream) Slices(ctx context.Context) (endpoint.Iterator[StreamSlice], error) {
	if s.Child == nil {
		return &staticSlices{slices: []StreamSlice{nil}}, nil
	}

	parent, err := s.resolveParent(s.Child.Parent)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", s.Name, err)
	}
	// Parent enumeration ignores checkpoints and the replication start:
	// every parent id must be visited even if the parent record itself is
	// older than the watermark.
	parent.replicationStart = ""

	return &parentSlices{
		stream:  s.Name,
		records: newRecordIterator(ctx, parent, nil, 0),
	}, nil
}

// staticSlices yields a fixed slice list.
type staticSlices struct {
	slices []StreamSlice
	idx    int
}

func (it *staticSlices) Next() bool {
	return it.idx < len(it.slices)
}

func (it *staticSlices) Value() StreamSlice {
	if it.idx < len(it.slices) {
		slice := it.slices[it.idx]
		it.idx++
		return slice
	}
	return nil
}

func (it *staticSlices) Err() error   { return nil }
func (it *staticSlices) Close() error { return nil }

// parentSlices maps a parent stream's records to child slices.
type parentSlices struct {
	stream  string
	records endpoint.Iterator[Record]
	current StreamSlice
	err     error
}

func (it *parentSlices) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.records.Next() {
		it.err = it.records.Err()
		return false
	}
	record := it.records.Value()
	id, ok := record["id"]
	if !ok {
		it.err = fmt.Errorf("stream %s: parent record is missing id", it.stream)
		return false
	}
	it.current = StreamSlice{"parent_id": id}
	return true
}

func (it *parentSlices) Value() StreamSlice { return it.current }
func (it *parentSlices) Err() error         { return it.err }
func (it *parentSlices) Close() error       { return it.records.Close() }
