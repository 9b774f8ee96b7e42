package harvest

import (
	"context"

	"github.com/nucleus/harvest-core/internal/endpoint"
)

// =============================================================================
// RECORD ITERATOR
// Sequential pull loop over slices and pages. One page is in flight at a
// time; the running state reflects every record emitted so far.
// =============================================================================

type recordIterator struct {
	ctx    context.Context
	stream *Stream
	limit  int

	state StreamState

	slices    endpoint.Iterator[StreamSlice]
	slice     StreamSlice
	nextToken *PageToken
	morePages bool

	current []Record
	idx     int
	emitted int

	err    error
	closed bool
}

// newRecordIterator starts a read of stream from the given checkpoint.
// A nil state means full history; limit <= 0 means unbounded.
func newRecordIterator(ctx context.Context, stream *Stream, state StreamState, limit int) *recordIterator {
	running := StreamState{}
	for k, v := range state {
		running[k] = v
	}
	return &recordIterator{
		ctx:    ctx,
		stream: stream,
		limit:  limit,
		state:  running,
	}
}

func (it *recordIterator) Next() bool {
	if it.err != nil || it.closed {
		return false
	}
	if it.limit > 0 && it.emitted >= it.limit {
		return false
	}

	for it.idx >= len(it.current) {
		if it.slices == nil {
			slices, err := it.stream.Slices(it.ctx)
			if err != nil {
				it.err = err
				return false
			}
			it.slices = slices
		}

		if !it.morePages {
			if !it.slices.Next() {
				if err := it.slices.Err(); err != nil {
					it.err = err
				}
				return false
			}
			it.slice = it.slices.Value()
			it.nextToken = nil
			it.morePages = true
		}

		if err := it.fetchPage(); err != nil {
			it.err = err
			return false
		}
	}

	return true
}

// fetchPage requests one page for the current slice and primes the token
// for the next one. morePages turns false exactly when the response carries
// no next_page marker.
func (it *recordIterator) fetchPage() error {
	path, err := it.stream.RequestPath(it.slice)
	if err != nil {
		return err
	}

	params := it.stream.RequestParams(it.state, it.slice, it.nextToken)
	resp, err := it.stream.client.Get(it.ctx, path, params)
	if err != nil {
		return err
	}

	records, err := it.stream.ParseRecords(resp.Body)
	if err != nil {
		return err
	}
	token, err := it.stream.NextPageToken(resp.Body)
	if err != nil {
		return err
	}

	it.current = records
	it.idx = 0
	it.nextToken = token
	it.morePages = token != nil
	return nil
}

func (it *recordIterator) Value() Record {
	if it.idx >= len(it.current) {
		return nil
	}
	record := it.current[it.idx]
	it.idx++
	it.emitted++

	if it.stream.Incremental != nil {
		next, err := it.stream.MergeState(it.state, record)
		if err != nil {
			it.err = err
		} else {
			it.state = next
		}
	}

	return record
}

func (it *recordIterator) Err() error { return it.err }

func (it *recordIterator) Close() error {
	it.closed = true
	if it.slices != nil {
		return it.slices.Close()
	}
	return nil
}

// Checkpoint returns the cursor state accumulated across every emitted
// record, suitable for persisting once the run completes.
func (it *recordIterator) Checkpoint() StreamState {
	out := StreamState{}
	for k, v := range it.state {
		out[k] = v
	}
	return out
}
