package transfer

import (
	"fmt"
	"io"
)

// reassembler writes chunks arriving in arbitrary order to its writer in
// strictly increasing index order. It buffers out-of-order chunks keyed by
// index and flushes a run whenever the next expected index is present, so at
// most O(workers) chunks sit in memory under balanced completion times.
type reassembler struct {
	w       io.Writer
	pending map[int][]byte
	next    int
	written int64
}

func newReassembler(w io.Writer) *reassembler {
	return &reassembler{
		w:       w,
		pending: make(map[int][]byte),
	}
}

// push accepts one chunk and flushes every buffered chunk that is now in
// order. Returns cumulative bytes written so far.
func (r *reassembler) push(c chunk) (int64, error) {
	r.pending[c.index] = c.data
	for {
		data, ok := r.pending[r.next]
		if !ok {
			break
		}
		if _, err := r.w.Write(data); err != nil {
			return r.written, fmt.Errorf("error writing chunk %d: %v", r.next, err)
		}
		r.written += int64(len(data))
		delete(r.pending, r.next)
		r.next++
	}
	return r.written, nil
}

// buffered reports how many chunks are parked waiting for a gap to fill.
func (r *reassembler) buffered() int {
	return len(r.pending)
}
