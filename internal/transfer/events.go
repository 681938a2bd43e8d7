package transfer

import "time"

// Event is the progress stream emitted during a transfer. One concrete type
// per variant; observers type-switch on it.
type Event interface {
	transferEvent()
}

// Started is emitted once before the first byte is requested. TotalBytes is
// nil when the server did not report a size.
type Started struct {
	TotalBytes *int64
}

// Progress reports cumulative bytes written to the output so far. Values are
// monotonic within one transfer.
type Progress struct {
	DownloadedBytes int64
	TotalBytes      *int64
	Elapsed         time.Duration
}

// Finished is emitted exactly once when all bytes are written.
type Finished struct {
	DownloadedBytes int64
	Elapsed         time.Duration
}

func (Started) transferEvent()  {}
func (Progress) transferEvent() {}
func (Finished) transferEvent() {}

// emit is fire-and-forget: a full or absent observer channel drops the event
// so a stalled observer can never block transfer progress.
func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}
