package transfer

import "fmt"

// ChunkError identifies which byte range failed; there is no chunk-level
// retry, so one of these aborts the whole transfer.
type ChunkError struct {
	Index  int
	URL    string
	Status int
	Err    error
}

func (e *ChunkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error downloading chunk %d of %s: %v", e.Index, e.URL, e.Err)
	}
	return fmt.Sprintf("chunk %d of %s returned HTTP %d", e.Index, e.URL, e.Status)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// StatusError is a non-success response on the probe or single-stream path.
type StatusError struct {
	Context string
	URL     string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s for %s returned HTTP %d", e.Context, e.URL, e.Status)
}
