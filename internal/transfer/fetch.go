package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tanq16/pahedl/internal/utils"
)

// chunk is one fetched byte range; ownership passes to the reassembler,
// which frees the buffer after flushing it.
type chunk struct {
	index int
	data  []byte
}

// fetchChunk retrieves a single byte range as an opaque buffer. A 206 or any
// other success status is accepted; some servers answer 200 with partial
// semantics already negotiated on the probe.
func fetchChunk(ctx context.Context, client utils.HTTPDoer, url, referer string, index int, rng byteRange) (chunk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return chunk{}, &ChunkError{Index: index, URL: url, Err: err}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", rng.start, rng.end))
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return chunk{}, &ChunkError{Index: index, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return chunk{}, &ChunkError{Index: index, URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return chunk{}, &ChunkError{Index: index, URL: url, Err: err}
	}
	return chunk{index: index, data: data}, nil
}
