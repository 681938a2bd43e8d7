package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/pahedl/internal/utils"
)

// Target describes one transfer; immutable for its lifetime.
type Target struct {
	SourceURL   string
	Referer     string
	OutputPath  string
	WorkerCount int
}

// Engine downloads a target either as range-parallel chunks or as a single
// stream, depending on what the server advertises.
type Engine struct {
	client utils.HTTPDoer
	log    zerolog.Logger
}

func NewEngine(cfg utils.HTTPClientConfig) *Engine {
	return &Engine{
		client: utils.NewPaheHTTPClient(cfg),
		log:    utils.GetLogger("transfer"),
	}
}

// Transfer probes the target, picks a strategy, and writes the completed
// file to target.OutputPath. Events are emitted with non-blocking sends; a
// nil channel is fine. The first chunk failure aborts the whole transfer and
// leaves the output incomplete.
func (e *Engine) Transfer(ctx context.Context, target Target, events chan<- Event) error {
	if target.WorkerCount < 1 {
		target.WorkerCount = 1
	}
	if dir := filepath.Dir(target.OutputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory %s: %v", dir, err)
		}
	}

	info, err := probe(ctx, e.client, target.SourceURL, target.Referer)
	if err != nil {
		return err
	}

	if info.size == nil || !info.acceptsRanges {
		if !info.acceptsRanges {
			e.log.Debug().Str("url", target.SourceURL).Err(utils.ErrRangeRequestsNotSupported).Msg("Falling back to single-stream download")
		} else {
			e.log.Debug().Str("url", target.SourceURL).Msg("No size reported, falling back to single-stream download")
		}
		return e.singleStream(ctx, target, info.size, events)
	}
	return e.parallel(ctx, target, *info.size, events)
}

func (e *Engine) parallel(ctx context.Context, target Target, totalSize int64, events chan<- Event) error {
	if totalSize == 0 {
		return e.singleStream(ctx, target, nil, events)
	}
	ranges := planRanges(uint64(totalSize), target.WorkerCount)
	e.log.Debug().Int64("size", totalSize).Int("chunks", len(ranges)).Msg("Starting range-parallel download")

	startTime := time.Now()
	emit(events, Started{TotalBytes: &totalSize})

	type result struct {
		chunk chunk
		err   error
	}
	// Channel capacity equals the worker count, so workers can finish and
	// exit even when the transfer aborts early.
	results := make(chan result, len(ranges))
	for i, rng := range ranges {
		go func(index int, rng byteRange) {
			c, err := fetchChunk(ctx, e.client, target.SourceURL, target.Referer, index, rng)
			results <- result{chunk: c, err: err}
		}(i, rng)
	}

	outFile, err := os.Create(target.OutputPath)
	if err != nil {
		return fmt.Errorf("error creating output file %s: %v", target.OutputPath, err)
	}
	defer outFile.Close()

	reasm := newReassembler(outFile)
	for received := 0; received < len(ranges); received++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			if res.err != nil {
				return res.err
			}
			written, err := reasm.push(res.chunk)
			if err != nil {
				return err
			}
			emit(events, Progress{
				DownloadedBytes: written,
				TotalBytes:      &totalSize,
				Elapsed:         time.Since(startTime),
			})
		}
	}

	emit(events, Finished{DownloadedBytes: reasm.written, Elapsed: time.Since(startTime)})
	return nil
}

func (e *Engine) singleStream(ctx context.Context, target Target, sizeHint *int64, events chan<- Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %v", err)
	}
	if target.Referer != "" {
		req.Header.Set("Referer", target.Referer)
	}

	startTime := time.Now()
	emit(events, Started{TotalBytes: sizeHint})

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading %s: %v", target.SourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Context: "download", URL: target.SourceURL, Status: resp.StatusCode}
	}

	totalBytes := sizeHint
	if totalBytes == nil && resp.ContentLength >= 0 {
		cl := resp.ContentLength
		totalBytes = &cl
	}

	outFile, err := os.Create(target.OutputPath)
	if err != nil {
		return fmt.Errorf("error creating output file %s: %v", target.OutputPath, err)
	}
	defer outFile.Close()

	buffer := make([]byte, utils.DefaultBufferSize)
	var downloaded int64
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				return fmt.Errorf("error writing output file %s: %v", target.OutputPath, writeErr)
			}
			downloaded += int64(bytesRead)
			emit(events, Progress{
				DownloadedBytes: downloaded,
				TotalBytes:      totalBytes,
				Elapsed:         time.Since(startTime),
			})
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %v", readErr)
		}
	}

	emit(events, Finished{DownloadedBytes: downloaded, Elapsed: time.Since(startTime)})
	return nil
}
