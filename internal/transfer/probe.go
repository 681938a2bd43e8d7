package transfer

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tanq16/pahedl/internal/utils"
)

// capability is what a metadata probe learned about a URL. A nil size or a
// false acceptsRanges routes the engine to single-stream mode; guessing at
// range support against a server that silently ignores Range would corrupt
// reassembly.
type capability struct {
	size          *int64
	acceptsRanges bool
}

func probe(ctx context.Context, client utils.HTTPDoer, url, referer string) (capability, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return capability{}, fmt.Errorf("error creating HEAD request: %v", err)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	resp, err := client.Do(req)
	if err != nil {
		return capability{}, fmt.Errorf("error probing %s: %v", url, err)
	}
	defer resp.Body.Close()

	// Some hosts reject HEAD outright while serving GET fine. A rejected
	// probe carries no capability signal, it does not fail the transfer.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return capability{}, nil
	}

	var info capability
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size >= 0 {
			info.size = &size
		}
	}
	info.acceptsRanges = strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes")
	return info, nil
}
