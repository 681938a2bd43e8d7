package resolver

import (
	"errors"
	"fmt"
)

var (
	ErrMissingMirrorLink       = errors.New("no mirror link or packed payload found in page")
	ErrMissingPostLink         = errors.New("failed to extract mirror post link")
	ErrMissingToken            = errors.New("failed to extract _token")
	ErrMissingRedirectLocation = errors.New("missing redirect location header")
	ErrInvalidOffset           = errors.New("invalid offset in packed payload")
	ErrInvalidBase             = errors.New("invalid base in packed payload")
)

// BaseIndexError reports an alphabet key too short to contain the sentinel
// position named by the payload's base.
type BaseIndexError struct {
	Base int
}

func (e *BaseIndexError) Error() string {
	return fmt.Sprintf("invalid base index %d for alphabet key", e.Base)
}

// HTTPStatusError carries the status and a body snippet so the failing page
// can be diagnosed without refetching it.
type HTTPStatusError struct {
	Context string
	Status  int
	Body    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d\nresponse text:\n%s", e.Context, e.Status, e.Body)
}

// ChallengeError signals an anti-bot challenge page instead of real content.
type ChallengeError struct {
	Context string
	Hint    string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge page detected while %s: %s", e.Context, e.Hint)
}

// RetryLimitError is returned when the payload/decode/extract cycle keeps
// failing for a mirror link.
type RetryLimitError struct {
	Link string
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("mirror retry limit exceeded for %s", e.Link)
}
