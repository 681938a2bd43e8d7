package resolver

import "regexp"

// PostTarget is the form action and token pair that triggers the direct-link
// redirect when POSTed.
type PostTarget struct {
	ActionURL string
	Token     string
}

// The mirror markup is not reliably well-formed, so extraction is regex over
// the normalized (newline-stripped) document rather than an HTML parse.
var (
	formActionRe = regexp.MustCompile(`<form[^>]*action=["']([^"']+)["']`)
	mirrorLinkRe = regexp.MustCompile(`"(https?://kwik\.[^/\s"]+/[^/\s"]+/[^"\s]*)"`)

	// Token tag attributes appear in either order.
	tokenNameFirstRe  = regexp.MustCompile(`name=["']_token["'][^>]*value=["']([^"']+)["']`)
	tokenValueFirstRe = regexp.MustCompile(`value=["']([^"']+)["'][^>]*name=["']_token["']`)
)

// ExtractPostTarget pulls the POST action URL and _token out of a decoded
// payload document. The form action is preferred; a bare mirror-host anchor
// is the fallback.
func ExtractPostTarget(doc string) (*PostTarget, error) {
	var action string
	if m := formActionRe.FindStringSubmatch(doc); m != nil {
		action = m[1]
	} else if m := mirrorLinkRe.FindStringSubmatch(doc); m != nil {
		action = m[1]
	} else {
		return nil, ErrMissingPostLink
	}

	var token string
	if m := tokenNameFirstRe.FindStringSubmatch(doc); m != nil {
		token = m[1]
	} else if m := tokenValueFirstRe.FindStringSubmatch(doc); m != nil {
		token = m[1]
	} else {
		return nil, ErrMissingToken
	}

	return &PostTarget{ActionURL: action, Token: token}, nil
}
