package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tanq16/pahedl/internal/utils"
)

const DefaultRetryBudget = 5

// bodySnippetLimit caps how much of an error page is attached to a failure.
const bodySnippetLimit = 1024

var challengeMarkers = []string{
	"DDoS-Guard",
	"/.well-known/ddos-guard/js-challenge",
	"Checking your browser before accessing",
}

// ResolvedLink is the terminal output of a resolution: the final media URL
// and the referer that must accompany requests for it.
type ResolvedLink struct {
	Referer    string
	DirectLink string
}

type Config struct {
	// CookieHeader is a browser-exported cookie string, forwarded verbatim on
	// page fetches and seeded into the resolver's cookie store. Needed when
	// the mirror host sits behind an anti-bot challenge.
	CookieHeader string
	RetryBudget  int
	// MirrorLinkPattern overrides the default mirror-host URL pattern. Its
	// first capture group must be the mirror page URL.
	MirrorLinkPattern *regexp.Regexp
	HTTPClientConfig  utils.HTTPClientConfig
}

// Resolver turns a mirror page URL into a ResolvedLink. Each instance owns
// its cookie store; session cookies set on the page fetch are presented on
// the follow-up POST, and independent resolvers never share state.
type Resolver struct {
	client       *http.Client
	postClient   *http.Client // redirects disabled so Location is observable
	jar          *cookiejar.Jar
	cookieHeader string
	userAgent    string
	retryBudget  int
	mirrorRe     *regexp.Regexp
	log          zerolog.Logger
}

func NewResolver(cfg Config) (*Resolver, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %v", err)
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = DefaultRetryBudget
	}
	userAgent := cfg.HTTPClientConfig.UserAgent
	if userAgent == "" {
		userAgent = utils.DesktopUserAgent
	}
	mirrorRe := cfg.MirrorLinkPattern
	if mirrorRe == nil {
		mirrorRe = mirrorLinkRe
	}
	transport := utils.NewTransport(cfg.HTTPClientConfig)
	return &Resolver{
		client: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   cfg.HTTPClientConfig.Timeout,
		},
		postClient: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   cfg.HTTPClientConfig.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		jar:          jar,
		cookieHeader: cfg.CookieHeader,
		userAgent:    userAgent,
		retryBudget:  cfg.RetryBudget,
		mirrorRe:     mirrorRe,
		log:          utils.GetLogger("resolver"),
	}, nil
}

// Resolve runs the full chain: fetch page, locate the mirror link (plain or
// packed), decode and extract the form target, POST it, and follow the
// redirect location.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (*ResolvedLink, error) {
	r.seedCookies(pageURL)
	r.log.Debug().Str("page", pageURL).Msg("Fetching mirror page")

	body, err := r.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	mirrorLink, err := r.locateMirrorLink(body)
	if err != nil {
		return nil, fmt.Errorf("%w (page %s)", err, pageURL)
	}

	target, err := r.resolveTarget(ctx, mirrorLink)
	if err != nil {
		return nil, err
	}
	return r.submitForm(ctx, target)
}

// locateMirrorLink finds the mirror URL in a page body: either present in
// plain text, or inside a packed payload that decodes to one.
func (r *Resolver) locateMirrorLink(body string) (string, error) {
	if m := r.mirrorRe.FindStringSubmatch(body); m != nil {
		r.log.Debug().Msg("Found plain mirror link in page")
		return m[1], nil
	}
	payload, found, err := FindPackedPayload(body)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrMissingMirrorLink
	}
	r.log.Debug().Msg("Found packed payload in page, decoding")
	decoded, err := DecodePayload(payload)
	if err != nil {
		return "", err
	}
	m := r.mirrorRe.FindStringSubmatch(decoded)
	if m == nil {
		return "", ErrMissingMirrorLink
	}
	// The mirror serves the download form on /f/, not the /d/ landing path.
	return strings.Replace(m[1], "/d/", "/f/", 1), nil
}

// resolveTarget loops fetch -> locate payload -> decode -> extract until it
// has a POST target or the retry budget runs out. Failures here are usually
// transient upstream variance, so each one re-fetches the page.
func (r *Resolver) resolveTarget(ctx context.Context, mirrorLink string) (*PostTarget, error) {
	for attempt := 1; attempt <= r.retryBudget; attempt++ {
		body, err := r.fetchPage(ctx, mirrorLink)
		if err != nil {
			return nil, err
		}
		payload, found, err := FindPackedPayload(body)
		if err != nil {
			return nil, err
		}
		if !found {
			r.log.Debug().Str("link", mirrorLink).Int("attempt", attempt).Msg("Packed payload not found, retrying")
			continue
		}
		decoded, err := DecodePayload(payload)
		if err != nil {
			r.log.Debug().Str("link", mirrorLink).Int("attempt", attempt).Err(err).Msg("Payload decode failed, retrying")
			continue
		}
		target, err := ExtractPostTarget(decoded)
		if err != nil {
			r.log.Debug().Str("link", mirrorLink).Int("attempt", attempt).Err(err).Msg("Target extraction failed, retrying")
			continue
		}
		return target, nil
	}
	return nil, &RetryLimitError{Link: mirrorLink}
}

// submitForm POSTs the token to the action URL with redirect following
// disabled and reads the direct link off the Location header.
func (r *Resolver) submitForm(ctx context.Context, target *PostTarget) (*ResolvedLink, error) {
	form := url.Values{"_token": {target.Token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.ActionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating POST request: %v", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", target.ActionURL)
	if origin := originFromURL(target.ActionURL); origin != "" {
		req.Header.Set("Origin", origin)
	}

	r.log.Debug().Str("action", target.ActionURL).Msg("Posting direct-link form")
	resp, err := r.postClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error posting direct-link form %s: %v", target.ActionURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return nil, &HTTPStatusError{
			Context: "direct-link post",
			Status:  resp.StatusCode,
			Body:    snippet(readErrorBody(resp.Body)),
		}
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return nil, ErrMissingRedirectLocation
	}
	r.log.Debug().Str("location", location).Msg("Received direct link redirect")
	return &ResolvedLink{Referer: target.ActionURL, DirectLink: location}, nil
}

// fetchPage GETs a page and returns its body with newlines stripped, since
// the packed payload and form markup are matched as one line.
func (r *Resolver) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating GET request: %v", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if r.cookieHeader != "" {
		req.Header.Set("Cookie", r.cookieHeader)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page %s: %v", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody := readErrorBody(resp.Body)
		if resp.StatusCode == http.StatusForbidden && isChallengePage(errBody) {
			hint := "Solve the challenge in a real browser and pass its cookie header with --cookie"
			if r.cookieHeader != "" {
				hint = "Challenge detected even with the provided cookie header; refresh cookies from a real browser session"
			}
			return "", &ChallengeError{Context: fmt.Sprintf("loading page %s", pageURL), Hint: hint}
		}
		return "", &HTTPStatusError{
			Context: fmt.Sprintf("page %s", pageURL),
			Status:  resp.StatusCode,
			Body:    snippet(errBody),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading page body %s: %v", pageURL, err)
	}
	normalized := strings.NewReplacer("\n", "", "\r", "").Replace(string(body))
	return normalized, nil
}

// seedCookies loads the caller-supplied cookie string into the jar for the
// page's host so both clients present it.
func (r *Resolver) seedCookies(pageURL string) {
	if r.cookieHeader == "" {
		return
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	var cookies []*http.Cookie
	for _, part := range strings.Split(r.cookieHeader, ";") {
		piece := strings.TrimSpace(part)
		name, value, ok := strings.Cut(piece, "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	if len(cookies) > 0 {
		r.jar.SetCookies(parsed, cookies)
	}
}

func isChallengePage(body string) bool {
	for _, marker := range challengeMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

func originFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "<failed to read error body>"
	}
	return string(data)
}

func snippet(body string) string {
	if len(body) > bodySnippetLimit {
		return body[:bodySnippetLimit]
	}
	return body
}
