package grokflag

import (
	"bytes"
	"context"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

const (
	// DefaultUserAgent is sent when a request does not supply its own.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a call when the request leaves Timeout unset.
	DefaultTimeout = 15 * time.Second
)

// EnableRequest carries the per-call credentials and overrides.
type EnableRequest struct {
	SSO   string
	SSORW string

	// Impersonate names the browser TLS profile. Empty means DefaultImpersonate.
	Impersonate string

	// UserAgent overrides DefaultUserAgent when non-empty.
	UserAgent string

	// ClearanceToken overrides the service default when non-nil, even if it
	// points at an empty string. The value is trimmed before use.
	ClearanceToken *string

	// Timeout of zero or less means DefaultTimeout.
	Timeout time.Duration
}

// Clearance returns a pointer suitable for EnableRequest.ClearanceToken.
func Clearance(token string) *string {
	return &token
}

type cookie struct {
	name  string
	value string
}

// requestParams is everything needed to put one call on the wire.
type requestParams struct {
	url         string
	headers     http.Header
	cookies     []cookie
	payload     []byte
	impersonate string
	timeout     time.Duration
}

func buildRequestParams(req EnableRequest, defaultClearance string) requestParams {
	clearance := defaultClearance
	if req.ClearanceToken != nil {
		clearance = *req.ClearanceToken
	}
	clearance = strings.TrimSpace(clearance)

	cookies := []cookie{
		{name: "sso", value: req.SSO},
		{name: "sso-rw", value: req.SSORW},
	}
	if clearance != "" {
		cookies = append(cookies, cookie{name: "cf_clearance", value: clearance})
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	impersonate := req.Impersonate
	if impersonate == "" {
		impersonate = DefaultImpersonate
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := http.Header{
		"content-type": {"application/grpc-web+proto"},
		"origin":       {grokBaseURL},
		"referer":      {grokReferer},
		"x-grpc-web":   {"1"},
		"user-agent":   {userAgent},
		http.HeaderOrderKey: {
			"content-length",
			"content-type",
			"origin",
			"referer",
			"x-grpc-web",
			"user-agent",
			"cookie",
		},
		http.PHeaderOrderKey: PseudoHeaderOrder,
	}

	return requestParams{
		url:         updateFeatureControlsURL,
		headers:     headers,
		cookies:     cookies,
		payload:     payloadBytes(),
		impersonate: impersonate,
		timeout:     timeout,
	}
}

// newHTTPRequest turns the assembled params into a POST bound to ctx.
func (p requestParams) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(p.payload))
	if err != nil {
		return nil, err
	}
	req.Header = p.headers
	for _, c := range p.cookies {
		req.AddCookie(&http.Cookie{Name: c.name, Value: c.value})
	}
	return req, nil
}
