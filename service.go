package grokflag

import (
	"context"
	"fmt"
	"strings"
)

// Service enables always_show_nsfw_content on grok.com accounts.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	clearance  string
	newSession SessionFactory
	logger     Logger
}

// Option configures a Service at construction.
type Option func(*Service)

// WithLogger sets the logger that receives one line per request.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProxy routes sessions created by Enable through proxyURL.
func WithProxy(proxyURL string) Option {
	return func(s *Service) {
		s.newSession = proxySessionFactory(proxyURL)
	}
}

// WithSessionFactory replaces how Enable builds its one-shot session.
func WithSessionFactory(f SessionFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.newSession = f
		}
	}
}

// NewService creates a Service whose calls fall back to clearanceToken
// for the cf_clearance cookie. The token is trimmed here.
func NewService(clearanceToken string, opts ...Option) *Service {
	s := &Service{
		clearance:  strings.TrimSpace(clearanceToken),
		newSession: proxySessionFactory(""),
		logger:     noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validate rejects requests that cannot authenticate, before any I/O.
func validate(req EnableRequest) error {
	if req.SSO == "" {
		return ErrMissingSSO
	}
	if req.SSORW == "" {
		return ErrMissingSSORW
	}
	return nil
}

// Enable sends the request over a session created for this call alone and
// waits for the response. Failures are reported in the Result, never returned.
func (s *Service) Enable(ctx context.Context, req EnableRequest) Result {
	if err := validate(req); err != nil {
		return failure(err)
	}

	params := buildRequestParams(req, s.clearance)
	profile, err := LookupProfile(params.impersonate)
	if err != nil {
		return failure(err)
	}

	session, err := s.newSession(profile, params.timeout)
	if err != nil {
		return failure(fmt.Errorf("failed to create session: %w", err))
	}
	defer closeIdle(session)

	return s.send(ctx, session, params)
}

// EnableWithSession sends the request through a caller-owned session,
// typically one client reused across many accounts. The session's TLS
// fingerprint was fixed when it was created; Impersonate is still checked
// so an unknown name fails the same way as in Enable.
func (s *Service) EnableWithSession(ctx context.Context, session Session, req EnableRequest) Result {
	if err := validate(req); err != nil {
		return failure(err)
	}
	if session == nil {
		return failure(ErrNilSession)
	}

	params := buildRequestParams(req, s.clearance)
	if _, err := LookupProfile(params.impersonate); err != nil {
		return failure(err)
	}

	return s.send(ctx, session, params)
}

// send is the only point where a call blocks on the network.
func (s *Service) send(ctx context.Context, session Session, params requestParams) (res Result) {
	ctx, cancel := context.WithTimeout(ctx, params.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Errorf("transport panic: %v", r))
		}
	}()

	req, err := params.newHTTPRequest(ctx)
	if err != nil {
		return failure(err)
	}

	resp, err := session.Do(req)
	if err != nil {
		s.logger.Log("%s %s -> error: %v", req.Method, req.URL.Path, err)
		return failure(err)
	}
	defer resp.Body.Close()
	s.logger.Log("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)

	body, err := readResponseBody(resp)
	if err != nil {
		return failure(fmt.Errorf("failed to read response body: %w", err))
	}

	return parseResponse(resp.StatusCode, resp.Header, body)
}
