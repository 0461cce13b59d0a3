package grokflag

import (
	"math"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// Session is the transport capability a call is sent through.
// tls_client.HttpClient satisfies it.
type Session interface {
	Do(req *http.Request) (*http.Response, error)
}

// SessionFactory builds a one-shot session for a blocking Enable call.
type SessionFactory func(profile profiles.ClientProfile, timeout time.Duration) (Session, error)

// NewSession creates a browser-impersonating client for the named profile.
// The caller owns the client and may reuse it across many calls.
// An empty proxyURL connects directly.
func NewSession(logger tls_client.Logger, impersonate, proxyURL string, timeout time.Duration) (tls_client.HttpClient, error) {
	if impersonate == "" {
		impersonate = DefaultImpersonate
	}
	profile, err := LookupProfile(impersonate)
	if err != nil {
		return nil, err
	}
	return NewClientWithProfile(logger, proxyURL, profile, timeout)
}

func NewClientWithProfile(logger tls_client.Logger, proxyURL string, profile profiles.ClientProfile, timeout time.Duration) (tls_client.HttpClient, error) {
	if logger == nil {
		logger = tls_client.NewNoopLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Cookies are attached per request, so the client carries no jar state between accounts.
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds(timeout)),
		tls_client.WithClientProfile(profile),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithNotFollowRedirects(),
	}

	if proxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	return tls_client.NewHttpClient(logger, options...)
}

// timeoutSeconds rounds up so sub-second timeouts never become "no timeout".
func timeoutSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// proxySessionFactory is the default factory used by Enable.
func proxySessionFactory(proxyURL string) SessionFactory {
	return func(profile profiles.ClientProfile, timeout time.Duration) (Session, error) {
		return NewClientWithProfile(nil, proxyURL, profile, timeout)
	}
}

// closeIdle releases pooled connections of a session this package created.
func closeIdle(s Session) {
	if c, ok := s.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
