package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"

	"grokflag"
)

type nopLogger struct{}

func (nopLogger) Log(string, ...any) {}

// stubSession answers 200 unless the sso cookie is listed in fail.
type stubSession struct {
	fail  map[string]error
	calls atomic.Int32
}

func (s *stubSession) Do(req *http.Request) (*http.Response, error) {
	s.calls.Add(1)
	for _, c := range req.Cookies() {
		if c.Name == "sso" {
			if err, ok := s.fail[c.Value]; ok {
				return nil, err
			}
		}
	}
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Grpc-Status": {"0"}},
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

func runAll(t *testing.T, s *Scheduler, accounts []Account) []TaskResult {
	t.Helper()
	s.Start(context.Background())

	go func() {
		for _, acc := range accounts {
			if !s.Submit(acc) {
				return
			}
		}
	}()

	var results []TaskResult
	timeout := time.After(5 * time.Second)
	for len(results) < len(accounts) {
		select {
		case r := <-s.Results():
			results = append(results, r)
		case <-timeout:
			t.Fatalf("timed out with %d/%d results", len(results), len(accounts))
		}
	}
	return results
}

func TestSchedulerProcessesEveryAccount(t *testing.T) {
	session := &stubSession{}
	var opened atomic.Int32
	factory := func(string) (grokflag.Session, error) {
		opened.Add(1)
		return session, nil
	}

	var accounts []Account
	for i := range 20 {
		accounts = append(accounts, Account{SSO: fmt.Sprintf("sso-%d", i), SSORW: "rw"})
	}
	accounts = append(accounts, Account{SSO: "no-rw"})

	s := NewScheduler(4, grokflag.NewService(""), RequestTemplate{}, nil, factory, 0, nopLogger{})
	results := runAll(t, s, accounts)
	s.Close()

	var summary Summary
	for _, r := range results {
		summary.Add(r.Result)
		if (r.Error == nil) != r.Result.OK {
			t.Errorf("result for %s: Error=%v OK=%v", r.Account.SSO, r.Error, r.Result.OK)
		}
	}
	if summary.OK != 20 || summary.Invalid != 1 {
		t.Errorf("summary = %s, want ok=20 invalid=1", summary)
	}
	if session.calls.Load() != 20 {
		t.Errorf("session calls = %d, want 20", session.calls.Load())
	}
	if opened.Load() != 4 {
		t.Errorf("opened %d sessions, want one per worker", opened.Load())
	}
}

func TestSchedulerFatalOnSessionError(t *testing.T) {
	factory := func(string) (grokflag.Session, error) {
		return nil, errors.New("bad profile")
	}
	s := NewScheduler(2, grokflag.NewService(""), RequestTemplate{}, nil, factory, 0, nopLogger{})
	s.Start(context.Background())

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on a fatal error")
	}
	if !grokflag.IsFatalError(s.FatalErr()) {
		t.Errorf("FatalErr() = %v, want a FatalError", s.FatalErr())
	}
	if s.Submit(Account{SSO: "a", SSORW: "b"}) {
		t.Error("Submit accepted work after a fatal error")
	}
	s.Close()
}

func TestSchedulerRotatesSessionAfterTransportFailure(t *testing.T) {
	session := &stubSession{fail: map[string]error{"dead": errors.New("connection reset by peer")}}
	var mu sync.Mutex
	var proxies []string
	factory := func(proxyURL string) (grokflag.Session, error) {
		mu.Lock()
		proxies = append(proxies, proxyURL)
		mu.Unlock()
		return session, nil
	}
	pm := newProxyManager([]proxyEntry{
		{url: "http://10.0.0.1:8080", display: "10.0.0.1:8080"},
		{url: "http://10.0.0.2:8080", display: "10.0.0.2:8080"},
	})

	s := NewScheduler(1, grokflag.NewService(""), RequestTemplate{}, pm, factory, 0, nopLogger{})
	results := runAll(t, s, []Account{{SSO: "dead", SSORW: "rw"}, {SSO: "alive", SSORW: "rw"}})
	s.Close()

	if results[0].Result.OK || results[0].Result.Error != "connection reset by peer" {
		t.Errorf("first result = %+v", results[0].Result)
	}
	if !results[1].Result.OK {
		t.Errorf("second result = %+v", results[1].Result)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(proxies) != 2 {
		t.Errorf("opened %d sessions, want initial plus one rotation", len(proxies))
	}
	if session.calls.Load() != 2 {
		t.Errorf("session calls = %d, want 2 (no retry)", session.calls.Load())
	}
}

func TestRequestTemplateForAccount(t *testing.T) {
	tmpl := RequestTemplate{Impersonate: "chrome143", UserAgent: "ua", Timeout: time.Second}

	req := tmpl.forAccount(Account{SSO: "a", SSORW: "b"})
	if req.ClearanceToken != nil {
		t.Errorf("ClearanceToken = %q, want nil so the service default applies", *req.ClearanceToken)
	}
	if req.Impersonate != "chrome143" || req.UserAgent != "ua" || req.Timeout != time.Second {
		t.Errorf("template not applied: %+v", req)
	}

	req = tmpl.forAccount(Account{SSO: "a", SSORW: "b", Clearance: "cf"})
	if req.ClearanceToken == nil || *req.ClearanceToken != "cf" {
		t.Errorf("ClearanceToken = %v, want cf", req.ClearanceToken)
	}
}
