package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"grokflag"
)

type TaskResult struct {
	Account Account
	Result  grokflag.Result
	Error   error
	Fatal   bool
}

// sessionFactory opens the long-lived session a worker sends every call through.
type sessionFactory func(proxyURL string) (grokflag.Session, error)

// RequestTemplate holds the per-run overrides applied to every account.
type RequestTemplate struct {
	Impersonate string
	UserAgent   string
	Timeout     time.Duration
}

func (t RequestTemplate) forAccount(acc Account) grokflag.EnableRequest {
	req := grokflag.EnableRequest{
		SSO:         acc.SSO,
		SSORW:       acc.SSORW,
		Impersonate: t.Impersonate,
		UserAgent:   t.UserAgent,
		Timeout:     t.Timeout,
	}
	if acc.Clearance != "" {
		req.ClearanceToken = grokflag.Clearance(acc.Clearance)
	}
	return req
}

type Worker struct {
	id      string
	session grokflag.Session
	logger  grokflag.Logger
}

type Scheduler struct {
	workers      []*Worker
	workChan     chan Account
	resultsChan  chan TaskResult
	wg           sync.WaitGroup
	service      *grokflag.Service
	template     RequestTemplate
	proxyManager *ProxyManager
	newSession   sessionFactory
	logger       grokflag.Logger
	staggerDelay time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	fatalOnce    sync.Once
	fatalErr     error
	stopped      atomic.Bool
}

func NewScheduler(workerCount int, service *grokflag.Service, template RequestTemplate, proxyManager *ProxyManager, newSession sessionFactory, staggerDelay time.Duration, logger grokflag.Logger) *Scheduler {
	s := &Scheduler{
		workers:      make([]*Worker, workerCount),
		workChan:     make(chan Account, workerCount*2),
		resultsChan:  make(chan TaskResult, workerCount*2),
		service:      service,
		template:     template,
		proxyManager: proxyManager,
		newSession:   newSession,
		logger:       logger,
		staggerDelay: staggerDelay,
	}

	for i := range s.workers {
		id := generateWorkerID()
		s.workers[i] = &Worker{
			id:     id,
			logger: &workerLogger{id: id, base: logger},
		}
	}

	return s
}

// tlsSessionFactory opens tls-client sessions with the run's profile and timeout.
func tlsSessionFactory(impersonate string, timeout time.Duration, logger grokflag.Logger, debug bool) sessionFactory {
	return func(proxyURL string) (grokflag.Session, error) {
		var tlsLogger tlsLogAdapter
		if debug {
			tlsLogger.base = logger
		}
		return grokflag.NewSession(tlsLogger.client(), impersonate, proxyURL, timeout)
	}
}

func generateWorkerID() string {
	return uuid.New().String()[:8]
}

// workerLogger wraps a logger with worker ID prefix.
type workerLogger struct {
	id   string
	base grokflag.Logger
}

func (w *workerLogger) Log(format string, args ...any) {
	w.base.Log("[%s] "+format, append([]any{w.id}, args...)...)
}

func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	for i, worker := range s.workers {
		s.wg.Add(1)
		go s.runWorker(s.ctx, worker)

		if s.staggerDelay > 0 && i < len(s.workers)-1 {
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.staggerDelay):
			}
		}
	}
}

func (s *Scheduler) handleFatalError(err error) {
	s.fatalOnce.Do(func() {
		s.fatalErr = err
		s.stopped.Store(true)
		s.logger.Log("FATAL ERROR: %v - stopping all workers", err)

		if s.cancel != nil {
			s.cancel()
		}

		// The collector may already have stopped reading, so never block here.
		select {
		case s.resultsChan <- TaskResult{Fatal: true, Error: err}:
		default:
		}
	})
}

// openSession gives the worker its own session for the lifetime of the run.
// A session that cannot be opened means the profile or proxy config is unusable.
func (s *Scheduler) openSession(worker *Worker) error {
	proxyURL, display := s.proxyManager.Random()
	worker.logger.Log("Using proxy: %s", display)

	session, err := s.newSession(proxyURL)
	if err != nil {
		return grokflag.NewFatalError(err)
	}
	worker.session = session
	return nil
}

// rotateWorkerSession replaces a session whose connection failed with one on
// a new random proxy. The old session is kept if the new one cannot be opened.
func (s *Scheduler) rotateWorkerSession(worker *Worker) {
	proxyURL, display := s.proxyManager.Random()
	session, err := s.newSession(proxyURL)
	if err != nil {
		worker.logger.Log("Failed to rotate session: %v", err)
		return
	}
	closeSession(worker.session)
	worker.session = session
	worker.logger.Log("Rotated proxy: %s", display)
}

func closeSession(session grokflag.Session) {
	if c, ok := session.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

func (s *Scheduler) runWorker(ctx context.Context, worker *Worker) {
	defer s.wg.Done()

	if err := s.openSession(worker); err != nil {
		s.handleFatalError(err)
		return
	}
	defer func() { closeSession(worker.session) }()

	for {
		select {
		case <-ctx.Done():
			return
		case acc, ok := <-s.workChan:
			if !ok {
				return
			}
			if s.stopped.Load() {
				return
			}

			worker.logger.Log("Processing: %s", acc.Display())
			res := s.service.EnableWithSession(ctx, worker.session, s.template.forAccount(acc))
			if res.OK {
				worker.logger.Log("Enabled: %s", acc.Display())
			} else {
				worker.logger.Log("Failed: %s: %s", acc.Display(), res.Error)
			}

			// The account is not retried; only later accounts get the fresh session.
			if res.StatusCode == nil && grokflag.IsTransportFailure(res.Err()) && s.proxyManager.Count() > 1 {
				s.rotateWorkerSession(worker)
			}

			select {
			case s.resultsChan <- TaskResult{Account: acc, Result: res, Error: res.Err()}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit queues an account. It returns false once the scheduler has stopped.
func (s *Scheduler) Submit(acc Account) bool {
	if s.stopped.Load() {
		return false
	}
	select {
	case s.workChan <- acc:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Done is closed once a fatal error stops the scheduler, or after Close.
func (s *Scheduler) Done() <-chan struct{} {
	return s.ctx.Done()
}

// FatalErr returns the error that stopped the scheduler. Only valid after Done is closed.
func (s *Scheduler) FatalErr() error {
	return s.fatalErr
}

// Results returns the results channel for reading task outcomes.
func (s *Scheduler) Results() <-chan TaskResult {
	return s.resultsChan
}

// Close shuts down the scheduler and waits for workers to finish.
// No Submit call may be in flight.
func (s *Scheduler) Close() {
	close(s.workChan)
	s.wg.Wait()
	if s.cancel != nil {
		s.cancel()
	}
	close(s.resultsChan)
}

// WorkerCount returns the number of workers.
func (s *Scheduler) WorkerCount() int {
	return len(s.workers)
}
