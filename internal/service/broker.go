package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/FeedbackForge/internal/config"
	"github.com/Strob0t/FeedbackForge/internal/domain"
	"github.com/Strob0t/FeedbackForge/internal/domain/feedback"
)

// Version is reported on /api/health and by get_system_info.
const Version = "0.1.0"

// BrokerService owns the rendezvous state of one broker process: the single
// current-request slot, the lazily established workspace ownership, and the
// activity clock that drives inactivity self-termination.
//
// All mutation happens under one mutex; clearing the current slot and
// resolving its waiter are a single synchronous step so a concurrent poll
// never observes a half-updated state.
type BrokerService struct {
	cfg       config.Broker
	startTime time.Time

	mu             sync.Mutex
	current        *feedback.Request
	ownerWorkspace string
	ownerSet       bool
	lastActivity   time.Time
	port           int

	waiters *syncWaiter[feedback.Response]

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewBrokerService creates a broker with no ownership claim and a fresh
// activity clock.
func NewBrokerService(cfg config.Broker) *BrokerService {
	now := time.Now()
	return &BrokerService{
		cfg:          cfg,
		startTime:    now,
		lastActivity: now,
		waiters:      newSyncWaiter[feedback.Response](),
		shutdownCh:   make(chan struct{}),
	}
}

// StartTime returns the immutable process start instant.
func (s *BrokerService) StartTime() time.Time { return s.startTime }

// SetPort records the port the HTTP listener ended up bound to after
// collision resolution.
func (s *BrokerService) SetPort(port int) {
	s.mu.Lock()
	s.port = port
	s.mu.Unlock()
}

// Port returns the bound HTTP port.
func (s *BrokerService) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// HasCurrent reports whether a feedback request is pending.
func (s *BrokerService) HasCurrent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// ShutdownSignal is closed once TriggerShutdown has fired.
func (s *BrokerService) ShutdownSignal() <-chan struct{} { return s.shutdownCh }

// TriggerShutdown fires the shutdown signal. Pending tool calls resolve with
// a nil response, which callers treat as a timeout. Safe to call repeatedly.
func (s *BrokerService) TriggerShutdown() {
	s.shutdownOnce.Do(func() {
		slog.Info("broker shutdown triggered")
		close(s.shutdownCh)
	})
}

// resolveTimeout applies the precedence: operator override > caller-supplied
// value > configured default. The override wins deliberately — a human's
// configured timeout must not be shortened by the AI's own parameter choice.
func (s *BrokerService) resolveTimeout(requested time.Duration) time.Duration {
	if s.cfg.TimeoutOverrideSeconds > 0 {
		return time.Duration(s.cfg.TimeoutOverrideSeconds) * time.Second
	}
	if requested > 0 {
		return requested
	}
	return time.Duration(s.cfg.DefaultTimeoutSeconds) * time.Second
}

// RequestFeedback creates a request in the single current-request slot and
// blocks until a matching answer is submitted, the timeout elapses, the
// context is cancelled, or the broker shuts down.
//
// A nil response with nil error means the call timed out or was cancelled.
// A previous still-pending request is replaced (last wins); its own waiter
// resolves as a timeout when its timer fires.
func (s *BrokerService) RequestFeedback(ctx context.Context, projectDirectory, summary string, requested time.Duration) (*feedback.Response, error) {
	if projectDirectory == "" {
		return nil, fmt.Errorf("%w: project_directory is required", domain.ErrValidation)
	}

	timeout := s.resolveTimeout(requested)
	req := &feedback.Request{
		ID:               uuid.NewString(),
		Summary:          summary,
		ProjectDirectory: projectDirectory,
		TimeoutSeconds:   int(timeout / time.Second),
		CreatedAt:        time.Now().UnixMilli(),
	}

	ch := s.waiters.register(req.ID)

	s.mu.Lock()
	// Ownership is established (and refreshed) here and only here.
	s.ownerWorkspace = feedback.NormalizePath(projectDirectory)
	s.ownerSet = true
	replaced := s.current
	s.current = req
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if replaced != nil {
		slog.Warn("replacing pending feedback request",
			"old_id", replaced.ID,
			"new_id", req.ID,
		)
	}
	slog.Info("feedback request created",
		"request_id", req.ID,
		"project_directory", projectDirectory,
		"timeout", timeout,
	)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
	case <-ctx.Done():
	case <-s.shutdownCh:
	}

	if !s.abandon(req.ID) {
		// A submit claimed the waiter between the timer firing and the
		// abandon; the answer is already buffered. Prefer it over a
		// spurious timeout.
		return <-ch, nil
	}

	slog.Info("feedback request timed out", "request_id", req.ID)
	return nil, nil
}

// abandon clears the current slot (when still owned by id) and withdraws the
// waiter. Returns false when a deliver got there first.
func (s *BrokerService) abandon(id string) bool {
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()
	return s.waiters.unregister(id)
}

// Submit delivers an answer to the pending tool call. Returns ErrNotFound
// when the request ID does not match the current request — the caller was
// answering a request that expired or was already answered.
func (s *BrokerService) Submit(requestID string, resp *feedback.Response) error {
	s.mu.Lock()
	if s.current == nil || s.current.ID != requestID {
		s.mu.Unlock()
		return fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
	}
	s.current = nil
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if !s.waiters.deliver(requestID, resp) {
		// Waiter already resolved (timeout won the race).
		return fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
	}

	slog.Info("feedback submitted", "request_id", requestID)
	return nil
}

// PollView is the broker state exposed to a polling window.
type PollView struct {
	Request        *feedback.Request
	OwnerWorkspace string
	OwnerSet       bool
	StartTime      int64 // epoch ms
}

// Snapshot returns the poll view for /api/feedback/current.
//
// It refreshes the activity clock only when the poll plausibly keeps this
// broker alive on purpose: the polling window must match our ownership claim
// and must not already know a newer broker instance for the same workspace.
// A stale leftover broker therefore stops being refreshed and idles out.
func (s *BrokerService) Snapshot(workspace string, latestStartTime int64, hasParams bool) PollView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := PollView{
		Request:        s.current,
		OwnerWorkspace: s.ownerWorkspace,
		OwnerSet:       s.ownerSet,
		StartTime:      s.startTime.UnixMilli(),
	}

	matches := !s.ownerSet || feedback.NormalizePath(workspace) == s.ownerWorkspace
	isNewest := latestStartTime <= view.StartTime
	if !hasParams || (matches && isNewest) {
		s.lastActivity = time.Now()
	}

	return view
}

// RunInactivityMonitor periodically terminates an idle broker. A pending
// request always suppresses termination regardless of idle age: an AI
// waiting on an answer must never be abandoned by its own broker.
func (s *BrokerService) RunInactivityMonitor(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.InactivityCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			idle := time.Since(s.lastActivity)
			pending := s.current != nil
			s.mu.Unlock()

			if pending || idle <= s.cfg.InactivityTimeout {
				continue
			}
			slog.Info("broker idle, self-terminating", "idle", idle)
			s.TriggerShutdown()
			return
		}
	}
}
