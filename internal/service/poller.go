package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/FeedbackForge/internal/config"
	"github.com/Strob0t/FeedbackForge/internal/domain/feedback"
	"github.com/Strob0t/FeedbackForge/internal/port/discovery"
	"github.com/Strob0t/FeedbackForge/internal/port/presenter"
)

// PollerService discovers brokers on a bounded loopback port range, decides
// which pending request (if any) belongs to this window's workspace, and
// relays the human's answer back to the owning broker.
//
// One instance per editor window. The service has no persistent identity;
// everything it knows it re-learns from scanning.
type PollerService struct {
	cfg              config.Poller
	client           discovery.BrokerClient
	presenter        presenter.Presenter
	workspaceFolders []string

	mu          sync.Mutex
	polling     bool
	cancel      context.CancelFunc
	done        chan struct{}
	seen        *seenSet
	activePort  int // best-known port serving this workspace; 0 = none
	latestStart int64
	displayed   *feedback.Request
}

// NewPollerService creates a poller for a window with the given workspace
// folders (possibly empty — "no workspace open" is its own matching case).
func NewPollerService(cfg config.Poller, client discovery.BrokerClient, pres presenter.Presenter, workspaceFolders []string) *PollerService {
	return &PollerService{
		cfg:              cfg,
		client:           client,
		presenter:        pres,
		workspaceFolders: workspaceFolders,
		seen:             newSeenSet(cfg.SeenCap, cfg.SeenKeep),
	}
}

// StartPolling launches the periodic scan loop. Starting twice is a no-op.
// The loop performs an immediate scan before the first interval elapses.
func (p *PollerService) StartPolling(ctx context.Context) {
	p.mu.Lock()
	if p.polling {
		p.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.polling = true
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	slog.Info("poller started",
		"base_port", p.cfg.BasePort,
		"scan_range", p.cfg.ScanRange,
		"interval", p.cfg.PollInterval,
	)

	go func() {
		defer close(done)
		p.PollOnce(loopCtx)

		ticker := time.NewTicker(p.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				p.PollOnce(loopCtx)
			}
		}
	}()
}

// StopPolling stops the scan loop and waits for it to exit. Stopping an
// already stopped poller is a no-op.
func (p *PollerService) StopPolling() {
	p.mu.Lock()
	if !p.polling {
		p.mu.Unlock()
		return
	}
	p.polling = false
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	cancel()
	<-done
	slog.Info("poller stopped")
}

// Polling reports whether the scan loop is running.
func (p *PollerService) Polling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polling
}

// ActivePort returns the best-known broker port for this workspace (0 when
// none has been discovered yet).
func (p *PollerService) ActivePort() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activePort
}

// Displayed returns the request currently surfaced to the human, or nil
// when the poller is in its waiting state.
func (p *PollerService) Displayed() *feedback.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.displayed
}

// scan queries every candidate port in parallel and returns the snapshots of
// responding brokers. Ports with no broker are skipped silently; one dead
// port never stalls the whole scan thanks to the per-request timeout inside
// the client.
func (p *PollerService) scan(ctx context.Context, workspace string, latestStart int64) []discovery.Snapshot {
	results := make([]*discovery.Snapshot, p.cfg.ScanRange)

	var g errgroup.Group
	for i := 0; i < p.cfg.ScanRange; i++ {
		port := p.cfg.BasePort + i
		g.Go(func() error {
			snap, err := p.client.FetchCurrent(ctx, port, workspace, latestStart)
			if err != nil {
				if !errors.Is(err, discovery.ErrNoBroker) && ctx.Err() == nil {
					slog.Debug("poll failed", "port", port, "error", err)
				}
				return nil
			}
			results[i] = &snap
			return nil
		})
	}
	_ = g.Wait() // workers only report nil; failures mean "no broker here"

	snaps := make([]discovery.Snapshot, 0, len(results))
	for _, s := range results {
		if s != nil {
			snaps = append(snaps, *s)
		}
	}
	return snaps
}

// PollOnce runs one scan cycle: discover brokers, resolve ownership, pick
// the newest unseen request, and update the presenter.
func (p *PollerService) PollOnce(ctx context.Context) {
	workspace := ""
	if len(p.workspaceFolders) > 0 {
		workspace = feedback.NormalizePath(p.workspaceFolders[0])
	}

	p.mu.Lock()
	latestStart := p.latestStart
	p.mu.Unlock()

	snaps := p.scan(ctx, workspace, latestStart)
	if ctx.Err() != nil {
		return
	}

	var maxStart int64
	var candidates []discovery.Snapshot
	displayedStillLive := false

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, snap := range snaps {
		if !feedback.OwnerMatches(snap.OwnerWorkspace, snap.OwnerSet, p.workspaceFolders) {
			continue
		}
		if snap.StartTime > maxStart {
			maxStart = snap.StartTime
		}
		if snap.Request == nil {
			continue
		}
		if p.displayed != nil && snap.Request.ID == p.displayed.ID {
			displayedStillLive = true
		}
		if p.seen.Has(snap.Request.ID) {
			continue
		}
		if !feedback.MatchesWorkspace(snap.Request.ProjectDirectory, p.workspaceFolders) {
			continue
		}
		candidates = append(candidates, snap)
	}

	if maxStart > p.latestStart {
		p.latestStart = maxStart
	}

	winner := pickNewest(candidates)
	if winner == nil {
		if p.displayed != nil && !displayedStillLive {
			slog.Info("displayed request gone, clearing", "request_id", p.displayed.ID)
			p.displayed = nil
			p.presenter.ClearRequest()
		}
		return
	}

	req := *winner.Request
	p.seen.Add(req.ID)
	p.displayed = winner.Request
	p.activePort = winner.Port

	slog.Info("surfacing feedback request",
		"request_id", req.ID,
		"port", winner.Port,
		"age", req.Age(time.Now()),
	)
	p.presenter.DisplayRequest(req, winner.Port)
	if req.Age(time.Now()) < p.cfg.FreshnessWindow {
		p.presenter.NotifyAttention(req)
	}
}

// pickNewest applies the newest-request-wins rule: greatest createdAt,
// tie-broken by greatest broker start time. This keeps a stale broker's
// leftover request from clobbering a fresh one.
func pickNewest(candidates []discovery.Snapshot) *discovery.Snapshot {
	var best *discovery.Snapshot
	for i := range candidates {
		c := &candidates[i]
		if best == nil ||
			c.Request.CreatedAt > best.Request.CreatedAt ||
			(c.Request.CreatedAt == best.Request.CreatedAt && c.StartTime > best.StartTime) {
			best = c
		}
	}
	return best
}

// SubmitAnswer relays the human's answer to the active broker. On transport
// failure the waiting state is left untouched so the human can retry; a
// not-found reply means someone else already answered (or it expired), so
// the form resets to waiting instead.
func (p *PollerService) SubmitAnswer(ctx context.Context, resp feedback.Response) error {
	p.mu.Lock()
	port := p.activePort
	p.mu.Unlock()

	if port == 0 {
		p.presenter.NotifyError("no feedback server connected")
		return discovery.ErrNoBroker
	}

	err := p.client.Submit(ctx, port, resp)
	switch {
	case err == nil:
		p.mu.Lock()
		p.displayed = nil
		p.mu.Unlock()
		p.presenter.ClearRequest()
		return nil
	case errors.Is(err, discovery.ErrRequestGone):
		slog.Info("request already resolved elsewhere", "request_id", resp.RequestID)
		p.mu.Lock()
		p.displayed = nil
		p.mu.Unlock()
		p.presenter.ClearRequest()
		return err
	default:
		slog.Warn("submit failed", "port", port, "error", err)
		p.presenter.NotifyError("failed to send feedback: " + err.Error())
		return err
	}
}

// CheckHealth probes every candidate port for any live broker, ignoring
// ownership, purely to drive the connectivity indicator.
func (p *PollerService) CheckHealth(ctx context.Context) bool {
	var (
		mu        sync.Mutex
		connected bool
	)

	var g errgroup.Group
	for i := 0; i < p.cfg.ScanRange; i++ {
		port := p.cfg.BasePort + i
		g.Go(func() error {
			if err := p.client.Health(ctx, port); err == nil {
				mu.Lock()
				connected = true
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	p.presenter.SetConnected(connected)
	return connected
}
