// Package discovery defines the port interface the poller uses to talk to
// broker processes over the loopback side-channel.
package discovery

import (
	"context"
	"errors"

	fb "github.com/Strob0t/FeedbackForge/internal/domain/feedback"
)

// ErrNoBroker is returned when a candidate port has no responding broker.
// Connect failures during a scan collapse into this error; they are not
// surfaced per-port.
var ErrNoBroker = errors.New("discovery: no broker on port")

// ErrRequestGone is returned by Submit when the broker no longer holds the
// request — someone else already answered it, or it expired.
var ErrRequestGone = errors.New("discovery: request not found")

// Snapshot is one broker's poll response.
type Snapshot struct {
	Port           int
	Request        *fb.Request // nil when no request is pending
	OwnerWorkspace string
	OwnerSet       bool
	StartTime      int64 // broker process start, epoch ms
}

// BrokerClient is the HTTP client surface consumed by the poller.
type BrokerClient interface {
	// FetchCurrent polls one port for its pending request and identity.
	// workspace may be empty (no workspace open); latestStartTime carries the
	// newest broker start time this poller has observed for its workspace.
	FetchCurrent(ctx context.Context, port int, workspace string, latestStartTime int64) (Snapshot, error)

	// Submit delivers the human's answer to the broker on port.
	Submit(ctx context.Context, port int, resp fb.Response) error

	// Health probes one port for any live broker, ignoring ownership.
	Health(ctx context.Context, port int) error
}
