// Package console is a minimal presenter for running the poller standalone
// in a terminal. Editor integrations replace this with their own webview
// form; only the presenter port contract is shared.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	fb "github.com/Strob0t/FeedbackForge/internal/domain/feedback"
)

// Interactive reports whether stdin is a terminal, i.e. whether prompting
// the human for an answer makes sense.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Presenter renders poller output as plain terminal text.
type Presenter struct {
	mu        sync.Mutex
	out       io.Writer
	connected bool
	hasShown  bool
}

// NewPresenter creates a Presenter writing to out.
func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

// DisplayRequest shows a pending request and, on a TTY, how to answer it.
func (p *Presenter) DisplayRequest(req fb.Request, port int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n--- feedback requested (port %d, waits up to %ds) ---\n", port, req.TimeoutSeconds)
	fmt.Fprintln(p.out, req.Summary)
	if Interactive() {
		fmt.Fprintln(p.out, "--- type your feedback and press enter (empty line sends empty feedback) ---")
	}
}

// ClearRequest returns to the waiting state.
func (p *Presenter) ClearRequest() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "--- waiting for feedback requests ---")
}

// NotifyAttention rings the terminal bell for fresh requests.
func (p *Presenter) NotifyAttention(_ fb.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "\a")
}

// NotifyError surfaces a transient failure without clearing anything.
func (p *Presenter) NotifyError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] error: %s\n", time.Now().Format("15:04:05"), msg)
}

// SetConnected prints connectivity transitions only, not every probe.
func (p *Presenter) SetConnected(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasShown && connected == p.connected {
		return
	}
	p.hasShown = true
	p.connected = connected
	if connected {
		fmt.Fprintln(p.out, "[connected]")
	} else {
		fmt.Fprintln(p.out, "[no feedback server found]")
	}
}
