// Package presenter defines the port interface between the discovery poller
// and whatever renders the feedback form. The form itself (webview, TUI,
// notification UI) is an external collaborator; only this contract is core.
package presenter

import fb "github.com/Strob0t/FeedbackForge/internal/domain/feedback"

// Presenter receives poller output and surfaces it to the human.
type Presenter interface {
	// DisplayRequest shows a pending request. Called at most once per
	// request ID; redisplay of seen requests is suppressed upstream.
	DisplayRequest(req fb.Request, port int)

	// ClearRequest returns the form to its waiting state after the displayed
	// request disappeared (answered elsewhere, timed out, broker gone).
	ClearRequest()

	// NotifyAttention is called in addition to DisplayRequest for fresh
	// requests only — older re-discovered requests must not re-steal focus.
	NotifyAttention(req fb.Request)

	// NotifyError surfaces a transient, local failure (e.g. a submit that
	// did not reach the broker). The form keeps its state so the human can
	// retry without retyping.
	NotifyError(msg string)

	// SetConnected drives the connectivity indicator from health scans.
	SetConnected(connected bool)
}
