package http

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Strob0t/FeedbackForge/internal/domain"
	"github.com/Strob0t/FeedbackForge/internal/domain/feedback"
	"github.com/Strob0t/FeedbackForge/internal/service"
)

// submitBodyLimit bounds /api/feedback/submit bodies. Base64 image payloads
// dominate; 32 MiB comfortably fits a handful of screenshots.
const submitBodyLimit = 32 << 20

// Handlers holds dependencies for all broker HTTP handlers.
type Handlers struct {
	Broker *service.BrokerService

	// ShutdownGrace delays self-termination after /api/shutdown so the
	// response reaches the caller.
	ShutdownGrace time.Duration
}

// currentResponse is the rich poll shape. Older callers that only expect the
// bare request duck-type it by checking for the startTime field.
type currentResponse struct {
	Request        *feedback.Request `json:"request"`
	OwnerWorkspace *string           `json:"ownerWorkspace"`
	StartTime      int64             `json:"startTime"`
}

// GetCurrentFeedback answers a poller's scan: the pending request (or null)
// plus this broker's identity for ownership and tie-break decisions.
func (h *Handlers) GetCurrentFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hasParams := q.Has("workspace") || q.Has("latestStartTime")
	latest, _ := strconv.ParseInt(q.Get("latestStartTime"), 10, 64)

	view := h.Broker.Snapshot(q.Get("workspace"), latest, hasParams)

	resp := currentResponse{
		Request:   view.Request,
		StartTime: view.StartTime,
	}
	if view.OwnerSet {
		owner := view.OwnerWorkspace
		resp.OwnerWorkspace = &owner
	}
	writeJSON(w, http.StatusOK, resp)
}

type submitRequest struct {
	RequestID string            `json:"requestId"`
	Feedback  feedback.Response `json:"feedback"`
}

// SubmitFeedback delivers a human answer to the pending tool call.
func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON[submitRequest](w, r, submitBodyLimit)
	if !ok {
		return
	}
	if body.RequestID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body.Feedback.RequestID = body.RequestID

	if err := h.Broker.Submit(body.RequestID, &body.Feedback); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Request not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Health is the liveness probe used by the poller's connectivity indicator.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           service.Version,
		"hasCurrentRequest": h.Broker.HasCurrent(),
		"pid":               os.Getpid(),
	})
}

// Shutdown acknowledges, then terminates after a short grace delay. Used by
// a newer instance asking this one to yield (deprecated eviction flow) and
// by operators.
func (h *Handlers) Shutdown(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Shutting down...",
	})

	grace := h.ShutdownGrace
	time.AfterFunc(grace, h.Broker.TriggerShutdown)
}
