package ussd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hospitalquick/platform/internal/observability/metrics"
	"github.com/hospitalquick/platform/internal/session"
	"github.com/hospitalquick/platform/pkg/logging"
)

// faultResponse is what the caller sees for any collaborator fault. The
// specific cause is logged for operators, never shown.
const faultResponse = "END An error occurred. Please try again later."

// Request is one gateway round trip. text is the full accumulated input
// for the call; only the last *-separated segment is this step's input.
type Request struct {
	SessionID   string `json:"sessionId"`
	ServiceCode string `json:"serviceCode"`
	PhoneNumber string `json:"phoneNumber"`
	Text        string `json:"text"`
}

// Handler adapts gateway HTTP requests onto the menu engine.
type Handler struct {
	engine   *Engine
	sessions session.Store
	metrics  *metrics.USSDMetrics
	logger   *logging.Logger
}

// NewHandler creates the gateway adapter.
func NewHandler(engine *Engine, sessions session.Store, m *metrics.USSDMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, sessions: sessions, metrics: m, logger: logger}
}

// HandleUSSD processes one round trip: resolve the session, run one menu
// step, persist or terminate, reply in plain text.
func (h *Handler) HandleUSSD(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	start := time.Now()

	sess, err := h.sessions.Resolve(ctx, req.SessionID, req.PhoneNumber)
	if err != nil {
		h.fault(w, "resolve", "", start, err)
		return
	}

	state := sess.CurrentMenu
	result, err := h.engine.Step(ctx, state, lastSegment(req.Text), sess)
	if err != nil {
		h.fault(w, "step", state, start, err)
		return
	}

	if result.Terminal {
		if err := h.sessions.Terminate(ctx, req.SessionID); err != nil {
			h.logger.Error("session terminate failed", "session_id", req.SessionID, "error", err)
		}
		h.metrics.ObserveStep(state, "terminal", time.Since(start).Seconds())
	} else {
		_, err := h.sessions.Persist(ctx, req.SessionID, result.NextState, result.DataPatch)
		switch {
		case errors.Is(err, session.ErrNotFound):
			// Evicted between resolve and persist; the caller restarts at
			// main on the next dial. Not a fault.
			h.logger.Debug("session lost before persist", "session_id", req.SessionID)
		case err != nil:
			h.fault(w, "persist", state, start, err)
			return
		}
		h.metrics.ObserveStep(state, "continue", time.Since(start).Seconds())
	}

	h.logger.Info("ussd step",
		"session_id", req.SessionID,
		"phone", req.PhoneNumber,
		"state", state,
		"next_state", result.NextState,
		"terminal", result.Terminal,
	)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Response))
}

func (h *Handler) fault(w http.ResponseWriter, phase, state string, start time.Time, err error) {
	h.logger.Error("ussd request failed", "phase", phase, "state", state, "error", err)
	h.metrics.ObserveStep(state, "fault", time.Since(start).Seconds())
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(faultResponse))
}

// parseRequest accepts both the form encoding USSD gateways post and JSON
// for manual testing.
func parseRequest(r *http.Request) (Request, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return Request{}, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return Request{}, err
	}
	return Request{
		SessionID:   r.PostFormValue("sessionId"),
		ServiceCode: r.PostFormValue("serviceCode"),
		PhoneNumber: r.PostFormValue("phoneNumber"),
		Text:        r.PostFormValue("text"),
	}, nil
}

// lastSegment returns the current step's input from the accumulated text.
func lastSegment(text string) string {
	if text == "" {
		return ""
	}
	parts := strings.Split(text, "*")
	return parts[len(parts)-1]
}
