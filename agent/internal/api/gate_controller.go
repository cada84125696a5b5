package api

import (
	"net/http"

	"focus-guard/agent/internal/bypass"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/service"

	"github.com/go-chi/chi/v5"
)

// GateController serves the decision consumer: page checks, the bypass
// workflow and the leave target.
type GateController struct {
	guard *service.Guard
}

func NewGateController(g *service.Guard) *GateController {
	return &GateController{guard: g}
}

func (c *GateController) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// Check POST /gate/check
func (c *GateController) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decodeBody(r, &req); err != nil || req.Hostname == "" {
		writeJSONError(w, http.StatusBadRequest, "hostname required")
		return
	}
	writeJSON(w, http.StatusOK, newCheckResponse(c.guard.Check(r.Context(), req.Hostname)))
}

// Redirect GET /redirect
func (c *GateController) Redirect(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RedirectResponse{URL: c.guard.Redirect(r.Context())})
}

// ValidateReason POST /reason/validate lets the UI enable its proceed action.
func (c *GateController) ValidateReason(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	resp := ReasonCheckResponse{Acceptable: true}
	if err := bypass.ValidateReason(req.Reason); err != nil {
		resp = ReasonCheckResponse{Acceptable: false, Problem: err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// StartBypass POST /bypass
func (c *GateController) StartBypass(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decodeBody(r, &req); err != nil || req.Hostname == "" {
		writeJSONError(w, http.StatusBadRequest, "hostname required")
		return
	}
	st, err := c.guard.BeginBypass(r.Context(), req.Hostname)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetBypass GET /bypass/{id}
func (c *GateController) GetBypass(w http.ResponseWriter, r *http.Request) {
	st, err := c.guard.Status(chi.URLParam(r, "id"))
	c.respond(w, st, err)
}

// Reenter POST /bypass/{id}/begin
func (c *GateController) Reenter(w http.ResponseWriter, r *http.Request) {
	st, err := c.guard.Reenter(chi.URLParam(r, "id"))
	c.respond(w, st, err)
}

// SubmitReason POST /bypass/{id}/reason. A rejected reason is not an error:
// the response says accepted=false and the session stays in reason entry.
func (c *GateController) SubmitReason(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	st, accepted, err := c.guard.SubmitReason(chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReasonResponse{Accepted: accepted, Bypass: st})
}

// CancelReason POST /bypass/{id}/cancel
func (c *GateController) CancelReason(w http.ResponseWriter, r *http.Request) {
	st, err := c.guard.CancelReason(chi.URLParam(r, "id"))
	c.respond(w, st, err)
}

// Abort POST /bypass/{id}/abort
func (c *GateController) Abort(w http.ResponseWriter, r *http.Request) {
	st, err := c.guard.Abort(chi.URLParam(r, "id"))
	c.respond(w, st, err)
}

// CloseBypass DELETE /bypass/{id}
func (c *GateController) CloseBypass(w http.ResponseWriter, r *http.Request) {
	if err := c.guard.Close(chi.URLParam(r, "id")); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *GateController) respond(w http.ResponseWriter, st bypass.Status, err error) {
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			logger.Errorf("Bypass request failed: %v", err)
		}
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
