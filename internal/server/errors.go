package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/theapemachine/errnie"
	"github.com/theapemachine/qbloch"
	"github.com/theapemachine/qbloch/internal/session"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrBodyTooLarge   = errors.New("request body too large")
	ErrBudgetExceeded = errors.New("shot budget exhausted")
)

type statusRule struct {
	target error
	status int
	kind   string
}

var statusRules = []statusRule{
	{qbloch.ErrUnknownGateToken, http.StatusBadRequest, "unknown_gate"},
	{qbloch.ErrInvalidAngle, http.StatusBadRequest, "invalid_angle"},
	{qbloch.ErrInvalidTrialCount, http.StatusBadRequest, "invalid_trials"},
	{qbloch.ErrIndexOutOfRange, http.StatusBadRequest, "index_out_of_range"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrBodyTooLarge, http.StatusRequestEntityTooLarge, "body_too_large"},
	{session.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{session.ErrVersionConflict, http.StatusConflict, "version_conflict"},
	{ErrBudgetExceeded, http.StatusTooManyRequests, "budget_exceeded"},
}

// classify maps err to an HTTP status and a short kind used in metrics.
func classify(err error) (int, string) {
	for _, rule := range statusRules {
		if errors.Is(err, rule.target) {
			return rule.status, rule.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeError(w http.ResponseWriter, err error) string {
	status, kind := classify(err)
	if status == http.StatusInternalServerError {
		errnie.Error(err)
	} else {
		errnie.Debug("request rejected (%s): %v", kind, err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
	return kind
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
