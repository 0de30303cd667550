package handlers

import (
	"net/http"
	"time"
)

// HealthHandlers reports service liveness together with deployment metadata.
type HealthHandlers struct {
	env   string
	clock func() time.Time
}

// NewHealthHandlers constructs health handlers for the given environment label.
func NewHealthHandlers(env string) *HealthHandlers {
	return &HealthHandlers{
		env:   env,
		clock: time.Now,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Env       string `json:"env"`
}

// Health answers liveness probes with the current server time and environment.
func (h *HealthHandlers) Health(w http.ResponseWriter, _ *http.Request) {
	clock := time.Now
	env := ""
	if h != nil {
		if h.clock != nil {
			clock = h.clock
		}
		env = h.env
	}
	writeJSONResponse(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: clock().UTC().Format(time.RFC3339),
		Env:       env,
	})
}
