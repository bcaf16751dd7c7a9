package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

// Pinger is a backing store the health probe can reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Get answers ok while the process serves requests. Unreachable stores are
// listed under degraded without failing the probe.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	degraded := make([]string, 0)
	for name, check := range h.checks {
		if check == nil {
			degraded = append(degraded, name)
			continue
		}
		if err := check.Ping(ctx); err != nil {
			degraded = append(degraded, name)
		}
	}

	httperrors.Write(w, http.StatusOK, struct {
		OK       bool     `json:"ok"`
		Degraded []string `json:"degraded,omitempty"`
	}{
		OK:       true,
		Degraded: degraded,
	})
}
