package controllers

import (
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"statpulse/internal/services"
	"time"
)

// HealthReporter supplies the role specific part of the health document.
type HealthReporter interface {
	Health() map[string]any
}

type HealthController struct {
	role      string
	reporter  HealthReporter
	startTime time.Time
}

type healthResponse struct {
	Status        string         `json:"status"`
	Role          string         `json:"role"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Details       map[string]any `json:"details,omitempty"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Role:          hc.role,
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
	}
	if hc.reporter != nil {
		resp.Details = hc.reporter.Health()
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(role string, reporter HealthReporter) *HealthController {
	return &HealthController{
		role:      role,
		reporter:  reporter,
		startTime: time.Now(),
	}
}

// NewSinkHealthController reports the lease holder and stored notifications.
func NewSinkHealthController(service services.SinkServiceInterface) *HealthController {
	return NewHealthController("sink", service)
}

// NewAgentHealthController reports the session state and queue length.
func NewAgentHealthController(service services.EngineServiceInterface) *HealthController {
	return NewHealthController("agent", service)
}
