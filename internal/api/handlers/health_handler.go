package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports database reachability and process stats.
type HealthHandler struct {
	db      Pinger
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Database      string  `json:"database"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
	Goroutines    int     `json:"goroutines"`
	RSSBytes      uint64  `json:"rssBytes,omitempty"`
	CPUPercent    float64 `json:"cpuPercent,omitempty"`
}

// Get handles the health check.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:        "ok",
		Database:      "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
			status.RSSBytes = mem.RSS
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			status.CPUPercent = cpu
		}
	}

	code := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: database unreachable")
		status.Status = "degraded"
		status.Database = err.Error()
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status)
}
