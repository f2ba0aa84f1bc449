package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DatabaseChecker is the subset of database.DB the status endpoint needs
type DatabaseChecker interface {
	QuickCheck(ctx context.Context) error
	Path() string
}

// SystemHandlers reports process and host health
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	runsDB    DatabaseChecker
	startedAt time.Time
	// stats returns CPU and RAM usage percentages; swapped in tests
	stats func() (float64, float64)
}

// DatabaseStatus describes the run database
type DatabaseStatus struct {
	Path    string  `json:"path"`
	SizeMB  float64 `json:"size_mb"`
	Healthy bool    `json:"healthy"`
	Error   string  `json:"error,omitempty"`
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	CPUPercent    float64         `json:"cpu_percent"`
	MemoryPercent float64         `json:"memory_percent"`
	Goroutines    int             `json:"goroutines"`
	GoVersion     string          `json:"go_version"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	DataDir       string          `json:"data_dir"`
	Database      *DatabaseStatus `json:"database,omitempty"`
	LastChecked   string          `json:"last_checked"`
}

// NewSystemHandlers creates system handlers. runsDB may be nil.
func NewSystemHandlers(log zerolog.Logger, dataDir string, runsDB DatabaseChecker) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("service", "system").Logger(),
		dataDir:   dataDir,
		runsDB:    runsDB,
		startedAt: time.Now(),
	}
	h.stats = h.getSystemStats
	return h
}

// HandleSystemStatus returns host usage and database health
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.stats()

	response := SystemStatusResponse{
		Status:        "healthy",
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		DataDir:       h.dataDir,
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	if h.runsDB != nil {
		status := &DatabaseStatus{Path: h.runsDB.Path(), Healthy: true}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.runsDB.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Run database check failed")
			status.Healthy = false
			status.Error = err.Error()
			response.Status = "degraded"
		}
		if info, err := os.Stat(status.Path); err == nil {
			status.SizeMB = float64(info.Size()) / 1024 / 1024
		}
		response.Database = status
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}

// getSystemStats calculates CPU and RAM usage percentages over a short sample
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
