package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/di"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/utils"
)

// SystemHandlers serves the operational endpoints under /api/system.
type SystemHandlers struct {
	container *di.Container
	jobs      *di.JobInstances
	version   string
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates the system handlers. jobs may be nil.
func NewSystemHandlers(container *di.Container, jobs *di.JobInstances, version string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		container: container,
		jobs:      jobs,
		version:   version,
		startedAt: time.Now(),
		log:       log.With().Str("component", "system_handlers").Logger(),
	}
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string       `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	GoVersion     string       `json:"go_version"`
	Goroutines    int          `json:"goroutines"`
	CPUPercent    float64      `json:"cpu_percent"`
	RAMPercent    float64      `json:"ram_percent"`
	Cache         *CacheStatus `json:"cache,omitempty"`
}

// CacheStatus describes the price-history cache database.
type CacheStatus struct {
	Healthy bool            `json:"healthy"`
	Entries int64           `json:"entries"`
	Stats   *database.Stats `json:"stats,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// HandleSystemStatus returns process and cache status.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Cache:         h.cacheStatus(r.Context()),
	}
	if response.Cache != nil && !response.Cache.Healthy {
		response.Status = "degraded"
	}

	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, response))
}

// HandleJobsStatus lists the scheduled jobs with their next run times.
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	if h.container.Scheduler == nil {
		utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, []interface{}{}))
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, h.container.Scheduler.Jobs()))
}

// HandleTriggerCacheCleanup runs the cache cleanup job immediately.
// POST /api/system/jobs/cache-cleanup
func (h *SystemHandlers) HandleTriggerCacheCleanup(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil || h.jobs.CacheCleanup == nil || h.container.Scheduler == nil {
		utils.WriteError(w, r, h.log, domain.InvalidRequest("cache cleanup job is not registered"))
		return
	}

	if err := h.container.Scheduler.RunNow(h.jobs.CacheCleanup); err != nil {
		utils.WriteError(w, r, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, utils.Envelope(r, map[string]interface{}{
		"job":    h.jobs.CacheCleanup.Name(),
		"status": "completed",
	}))
}

func (h *SystemHandlers) cacheStatus(ctx context.Context) *CacheStatus {
	if h.container.CacheDB == nil {
		return nil
	}

	status := &CacheStatus{Healthy: true}
	if err := h.container.CacheDB.QuickCheck(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Cache database check failed")
		return &CacheStatus{Error: err.Error()}
	}

	stats, err := h.container.CacheDB.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read cache database stats")
	} else {
		status.Stats = stats
	}

	if h.container.CacheRepo != nil {
		count, err := h.container.CacheRepo.Count(ctx, clientdata.TablePriceHistory)
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count cache entries")
		} else {
			status.Entries = count
		}
	}

	return status
}

// getSystemStats calculates CPU and RAM usage percentages.
// The CPU sample window is short so the endpoint stays responsive.
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
