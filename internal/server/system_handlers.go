package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/KeithMadison/investment-portfolio/internal/database"
	"github.com/KeithMadison/investment-portfolio/internal/modules/marketdata"
)

// SystemHandlers serves health and operational endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	pricesDB  *database.DB
	cacheDB   *database.DB
	store     *marketdata.PriceStore
	sync      *marketdata.SyncService
	startedAt time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	pricesDB *database.DB,
	cacheDB *database.DB,
	store *marketdata.PriceStore,
	sync *marketdata.SyncService,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		dataDir:   dataDir,
		pricesDB:  pricesDB,
		cacheDB:   cacheDB,
		store:     store,
		sync:      sync,
		startedAt: time.Now(),
	}
}

// HandleHealth handles GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, memUsed := h.getSystemStats()

	tickers, err := h.store.Tickers()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to list tracked tickers")
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cpu_percent":     cpuAvg,
		"memory_percent":  memUsed,
		"tracked_tickers": len(tickers),
		"uptime_seconds":  int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleDatabaseStats handles GET /api/system/databases
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make([]map[string]interface{}, 0, 2)
	for _, db := range []*database.DB{h.pricesDB, h.cacheDB} {
		if db == nil {
			continue
		}
		stats = append(stats, map[string]interface{}{
			"name":    db.Name(),
			"profile": string(db.Profile()),
			"size_mb": h.getDirSize(db.Path()),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"databases": stats,
		"data_dir":  h.dataDir,
	})
}

// HandleTriggerPriceSync handles POST /api/system/sync: runs one price
// refresh cycle outside the cron schedule.
func (h *SystemHandlers) HandleTriggerPriceSync(w http.ResponseWriter, r *http.Request) {
	if err := h.sync.RunOnce(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manual price sync failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "completed",
	})
}

// getSystemStats samples CPU over a short window to keep the endpoint
// responsive.
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

func (h *SystemHandlers) getDirSize(path string) float64 {
	var total int64
	// A SQLite database is the main file plus -wal and -shm siblings.
	matches, _ := filepath.Glob(path + "*")
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			total += info.Size()
		}
	}
	return float64(total) / (1024 * 1024)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
