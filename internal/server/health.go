package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

const checkTimeout = 3 * time.Second

type healthResponse struct {
	Status     string          `json:"status"`
	Uptime     string          `json:"uptime"`
	Memory     memory.Stats    `json:"memory"`
	Components map[string]bool `json:"components"`
	System     systemStats     `json:"system"`
}

type systemStats struct {
	ProcessRSS   uint64  `json:"process_rss_bytes"`
	HostMemUsed  float64 `json:"host_mem_usage_percent"`
	HostMemTotal uint64  `json:"host_mem_total_bytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := healthResponse{
		Status:     "healthy",
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Memory:     s.memory.Stats(),
		Components: make(map[string]bool, len(s.checks)),
		System:     readSystemStats(ctx),
	}

	for name, check := range s.checks {
		ok := check.Healthy(ctx)
		resp.Components[name] = ok
		if !ok {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// readSystemStats leaves fields zero when the platform can't report them.
func readSystemStats(ctx context.Context) systemStats {
	var stats systemStats

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.HostMemUsed = vm.UsedPercent
		stats.HostMemTotal = vm.Total
	}

	return stats
}
