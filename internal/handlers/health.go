package handlers

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status        string     `json:"status"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Memory        memorySnap `json:"memory"`
}

type memorySnap struct {
	AllocMB      uint64 `json:"alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	NumGoroutine int    `json:"num_goroutine"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Memory: memorySnap{
			AllocMB:      mem.Alloc / 1024 / 1024,
			SysMB:        mem.Sys / 1024 / 1024,
			NumGC:        mem.NumGC,
			NumGoroutine: runtime.NumGoroutine(),
		},
	})
}
