package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"mowmap/internal/hub"
	"mowmap/internal/middleware"
	"mowmap/internal/store"
	"mowmap/internal/zone"
)

const serverVersion = "1.0.0"

type StatsHandler struct {
	store        *store.Store
	zones        *zone.Index
	hub          *hub.Hub
	limiter      *middleware.RateLimiter
	cacheEnabled bool
	startTime    time.Time
}

func NewStatsHandler(s *store.Store, zones *zone.Index, h *hub.Hub, limiter *middleware.RateLimiter, cacheEnabled bool) *StatsHandler {
	return &StatsHandler{
		store:        s,
		zones:        zones,
		hub:          h,
		limiter:      limiter,
		cacheEnabled: cacheEnabled,
		startTime:    time.Now(),
	}
}

type StatsResponse struct {
	Server    ServerStatsResponse         `json:"server"`
	Mowers    MowerStatsResponse          `json:"mowers"`
	Zones     ZoneStatsResponse           `json:"zones"`
	WebSocket WebSocketStatsResponse      `json:"websocket"`
	RateLimit middleware.RateLimiterStats `json:"rateLimit"`
	Cache     CacheStatsResponse          `json:"cache"`
	Go        GoStatsResponse             `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptimeSeconds"`
	StartTime     time.Time `json:"startTime"`
	Version       string    `json:"version"`
}

type MowerStatsResponse struct {
	Tracked    int `json:"tracked"`
	WithFrames int `json:"withFrames"`
}

type ZoneStatsResponse struct {
	Configured int `json:"configured"`
}

type WebSocketStatsResponse struct {
	Connections int `json:"connections"`
}

type CacheStatsResponse struct {
	Enabled bool `json:"enabled"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heapAllocBytes"`
	HeapAllocMB float64 `json:"heapAllocMb"`
	NumGC       uint32  `json:"numGc"`
	GoVersion   string  `json:"goVersion"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     h.startTime,
			Version:       serverVersion,
		},
		Mowers: MowerStatsResponse{
			Tracked:    h.store.Count(),
			WithFrames: h.store.FrameCount(),
		},
		Zones: ZoneStatsResponse{
			Configured: h.zones.Len(),
		},
		WebSocket: WebSocketStatsResponse{
			Connections: h.hub.ClientCount(),
		},
		RateLimit: h.limiter.Stats(),
		Cache: CacheStatsResponse{
			Enabled: h.cacheEnabled,
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	json.NewEncoder(w).Encode(response)
}
