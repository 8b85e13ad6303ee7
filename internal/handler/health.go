package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"mowmap/internal/ingestor"
	"mowmap/internal/store"
)

type HealthHandler struct {
	pipeline *ingestor.Pipeline
	store    *store.Store
}

func NewHealthHandler(p *ingestor.Pipeline, s *store.Store) *HealthHandler {
	return &HealthHandler{
		pipeline: p,
		store:    s,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready      bool      `json:"ready"`
	MowerCount int       `json:"mowerCount"`
	ServerTime time.Time `json:"serverTime"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.pipeline.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:      ready,
		MowerCount: h.store.Count(),
		ServerTime: time.Now(),
	})
}
