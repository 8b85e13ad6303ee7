package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mowmap/internal/domain"
	"mowmap/internal/ingestor"
	"mowmap/internal/schedule"
	"mowmap/internal/store"
	"mowmap/internal/zone"
	"mowmap/pkg/automower"
)

const (
	defaultScheduleDays = 7
	maxScheduleDays     = 28
)

// SnapshotSink accepts decoded snapshots for processing.
type SnapshotSink interface {
	Submit(snap *domain.Snapshot) error
}

type MowerHandler struct {
	store   *store.Store
	zones   *zone.Index
	sink    SnapshotSink
	maxBody int64
	logger  *slog.Logger
}

func NewMowerHandler(store *store.Store, zones *zone.Index, sink SnapshotSink, maxBody int64, logger *slog.Logger) *MowerHandler {
	return &MowerHandler{
		store:   store,
		zones:   zones,
		sink:    sink,
		maxBody: maxBody,
		logger:  logger.With("handler", "mower"),
	}
}

type MowersResponse struct {
	Mowers     []domain.MowerState `json:"mowers"`
	Count      int                 `json:"count"`
	ServerTime time.Time           `json:"serverTime"`
}

func (h *MowerHandler) ListMowers(w http.ResponseWriter, r *http.Request) {
	mowers := h.store.List()

	respondJSON(w, http.StatusOK, MowersResponse{
		Mowers:     mowers,
		Count:      len(mowers),
		ServerTime: time.Now(),
	})
}

func (h *MowerHandler) GetMower(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing mower id")
		return
	}

	state, ok := h.store.State(id)
	if !ok {
		respondError(w, http.StatusNotFound, "mower not found")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (h *MowerHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	state, ok := h.store.State(id)
	if !ok {
		respondError(w, http.StatusNotFound, "mower not found")
		return
	}

	respondJSON(w, http.StatusOK, state.Zone)
}

// GetMap serves the latest rendered frame. Frames change at most once per
// second, so clients are expected to revalidate with If-None-Match.
func (h *MowerHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.PathValue("id")

	if _, ok := h.store.Snapshot(id); !ok {
		respondError(w, http.StatusNotFound, "mower not found")
		return
	}

	frame, info, ok := h.store.Frame(id)
	if !ok {
		h.logger.Debug("map requested before first frame", "mower_id", id)
		w.Header().Set("Retry-After", "5")
		respondError(w, http.StatusServiceUnavailable, "no frame rendered yet, please retry")
		return
	}

	etag := fmt.Sprintf(`"%x"`, info.LastUpdate.Unix())
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
	w.WriteHeader(http.StatusOK)
	w.Write(frame)

	h.logger.Debug("map served",
		"mower_id", id,
		"size_bytes", len(frame),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

type ScheduleResponse struct {
	Windows    []schedule.Window `json:"windows"`
	Next       *schedule.Window  `json:"next,omitempty"`
	Count      int               `json:"count"`
	ServerTime time.Time         `json:"serverTime"`
}

func (h *MowerHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, ok := h.store.Snapshot(id)
	if !ok {
		respondError(w, http.StatusNotFound, "mower not found")
		return
	}

	days := defaultScheduleDays
	if v := r.URL.Query().Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			respondError(w, http.StatusBadRequest, "invalid days parameter: must be a positive integer")
			return
		}
		days = min(d, maxScheduleDays)
	}

	now := time.Now()
	windows := schedule.Windows(snap.Calendar, now, days)

	resp := ScheduleResponse{
		Windows:    windows,
		Count:      len(windows),
		ServerTime: now,
	}
	if next, ok := schedule.Next(snap.Calendar, now); ok {
		resp.Next = &next
	}

	respondJSON(w, http.StatusOK, resp)
}

type ZonesResponse struct {
	Zones      []zone.Zone `json:"zones"`
	Count      int         `json:"count"`
	ServerTime time.Time   `json:"serverTime"`
}

// ListZones returns the configured zones, optionally filtered to one
// mower's.
func (h *MowerHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones := h.zones.Zones(r.URL.Query().Get("mower"))

	respondJSON(w, http.StatusOK, ZonesResponse{
		Zones:      zones,
		Count:      len(zones),
		ServerTime: time.Now(),
	})
}

type IngestResponse struct {
	Accepted   bool      `json:"accepted"`
	MowerID    string    `json:"mowerId"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// IngestSnapshot accepts a vendor status payload for one mower. The
// snapshot is decoded here and queued; processing is asynchronous, so a
// 202 only means the payload was well-formed and accepted.
func (h *MowerHandler) IngestSnapshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing mower id")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "snapshot payload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	receivedAt := time.Now()
	snap, err := automower.Decode(id, body, receivedAt)
	if err != nil {
		h.logger.Warn("snapshot decode failed", "mower_id", id, "error", err)
		respondError(w, http.StatusBadRequest, "invalid snapshot payload: "+err.Error())
		return
	}

	if err := h.sink.Submit(snap); err != nil {
		switch {
		case errors.Is(err, ingestor.ErrUnknownMower):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ingestor.ErrBusy):
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusServiceUnavailable, "ingest queue full, please retry")
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.logger.Debug("snapshot accepted",
		"mower_id", id,
		"size_bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusAccepted, IngestResponse{
		Accepted:   true,
		MowerID:    id,
		ReceivedAt: receivedAt,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
