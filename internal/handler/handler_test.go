package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mowmap/internal/config"
	"mowmap/internal/domain"
	"mowmap/internal/ingestor"
	"mowmap/internal/store"
	"mowmap/internal/zone"
)

const ingestPayload = `{
	"system": {"name": "Rasenbot", "model": "450XH"},
	"battery": {"batteryPercent": 77},
	"mower": {"mode": "MAIN_AREA", "activity": "MOWING", "state": "IN_OPERATION", "errorCode": 0},
	"positions": [{"latitude": 51.995, "longitude": 13.01}]
}`

type fakeSink struct {
	err   error
	snaps []*domain.Snapshot
}

func (f *fakeSink) Submit(snap *domain.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.snaps = append(f.snaps, snap)
	return nil
}

func testZoneIndex(t *testing.T) *zone.Index {
	t.Helper()
	idx, err := zone.NewIndex([]zone.Zone{{
		ID:   "lawn",
		Name: "Lawn",
		Ring: []domain.GeoPoint{
			{Lat: 51.996, Lon: 13.008},
			{Lat: 51.996, Lon: 13.012},
			{Lat: 51.994, Lon: 13.012},
			{Lat: 51.994, Lon: 13.008},
		},
		Display: true,
		Mowers:  []string{"mower-1"},
	}})
	if err != nil {
		t.Fatalf("zone index: %v", err)
	}
	return idx
}

func testHandler(t *testing.T, sink SnapshotSink) (*MowerHandler, *store.Store) {
	t.Helper()
	st := store.New()
	h := NewMowerHandler(st, testZoneIndex(t), sink, 1<<20, slog.New(slog.DiscardHandler))
	return h, st
}

func testMux(h *MowerHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mowers", h.ListMowers)
	mux.HandleFunc("GET /v1/mowers/{id}", h.GetMower)
	mux.HandleFunc("GET /v1/mowers/{id}/zone", h.GetZone)
	mux.HandleFunc("GET /v1/mowers/{id}/map", h.GetMap)
	mux.HandleFunc("GET /v1/mowers/{id}/schedule", h.GetSchedule)
	mux.HandleFunc("POST /v1/mowers/{id}/snapshot", h.IngestSnapshot)
	mux.HandleFunc("GET /v1/zones", h.ListZones)
	return mux
}

func seedMower(st *store.Store, id string) {
	st.Upsert(&domain.Snapshot{
		MowerID:  id,
		Name:     id,
		Activity: domain.ActivityMowing,
		State:    domain.StateInOperation,
		Positions: []domain.GeoPoint{
			{Lat: 51.995, Lon: 13.01},
		},
		Calendar: []domain.CalendarTask{{
			Start: 420, Duration: 780,
			Monday: true, Tuesday: true, Wednesday: true, Thursday: true,
			Friday: true, Saturday: true, Sunday: true,
		}},
		ReceivedAt: time.Now(),
	})
}

func doRequest(mux *http.ServeMux, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestListMowers(t *testing.T) {
	h, st := testHandler(t, &fakeSink{})
	seedMower(st, "mower-2")
	seedMower(st, "mower-1")
	mux := testMux(h)

	rec := doRequest(mux, "GET", "/v1/mowers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp MowersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	if resp.Mowers[0].MowerID != "mower-1" {
		t.Errorf("list not sorted: first = %q", resp.Mowers[0].MowerID)
	}
}

func TestGetMowerNotFound(t *testing.T) {
	h, _ := testHandler(t, &fakeSink{})
	mux := testMux(h)

	rec := doRequest(mux, "GET", "/v1/mowers/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mower not found") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestGetMapLifecycle(t *testing.T) {
	h, st := testHandler(t, &fakeSink{})
	mux := testMux(h)

	// Unknown mower.
	if rec := doRequest(mux, "GET", "/v1/mowers/mower-1/map", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown mower: status = %d, want 404", rec.Code)
	}

	// Known mower, no frame rendered yet.
	seedMower(st, "mower-1")
	rec := doRequest(mux, "GET", "/v1/mowers/mower-1/map", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("no frame: status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "5" {
		t.Errorf("Retry-After = %q, want 5", rec.Header().Get("Retry-After"))
	}

	// Frame available.
	rendered := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	st.SetFrame("mower-1", []byte("fake-png"), domain.FrameInfo{LastUpdate: rendered, SizeBytes: 8})

	rec = doRequest(mux, "GET", "/v1/mowers/mower-1/map", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("with frame: status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	if rec.Body.String() != "fake-png" {
		t.Errorf("body = %q", rec.Body.String())
	}

	// Revalidation with the same tag.
	req := httptest.NewRequest("GET", "/v1/mowers/mower-1/map", nil)
	req.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNotModified {
		t.Errorf("revalidation: status = %d, want 304", rec2.Code)
	}
	if rec2.Body.Len() != 0 {
		t.Errorf("304 carried a body of %d bytes", rec2.Body.Len())
	}
}

func TestGetSchedule(t *testing.T) {
	h, st := testHandler(t, &fakeSink{})
	seedMower(st, "mower-1")
	mux := testMux(h)

	rec := doRequest(mux, "GET", "/v1/mowers/mower-1/schedule?days=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count == 0 {
		t.Error("expected windows for an everyday task")
	}
	if resp.Next == nil {
		t.Error("expected a next window")
	}

	if rec := doRequest(mux, "GET", "/v1/mowers/mower-1/schedule?days=zero", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad days: status = %d, want 400", rec.Code)
	}
}

func TestListZonesFilter(t *testing.T) {
	h, _ := testHandler(t, &fakeSink{})
	mux := testMux(h)

	rec := doRequest(mux, "GET", "/v1/zones?mower=mower-1", nil)
	var resp ZonesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}

	rec = doRequest(mux, "GET", "/v1/zones?mower=other", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("filtered count = %d, want 0", resp.Count)
	}
}

func TestIngestSnapshot(t *testing.T) {
	sink := &fakeSink{}
	h, _ := testHandler(t, sink)
	mux := testMux(h)

	rec := doRequest(mux, "POST", "/v1/mowers/mower-1/snapshot", []byte(ingestPayload))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}
	if len(sink.snaps) != 1 {
		t.Fatalf("sink received %d snapshots, want 1", len(sink.snaps))
	}
	snap := sink.snaps[0]
	if snap.MowerID != "mower-1" || snap.Name != "Rasenbot" || snap.Activity != domain.ActivityMowing {
		t.Errorf("decoded snapshot = %+v", snap)
	}
}

func TestIngestSnapshotBadPayload(t *testing.T) {
	h, _ := testHandler(t, &fakeSink{})
	mux := testMux(h)

	rec := doRequest(mux, "POST", "/v1/mowers/mower-1/snapshot", []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIngestSnapshotSinkErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "unknown mower", err: ingestor.ErrUnknownMower, want: http.StatusNotFound},
		{name: "queue full", err: ingestor.ErrBusy, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := testHandler(t, &fakeSink{err: tt.err})
			mux := testMux(h)

			rec := doRequest(mux, "POST", "/v1/mowers/mower-1/snapshot", []byte(ingestPayload))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestIngestSnapshotTooLarge(t *testing.T) {
	st := store.New()
	h := NewMowerHandler(st, testZoneIndex(t), &fakeSink{}, 16, slog.New(slog.DiscardHandler))
	mux := testMux(h)

	rec := doRequest(mux, "POST", "/v1/mowers/mower-1/snapshot", []byte(ingestPayload))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	st := store.New()
	pipeline := ingestor.NewPipeline(nil, testZoneIndex(t), st, nil, nil, &config.Config{
		PruneInterval: time.Hour,
		IntakeBuffer:  1,
	}, slog.New(slog.DiscardHandler))
	health := NewHealthHandler(pipeline, st)

	rec := httptest.NewRecorder()
	health.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("before Run: status = %d, want 503", rec.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipeline.Run(ctx)

	deadline := time.After(2 * time.Second)
	for !pipeline.IsReady() {
		select {
		case <-deadline:
			t.Fatal("pipeline never became ready")
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec = httptest.NewRecorder()
	health.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("after Run: status = %d, want 200", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	health := NewHealthHandler(nil, store.New())

	rec := httptest.NewRecorder()
	health.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}
