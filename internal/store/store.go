package store

import (
	"sort"
	"sync"
	"time"

	"mowmap/internal/domain"
)

// maxTrailPoints caps the retained trail per mower. Single-fix snapshots
// grow the trail one point at a time and nothing else bounds it.
const maxTrailPoints = 500

// entry is everything the service retains for one mower.
type entry struct {
	snapshot  *domain.Snapshot
	trail     []domain.GeoPoint // most recent first
	zone      domain.ZoneResult
	frame     []byte
	frameInfo domain.FrameInfo
}

// Store holds the live state of all tracked mowers. All accessors return
// copies; published frame bytes are never mutated after a render, so they
// are handed out as-is.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Upsert stores a snapshot and folds its positions into the retained
// trail. A multi-fix snapshot replaces the trail with the vendor's list;
// a single fix is prepended so the track survives across snapshots.
func (s *Store) Upsert(snap *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[snap.MowerID]
	if !ok {
		e = &entry{zone: domain.ZoneUnknown}
		s.entries[snap.MowerID] = e
	}
	e.snapshot = snap.Clone()

	switch {
	case len(snap.Positions) == 0:
		// keep the previous trail
	case len(snap.Positions) == 1:
		e.trail = append([]domain.GeoPoint{snap.Positions[0]}, e.trail...)
		if len(e.trail) > maxTrailPoints {
			e.trail = e.trail[:maxTrailPoints]
		}
	default:
		e.trail = make([]domain.GeoPoint, len(snap.Positions))
		copy(e.trail, snap.Positions)
	}
}

// SetZone records the zone the mower was located in and reports whether
// it changed.
func (s *Store) SetZone(mowerID string, zone domain.ZoneResult) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[mowerID]
	if !ok {
		return false
	}
	changed = e.zone != zone
	e.zone = zone
	return changed
}

// SetFrame publishes a rendered frame. The store takes ownership of the
// byte slice.
func (s *Store) SetFrame(mowerID string, frame []byte, info domain.FrameInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[mowerID]
	if !ok {
		e = &entry{zone: domain.ZoneUnknown}
		s.entries[mowerID] = e
	}
	e.frame = frame
	e.frameInfo = info
}

// Snapshot returns a copy of the last snapshot for a mower.
func (s *Store) Snapshot(mowerID string) (*domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[mowerID]
	if !ok || e.snapshot == nil {
		return nil, false
	}
	return e.snapshot.Clone(), true
}

// Trail returns a copy of the retained trail, most recent first.
func (s *Store) Trail(mowerID string) []domain.GeoPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[mowerID]
	if !ok || len(e.trail) == 0 {
		return nil
	}
	trail := make([]domain.GeoPoint, len(e.trail))
	copy(trail, e.trail)
	return trail
}

// Frame returns the current rendered frame and its metadata.
func (s *Store) Frame(mowerID string) ([]byte, domain.FrameInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[mowerID]
	if !ok || e.frame == nil {
		return nil, domain.FrameInfo{}, false
	}
	return e.frame, e.frameInfo, true
}

// State returns the served summary for one mower.
func (s *Store) State(mowerID string) (domain.MowerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[mowerID]
	if !ok || e.snapshot == nil {
		return domain.MowerState{}, false
	}
	return buildState(e), true
}

// List returns the summaries of all tracked mowers, sorted by id.
func (s *Store) List() []domain.MowerState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MowerState, 0, len(s.entries))
	for _, e := range s.entries {
		if e.snapshot == nil {
			continue
		}
		out = append(out, buildState(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MowerID < out[j].MowerID })
	return out
}

// Count returns the number of tracked mowers.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// FrameCount returns how many mowers currently have a rendered frame.
func (s *Store) FrameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.frame != nil {
			n++
		}
	}
	return n
}

// PruneStale drops mowers whose last snapshot is older than maxAge and
// returns their ids.
func (s *Store) PruneStale(maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for id, e := range s.entries {
		if e.snapshot != nil && e.snapshot.ReceivedAt.Before(cutoff) {
			delete(s.entries, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// buildState assembles the external summary. Callers hold at least a
// read lock.
func buildState(e *entry) domain.MowerState {
	snap := e.snapshot
	state := domain.MowerState{
		MowerID:        snap.MowerID,
		Name:           snap.Name,
		Model:          snap.Model,
		Connected:      snap.Connected,
		Activity:       snap.Activity,
		State:          snap.State,
		Mode:           snap.Mode,
		BatteryPercent: snap.BatteryPercent,
		Problem:        snap.Problem(),
		CuttingHeight:  snap.Settings.CuttingHeight,
		AtHome:         snap.IsAtHome(),
		Zone:           e.zone,
		NextStart:      snap.Planner.NextStart,
		UpdatedAt:      snap.ReceivedAt,
	}
	if pos, ok := snap.CurrentPosition(); ok {
		state.Position = &pos
	}
	if !e.frameInfo.LastUpdate.IsZero() {
		info := e.frameInfo
		state.Frame = &info
	}
	return state
}
