package cache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"mowmap/internal/domain"
	"mowmap/internal/store"
)

// Mirror copies hot mower state into redis as it changes and restores it
// into the store on boot. A restarted server answers map requests from the
// restored frames instead of replying 503 until the next fix arrives.
type Mirror struct {
	cache  *RedisCache
	store  *store.Store
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	known map[string]struct{}
}

func NewMirror(cache *RedisCache, store *store.Store, ttl time.Duration, logger *slog.Logger) *Mirror {
	return &Mirror{
		cache:  cache,
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "cache_mirror"),
		known:  make(map[string]struct{}),
	}
}

// Persist writes the latest snapshot and zone for a mower.
func (m *Mirror) Persist(ctx context.Context, snap *domain.Snapshot, zone domain.ZoneResult) error {
	if err := m.index(ctx, snap.MowerID); err != nil {
		return err
	}
	if err := m.cache.SetJSON(ctx, KeySnapshot(snap.MowerID), snap, m.ttl); err != nil {
		return err
	}
	return m.cache.SetJSON(ctx, KeyZone(snap.MowerID), zone, m.ttl)
}

// PersistFrame writes a rendered frame and its metadata.
func (m *Mirror) PersistFrame(ctx context.Context, mowerID string, frame []byte, info domain.FrameInfo) error {
	if err := m.cache.Set(ctx, KeyFrame(mowerID), frame, m.ttl); err != nil {
		return err
	}
	return m.cache.SetJSON(ctx, KeyFrameInfo(mowerID), info, m.ttl)
}

// Forget drops all persisted keys for a mower, typically after it went
// stale and was pruned from the store.
func (m *Mirror) Forget(ctx context.Context, mowerID string) error {
	m.mu.Lock()
	delete(m.known, mowerID)
	ids := m.ids()
	m.mu.Unlock()

	if err := m.cache.SetJSON(ctx, KeyMowers, ids, 0); err != nil {
		return err
	}
	return m.cache.Delete(ctx,
		KeySnapshot(mowerID),
		KeyZone(mowerID),
		KeyFrame(mowerID),
		KeyFrameInfo(mowerID),
	)
}

// Restore loads every indexed mower back into the store. Partial state is
// fine: a mower whose frame expired still gets its snapshot back.
func (m *Mirror) Restore(ctx context.Context) error {
	start := time.Now()

	var ids []string
	found, err := m.cache.GetJSON(ctx, KeyMowers, &ids)
	if err != nil {
		return err
	}
	if !found {
		m.logger.Info("no cached state to restore")
		return nil
	}

	m.mu.Lock()
	for _, id := range ids {
		m.known[id] = struct{}{}
	}
	m.mu.Unlock()

	restored, frames := 0, 0
	for _, id := range ids {
		var snap domain.Snapshot
		ok, err := m.cache.GetJSON(ctx, KeySnapshot(id), &snap)
		if err != nil || !ok {
			m.logger.Debug("no cached snapshot", "mower_id", id, "error", err)
			continue
		}
		m.store.Upsert(&snap)
		restored++

		var zone domain.ZoneResult
		if ok, _ := m.cache.GetJSON(ctx, KeyZone(id), &zone); ok {
			m.store.SetZone(id, zone)
		}

		frame, err := m.cache.Get(ctx, KeyFrame(id))
		if err != nil || frame == nil {
			continue
		}
		var info domain.FrameInfo
		if ok, _ := m.cache.GetJSON(ctx, KeyFrameInfo(id), &info); ok {
			m.store.SetFrame(id, frame, info)
			frames++
		}
	}

	m.logger.Info("restored cached state",
		"mowers", restored,
		"frames", frames,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// index adds a mower to the persisted id list the first time it shows up.
// The list left behind by a previous process is merged in, so a restart
// without warm-on-start does not orphan other mowers' keys.
func (m *Mirror) index(ctx context.Context, mowerID string) error {
	m.mu.Lock()
	_, ok := m.known[mowerID]
	m.mu.Unlock()
	if ok {
		return nil
	}

	var existing []string
	_, _ = m.cache.GetJSON(ctx, KeyMowers, &existing)

	m.mu.Lock()
	m.known[mowerID] = struct{}{}
	for _, id := range existing {
		m.known[id] = struct{}{}
	}
	ids := m.ids()
	m.mu.Unlock()

	return m.cache.SetJSON(ctx, KeyMowers, ids, 0)
}

// ids returns the known set as a sorted slice. Callers hold m.mu.
func (m *Mirror) ids() []string {
	ids := make([]string, 0, len(m.known))
	for id := range m.known {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
