package ingestor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mowmap/internal/cache"
	"mowmap/internal/config"
	"mowmap/internal/domain"
	"mowmap/internal/metrics"
	"mowmap/internal/render"
	"mowmap/internal/store"
	"mowmap/internal/zone"
)

var (
	// ErrUnknownMower rejects snapshots for mowers absent from the profile.
	ErrUnknownMower = errors.New("mower not configured")
	// ErrBusy means the intake queue is full and the snapshot was dropped.
	ErrBusy = errors.New("intake queue full")
)

type Broadcaster interface {
	Broadcast(events []domain.Event)
}

// Mower bundles the per-mower pieces the pipeline drives. Renderer may be
// nil when the profile has no usable map; state is still tracked.
type Mower struct {
	Renderer *render.Renderer
	Home     *domain.GeoPoint
}

// Pipeline consumes decoded snapshots from a single goroutine: store the
// fix, resolve the zone, render the frame, broadcast what changed. Ordering
// per mower is guaranteed by the one consumer.
type Pipeline struct {
	mowers      map[string]Mower
	zones       *zone.Index
	store       *store.Store
	broadcaster Broadcaster
	mirror      *cache.Mirror
	config      *config.Config
	logger      *slog.Logger

	intake chan *domain.Snapshot

	ready   bool
	readyMu sync.RWMutex
}

func NewPipeline(mowers map[string]Mower, zones *zone.Index, store *store.Store, broadcaster Broadcaster, mirror *cache.Mirror, cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		mowers:      mowers,
		zones:       zones,
		store:       store,
		broadcaster: broadcaster,
		mirror:      mirror,
		config:      cfg,
		logger:      logger,
		intake:      make(chan *domain.Snapshot, cfg.IntakeBuffer),
	}
}

// Submit hands a snapshot to the pipeline without blocking the caller.
func (p *Pipeline) Submit(snap *domain.Snapshot) error {
	if _, ok := p.mowers[snap.MowerID]; !ok {
		metrics.SnapshotsIngested.WithLabelValues("unknown_mower").Inc()
		return fmt.Errorf("%w: %s", ErrUnknownMower, snap.MowerID)
	}

	select {
	case p.intake <- snap:
		metrics.SnapshotsIngested.WithLabelValues("accepted").Inc()
		return nil
	default:
		metrics.SnapshotsIngested.WithLabelValues("dropped").Inc()
		return ErrBusy
	}
}

func (p *Pipeline) Run(ctx context.Context) {
	if p.mirror != nil && p.config.CacheWarmOnStart {
		if err := p.mirror.Restore(ctx); err != nil {
			p.logger.Error("cache restore failed", "error", err)
		}
		metrics.TrackedMowers.Set(float64(p.store.Count()))
	}

	pruneTicker := time.NewTicker(p.config.PruneInterval)
	defer pruneTicker.Stop()

	p.setReady(true)
	p.logger.Info("pipeline ready", "mowers", len(p.mowers), "zones", p.zones.Len())

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-p.intake:
			p.process(ctx, snap)
		case <-pruneTicker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, snap *domain.Snapshot) {
	start := time.Now()
	mower := p.mowers[snap.MowerID]

	p.store.Upsert(snap)
	metrics.TrackedMowers.Set(float64(p.store.Count()))

	atHome := snap.IsAtHome()
	pos, hasPos := snap.CurrentPosition()
	if !hasPos && atHome && mower.Home != nil {
		// Docked without a fix: the charging station is the position.
		pos, hasPos = *mower.Home, true
	}

	zr := domain.ZoneUnknown
	if hasPos {
		zr = p.zones.Locate(pos, snap.MowerID, mower.Home, atHome)
	}
	metrics.ZoneQueries.WithLabelValues(zr.ID).Inc()
	zoneChanged := p.store.SetZone(snap.MowerID, zr)

	var frame []byte
	var info domain.FrameInfo
	rendered := false
	if mower.Renderer != nil && hasPos {
		renderStart := time.Now()
		var skipped bool
		var err error
		frame, info, skipped, err = mower.Renderer.Render(p.store.Trail(snap.MowerID), pos, atHome, snap.ReceivedAt)
		switch {
		case err != nil:
			metrics.RenderErrors.Inc()
			p.logger.Error("render failed", "mower_id", snap.MowerID, "error", err)
		case skipped:
			metrics.FramesSkipped.Inc()
		default:
			p.store.SetFrame(snap.MowerID, frame, info)
			metrics.FramesRendered.Inc()
			metrics.RenderDuration.Observe(time.Since(renderStart).Seconds())
			rendered = true
		}
	}

	state, _ := p.store.State(snap.MowerID)
	events := make([]domain.Event, 0, 3)
	events = append(events, domain.Event{Kind: domain.EventState, MowerID: snap.MowerID, State: &state})
	if zoneChanged {
		events = append(events, domain.Event{Kind: domain.EventZone, MowerID: snap.MowerID, Zone: &zr})
	}
	if rendered {
		events = append(events, domain.Event{Kind: domain.EventFrame, MowerID: snap.MowerID, Frame: &info})
	}
	if p.broadcaster != nil {
		p.broadcaster.Broadcast(events)
	}

	if p.mirror != nil {
		if err := p.mirror.Persist(ctx, snap, zr); err != nil {
			p.logger.Debug("cache persist failed", "mower_id", snap.MowerID, "error", err)
		}
		if rendered {
			if err := p.mirror.PersistFrame(ctx, snap.MowerID, frame, info); err != nil {
				p.logger.Debug("cache frame persist failed", "mower_id", snap.MowerID, "error", err)
			}
		}
	}

	p.logger.Debug("snapshot processed",
		"mower_id", snap.MowerID,
		"activity", snap.Activity,
		"zone", zr.ID,
		"rendered", rendered,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (p *Pipeline) prune(ctx context.Context) {
	removed := p.store.PruneStale(p.config.MowerStaleAfter)
	if len(removed) == 0 {
		return
	}

	events := make([]domain.Event, 0, len(removed))
	for _, id := range removed {
		events = append(events, domain.Event{Kind: domain.EventRemove, MowerID: id})
		if p.mirror != nil {
			if err := p.mirror.Forget(ctx, id); err != nil {
				p.logger.Debug("cache forget failed", "mower_id", id, "error", err)
			}
		}
	}
	if p.broadcaster != nil {
		p.broadcaster.Broadcast(events)
	}
	metrics.TrackedMowers.Set(float64(p.store.Count()))
	p.logger.Info("pruned stale mowers", "count", len(removed))
}

func (p *Pipeline) IsReady() bool {
	p.readyMu.RLock()
	defer p.readyMu.RUnlock()
	return p.ready
}

func (p *Pipeline) setReady(ready bool) {
	p.readyMu.Lock()
	defer p.readyMu.Unlock()
	p.ready = ready
}
