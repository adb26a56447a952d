package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sudorandom/edge-globe/pkg/sources"
)

// Cache memoizes aggregation results per viewport key for the life of
// the process. There is no TTL and no eviction: the bounds-key space is
// naturally small and the feed changes at most daily, so a session
// never needs to invalidate.
//
// Construct one Cache at startup and pass it to whatever needs it;
// nothing here is package-level state, so tests get a fresh cache each.
type Cache struct {
	feed      sources.RangeSource
	agg       *Aggregator
	snapshots *SnapshotStore // optional, nil disables persistence

	group  singleflight.Group
	mu     sync.Mutex
	points map[string][]GeoPoint

	rangesMu     sync.Mutex
	rangesLoaded bool
	cachedRanges []sources.RangeRecord
}

// NewCache wires the lazy-load layer. snapshots may be nil.
func NewCache(feed sources.RangeSource, agg *Aggregator, snapshots *SnapshotStore) *Cache {
	return &Cache{
		feed:      feed,
		agg:       agg,
		snapshots: snapshots,
		points:    make(map[string][]GeoPoint),
	}
}

// GetPoints returns the weighted point set for a viewport, aggregating
// at most once per cache key. Concurrent callers for the same key share
// a single aggregation pass and its result. The returned slice is the
// cached value itself; callers must not mutate it.
func (c *Cache) GetPoints(ctx context.Context, bounds *Bounds) ([]GeoPoint, error) {
	key := CacheKey(bounds)

	c.mu.Lock()
	if pts, ok := c.points[key]; ok {
		c.mu.Unlock()
		return pts, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.Lock()
		if pts, ok := c.points[key]; ok {
			c.mu.Unlock()
			return pts, nil
		}
		c.mu.Unlock()

		pts := c.load(ctx, bounds)
		if ctx.Err() != nil {
			// A cancelled pass may be truncated. The caller still gets
			// it, but the next caller starts over.
			return pts, nil
		}
		c.mu.Lock()
		c.points[key] = pts
		c.mu.Unlock()
		return pts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]GeoPoint), nil
}

// GetMarkers returns position-only markers for the overview pass,
// derived from the global point set.
func (c *Cache) GetMarkers(ctx context.Context) ([]LightPoint, error) {
	points, err := c.GetPoints(ctx, nil)
	if err != nil {
		return nil, err
	}
	markers := make([]LightPoint, len(points))
	for i, p := range points {
		markers[i] = LightPoint{Lat: p.Lat, Lng: p.Lng, City: p.City, Country: p.Country}
	}
	return markers, nil
}

// GetCityCount reports how many distinct city points the global
// aggregate holds.
func (c *Cache) GetCityCount(ctx context.Context) (int, error) {
	points, err := c.GetPoints(ctx, nil)
	if err != nil {
		return 0, err
	}
	return len(points), nil
}

// GetPointsForCity filters the global aggregate by exact city name.
func (c *Cache) GetPointsForCity(ctx context.Context, city string) ([]GeoPoint, error) {
	points, err := c.GetPoints(ctx, nil)
	if err != nil {
		return nil, err
	}
	var matched []GeoPoint
	for _, p := range points {
		if p.City == city {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// load runs one full pipeline pass. Whatever goes wrong inside, the
// caller gets a renderable point set: a panic or an empty global result
// degrades to the synthetic set from the datacenter table.
func (c *Cache) load(ctx context.Context, bounds *Bounds) (points []GeoPoint) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[engine] Pipeline failure (%v), substituting synthetic dataset", r)
			points = c.agg.SyntheticPoints(bounds)
		}
	}()

	records := c.ranges(ctx)
	points = c.agg.Aggregate(ctx, records, bounds)
	if bounds == nil && len(points) == 0 {
		points = c.agg.SyntheticPoints(nil)
	}
	log.Printf("[engine] Loaded %d points for key %s", len(points), CacheKey(bounds))
	return points
}

// ranges fetches the feed once per session, preferring a fresh
// persisted snapshot over the network. A stale snapshot still serves as
// a fallback when every live source fails.
func (c *Cache) ranges(ctx context.Context) []sources.RangeRecord {
	c.rangesMu.Lock()
	defer c.rangesMu.Unlock()
	if c.rangesLoaded {
		return c.cachedRanges
	}

	var prev *Snapshot
	if c.snapshots != nil {
		snap, err := c.snapshots.Load()
		switch {
		case err != nil:
			log.Printf("[engine] Snapshot load failed: %v", err)
		case snap != nil && snap.FreshAt(time.Now()):
			log.Printf("[engine] Reusing snapshot from today (%d ranges)", len(snap.Ranges))
			c.cachedRanges = snap.Records()
			c.rangesLoaded = true
			return c.cachedRanges
		case snap != nil:
			prev = snap
		}
	}

	records, hash := c.feed.FetchRanges(ctx)
	now := time.Now()

	if len(records) == 0 {
		if prev != nil {
			log.Printf("[engine] Feed unavailable, using stale snapshot (%d ranges)", len(prev.Ranges))
			records = prev.Records()
		}
		if ctx.Err() != nil {
			// An empty result under a cancelled context says nothing
			// about feed health; leave the session cache unset.
			return records
		}
		c.cachedRanges = records
		c.rangesLoaded = true
		return records
	}

	if c.snapshots != nil {
		snap := NewSnapshot(hash, records, now)
		if prev != nil {
			if prev.Hash == hash {
				log.Printf("[engine] Feed unchanged, refreshing snapshot timestamp only")
			} else {
				added, removed, changed := diffSnapshots(prev, snap)
				log.Printf("[engine] Incremental update: %d added, %d removed, %d changed", added, removed, changed)
			}
		}
		if err := c.snapshots.Save(snap); err != nil {
			// Memory-only from here on; not worth failing the query.
			log.Printf("[engine] Snapshot save failed: %v", err)
		}
	}

	c.cachedRanges = records
	c.rangesLoaded = true
	return records
}

func diffSnapshots(old, cur *Snapshot) (added, removed, changed int) {
	oldByCIDR := make(map[string]SnapshotRange, len(old.Ranges))
	for _, r := range old.Ranges {
		oldByCIDR[r.CIDR] = r
	}
	curByCIDR := make(map[string]SnapshotRange, len(cur.Ranges))
	for _, r := range cur.Ranges {
		curByCIDR[r.CIDR] = r
		prev, ok := oldByCIDR[r.CIDR]
		switch {
		case !ok:
			added++
		case prev.Hash != r.Hash:
			changed++
		}
	}
	for cidr := range oldByCIDR {
		if _, ok := curByCIDR[cidr]; !ok {
			removed++
		}
	}
	return added, removed, changed
}
