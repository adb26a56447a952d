package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/sudorandom/edge-globe/pkg/geo"
	"github.com/sudorandom/edge-globe/pkg/sources"
)

const (
	// aggregateBatchSize bounds how many records are resolved between
	// yield points so a large feed cannot monopolize the scheduler.
	aggregateBatchSize = 50

	// cityLessSampleLimit caps how many city-less ranges a bounded
	// query resolves; they need a database lookup each and most fall
	// outside the viewport anyway.
	cityLessSampleLimit = 100

	// backfillTolerance is the coordinate distance under which a real
	// point counts as already covering a known datacenter.
	backfillTolerance = 0.1
)

// cityAggregate accumulates every range resolved to one city. City,
// coordinates and country come from the first record seen; count and
// ips grow in feed order.
type cityAggregate struct {
	city    string
	lat     float64
	lng     float64
	country string
	count   int
	ips     []string
}

// Aggregator folds resolved range records into weighted city points.
type Aggregator struct {
	Resolver *geo.Resolver

	// BatchSize overrides aggregateBatchSize when > 0.
	BatchSize int
	// Yield runs between batches. Defaults to a scheduler yield; tests
	// may swap it to observe or suppress the suspension points.
	Yield func()

	mu  sync.Mutex
	rng *rand.Rand
}

func NewAggregator(resolver *geo.Resolver) *Aggregator {
	return &Aggregator{
		Resolver: resolver,
		Yield:    runtime.Gosched,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedJitter re-seeds the weight jitter source. Only useful for
// reproducing a specific point set, e.g. in tests.
func (a *Aggregator) SeedJitter(seed int64) {
	a.mu.Lock()
	a.rng = rand.New(rand.NewSource(seed))
	a.mu.Unlock()
}

// jitter returns a uniform value in [-scale, scale].
func (a *Aggregator) jitter(scale float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return (a.rng.Float64()*2 - 1) * scale
}

// Aggregate resolves records in batches and groups them by city. With
// bounds, points outside the box are skipped and no backfill happens;
// the global pass backfills from the datacenter table when the real
// feed produced almost nothing.
func (a *Aggregator) Aggregate(ctx context.Context, records []sources.RangeRecord, bounds *Bounds) []GeoPoint {
	if bounds != nil {
		records = a.prefilter(records, *bounds)
	}

	batchSize := a.BatchSize
	if batchSize <= 0 {
		batchSize = aggregateBatchSize
	}

	aggregates := make(map[string]*cityAggregate)
	var order []string

	for start := 0; start < len(records); start += batchSize {
		if ctx.Err() != nil {
			break
		}
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		for _, rec := range records[start:end] {
			loc, ok := a.Resolver.Resolve(rec)
			if !ok {
				continue
			}
			if bounds != nil && !bounds.Contains(loc.Lat, loc.Lng) {
				continue
			}

			key := aggregateKey(loc)
			agg, ok := aggregates[key]
			if !ok {
				agg = &cityAggregate{
					city:    loc.City,
					lat:     loc.Lat,
					lng:     loc.Lng,
					country: loc.Country,
				}
				aggregates[key] = agg
				order = append(order, key)
			}
			agg.count++
			agg.ips = append(agg.ips, rec.CIDR)
		}

		if end < len(records) && a.Yield != nil {
			a.Yield()
		}
	}

	points := make([]GeoPoint, 0, len(order))
	for _, key := range order {
		agg := aggregates[key]
		points = append(points, GeoPoint{
			Lat:     agg.lat,
			Lng:     agg.lng,
			Weight:  a.weight(agg),
			City:    agg.city,
			Country: agg.country,
			IPs:     agg.ips,
		})
	}

	if bounds == nil && len(points) < len(sources.Datacenters)/10 {
		points = a.backfill(points)
	}
	return points
}

func aggregateKey(loc geo.Location) string {
	// City plus coordinates, so distinct cities sharing a name stay
	// separate aggregates.
	return fmt.Sprintf("%s|%.4f|%.4f", loc.City, loc.Lat, loc.Lng)
}

// weight turns an aggregate's range count into a density score:
// 15 per range, jitter of up to ±10 so equal counts do not render as a
// uniform grid, a 1.5x boost for tier-one cities, floored at 20.
func (a *Aggregator) weight(agg *cityAggregate) float64 {
	w := float64(agg.count)*15 + a.jitter(10)
	if sources.TierOneCities[agg.city] {
		w *= 1.5
	}
	if w < 20 {
		w = 20
	}
	return w
}

// prefilter cheaply discards ranges that cannot land inside bounds:
// a range whose feed city maps to a known datacenter outside the box is
// skipped before the resolver runs. City-less ranges are sampled, since
// each one costs a database lookup.
func (a *Aggregator) prefilter(records []sources.RangeRecord, bounds Bounds) []sources.RangeRecord {
	filtered := make([]sources.RangeRecord, 0, len(records))
	cityLess := 0
	for _, rec := range records {
		if rec.City == "" {
			if cityLess >= cityLessSampleLimit {
				continue
			}
			cityLess++
			filtered = append(filtered, rec)
			continue
		}
		if dc, ok := a.Resolver.KnownCity(rec.City); ok && !bounds.Contains(dc.Lat, dc.Lng) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// backfill tops up a sparse global result with one synthetic point per
// known datacenter not already covered, so the globe never looks empty
// just because the feed was thin.
func (a *Aggregator) backfill(points []GeoPoint) []GeoPoint {
	injected := 0
	for i, dc := range sources.Datacenters {
		if coveredBy(points, dc.Lat, dc.Lng) {
			continue
		}
		points = append(points, a.syntheticPoint(dc, i))
		injected++
	}
	if injected > 0 {
		log.Printf("[engine] Backfilled %d synthetic points from the datacenter table", injected)
	}
	return points
}

func coveredBy(points []GeoPoint, lat, lng float64) bool {
	for _, p := range points {
		if abs(p.Lat-lat) < backfillTolerance && abs(p.Lng-lng) < backfillTolerance {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
