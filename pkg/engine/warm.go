package engine

import (
	"context"
	"log"

	"github.com/gammazero/workerpool"
)

// DefaultWarmRegions are the continental viewports worth pre-computing
// at startup, so the first few camera moves hit a warm cache.
var DefaultWarmRegions = []Bounds{
	{LatMin: 15, LatMax: 72, LngMin: -170, LngMax: -50},  // North America
	{LatMin: 35, LatMax: 71, LngMin: -25, LngMax: 45},    // Europe
	{LatMin: -50, LatMax: 55, LngMin: 60, LngMax: 180},   // Asia Pacific
	{LatMin: -56, LatMax: 13, LngMin: -82, LngMax: -34},  // South America
	{LatMin: -35, LatMax: 38, LngMin: -18, LngMax: 52},   // Africa / Middle East
}

// Warm pre-computes the global aggregate plus the given regional tiles
// on a bounded worker pool. Region passes only read the already-fetched
// feed, so running them concurrently costs resolver work, not network.
func (c *Cache) Warm(ctx context.Context, regions []Bounds, workers int) {
	if workers <= 0 {
		workers = 2
	}

	// The global pass first: it fetches the feed once so the regional
	// passes all reuse it.
	if _, err := c.GetPoints(ctx, nil); err != nil {
		log.Printf("[engine] Warm-up global pass failed: %v", err)
		return
	}

	wp := workerpool.New(workers)
	for _, region := range regions {
		wp.Submit(func() {
			if _, err := c.GetPoints(ctx, &region); err != nil {
				log.Printf("[engine] Warm-up pass for %s failed: %v", CacheKey(&region), err)
			}
		})
	}
	wp.StopWait()
	log.Printf("[engine] Cache warmed: global + %d regions", len(regions))
}
