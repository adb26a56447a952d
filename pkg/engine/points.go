// Package engine aggregates resolved IP ranges into weighted city
// points and serves them through a lazy-loading, viewport-keyed cache.
package engine

import "fmt"

// GeoPoint is the public artifact handed to the rendering consumer: one
// weighted marker per city. Weight is a density score, never below 20 so
// no point renders invisibly small.
type GeoPoint struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Weight  float64  `json:"weight"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
	IPs     []string `json:"ips"`
}

// LightPoint is the stripped-down marker for the overview render pass:
// position only, no weight, no IP list. Keeps the first paint cheap.
type LightPoint struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
}

// Bounds is the lat/lng rectangle of the visible map region.
type Bounds struct {
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LngMin float64 `json:"lngMin"`
	LngMax float64 `json:"lngMax"`
}

func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lng >= b.LngMin && lng <= b.LngMax
}

// CacheKey derives the cache key for a viewport. A nil bounds is the
// global query. The four values are rounded to two decimals so callers
// with near-identical viewports collapse onto the same entry; that
// trades key precision for hit rate on purpose.
func CacheKey(b *Bounds) string {
	if b == nil {
		return "global"
	}
	return fmt.Sprintf("%.2f:%.2f:%.2f:%.2f", b.LatMin, b.LatMax, b.LngMin, b.LngMax)
}
