package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sudorandom/edge-globe/pkg/sources"
)

// SyntheticCIDRs derives count plausible subnets from the published
// prefix samples, as a pure function of (seed, count) so backfill output
// is reproducible. Wide prefixes are sliced into /24s; narrower ones are
// used as-is. Each sample prefix contributes at most once per call.
func SyntheticCIDRs(seed, count int) []string {
	prefixes := sources.CloudflarePrefixes
	used := make(map[int]bool)
	var cidrs []string

	for i := 0; i < count; i++ {
		idx := ((seed*7+i*13)%len(prefixes) + len(prefixes)) % len(prefixes)
		if used[idx] {
			continue
		}
		used[idx] = true

		base, maskStr, _ := strings.Cut(prefixes[idx], "/")
		mask, err := strconv.Atoi(maskStr)
		if err != nil {
			continue
		}
		if mask > 24 {
			cidrs = append(cidrs, prefixes[idx])
			continue
		}

		parts := strings.Split(base, ".")
		if len(parts) != 4 {
			continue
		}
		third, _ := strconv.Atoi(parts[2])
		subnetCount := 1 << (24 - mask)
		slice := (seed + i) % subnetCount
		third = (third + slice/256) % 256
		cidrs = append(cidrs, fmt.Sprintf("%s.%s.%d.0/24", parts[0], parts[1], third))
	}

	return dedupe(cidrs)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// syntheticWeightBase is the tiered baseline for datacenters with no
// real feed data: tier-one cities render prominently, major regions
// moderately, everything else as a small but visible marker.
func syntheticWeightBase(dc sources.Datacenter) float64 {
	switch {
	case sources.TierOneCities[dc.City]:
		return 100
	case sources.IsMajorRegion(dc.Region):
		return 60
	default:
		return 30
	}
}

func (a *Aggregator) syntheticPoint(dc sources.Datacenter, index int) GeoPoint {
	w := syntheticWeightBase(dc) + a.jitter(15)
	if w < 20 {
		w = 20
	}
	ipCount := int(w / 10)
	if ipCount < 3 {
		ipCount = 3
	}
	return GeoPoint{
		Lat:     dc.Lat,
		Lng:     dc.Lng,
		Weight:  w,
		City:    dc.City,
		Country: dc.Country,
		IPs:     SyntheticCIDRs(index, ipCount),
	}
}

// SyntheticPoints builds a point set purely from the datacenter table,
// optionally clipped to bounds. This is the total-failure fallback: the
// globe must render something even when fetch and parse both blew up.
func (a *Aggregator) SyntheticPoints(bounds *Bounds) []GeoPoint {
	var points []GeoPoint
	for i, dc := range sources.Datacenters {
		if bounds != nil && !bounds.Contains(dc.Lat, dc.Lng) {
			continue
		}
		points = append(points, a.syntheticPoint(dc, i))
	}
	return points
}
