package geo

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/sudorandom/edge-globe/pkg/sources"
)

// CityIndex matches feed city names against the known-datacenter table.
//
// The match is a bidirectional case-insensitive substring test: a feed
// city "Ashburn" should hit "Ashburn, VA" and a feed city "Tokyo, Japan
// (NRT)" should hit "Tokyo, Japan". The first direction (known name
// occurring inside the query) is served by an Aho-Corasick matcher built
// over the lowercased table; the reverse direction falls back to a linear
// scan, which is fine for a table of this size.
type CityIndex struct {
	// mu serializes matcher access; the Aho-Corasick matcher keeps
	// per-call state and is not safe for concurrent Match calls.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
	lowered []string
	centers []sources.Datacenter
}

func NewCityIndex(centers []sources.Datacenter) *CityIndex {
	lowered := make([]string, len(centers))
	for i, dc := range centers {
		lowered[i] = strings.ToLower(dc.City)
	}
	return &CityIndex{
		matcher: ahocorasick.NewStringMatcher(lowered),
		lowered: lowered,
		centers: centers,
	}
}

// Find returns the datacenter matching the given city name, if any.
func (ci *CityIndex) Find(city string) (sources.Datacenter, bool) {
	query := strings.ToLower(strings.TrimSpace(city))
	if query == "" {
		return sources.Datacenter{}, false
	}

	ci.mu.Lock()
	hits := ci.matcher.Match([]byte(query))
	ci.mu.Unlock()
	if len(hits) > 0 {
		return ci.centers[hits[0]], true
	}

	for i, name := range ci.lowered {
		if strings.Contains(name, query) {
			return ci.centers[i], true
		}
	}
	return sources.Datacenter{}, false
}
