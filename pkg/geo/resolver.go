// Package geo resolves IP range records to city coordinates.
//
// Resolution is an ordered fallback chain where precision degrades
// gracefully: exact city match, then mmdb lookup, then a static prefix
// table, then a coarse first-octet heuristic, then give up. A record
// that cannot be placed is dropped by the caller rather than surfaced
// as an error; this feeds a visualization, not a routing table.
package geo

import (
	"log"
	"net"
	"sync/atomic"

	"github.com/oschwald/maxminddb-golang"

	"github.com/sudorandom/edge-globe/pkg/sources"
)

// Source identifies which stage of the fallback chain produced a
// location, so callers and tests can see how precise a result is.
type Source int

const (
	SourceNone Source = iota
	SourceKnownCity
	SourceMMDB
	SourceStaticIP
	SourceOctetRegion
)

func (s Source) String() string {
	switch s {
	case SourceKnownCity:
		return "known-city"
	case SourceMMDB:
		return "mmdb"
	case SourceStaticIP:
		return "static-ip"
	case SourceOctetRegion:
		return "octet-region"
	default:
		return "none"
	}
}

// Location is a resolved coordinate. Lat is always within [-90,90] and
// Lng within [-180,180]; Resolve drops anything outside that.
type Location struct {
	City    string
	Lat     float64
	Lng     float64
	Country string
	Source  Source
}

type stage struct {
	source Source
	fn     func(sources.RangeRecord) (Location, bool)
}

// Resolver maps a RangeRecord to a Location. The mmdb reader is
// optional; without one the static prefix table serves as the
// database-style stage.
type Resolver struct {
	index  *CityIndex
	reader *maxminddb.Reader
	stages []stage

	// dropped counts records no stage could place. Diagnostic only.
	dropped atomic.Int64
}

// NewResolver builds a resolver over the known-datacenter table. reader
// may be nil.
func NewResolver(reader *maxminddb.Reader) *Resolver {
	r := &Resolver{
		index:  NewCityIndex(sources.Datacenters),
		reader: reader,
	}
	r.stages = []stage{
		{SourceKnownCity, r.resolveKnownCity},
		{SourceMMDB, r.resolveMMDB},
		{SourceStaticIP, r.resolveStaticIP},
		{SourceOctetRegion, r.resolveOctetRegion},
	}
	return r
}

// OpenResolver loads a GeoLite2-City database from path and builds a
// resolver around it. A missing or unreadable database is logged and
// skipped, not fatal.
func OpenResolver(mmdbPath string) *Resolver {
	if mmdbPath == "" {
		return NewResolver(nil)
	}
	reader, err := maxminddb.Open(mmdbPath)
	if err != nil {
		log.Printf("[geo] mmdb unavailable (%v), using static fallbacks", err)
		return NewResolver(nil)
	}
	return NewResolver(reader)
}

// Close releases the mmdb reader, if one was loaded.
func (r *Resolver) Close() error {
	if r.reader != nil {
		return r.reader.Close()
	}
	return nil
}

// Resolve runs the fallback chain for one record. The second return is
// false when no stage produced an in-range coordinate.
func (r *Resolver) Resolve(rec sources.RangeRecord) (Location, bool) {
	for _, s := range r.stages {
		loc, ok := s.fn(rec)
		if !ok {
			continue
		}
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			continue
		}
		loc.Source = s.source
		return loc, true
	}
	r.dropped.Add(1)
	return Location{}, false
}

// Dropped reports how many records fell through every stage.
func (r *Resolver) Dropped() int { return int(r.dropped.Load()) }

// KnownCity matches a feed city name against the datacenter table
// without running the full chain. Used to pre-filter bounded queries.
func (r *Resolver) KnownCity(city string) (sources.Datacenter, bool) {
	return r.index.Find(city)
}

func (r *Resolver) resolveKnownCity(rec sources.RangeRecord) (Location, bool) {
	if rec.City == "" {
		return Location{}, false
	}
	dc, ok := r.index.Find(rec.City)
	if !ok {
		return Location{}, false
	}
	return Location{City: dc.City, Lat: dc.Lat, Lng: dc.Lng, Country: dc.Country}, true
}

func (r *Resolver) resolveMMDB(rec sources.RangeRecord) (Location, bool) {
	if r.reader == nil {
		return Location{}, false
	}
	ip := net.ParseIP(RepresentativeIP(rec.CIDR))
	if ip == nil {
		return Location{}, false
	}

	var record struct {
		City struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"city"`
		Location struct {
			Latitude  float64 `maxminddb:"latitude"`
			Longitude float64 `maxminddb:"longitude"`
		} `maxminddb:"location"`
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
	}
	if err := r.reader.Lookup(ip, &record); err != nil {
		return Location{}, false
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return Location{}, false
	}

	city := record.City.Names["en"]
	if rec.City != "" {
		// The feed's own city name wins over the database one.
		city = rec.City
	}
	if city == "" {
		city = record.Country.ISOCode
	}
	return Location{
		City:    city,
		Lat:     record.Location.Latitude,
		Lng:     record.Location.Longitude,
		Country: record.Country.ISOCode,
	}, true
}

func (r *Resolver) resolveStaticIP(rec sources.RangeRecord) (Location, bool) {
	loc, ok := lookupStaticIP(RepresentativeIP(rec.CIDR))
	if !ok {
		return Location{}, false
	}
	if rec.City != "" {
		loc.City = rec.City
	}
	return loc, true
}

func (r *Resolver) resolveOctetRegion(rec sources.RangeRecord) (Location, bool) {
	return lookupOctetRegion(RepresentativeIP(rec.CIDR))
}
