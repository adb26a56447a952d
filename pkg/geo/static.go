package geo

import (
	"net"
	"strconv"
	"strings"
)

// staticIPLocations maps the network address of well-known edge prefixes
// to a representative city. Last-resort data for when no mmdb is loaded.
var staticIPLocations = map[string]Location{
	"173.245.48.0":  {City: "Ashburn, VA", Lat: 39.0438, Lng: -77.4874, Country: "US"},
	"103.21.244.0":  {City: "San Jose, CA", Lat: 37.3382, Lng: -121.8863, Country: "US"},
	"103.22.200.0":  {City: "New York, NY", Lat: 40.7128, Lng: -74.0060, Country: "US"},
	"103.31.4.0":    {City: "Chicago, IL", Lat: 41.8781, Lng: -87.6298, Country: "US"},
	"141.101.64.0":  {City: "Los Angeles, CA", Lat: 34.0522, Lng: -118.2437, Country: "US"},
	"108.162.192.0": {City: "Dallas, TX", Lat: 32.7767, Lng: -96.7970, Country: "US"},
	"190.93.240.0":  {City: "Miami, FL", Lat: 25.7617, Lng: -80.1918, Country: "US"},
	"188.114.96.0":  {City: "London, UK", Lat: 51.5074, Lng: -0.1278, Country: "GB"},
	"197.234.240.0": {City: "Frankfurt, Germany", Lat: 50.1109, Lng: 8.6821, Country: "DE"},
	"198.41.128.0":  {City: "Amsterdam, Netherlands", Lat: 52.3676, Lng: 4.9041, Country: "NL"},
	"162.158.0.0":   {City: "Paris, France", Lat: 48.8566, Lng: 2.3522, Country: "FR"},
	"104.16.0.0":    {City: "Singapore", Lat: 1.3521, Lng: 103.8198, Country: "SG"},
	"172.64.0.0":    {City: "Tokyo, Japan", Lat: 35.6762, Lng: 139.6503, Country: "JP"},
	"131.0.72.0":    {City: "Hong Kong", Lat: 22.3193, Lng: 114.1694, Country: "HK"},
}

type octetRegion struct {
	lo, hi  int
	city    string
	lat     float64
	lng     float64
	country string
}

// octetRegions buckets the first octet into coarse regional centroids.
// Deliberately imprecise; only reached when every other stage failed.
// Checked in order, so 172-173 wins over the wider 131-141 band below it.
var octetRegions = []octetRegion{
	{172, 173, "North America", 39.8283, -98.5795, "US"},
	{104, 108, "Global", 0, 0, "GLOBAL"},
	{188, 198, "Europe", 50.0, 10.0, "EU"},
	{131, 141, "Asia Pacific", 25.0, 120.0, "APAC"},
}

// RepresentativeIP returns the network address of a CIDR, the address
// used for database-style lookups of the whole range.
func RepresentativeIP(cidr string) string {
	base, _, ok := strings.Cut(cidr, "/")
	if !ok {
		return cidr
	}
	return base
}

func firstOctet(ip string) (int, bool) {
	part, _, _ := strings.Cut(ip, ".")
	n, err := strconv.Atoi(part)
	if err != nil || n < 0 || n > 255 {
		return 0, false
	}
	return n, true
}

func lookupStaticIP(ip string) (Location, bool) {
	loc, ok := staticIPLocations[ip]
	return loc, ok
}

func lookupOctetRegion(ip string) (Location, bool) {
	if net.ParseIP(ip) == nil {
		return Location{}, false
	}
	octet, ok := firstOctet(ip)
	if !ok {
		return Location{}, false
	}
	for _, r := range octetRegions {
		if octet >= r.lo && octet <= r.hi {
			return Location{City: r.city, Lat: r.lat, Lng: r.lng, Country: r.country}, true
		}
	}
	return Location{}, false
}
