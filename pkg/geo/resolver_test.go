package geo

import (
	"testing"

	"github.com/sudorandom/edge-globe/pkg/sources"
)

func TestResolveKnownCity(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		city     string
		wantCity string
	}{
		{"Ashburn, VA", "Ashburn, VA"},
		{"ashburn", "Ashburn, VA"},            // feed name inside known name
		{"Tokyo, Japan (NRT)", "Tokyo, Japan"}, // known name inside feed name
		{"Singapore", "Singapore"},
		{"SINGAPORE", "Singapore"},
	}

	for _, tt := range tests {
		loc, ok := r.Resolve(sources.RangeRecord{CIDR: "10.0.0.0/24", City: tt.city})
		if !ok {
			t.Errorf("Resolve(city=%q) failed, want match on %q", tt.city, tt.wantCity)
			continue
		}
		if loc.City != tt.wantCity || loc.Source != SourceKnownCity {
			t.Errorf("Resolve(city=%q) = (%q, %v), want (%q, %v)",
				tt.city, loc.City, loc.Source, tt.wantCity, SourceKnownCity)
		}
	}
}

func TestResolveKnownCityCountryCode(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		city, want string
	}{
		{"Ashburn, VA", "US"},
		{"São Paulo, Brazil", "BR"},
		{"Dubai, UAE", "AE"},
		{"Johannesburg, South Africa", "ZA"},
	}
	for _, tt := range tests {
		loc, ok := r.Resolve(sources.RangeRecord{CIDR: "10.0.0.0/24", City: tt.city})
		if !ok {
			t.Errorf("Resolve(city=%q) failed", tt.city)
			continue
		}
		// Country carries the ISO code, never the internal region bucket.
		if loc.Country != tt.want {
			t.Errorf("Resolve(city=%q).Country = %q, want %q", tt.city, loc.Country, tt.want)
		}
	}
}

func TestResolveStaticIP(t *testing.T) {
	r := NewResolver(nil)

	loc, ok := r.Resolve(sources.RangeRecord{CIDR: "173.245.48.0/20"})
	if !ok {
		t.Fatal("Resolve(173.245.48.0/20) failed, want static table hit")
	}
	if loc.City != "Ashburn, VA" || loc.Source != SourceStaticIP {
		t.Errorf("Resolve(173.245.48.0/20) = (%q, %v), want (Ashburn, VA, %v)",
			loc.City, loc.Source, SourceStaticIP)
	}
	if loc.Country != "US" {
		t.Errorf("Country = %q, want US", loc.Country)
	}
}

func TestResolveOctetRegion(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		cidr     string
		wantCity string
	}{
		{"172.68.1.0/24", "North America"}, // 172-173 wins over 131-141
		{"105.16.0.0/12", "Global"},
		{"192.0.2.0/24", "Europe"},
		{"133.1.0.0/16", "Asia Pacific"},
	}

	for _, tt := range tests {
		loc, ok := r.Resolve(sources.RangeRecord{CIDR: tt.cidr})
		if !ok {
			t.Errorf("Resolve(%s) failed, want octet-region bucket %q", tt.cidr, tt.wantCity)
			continue
		}
		if loc.City != tt.wantCity || loc.Source != SourceOctetRegion {
			t.Errorf("Resolve(%s) = (%q, %v), want (%q, %v)",
				tt.cidr, loc.City, loc.Source, tt.wantCity, SourceOctetRegion)
		}
	}
}

func TestResolveDropsUnplaceable(t *testing.T) {
	r := NewResolver(nil)

	tests := []string{
		"8.8.8.0/24",   // first octet outside every bucket
		"bogus",        // not a CIDR at all
		"300.1.1.0/24", // invalid address
	}
	for _, cidr := range tests {
		if loc, ok := r.Resolve(sources.RangeRecord{CIDR: cidr}); ok {
			t.Errorf("Resolve(%q) = %+v, want drop", cidr, loc)
		}
	}
	if got := r.Dropped(); got != len(tests) {
		t.Errorf("Dropped() = %d, want %d", got, len(tests))
	}
}

func TestResolveCoordinatesAlwaysInRange(t *testing.T) {
	r := NewResolver(nil)

	records := []sources.RangeRecord{
		{CIDR: "173.245.48.0/20", City: "Ashburn, VA"},
		{CIDR: "104.16.0.0/12"},
		{CIDR: "190.93.240.0/20"},
		{CIDR: "131.0.72.0/22", City: "Hong Kong"},
		{CIDR: "198.41.128.0/17"},
		{CIDR: "172.64.0.0/13", City: "Totally Unknown Place"},
	}
	for _, rec := range records {
		loc, ok := r.Resolve(rec)
		if !ok {
			continue
		}
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			t.Errorf("Resolve(%+v) produced out-of-range coordinate (%f, %f)", rec, loc.Lat, loc.Lng)
		}
	}
}

func TestResolveFeedCityWinsOverStatic(t *testing.T) {
	r := NewResolver(nil)

	// City set but unknown to the table: the static stage should keep
	// the feed's own name on the resolved coordinate.
	loc, ok := r.Resolve(sources.RangeRecord{CIDR: "162.158.0.0/15", City: "Roubaix"})
	if !ok {
		t.Fatal("Resolve failed, want static table hit for 162.158.0.0")
	}
	if loc.City != "Roubaix" || loc.Source != SourceStaticIP {
		t.Errorf("Resolve = (%q, %v), want (Roubaix, %v)", loc.City, loc.Source, SourceStaticIP)
	}
}

func TestRepresentativeIP(t *testing.T) {
	tests := []struct{ cidr, want string }{
		{"173.245.48.0/20", "173.245.48.0"},
		{"104.16.0.0/12", "104.16.0.0"},
		{"no-slash", "no-slash"},
	}
	for _, tt := range tests {
		if got := RepresentativeIP(tt.cidr); got != tt.want {
			t.Errorf("RepresentativeIP(%q) = %q, want %q", tt.cidr, got, tt.want)
		}
	}
}
