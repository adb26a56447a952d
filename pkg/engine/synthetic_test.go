package engine

import (
	"net"
	"testing"

	"github.com/sudorandom/edge-globe/pkg/sources"
)

func TestSyntheticCIDRsDeterministic(t *testing.T) {
	a := SyntheticCIDRs(3, 6)
	b := SyntheticCIDRs(3, 6)
	if len(a) == 0 {
		t.Fatal("SyntheticCIDRs returned nothing")
	}
	if len(a) != len(b) {
		t.Fatalf("same seed produced %d then %d CIDRs", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("same seed diverged at %d: %s vs %s", i, a[i], b[i])
		}
	}

	c := SyntheticCIDRs(4, 6)
	same := len(c) == len(a)
	if same {
		for i := range a {
			if a[i] != c[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different seeds produced identical CIDR lists")
	}
}

func TestSyntheticCIDRsAreValid(t *testing.T) {
	for seed := 0; seed < len(sources.Datacenters); seed++ {
		cidrs := SyntheticCIDRs(seed, 10)
		seen := make(map[string]bool)
		for _, c := range cidrs {
			if _, _, err := net.ParseCIDR(c); err != nil {
				t.Errorf("seed %d produced invalid CIDR %q: %v", seed, c, err)
			}
			if seen[c] {
				t.Errorf("seed %d produced duplicate CIDR %q", seed, c)
			}
			seen[c] = true
		}
	}
}

func TestSyntheticPoints(t *testing.T) {
	a := newTestAggregator()

	points := a.SyntheticPoints(nil)
	if len(points) != len(sources.Datacenters) {
		t.Fatalf("SyntheticPoints(nil) = %d points, want %d", len(points), len(sources.Datacenters))
	}
	for _, p := range points {
		if p.Weight < 20 {
			t.Errorf("%s: weight %f below floor", p.City, p.Weight)
		}
		if len(p.IPs) < 3 {
			t.Errorf("%s: %d IPs, want >= 3", p.City, len(p.IPs))
		}
	}
}

func TestSyntheticPointsBounded(t *testing.T) {
	a := newTestAggregator()

	// A box in the middle of the Pacific holds no datacenter.
	empty := &Bounds{LatMin: -5, LatMax: 5, LngMin: -150, LngMax: -140}
	if points := a.SyntheticPoints(empty); len(points) != 0 {
		t.Errorf("empty ocean box produced %d synthetic points", len(points))
	}

	europe := &Bounds{LatMin: 35, LatMax: 71, LngMin: -25, LngMax: 45}
	points := a.SyntheticPoints(europe)
	if len(points) == 0 {
		t.Fatal("Europe box produced no synthetic points")
	}
	for _, p := range points {
		if !europe.Contains(p.Lat, p.Lng) {
			t.Errorf("%s at (%f, %f) outside requested bounds", p.City, p.Lat, p.Lng)
		}
	}
}

func TestSyntheticWeightTiers(t *testing.T) {
	tests := []struct {
		dc   sources.Datacenter
		want float64
	}{
		{sources.Datacenter{City: "Ashburn, VA", Region: "NA"}, 100},
		{sources.Datacenter{City: "Miami, FL", Region: "NA"}, 60},
		{sources.Datacenter{City: "Auckland, New Zealand", Region: "OC"}, 30},
	}
	for _, tt := range tests {
		if got := syntheticWeightBase(tt.dc); got != tt.want {
			t.Errorf("syntheticWeightBase(%s) = %f, want %f", tt.dc.City, got, tt.want)
		}
	}
}
