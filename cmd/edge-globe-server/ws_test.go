package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudorandom/edge-globe/pkg/engine"
	"github.com/sudorandom/edge-globe/pkg/geo"
	"github.com/sudorandom/edge-globe/pkg/sources"
)

type staticFeed struct {
	records []sources.RangeRecord
}

func (f *staticFeed) FetchRanges(ctx context.Context) ([]sources.RangeRecord, string) {
	return f.records, "static"
}

func newTestCache() *engine.Cache {
	feed := &staticFeed{records: []sources.RangeRecord{
		{CIDR: "173.245.48.0/20", Country: "US", City: "Ashburn, VA"},
		{CIDR: "103.21.244.0/22", Country: "SG", City: "Singapore"},
	}}
	agg := engine.NewAggregator(geo.NewResolver(nil))
	agg.SeedJitter(1)
	return engine.NewCache(feed, agg, nil)
}

func TestCityDetailCountryName(t *testing.T) {
	tests := []struct {
		country string
		want    string
	}{
		{"US", "United States"},
		{"BR", "Brazil"},
		{"AE", "United Arab Emirates"},
		{"ZA", "South Africa"},
		{"APAC", ""},   // region label from the octet heuristic
		{"GLOBAL", ""}, // likewise
		{"", ""},
	}
	for _, tt := range tests {
		d := cityDetail(engine.GeoPoint{City: "Somewhere", Country: tt.country, Weight: 20})
		if d.CountryName != tt.want {
			t.Errorf("cityDetail(country=%q).CountryName = %q, want %q", tt.country, d.CountryName, tt.want)
		}
	}
}

func TestViewportDebounceCoalesces(t *testing.T) {
	srv := httptest.NewServer(handleWS(newTestCache(), 100*time.Millisecond))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// Two viewports in quick succession: only the second survives the
	// debounce window.
	europe := &engine.Bounds{LatMin: 35, LatMax: 71, LngMin: -25, LngMax: 45}
	northAmerica := &engine.Bounds{LatMin: 15, LatMax: 72, LngMin: -170, LngMax: -50}
	if err := conn.WriteJSON(clientMessage{Type: "viewport", Bounds: europe}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(clientMessage{Type: "viewport", Bounds: northAmerica}); err != nil {
		t.Fatal(err)
	}

	var msg pointsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Key != engine.CacheKey(northAmerica) {
		t.Errorf("debounced response for key %q, want the last viewport %q", msg.Key, engine.CacheKey(northAmerica))
	}

	// No response for the superseded viewport.
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var extra pointsMessage
	if err := conn.ReadJSON(&extra); err == nil {
		t.Errorf("got a second points message for key %q, want none", extra.Key)
	}
}

func TestClickAnswersImmediately(t *testing.T) {
	srv := httptest.NewServer(handleWS(newTestCache(), time.Hour))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// The hour-long debounce proves clicks bypass the viewport timer.
	if err := conn.WriteJSON(clientMessage{Type: "click", City: "Ashburn, VA"}); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var detail detailMessage
	if err := conn.ReadJSON(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.City != "Ashburn, VA" || detail.CountryName != "United States" {
		t.Errorf("click detail = %+v, want Ashburn, VA in United States", detail)
	}
	if len(detail.IPs) != 1 {
		t.Errorf("click detail has %d IPs, want 1", len(detail.IPs))
	}
}
