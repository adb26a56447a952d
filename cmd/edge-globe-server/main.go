package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/sudorandom/edge-globe/pkg/engine"
	"github.com/sudorandom/edge-globe/pkg/geo"
	"github.com/sudorandom/edge-globe/pkg/sources"
	"github.com/sudorandom/edge-globe/pkg/utils"
)

var cli struct {
	Listen    string        `help:"HTTP listen address." default:":8080"`
	Feed      string        `help:"City-annotated CIDR feed URL." default:"${feed_url}"`
	PlainFeed string        `help:"Bare prefix list URL, used when the feed is down." default:"${plain_url}"`
	LocalFeed string        `help:"Local feed file, tried before any network source." type:"path"`
	MMDB      string        `help:"GeoLite2-City database path. Downloaded if absent and --mmdb-url is set." type:"path" default:"data/GeoLite2-City.mmdb"`
	MMDBURL   string        `help:"Where to download the mmdb from. Empty disables the download." default:"${mmdb_url}"`
	Snapshot  string        `help:"Snapshot database directory. Empty disables persistence." default:"data/snapshot"`
	Warm      bool          `help:"Pre-compute the global and continental tiles at startup."`
	Workers   int           `help:"Worker count for cache warming." default:"2"`
	Debounce  time.Duration `help:"Viewport message debounce window." default:"400ms"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("edge-globe-server"),
		kong.Description("Serves aggregated edge IP range points for the globe frontend."),
		kong.Vars{
			"feed_url":  sources.RangeFeedURL,
			"plain_url": sources.PlainRangesURL,
			"mmdb_url":  sources.GeoLite2CityURL,
		},
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if cli.MMDBURL != "" {
		if err := utils.EnsureFile(cli.MMDBURL, cli.MMDB); err != nil {
			log.Printf("[server] mmdb download failed: %v", err)
		}
	}

	feed := sources.NewFeedClient(cli.LocalFeed)
	feed.FeedURL = cli.Feed
	feed.PlainURL = cli.PlainFeed

	resolver := geo.OpenResolver(cli.MMDB)
	defer func() {
		_ = resolver.Close()
	}()

	var store *engine.SnapshotStore
	if cli.Snapshot != "" {
		var err error
		store, err = engine.OpenSnapshotStore(cli.Snapshot)
		if err != nil {
			log.Printf("[server] Snapshot store unavailable (%v), running memory-only", err)
		} else {
			defer func() {
				_ = store.Close()
			}()
		}
	}

	cache := engine.NewCache(feed, engine.NewAggregator(resolver), store)

	if cli.Warm {
		go cache.Warm(context.Background(), engine.DefaultWarmRegions, cli.Workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/points", handlePoints(cache))
	mux.HandleFunc("GET /api/points.geojson", handleGeoJSON(cache))
	mux.HandleFunc("GET /api/markers", handleMarkers(cache))
	mux.HandleFunc("GET /api/cities/count", handleCityCount(cache))
	mux.HandleFunc("GET /api/city/{name}", handleCity(cache))
	mux.HandleFunc("GET /ws", handleWS(cache, cli.Debounce))

	log.Printf("[server] Listening on %s", cli.Listen)
	if err := http.ListenAndServe(cli.Listen, mux); err != nil {
		log.Fatal(err)
	}
}

// parseBounds reads an optional viewport from query parameters. All four
// must be present together; none at all means the global view.
func parseBounds(r *http.Request) (*engine.Bounds, bool) {
	q := r.URL.Query()
	keys := []string{"latMin", "latMax", "lngMin", "lngMax"}
	present := 0
	vals := make([]float64, len(keys))
	for i, k := range keys {
		raw := q.Get(k)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		vals[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, true
	case len(keys):
		return &engine.Bounds{LatMin: vals[0], LatMax: vals[1], LngMin: vals[2], LngMax: vals[3]}, true
	default:
		return nil, false
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] Response write failed: %v", err)
	}
}

func handlePoints(cache *engine.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bounds, ok := parseBounds(r)
		if !ok {
			http.Error(w, "bounds require all of latMin, latMax, lngMin, lngMax", http.StatusBadRequest)
			return
		}
		points, err := cache.GetPoints(r.Context(), bounds)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, points)
	}
}

func handleGeoJSON(cache *engine.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bounds, ok := parseBounds(r)
		if !ok {
			http.Error(w, "bounds require all of latMin, latMax, lngMin, lngMax", http.StatusBadRequest)
			return
		}
		points, err := cache.GetPoints(r.Context(), bounds)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, engine.PointsToGeoJSON(points))
	}
}

func handleMarkers(cache *engine.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markers, err := cache.GetMarkers(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, markers)
	}
}

func handleCityCount(cache *engine.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := cache.GetCityCount(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]int{"count": count})
	}
}

func handleCity(cache *engine.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		points, err := cache.GetPointsForCity(r.Context(), name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(points) == 0 {
			http.Error(w, "unknown city", http.StatusNotFound)
			return
		}
		writeJSON(w, cityDetail(points[0]))
	}
}
