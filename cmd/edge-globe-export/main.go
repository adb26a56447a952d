package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/sudorandom/edge-globe/pkg/engine"
	"github.com/sudorandom/edge-globe/pkg/geo"
	"github.com/sudorandom/edge-globe/pkg/sources"
	"github.com/sudorandom/edge-globe/pkg/utils"
)

var cli struct {
	Output    string  `help:"Output file. Defaults to stdout." short:"o"`
	LocalFeed string  `help:"Local feed file, tried before any network source." type:"path"`
	MMDB      string  `help:"GeoLite2-City database path." type:"path"`
	MMDBURL   string  `help:"Where to download the mmdb from. Empty disables the download."`
	LatMin    float64 `help:"Viewport south edge." default:"-90"`
	LatMax    float64 `help:"Viewport north edge." default:"90"`
	LngMin    float64 `help:"Viewport west edge." default:"-180"`
	LngMax    float64 `help:"Viewport east edge." default:"180"`
	Global    bool    `help:"Ignore the viewport flags and export the global aggregate." default:"true" negatable:""`
}

func main() {
	kong.Parse(&cli,
		kong.Name("edge-globe-export"),
		kong.Description("One-shot fetch and aggregate, written out as GeoJSON."),
	)
	log.SetOutput(os.Stderr)

	if cli.MMDBURL != "" && cli.MMDB != "" {
		if err := utils.EnsureFile(cli.MMDBURL, cli.MMDB); err != nil {
			log.Printf("[export] mmdb download failed: %v", err)
		}
	}

	resolver := geo.OpenResolver(cli.MMDB)
	defer func() {
		_ = resolver.Close()
	}()

	var bounds *engine.Bounds
	if !cli.Global {
		bounds = &engine.Bounds{LatMin: cli.LatMin, LatMax: cli.LatMax, LngMin: cli.LngMin, LngMax: cli.LngMax}
	}

	cache := engine.NewCache(sources.NewFeedClient(cli.LocalFeed), engine.NewAggregator(resolver), nil)
	points, err := cache.GetPoints(context.Background(), bounds)
	if err != nil {
		log.Fatalf("Aggregation failed: %v", err)
	}

	var out io.Writer = os.Stdout
	if cli.Output != "" {
		f, err := os.Create(cli.Output)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Error closing %s: %v", cli.Output, err)
			}
		}()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(engine.PointsToGeoJSON(points)); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
	log.Printf("[export] Wrote %d features", len(points))
}
