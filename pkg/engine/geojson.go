package engine

import (
	geojson "github.com/paulmach/go.geojson"
)

// PointsToGeoJSON converts a point set to a GeoJSON FeatureCollection,
// the interchange format the rendering side and external tooling both
// understand. Coordinates are [lng, lat] per the GeoJSON spec.
func PointsToGeoJSON(points []GeoPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewPointFeature([]float64{p.Lng, p.Lat})
		f.SetProperty("weight", p.Weight)
		if p.City != "" {
			f.SetProperty("city", p.City)
		}
		if p.Country != "" {
			f.SetProperty("country", p.Country)
		}
		f.SetProperty("ips", p.IPs)
		f.SetProperty("ipCount", len(p.IPs))
		fc.AddFeature(f)
	}
	return fc
}
