// Package sources holds the static reference tables and the CIDR feed
// ingestion for the edge-globe pipeline.
package sources

// Datacenter is one known edge PoP. Coordinates are approximate city
// centers taken from the public network map, not facility addresses.
type Datacenter struct {
	City    string
	Lat     float64
	Lng     float64
	Country string // ISO 3166-1 alpha-2
	Region  string
	Code    string // IATA code of the nearest airport, the usual PoP naming
}

var Datacenters = []Datacenter{
	// North America
	{City: "Ashburn, VA", Lat: 39.0438, Lng: -77.4874, Country: "US", Region: "NA", Code: "IAD"},
	{City: "San Jose, CA", Lat: 37.3382, Lng: -121.8863, Country: "US", Region: "NA", Code: "SJC"},
	{City: "New York, NY", Lat: 40.7128, Lng: -74.0060, Country: "US", Region: "NA", Code: "EWR"},
	{City: "Chicago, IL", Lat: 41.8781, Lng: -87.6298, Country: "US", Region: "NA", Code: "ORD"},
	{City: "Los Angeles, CA", Lat: 34.0522, Lng: -118.2437, Country: "US", Region: "NA", Code: "LAX"},
	{City: "Dallas, TX", Lat: 32.7767, Lng: -96.7970, Country: "US", Region: "NA", Code: "DFW"},
	{City: "Miami, FL", Lat: 25.7617, Lng: -80.1918, Country: "US", Region: "NA", Code: "MIA"},
	{City: "Seattle, WA", Lat: 47.6062, Lng: -122.3321, Country: "US", Region: "NA", Code: "SEA"},
	{City: "Atlanta, GA", Lat: 33.7490, Lng: -84.3880, Country: "US", Region: "NA", Code: "ATL"},
	{City: "Toronto, Canada", Lat: 43.6510, Lng: -79.3470, Country: "CA", Region: "NA", Code: "YYZ"},
	{City: "Vancouver, Canada", Lat: 49.2827, Lng: -123.1207, Country: "CA", Region: "NA", Code: "YVR"},
	{City: "Mexico City, Mexico", Lat: 19.4326, Lng: -99.1332, Country: "MX", Region: "NA", Code: "MEX"},

	// Europe
	{City: "London, UK", Lat: 51.5074, Lng: -0.1278, Country: "GB", Region: "EU", Code: "LHR"},
	{City: "Frankfurt, Germany", Lat: 50.1109, Lng: 8.6821, Country: "DE", Region: "EU", Code: "FRA"},
	{City: "Amsterdam, Netherlands", Lat: 52.3676, Lng: 4.9041, Country: "NL", Region: "EU", Code: "AMS"},
	{City: "Paris, France", Lat: 48.8566, Lng: 2.3522, Country: "FR", Region: "EU", Code: "CDG"},
	{City: "Madrid, Spain", Lat: 40.4168, Lng: -3.7038, Country: "ES", Region: "EU", Code: "MAD"},
	{City: "Stockholm, Sweden", Lat: 59.3293, Lng: 18.0686, Country: "SE", Region: "EU", Code: "ARN"},
	{City: "Warsaw, Poland", Lat: 52.2297, Lng: 21.0122, Country: "PL", Region: "EU", Code: "WAW"},
	{City: "Prague, Czechia", Lat: 50.0755, Lng: 14.4378, Country: "CZ", Region: "EU", Code: "PRG"},
	{City: "Milan, Italy", Lat: 45.4642, Lng: 9.1900, Country: "IT", Region: "EU", Code: "MXP"},
	{City: "Vienna, Austria", Lat: 48.2082, Lng: 16.3738, Country: "AT", Region: "EU", Code: "VIE"},
	{City: "Zurich, Switzerland", Lat: 47.3769, Lng: 8.5417, Country: "CH", Region: "EU", Code: "ZRH"},

	// Asia Pacific
	{City: "Singapore", Lat: 1.3521, Lng: 103.8198, Country: "SG", Region: "AS", Code: "SIN"},
	{City: "Tokyo, Japan", Lat: 35.6762, Lng: 139.6503, Country: "JP", Region: "AS", Code: "NRT"},
	{City: "Osaka, Japan", Lat: 34.6937, Lng: 135.5023, Country: "JP", Region: "AS", Code: "KIX"},
	{City: "Hong Kong", Lat: 22.3193, Lng: 114.1694, Country: "HK", Region: "AS", Code: "HKG"},
	{City: "Seoul, South Korea", Lat: 37.5665, Lng: 126.9780, Country: "KR", Region: "AS", Code: "ICN"},
	{City: "Taipei, Taiwan", Lat: 25.0330, Lng: 121.5654, Country: "TW", Region: "AS", Code: "TPE"},
	{City: "Sydney, Australia", Lat: -33.8688, Lng: 151.2093, Country: "AU", Region: "OC", Code: "SYD"},
	{City: "Melbourne, Australia", Lat: -37.8136, Lng: 144.9631, Country: "AU", Region: "OC", Code: "MEL"},
	{City: "Auckland, New Zealand", Lat: -36.8485, Lng: 174.7633, Country: "NZ", Region: "OC", Code: "AKL"},
	{City: "Mumbai, India", Lat: 19.0760, Lng: 72.8777, Country: "IN", Region: "AS", Code: "BOM"},
	{City: "New Delhi, India", Lat: 28.6139, Lng: 77.2090, Country: "IN", Region: "AS", Code: "DEL"},
	{City: "Bangalore, India", Lat: 12.9716, Lng: 77.5946, Country: "IN", Region: "AS", Code: "BLR"},

	// South America
	{City: "São Paulo, Brazil", Lat: -23.5505, Lng: -46.6333, Country: "BR", Region: "SA", Code: "GRU"},
	{City: "Rio de Janeiro, Brazil", Lat: -22.9068, Lng: -43.1729, Country: "BR", Region: "SA", Code: "GIG"},
	{City: "Buenos Aires, Argentina", Lat: -34.6037, Lng: -58.3816, Country: "AR", Region: "SA", Code: "EZE"},
	{City: "Santiago, Chile", Lat: -33.4489, Lng: -70.6693, Country: "CL", Region: "SA", Code: "SCL"},
	{City: "Bogotá, Colombia", Lat: 4.7110, Lng: -74.0721, Country: "CO", Region: "SA", Code: "BOG"},

	// Middle East / Africa
	{City: "Dubai, UAE", Lat: 25.2048, Lng: 55.2708, Country: "AE", Region: "ME", Code: "DXB"},
	{City: "Johannesburg, South Africa", Lat: -26.2041, Lng: 28.0473, Country: "ZA", Region: "AF", Code: "JNB"},
	{City: "Tel Aviv, Israel", Lat: 32.0853, Lng: 34.7818, Country: "IL", Region: "ME", Code: "TLV"},
}

// CloudflarePrefixes are the publicly announced IPv4 ranges. Used as the
// basis for deterministic synthetic subnets when the live feed is sparse.
var CloudflarePrefixes = []string{
	"173.245.48.0/20",
	"103.21.244.0/22",
	"103.22.200.0/22",
	"103.31.4.0/22",
	"141.101.64.0/18",
	"108.162.192.0/18",
	"190.93.240.0/20",
	"188.114.96.0/20",
	"197.234.240.0/22",
	"198.41.128.0/17",
	"162.158.0.0/15",
	"104.16.0.0/12",
	"172.64.0.0/13",
	"131.0.72.0/22",
}

// TierOneCities carry the densest deployments and get a weight boost
// during aggregation plus the highest synthetic baseline.
var TierOneCities = map[string]bool{
	"Ashburn, VA":        true,
	"San Jose, CA":       true,
	"London, UK":         true,
	"Frankfurt, Germany": true,
	"Singapore":          true,
	"Tokyo, Japan":       true,
}

// majorRegions are the regions with a raised synthetic baseline weight.
var majorRegions = map[string]bool{"NA": true, "EU": true, "AS": true}

func IsMajorRegion(region string) bool {
	return majorRegions[region]
}
