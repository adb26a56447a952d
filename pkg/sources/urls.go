package sources

const (
	// RangeFeedURL is the city-annotated CIDR feed (geofeed-style CSV).
	RangeFeedURL = "https://api.cloudflare.com/local-ip-ranges.csv"
	// PlainRangesURL lists announced IPv4 prefixes, one CIDR per line,
	// with no location columns.
	PlainRangesURL = "https://www.cloudflare.com/ips-v4"

	GeoLite2CityURL = "https://raw.githubusercontent.com/P3TERX/GeoLite.mmdb/download/GeoLite2-City.mmdb"
)
