package sources

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sudorandom/edge-globe/pkg/utils"
)

// RangeRecord is one row of the ingested feed. City and Country are
// optional; an empty City means the range still needs geo resolution.
type RangeRecord struct {
	CIDR    string `json:"cidr"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// ParseRangeFeed parses the city-annotated CIDR feed.
//
// The canonical schema is the geofeed layout (RFC 8805):
// prefix,country_code,region_code,city_name,postal_code. A header row or
// comment lines are skipped because their first column is not a valid
// CIDR. Rows with fewer than four columns are dropped; an empty city
// column is kept and resolved later.
func ParseRangeFeed(r io.Reader) []RangeRecord {
	var records []RangeRecord
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		reader := csv.NewReader(strings.NewReader(line))
		fields, err := reader.Read()
		if err != nil {
			continue
		}
		if len(fields) < 4 {
			continue
		}
		if _, _, err := net.ParseCIDR(fields[0]); err != nil {
			continue
		}

		records = append(records, RangeRecord{
			CIDR:    fields[0],
			Country: strings.TrimSpace(fields[1]),
			City:    strings.TrimSpace(fields[3]),
		})
	}
	return records
}

// ParsePlainRanges parses the bare prefix list: one CIDR per line, no
// location columns.
func ParsePlainRanges(r io.Reader) []RangeRecord {
	var records []RangeRecord
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, _, err := net.ParseCIDR(line); err != nil {
			continue
		}
		records = append(records, RangeRecord{CIDR: line})
	}
	return records
}

// RangeSource yields the current set of IP ranges plus a content hash of
// the raw feed text. Implementations never return an error; an empty
// slice means every source failed.
type RangeSource interface {
	FetchRanges(ctx context.Context) ([]RangeRecord, string)
}

// FeedClient fetches the CIDR feed with a fixed fallback order: a local
// file, then the remote city-annotated CSV, then the bare prefix list.
// When everything fails it returns an empty slice so the caller can
// degrade instead of surfacing a network error.
type FeedClient struct {
	LocalPath string
	FeedURL   string
	PlainURL  string

	Client *http.Client
}

func NewFeedClient(localPath string) *FeedClient {
	return &FeedClient{
		LocalPath: localPath,
		FeedURL:   RangeFeedURL,
		PlainURL:  PlainRangesURL,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *FeedClient) FetchRanges(ctx context.Context) ([]RangeRecord, string) {
	if c.LocalPath != "" {
		if data, err := os.ReadFile(c.LocalPath); err == nil {
			text := string(data)
			records := ParseRangeFeed(strings.NewReader(text))
			if len(records) > 0 {
				log.Printf("[feed] Loaded %d ranges from %s", len(records), c.LocalPath)
				return records, utils.ContentHash(text)
			}
		}
	}

	if text, err := c.get(ctx, c.FeedURL); err != nil {
		log.Printf("[feed] Range feed unavailable: %v", err)
	} else {
		records := ParseRangeFeed(strings.NewReader(text))
		if len(records) > 0 {
			log.Printf("[feed] Fetched %d ranges from %s", len(records), c.FeedURL)
			return records, utils.ContentHash(text)
		}
	}

	if text, err := c.get(ctx, c.PlainURL); err != nil {
		log.Printf("[feed] Plain prefix list unavailable: %v", err)
	} else {
		records := ParsePlainRanges(strings.NewReader(text))
		if len(records) > 0 {
			log.Printf("[feed] Fell back to %d plain prefixes from %s", len(records), c.PlainURL)
			return records, utils.ContentHash(text)
		}
	}

	log.Printf("[feed] All feed sources failed, continuing with no ranges")
	return nil, ""
}

func (c *FeedClient) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()
	if resp.StatusCode == http.StatusNotFound {
		return "", utils.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{status: resp.Status}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type statusError struct{ status string }

func (e *statusError) Error() string { return "bad status: " + e.status }
