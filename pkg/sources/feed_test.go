package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestParseRangeFeed(t *testing.T) {
	feed := strings.Join([]string{
		"prefix,country_code,region_code,city_name,postal_code",
		"# comment line",
		"",
		`173.245.48.0/20,US,VA,"Ashburn, VA",20147`,
		"103.21.244.0/22,SG,,Singapore,",
		"104.16.0.0/12,,,,",
		"not-a-cidr,US,VA,Ashburn,",
		"198.41.128.0/17,NL",
	}, "\n")

	records := ParseRangeFeed(strings.NewReader(feed))
	if len(records) != 3 {
		t.Fatalf("ParseRangeFeed returned %d records, want 3: %+v", len(records), records)
	}

	tests := []struct {
		cidr, country, city string
	}{
		{"173.245.48.0/20", "US", "Ashburn, VA"},
		{"103.21.244.0/22", "SG", "Singapore"},
		{"104.16.0.0/12", "", ""},
	}
	for i, tt := range tests {
		r := records[i]
		if r.CIDR != tt.cidr || r.Country != tt.country || r.City != tt.city {
			t.Errorf("record %d = %+v, want {%s %s %s}", i, r, tt.cidr, tt.country, tt.city)
		}
	}
}

func TestParsePlainRanges(t *testing.T) {
	list := "173.245.48.0/20\n# comment\n\nbogus\n104.16.0.0/12\n"
	records := ParsePlainRanges(strings.NewReader(list))
	if len(records) != 2 {
		t.Fatalf("ParsePlainRanges returned %d records, want 2", len(records))
	}
	if records[0].CIDR != "173.245.48.0/20" || records[0].City != "" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
}

func TestFetchRangesRemoteFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.csv":
			http.Error(w, "nope", http.StatusBadGateway)
		case "/ips-v4":
			_, _ = w.Write([]byte("173.245.48.0/20\n104.16.0.0/12\n"))
		}
	}))
	defer srv.Close()

	c := NewFeedClient("")
	c.FeedURL = srv.URL + "/feed.csv"
	c.PlainURL = srv.URL + "/ips-v4"

	records, hash := c.FetchRanges(context.Background())
	if len(records) != 2 {
		t.Fatalf("FetchRanges returned %d records, want 2 from plain list", len(records))
	}
	if hash == "" {
		t.Error("FetchRanges returned empty hash for a successful fetch")
	}
}

func TestFetchRangesAllSourcesDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewFeedClient("does-not-exist.csv")
	c.FeedURL = srv.URL + "/feed.csv"
	c.PlainURL = srv.URL + "/ips-v4"

	records, hash := c.FetchRanges(context.Background())
	if len(records) != 0 {
		t.Errorf("FetchRanges returned %d records, want 0 when every source fails", len(records))
	}
	if hash != "" {
		t.Errorf("FetchRanges returned hash %q, want empty on total failure", hash)
	}
}

func TestFetchRangesLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/ranges.csv"
	if err := os.WriteFile(path, []byte("173.245.48.0/20,US,VA,Ashburn,\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewFeedClient(path)
	c.FeedURL = "http://127.0.0.1:0/unreachable"
	c.PlainURL = "http://127.0.0.1:0/unreachable"

	records, hash := c.FetchRanges(context.Background())
	if len(records) != 1 || records[0].City != "Ashburn" {
		t.Fatalf("FetchRanges from local file = %+v, want one Ashburn record", records)
	}
	if hash == "" {
		t.Error("expected non-empty hash for local file")
	}
}
