package utils

import "testing"

func TestContentHash(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"a", "2p"},
		{"ab", "2e9"},
	}

	for _, tt := range tests {
		if got := ContentHash(tt.in); got != tt.want {
			t.Errorf("ContentHash(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentHashStable(t *testing.T) {
	feed := "173.245.48.0/20,US,,Ashburn, VA\n103.21.244.0/22,SG,,Singapore\n"
	a := ContentHash(feed)
	b := ContentHash(feed)
	if a != b {
		t.Errorf("same input hashed to %q and %q", a, b)
	}

	if c := ContentHash(feed + "x"); c == a {
		t.Errorf("different inputs both hashed to %q", a)
	}
}
