package utils

import "strconv"

// ContentHash computes a cheap rolling hash over s, returned in base 36.
// It only exists to detect "feed unchanged since last fetch"; it is not
// collision resistant and must never be used for integrity checks.
func ContentHash(s string) string {
	var h int32
	for i := 0; i < len(s); i++ {
		h = (h << 5) - h + int32(s[i])
	}
	return strconv.FormatInt(int64(h), 36)
}
