package geocode

import "strings"

// normalize puts an address into the canonical form used as a cache key:
// trimmed, lowercased, commas stripped, and internal whitespace collapsed to
// single spaces.
func normalize(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	address = strings.ReplaceAll(address, ",", " ")

	fields := strings.Fields(address)
	return strings.Join(fields, " ")
}
