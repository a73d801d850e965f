package confession

import "github.com/cespare/xxhash/v2"

// Letter is the stable pseudonym letter of an id: 'A' + xxhash64(id) mod 26.
func Letter(id string) string {
	return string(rune('A' + xxhash.Sum64String(id)%26))
}

// Alias renders the public author label of an id.
func Alias(id string) string { return "Anonymous " + Letter(id) }
