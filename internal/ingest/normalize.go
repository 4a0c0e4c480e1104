package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// foldName lowers, trims, and strips combining marks from a place name so
// "Jesús María" and "Jesus Maria" produce the same join key. Both datasets
// carry Spanish names with inconsistent accenting and escaping.
func foldName(s string) string {
	folded, _, err := transform.String(accentStripper, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// joinKey builds the state-qualified lookup key used to match supercharger
// rows against municipality records. Municipality names repeat across
// states, so the state is part of the key.
func joinKey(state, name string) string {
	return foldName(state) + "_" + foldName(name)
}
