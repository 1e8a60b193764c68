// Package match selects the best-matching property record for a target
// address from a list of upstream candidates.
package match

import "strings"

// streetAbbreviations maps the common street-type abbreviations to their
// expanded forms. Both the dotted and bare forms are handled because sources
// are inconsistent about punctuation.
var streetAbbreviations = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"pl":   "place",
	"blvd": "boulevard",
	"pkwy": "parkway",
}

// Normalize canonicalizes a free-text street address for comparison:
// lowercase, punctuation stripped, whitespace collapsed, and street-type
// abbreviations expanded.
func Normalize(address string) string {
	lowered := strings.ToLower(address)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for i, token := range tokens {
		if expanded, ok := streetAbbreviations[token]; ok {
			tokens[i] = expanded
		}
	}

	return strings.Join(tokens, " ")
}

// Tokens returns the normalized address split into comparison tokens
func Tokens(address string) []string {
	normalized := Normalize(address)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
