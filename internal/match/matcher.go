package match

import "github.com/home-scanner/internal/models"

// minSharedTokens is the token-overlap threshold for declaring a match
const minSharedTokens = 2

// minTokenLength excludes short tokens (unit letters, directionals) from the
// overlap count
const minTokenLength = 3

// FindBestMatch selects the candidate whose address line matches the target
// address. Two passes: the first compares candidates against the target as
// given, the second against the re-normalized target with street-type
// abbreviations expanded. Within a pass the first matching candidate in
// iteration order wins; there is no scoring beyond the overlap threshold.
func FindBestMatch(candidates []models.RawPropertyRecord, targetAddress string) (models.RawPropertyRecord, bool) {
	if len(candidates) == 0 || targetAddress == "" {
		return nil, false
	}

	if record, ok := matchPass(candidates, targetAddress); ok {
		return record, true
	}

	// Second pass with the expanded target catches candidates whose raw
	// address only lines up once abbreviations are spelled out
	if record, ok := matchPass(candidates, Normalize(targetAddress)); ok {
		return record, true
	}

	return nil, false
}

// matchPass runs one comparison pass over the candidates
func matchPass(candidates []models.RawPropertyRecord, target string) (models.RawPropertyRecord, bool) {
	targetTokens := tokenSet(target)
	if len(targetTokens) == 0 {
		return nil, false
	}

	for _, candidate := range candidates {
		line, ok := candidate.AddressLine()
		if !ok {
			continue
		}
		if overlaps(targetTokens, Tokens(line)) {
			return candidate, true
		}
	}

	return nil, false
}

// tokenSet builds the set of comparison tokens longer than the length cutoff
func tokenSet(address string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range Tokens(address) {
		if len(token) >= minTokenLength {
			set[token] = true
		}
	}
	return set
}

// overlaps reports whether the candidate shares at least minSharedTokens
// qualifying tokens with the target
func overlaps(targetTokens map[string]bool, candidateTokens []string) bool {
	shared := 0
	seen := make(map[string]bool, len(candidateTokens))
	for _, token := range candidateTokens {
		if len(token) < minTokenLength || seen[token] {
			continue
		}
		seen[token] = true
		if targetTokens[token] {
			shared++
			if shared >= minSharedTokens {
				return true
			}
		}
	}
	return false
}
