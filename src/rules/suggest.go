package rules

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"taxtrack-server/src/models"
)

// maxSuggestDistance bounds the fuzzy tier: beyond two edits the OCR output
// is more likely a different category than a typo.
const maxSuggestDistance = 2

// SuggestCategory maps a free-text category name (typically OCR output) to a
// known category. Tiers, first hit wins: case-insensitive exact match,
// substring containment in either direction, then closest levenshtein
// neighbor within maxSuggestDistance. Returns nil when nothing qualifies.
// The fuzzy tier is an extension on top of the exact/containment matching:
// it recovers near-miss OCR reads that would otherwise yield no suggestion.
func SuggestCategory(name string, categories []models.Category) *models.Category {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}

	for i := range categories {
		if strings.ToLower(categories[i].Name) == needle {
			return &categories[i]
		}
	}

	for i := range categories {
		candidate := strings.ToLower(categories[i].Name)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return &categories[i]
		}
	}

	best := -1
	bestDist := maxSuggestDistance + 1
	for i := range categories {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(categories[i].Name))
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best >= 0 {
		return &categories[best]
	}
	return nil
}
