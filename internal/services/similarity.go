package service

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	"github.com/agnivade/levenshtein"
)

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	slices.Sort(fields)

	return slices.Compact(fields)
}

// ratio is the normalized Levenshtein similarity of a and b, 0 to 100.
func ratio(a, b string) int {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)

	return int(math.Round(float64(total-dist) / float64(total) * 100))
}

// tokenSetRatio compares the shared tokens of a and b against each side's
// full token set, so extra words on one side do not lower the score.
// "leather boots" against "Leather Boots Classic" scores 100.
func tokenSetRatio(a, b string) int {
	ta, tb := tokenize(a), tokenize(b)

	var common, onlyA, onlyB []string
	for _, t := range ta {
		if _, found := slices.BinarySearch(tb, t); found {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if _, found := slices.BinarySearch(ta, t); !found {
			onlyB = append(onlyB, t)
		}
	}

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	return max(ratio(base, withA), ratio(base, withB), ratio(withA, withB))
}

// isSpecific reports whether query closely matches any product name.
func isSpecific(query string, products []models.Product, threshold int) bool {
	for _, p := range products {
		if tokenSetRatio(query, p.Name) >= threshold {
			return true
		}
	}

	return false
}
