// Package resolver maps a free-text location hint onto catalog cells.
package resolver

import (
	"strings"

	"resqgrid/internal/grid"
	"resqgrid/internal/types"
)

// Match is the ordered set of matched cell IDs, in catalog order.
type Match []string

// Empty reports whether nothing matched.
func (m Match) Empty() bool {
	return len(m) == 0
}

// Contains reports whether id is part of the match.
func (m Match) Contains(id string) bool {
	for _, v := range m {
		if v == id {
			return true
		}
	}
	return false
}

// Options controls the second, region-level pass.
type Options struct {
	// RegionFallback enables matching on region when no district matched.
	// Callers set it only for COMMAND classifications.
	RegionFallback bool
}

// Resolve returns the cells a hint refers to.
//
// District matching wins outright: the region pass only runs when no cell's
// district matched and opts.RegionFallback is set. An unresolved hint
// (nil, blank, or "Unknown") never matches anything.
func Resolve(hint *types.LocationHint, cells []grid.Cell, opts Options) Match {
	if hint.Unresolved() {
		return nil
	}

	district := normalize(hint.SubRegion)
	region := normalize(hint.Region)

	var match Match
	for _, c := range cells {
		if districtMatches(normalize(c.SubRegion), district) {
			match = append(match, c.ID)
		}
	}
	// A blank region would contain-match every cell, so it never falls back.
	if len(match) > 0 || !opts.RegionFallback || region == "" {
		return match
	}

	for _, c := range cells {
		if strings.Contains(normalize(c.Region), region) {
			match = append(match, c.ID)
		}
	}
	return match
}

func districtMatches(cell, hint string) bool {
	if cell == "" {
		return false
	}
	return cell == hint || strings.Contains(hint, cell) || strings.Contains(cell, hint)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
