// Package reducer computes the next grid snapshot from a classification.
package reducer

import (
	"resqgrid/internal/grid"
	"resqgrid/internal/resolver"
	"resqgrid/internal/types"
)

// CommandRiskScore is assigned to cells activated by a command that carries
// no threat score of its own.
const CommandRiskScore = 50

// Reducer applies classifications to snapshots. It holds only the catalog it
// resets to, so one Reducer can serve any number of callers.
type Reducer struct {
	catalog *grid.Catalog
}

// New returns a Reducer that resets to the given catalog's baseline.
func New(catalog *grid.Catalog) *Reducer {
	return &Reducer{catalog: catalog}
}

// Reduce returns the snapshot that follows prev once c is applied to the
// matched cells. Rules, in order:
//
//  1. A reset command yields the catalog baseline; nothing else is looked at.
//  2. An empty match yields prev unchanged.
//  3. Matched cells go critical for HIGH or CRITICAL threats, active otherwise.
//  4. Matched cells take the threat score if there is one, else 50 for a
//     command, else keep their risk score.
//
// Unmatched cells are carried over untouched. Reduce is pure.
func (r *Reducer) Reduce(prev grid.Snapshot, c types.Classification, match resolver.Match) grid.Snapshot {
	if types.SignalsReset(c) {
		return r.catalog.Baseline()
	}
	if c == nil || match.Empty() {
		return prev
	}

	status := grid.StatusActive
	if types.ThreatLevelOf(c).Severe() {
		status = grid.StatusCritical
	}

	score, hasScore := types.ThreatScoreOf(c)
	isCommand := c.Kind() == types.KindCommand

	hit := make(map[string]struct{}, len(match))
	for _, id := range match {
		hit[id] = struct{}{}
	}

	return prev.Map(func(cell grid.Cell) grid.Cell {
		if _, ok := hit[cell.ID]; !ok {
			return cell
		}
		cell.Status = status
		switch {
		case hasScore:
			cell.RiskScore = score
		case isCommand:
			cell.RiskScore = CommandRiskScore
		}
		return cell
	})
}
