package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"resqgrid/internal/grid"
	"resqgrid/internal/incident"
	"resqgrid/internal/types"
)

// outcomeJSON is the --json shape of one processed report.
type outcomeJSON struct {
	Input          string          `json:"input"`
	Classification json.RawMessage `json:"classification"`
	Match          []string        `json:"match"`
	Changed        []grid.Cell     `json:"changed"`
	Focus          string          `json:"focus,omitempty"`
}

func writeOutcome(w io.Writer, out incident.Outcome, prev grid.Snapshot, focus string) error {
	changed := out.Changed(prev)

	if jsonOutput {
		raw, err := types.Encode(out.Classification)
		if err != nil {
			return err
		}
		match := []string(out.Match)
		if match == nil {
			match = []string{}
		}
		if changed == nil {
			changed = []grid.Cell{}
		}
		return writeJSONLine(w, outcomeJSON{
			Input:          out.Input,
			Classification: raw,
			Match:          match,
			Changed:        changed,
			Focus:          focus,
		})
	}

	c := out.Classification
	fmt.Fprintf(w, "[%s] %s\n", c.Kind(), c.HumanMessage())
	if level := types.ThreatLevelOf(c); level != "" {
		if score, ok := types.ThreatScoreOf(c); ok {
			fmt.Fprintf(w, "  threat: %s (score %d)\n", level, score)
		} else {
			fmt.Fprintf(w, "  threat: %s\n", level)
		}
	}
	if plan := types.ActionPlanOf(c); len(plan) > 0 {
		fmt.Fprintf(w, "  plan: %s\n", strings.Join(plan, ", "))
	}
	if !out.Match.Empty() {
		fmt.Fprintf(w, "  matched: %s\n", strings.Join(out.Match, ", "))
	}
	for _, cell := range changed {
		before, _ := prev.Lookup(cell.ID)
		fmt.Fprintf(w, "  %s %s, %s: %s/%d -> %s/%d\n",
			cell.ID, cell.SubRegion, cell.Region,
			before.Status, before.RiskScore, cell.Status, cell.RiskScore)
	}
	if focus != "" {
		fmt.Fprintf(w, "  focus: %s\n", focus)
	}
	return nil
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
