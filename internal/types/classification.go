// Package types defines the classification result shared by the classifier
// gateway, the resolver, the reducer and the orchestrator.
//
// A classification is one of three variants keyed by interaction kind:
// Casual carries only a message, Emergency carries the full technical bundle,
// and Command carries an optional location and action plan.
package types

import (
	"math"
	"strings"
)

// Kind is the top-level classification of user intent.
type Kind string

const (
	KindCasual    Kind = "CASUAL"
	KindEmergency Kind = "EMERGENCY"
	KindCommand   Kind = "COMMAND"
)

// ThreatLevel is the severity reported for an emergency.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "LOW"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// Valid reports whether t is a known level. The empty level is not valid.
func (t ThreatLevel) Valid() bool {
	switch t {
	case ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical:
		return true
	}
	return false
}

// Severe reports whether cells hit by this level should go critical.
func (t ThreatLevel) Severe() bool {
	return t == ThreatHigh || t == ThreatCritical
}

// ActionResetGrid in a command's action plan returns the grid to baseline.
const ActionResetGrid = "RESET_GRID"

// UnknownLocation is the sentinel the classifier uses for unresolved places.
const UnknownLocation = "Unknown"

// LocationHint is the free-text place extracted by the classifier.
type LocationHint struct {
	Region    string `json:"state"`
	SubRegion string `json:"district"`
}

// Unresolved reports whether the hint cannot be mapped onto cells:
// nil, blank district, or the "Unknown" sentinel.
func (h *LocationHint) Unresolved() bool {
	if h == nil {
		return true
	}
	sub := strings.TrimSpace(h.SubRegion)
	return sub == "" || strings.EqualFold(sub, UnknownLocation)
}

// Classification is the sealed result of classifying one message.
type Classification interface {
	Kind() Kind
	HumanMessage() string
	isClassification()
}

// Casual is small talk. It never carries technical data.
type Casual struct {
	Message string
}

func (Casual) Kind() Kind             { return KindCasual }
func (c Casual) HumanMessage() string { return c.Message }
func (Casual) isClassification()      {}

// Command is an operator instruction against the grid. ThreatLevel and
// ThreatScore are optional; when present they drive the matched cells the
// same way an emergency's assessment does.
type Command struct {
	Message     string
	Location    *LocationHint
	ActionPlan  []string
	ThreatLevel ThreatLevel
	ThreatScore *float64
}

func (Command) Kind() Kind             { return KindCommand }
func (c Command) HumanMessage() string { return c.Message }
func (Command) isClassification()      {}

// Emergency is a detected incident with its technical assessment.
type Emergency struct {
	Message            string
	Agent              string
	IncidentType       string
	Location           *LocationHint
	ThreatLevel        ThreatLevel
	Hazards            []string
	Analysis           *Analysis
	RecommendedUnits   []string
	EvacuationRoutes   []string
	DroneReport        *DroneReport
	Prediction         *Prediction
	ActionPlan         []string
	SafetyNotes        []string
	NeedsAuthorization *bool
}

func (Emergency) Kind() Kind             { return KindEmergency }
func (e Emergency) HumanMessage() string { return e.Message }
func (Emergency) isClassification()      {}

// Analysis is the situation assessment attached to an emergency.
type Analysis struct {
	SituationSummary    string
	StructuralIntegrity string
	WeatherImpact       string
	CasualtyEstimate    string
	ThreatScore         *float64
}

// DroneReport is the aerial reconnaissance summary.
type DroneReport struct {
	VisualConfirmation      bool
	ThermalAnomalies        string
	SurvivorsDetected       int
	StructuralDamagePercent int
}

// Prediction is the short-term forecast for an incident.
type Prediction struct {
	SpreadForecast string
	NextHourRisk   string
}

// LocationOf returns the location hint carried by c, or nil.
func LocationOf(c Classification) *LocationHint {
	switch v := c.(type) {
	case Emergency:
		return v.Location
	case *Emergency:
		return v.Location
	case Command:
		return v.Location
	case *Command:
		return v.Location
	}
	return nil
}

// ActionPlanOf returns the action plan carried by c.
func ActionPlanOf(c Classification) []string {
	switch v := c.(type) {
	case Emergency:
		return v.ActionPlan
	case *Emergency:
		return v.ActionPlan
	case Command:
		return v.ActionPlan
	case *Command:
		return v.ActionPlan
	}
	return nil
}

// ThreatLevelOf returns the threat level of an emergency or command, or "".
func ThreatLevelOf(c Classification) ThreatLevel {
	switch v := c.(type) {
	case Emergency:
		return v.ThreatLevel
	case *Emergency:
		return v.ThreatLevel
	case Command:
		return v.ThreatLevel
	case *Command:
		return v.ThreatLevel
	}
	return ""
}

// ThreatScoreOf returns the calculated threat score as a 0-100 risk score.
// ok is false when c carries no score.
func ThreatScoreOf(c Classification) (score int, ok bool) {
	var raw *float64
	switch v := c.(type) {
	case Emergency:
		if v.Analysis != nil {
			raw = v.Analysis.ThreatScore
		}
	case *Emergency:
		if v.Analysis != nil {
			raw = v.Analysis.ThreatScore
		}
	case Command:
		raw = v.ThreatScore
	case *Command:
		raw = v.ThreatScore
	}
	if raw == nil {
		return 0, false
	}
	return clampScore(*raw), true
}

func clampScore(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	r := math.Round(f)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}

// SignalsReset reports whether c is a command asking to reset the grid.
func SignalsReset(c Classification) bool {
	if c == nil || c.Kind() != KindCommand {
		return false
	}
	for _, action := range ActionPlanOf(c) {
		if action == ActionResetGrid {
			return true
		}
	}
	return false
}
