package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPayload is returned for a blank classifier response.
	ErrEmptyPayload = errors.New("empty classifier payload")
	// ErrMalformedPayload is returned when a response does not match the contract.
	ErrMalformedPayload = errors.New("malformed classifier payload")
)

// payload is the JSON shape exchanged with the external classifier.
// Every technical field is optional and nullable.
type payload struct {
	InteractionType    string          `json:"interaction_type"`
	HumanMessage       string          `json:"human_message"`
	Agent              string          `json:"agent,omitempty"`
	IncidentType       string          `json:"incident_type,omitempty"`
	Location           *LocationHint   `json:"location,omitempty"`
	ThreatLevel        string          `json:"threat_level,omitempty"`
	Hazards            []string        `json:"hazards,omitempty"`
	Analysis           *analysisWire   `json:"analysis,omitempty"`
	RecommendedUnits   []string        `json:"recommended_units,omitempty"`
	EvacuationRoute    []string        `json:"evacuation_route,omitempty"`
	DroneReport        *droneWire      `json:"drone_report,omitempty"`
	Prediction         *predictionWire `json:"prediction,omitempty"`
	ActionPlan         []string        `json:"action_plan,omitempty"`
	SafetyNotes        []string        `json:"safety_notes,omitempty"`
	NeedsAuthorization *bool           `json:"needs_authorization,omitempty"`
}

type analysisWire struct {
	SituationSummary    string   `json:"situation_summary"`
	StructuralIntegrity string   `json:"structural_integrity,omitempty"`
	WeatherImpact       string   `json:"weather_impact,omitempty"`
	CasualtyEstimate    string   `json:"casualty_estimate,omitempty"`
	ThreatScore         *float64 `json:"threat_score_calculated,omitempty"`
}

type droneWire struct {
	VisualConfirmation      bool    `json:"visual_confirmation"`
	ThermalAnomalies        string  `json:"thermal_anomalies"`
	SurvivorsDetected       float64 `json:"survivors_detected"`
	StructuralDamagePercent float64 `json:"structural_damage_percent"`
}

type predictionWire struct {
	SpreadForecast string `json:"spread_forecast"`
	NextHourRisk   string `json:"next_hour_risk"`
}

// Decode parses a classifier response into a Classification.
// Technical fields that are meaningless for the decoded kind are dropped.
func Decode(data []byte) (Classification, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if strings.TrimSpace(p.HumanMessage) == "" {
		return nil, fmt.Errorf("%w: missing human_message", ErrMalformedPayload)
	}

	switch Kind(p.InteractionType) {
	case KindCasual:
		return Casual{Message: p.HumanMessage}, nil

	case KindCommand:
		level, err := threatLevel(p.ThreatLevel)
		if err != nil {
			return nil, err
		}
		cmd := Command{
			Message:     p.HumanMessage,
			Location:    p.Location,
			ActionPlan:  p.ActionPlan,
			ThreatLevel: level,
		}
		if p.Analysis != nil {
			cmd.ThreatScore = p.Analysis.ThreatScore
		}
		return cmd, nil

	case KindEmergency:
		level, err := threatLevel(p.ThreatLevel)
		if err != nil {
			return nil, err
		}
		e := Emergency{
			Message:            p.HumanMessage,
			Agent:              p.Agent,
			IncidentType:       p.IncidentType,
			Location:           p.Location,
			ThreatLevel:        level,
			Hazards:            p.Hazards,
			RecommendedUnits:   p.RecommendedUnits,
			EvacuationRoutes:   p.EvacuationRoute,
			ActionPlan:         p.ActionPlan,
			SafetyNotes:        p.SafetyNotes,
			NeedsAuthorization: p.NeedsAuthorization,
		}
		if a := p.Analysis; a != nil {
			e.Analysis = &Analysis{
				SituationSummary:    a.SituationSummary,
				StructuralIntegrity: a.StructuralIntegrity,
				WeatherImpact:       a.WeatherImpact,
				CasualtyEstimate:    a.CasualtyEstimate,
				ThreatScore:         a.ThreatScore,
			}
		}
		if d := p.DroneReport; d != nil {
			e.DroneReport = &DroneReport{
				VisualConfirmation:      d.VisualConfirmation,
				ThermalAnomalies:        d.ThermalAnomalies,
				SurvivorsDetected:       int(d.SurvivorsDetected),
				StructuralDamagePercent: int(d.StructuralDamagePercent),
			}
		}
		if pr := p.Prediction; pr != nil {
			e.Prediction = &Prediction{
				SpreadForecast: pr.SpreadForecast,
				NextHourRisk:   pr.NextHourRisk,
			}
		}
		return e, nil

	case "":
		return nil, fmt.Errorf("%w: missing interaction_type", ErrMalformedPayload)
	default:
		return nil, fmt.Errorf("%w: unknown interaction_type %q", ErrMalformedPayload, p.InteractionType)
	}
}

// Encode writes c in the classifier wire shape.
func Encode(c Classification) ([]byte, error) {
	if c == nil {
		return nil, errors.New("nil classification")
	}

	p := payload{
		InteractionType: string(c.Kind()),
		HumanMessage:    c.HumanMessage(),
	}

	switch v := c.(type) {
	case Casual, *Casual:
	case Command:
		fillCommand(&p, &v)
	case *Command:
		fillCommand(&p, v)
	case Emergency:
		fillEmergency(&p, &v)
	case *Emergency:
		fillEmergency(&p, v)
	default:
		return nil, fmt.Errorf("unsupported classification %T", c)
	}

	return json.Marshal(p)
}

func threatLevel(s string) (ThreatLevel, error) {
	level := ThreatLevel(s)
	if level != "" && !level.Valid() {
		return "", fmt.Errorf("%w: unknown threat_level %q", ErrMalformedPayload, s)
	}
	return level, nil
}

func fillCommand(p *payload, c *Command) {
	p.Location = c.Location
	p.ActionPlan = c.ActionPlan
	p.ThreatLevel = string(c.ThreatLevel)
	if c.ThreatScore != nil {
		p.Analysis = &analysisWire{ThreatScore: c.ThreatScore}
	}
}

func fillEmergency(p *payload, e *Emergency) {
	p.Agent = e.Agent
	p.IncidentType = e.IncidentType
	p.Location = e.Location
	p.ThreatLevel = string(e.ThreatLevel)
	p.Hazards = e.Hazards
	p.RecommendedUnits = e.RecommendedUnits
	p.EvacuationRoute = e.EvacuationRoutes
	p.ActionPlan = e.ActionPlan
	p.SafetyNotes = e.SafetyNotes
	p.NeedsAuthorization = e.NeedsAuthorization
	if a := e.Analysis; a != nil {
		p.Analysis = &analysisWire{
			SituationSummary:    a.SituationSummary,
			StructuralIntegrity: a.StructuralIntegrity,
			WeatherImpact:       a.WeatherImpact,
			CasualtyEstimate:    a.CasualtyEstimate,
			ThreatScore:         a.ThreatScore,
		}
	}
	if d := e.DroneReport; d != nil {
		p.DroneReport = &droneWire{
			VisualConfirmation:      d.VisualConfirmation,
			ThermalAnomalies:        d.ThermalAnomalies,
			SurvivorsDetected:       float64(d.SurvivorsDetected),
			StructuralDamagePercent: float64(d.StructuralDamagePercent),
		}
	}
	if pr := e.Prediction; pr != nil {
		p.Prediction = &predictionWire{
			SpreadForecast: pr.SpreadForecast,
			NextHourRisk:   pr.NextHourRisk,
		}
	}
}
