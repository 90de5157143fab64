package perception

import (
	_ "embed"

	"google.golang.org/genai"
)

// systemInstruction is the fixed instruction document sent with every
// live classification.
//
//go:embed instruction.md
var systemInstruction string

func nullable() *bool {
	b := true
	return &b
}

func stringList() *genai.Schema {
	return &genai.Schema{
		Type:     genai.TypeArray,
		Items:    &genai.Schema{Type: genai.TypeString},
		Nullable: nullable(),
	}
}

// classificationSchema mirrors the wire payload accepted by types.Decode.
// Only interaction_type and human_message are required.
func classificationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"interaction_type": {Type: genai.TypeString, Enum: []string{"CASUAL", "EMERGENCY", "COMMAND"}},
			"human_message":    {Type: genai.TypeString},
			"agent":            {Type: genai.TypeString},
			"incident_type":    {Type: genai.TypeString},
			"location": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"state":    {Type: genai.TypeString},
					"district": {Type: genai.TypeString},
				},
				Nullable: nullable(),
			},
			"threat_level": {
				Type:     genai.TypeString,
				Enum:     []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"},
				Nullable: nullable(),
			},
			"hazards": stringList(),
			"analysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"situation_summary":       {Type: genai.TypeString},
					"structural_integrity":    {Type: genai.TypeString},
					"weather_impact":          {Type: genai.TypeString},
					"casualty_estimate":       {Type: genai.TypeString},
					"threat_score_calculated": {Type: genai.TypeNumber},
				},
				Nullable: nullable(),
			},
			"recommended_units": stringList(),
			"evacuation_route":  stringList(),
			"drone_report": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"visual_confirmation":       {Type: genai.TypeBoolean},
					"thermal_anomalies":         {Type: genai.TypeString},
					"survivors_detected":        {Type: genai.TypeNumber},
					"structural_damage_percent": {Type: genai.TypeNumber},
				},
				Nullable: nullable(),
			},
			"prediction": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"spread_forecast": {Type: genai.TypeString},
					"next_hour_risk":  {Type: genai.TypeString},
				},
				Nullable: nullable(),
			},
			"action_plan":         stringList(),
			"safety_notes":        stringList(),
			"needs_authorization": {Type: genai.TypeBoolean, Nullable: nullable()},
		},
		Required: []string{"interaction_type", "human_message"},
	}
}
