package perception

import (
	"context"
	"strings"

	"resqgrid/internal/types"
)

// Fixed fallback responses.
const (
	FallbackCommandMessage = "Mock Command: System updated based on input."
	FallbackCasualMessage  = "Hello! I am ResQ-AI. How can I assist you today? If you are in danger, please tell me your location."
	FallbackEmergencyMsg   = "I have detected a fire emergency. Please stay calm. I am deploying units to Mumbai. Please cover your nose and exit the building immediately."
	FallbackAgent          = "COMMANDER_FALLBACK"
)

// FallbackClassifier derives a classification from keywords alone. It needs
// no network, never fails, and returns the same result for the same text.
type FallbackClassifier struct{}

// NewFallbackClassifier returns the keyword classifier.
func NewFallbackClassifier() *FallbackClassifier {
	return &FallbackClassifier{}
}

// Classify implements Classifier. The error is always nil.
func (f *FallbackClassifier) Classify(_ context.Context, text string) (types.Classification, error) {
	return f.Simulate(text), nil
}

// Simulate returns the keyword classification for text.
func (f *FallbackClassifier) Simulate(text string) types.Classification {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "activate") || strings.Contains(lower, "reset") {
		cmd := types.Command{
			Message:  FallbackCommandMessage,
			Location: &types.LocationHint{Region: "Maharashtra", SubRegion: "Mumbai"},
		}
		if strings.Contains(lower, "reset") {
			cmd.ActionPlan = []string{types.ActionResetGrid}
		}
		return cmd
	}

	if !strings.Contains(lower, "fire") && !strings.Contains(lower, "help") {
		return types.Casual{Message: FallbackCasualMessage}
	}

	return simulatedEmergency()
}

// simulatedEmergency is the complete synthetic incident used when no live
// classifier is reachable. A fresh value is built on every call so callers
// may keep or modify it.
func simulatedEmergency() types.Emergency {
	threatScore := 85.0
	needsAuth := true
	return types.Emergency{
		Message:      FallbackEmergencyMsg,
		Agent:        FallbackAgent,
		IncidentType: "Simulated Incident",
		Location:     &types.LocationHint{Region: "Maharashtra", SubRegion: "Mumbai"},
		ThreatLevel:  types.ThreatHigh,
		Hazards:      []string{"Toxic Smoke", "Structural Collapse"},
		Analysis: &types.Analysis{
			SituationSummary:    "Simulated fallback: Major fire detected in high-density commercial zone.",
			StructuralIntegrity: "Compromised",
			CasualtyEstimate:    "20-30 Trapped",
			ThreatScore:         &threatScore,
		},
		RecommendedUnits: []string{"Unit-Fire-12", "NDRF-Team-Bravo", "Amb-X1"},
		EvacuationRoutes: []string{"Route A: Via Marine Drive", "Route B: Avoid Station Road"},
		DroneReport: &types.DroneReport{
			VisualConfirmation:      true,
			ThermalAnomalies:        "High heat signature on Floor 3",
			SurvivorsDetected:       12,
			StructuralDamagePercent: 45,
		},
		Prediction: &types.Prediction{
			SpreadForecast: "Wind SE 12km/h pushing smoke to residential blocks.",
			NextHourRisk:   "High probability of roof collapse.",
		},
		ActionPlan:         []string{"Deploy Fire Tenders", "Establish Perimeter", "Drone Recon"},
		SafetyNotes:        []string{"High wind speed predicted", "Wear Hazmat suits"},
		NeedsAuthorization: &needsAuth,
	}
}
