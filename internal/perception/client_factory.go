package perception

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"resqgrid/internal/config"
)

// NewGatewayFromConfig wires the gateway described by cfg. The live
// classifier is selected only by the presence of a credential, unless the
// mode forces fallback. Mode "live" without a key is an error.
func NewGatewayFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Gateway, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []GatewayOption{
		WithTimeout(cfg.GetClassifierTimeout()),
		WithLogger(logger),
	}

	if !cfg.UseLiveClassifier() {
		if cfg.Classifier.Mode == config.ModeLive {
			return nil, fmt.Errorf("classifier mode %q: %w", config.ModeLive, ErrNoCredential)
		}
		logger.Info("classifier gateway ready", zap.String("mode", ModeFallback))
		return NewGateway(nil, opts...), nil
	}

	switch cfg.Classifier.Provider {
	case "", "gemini":
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", cfg.Classifier.Provider)
	}

	live, err := NewGeminiClassifier(ctx, GeminiConfig{
		APIKey:      cfg.Classifier.APIKey,
		Model:       cfg.Classifier.Model,
		Temperature: cfg.Classifier.Temperature,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("classifier gateway ready",
		zap.String("mode", ModeLive),
		zap.String("model", live.Model()),
		zap.Duration("timeout", cfg.GetClassifierTimeout()))
	return NewGateway(live, opts...), nil
}
