package perception

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"resqgrid/internal/types"
)

// Classifier turns one utterance into a classification.
type Classifier interface {
	Classify(ctx context.Context, text string) (types.Classification, error)
}

// Gateway modes reported by Mode.
const (
	ModeLive     = "live"
	ModeFallback = "fallback"
)

// Gateway wraps an optional live classifier and guarantees a result.
// Any live failure, including a timeout or a panic, yields the fallback
// classification for the same text.
type Gateway struct {
	live     Classifier
	fallback *FallbackClassifier
	timeout  time.Duration
	logger   *zap.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout bounds each live call. Zero disables the bound.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGateway creates a gateway. A nil live classifier means fallback only.
func NewGateway(live Classifier, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		live:     live,
		fallback: NewFallbackClassifier(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mode reports whether a live classifier is configured.
func (g *Gateway) Mode() string {
	if g.live == nil {
		return ModeFallback
	}
	return ModeLive
}

// Classify never fails.
func (g *Gateway) Classify(ctx context.Context, text string) types.Classification {
	if g.live == nil {
		return g.fallback.Simulate(text)
	}

	start := time.Now()
	result, err := g.classifyLive(ctx, text)
	if err != nil {
		g.logger.Warn("live classification failed, using fallback",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return g.fallback.Simulate(text)
	}

	g.logger.Debug("live classification",
		zap.String("kind", string(result.Kind())),
		zap.Duration("elapsed", time.Since(start)))
	return result
}

func (g *Gateway) classifyLive(ctx context.Context, text string) (result types.Classification, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("live classifier panicked: %v", r)
		}
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	result, err = g.live.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("live classifier returned no result")
	}
	return result, nil
}
