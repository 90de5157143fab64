// Package incident runs one utterance through classification, location
// resolution and grid reduction.
package incident

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"resqgrid/internal/grid"
	"resqgrid/internal/logging"
	"resqgrid/internal/reducer"
	"resqgrid/internal/resolver"
	"resqgrid/internal/types"
)

// Classifier is the gateway surface the orchestrator needs. It must always
// produce a classification; *perception.Gateway satisfies it.
type Classifier interface {
	Classify(ctx context.Context, text string) types.Classification
}

// Outcome is everything a renderer needs after one utterance.
type Outcome struct {
	Input          string
	Classification types.Classification
	Grid           grid.Snapshot
	Match          resolver.Match
}

// Changed returns the cells whose status or risk score differ from prev.
func (o Outcome) Changed(prev grid.Snapshot) []grid.Cell {
	var out []grid.Cell
	for i := 0; i < o.Grid.Len(); i++ {
		cell := o.Grid.At(i)
		old, ok := prev.Lookup(cell.ID)
		if !ok || old.Status != cell.Status || old.RiskScore != cell.RiskScore {
			out = append(out, cell)
		}
	}
	return out
}

// Orchestrator wires the gateway, the resolver and the reducer together.
// It holds no mutable state and is safe for concurrent use.
type Orchestrator struct {
	classifier Classifier
	catalog    *grid.Catalog
	reducer    *reducer.Reducer
	logger     *zap.Logger
	resolveLog *zap.Logger
	reduceLog  *zap.Logger
}

// New creates an orchestrator. A nil catalog means the built-in one.
func New(classifier Classifier, catalog *grid.Catalog, logger *zap.Logger) *Orchestrator {
	if catalog == nil {
		catalog = grid.DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		classifier: classifier,
		catalog:    catalog,
		reducer:    reducer.New(catalog),
		logger:     logger,
		resolveLog: logging.For(logger, logging.CategoryResolver),
		reduceLog:  logging.For(logger, logging.CategoryReducer),
	}
}

// Catalog returns the catalog used for resets.
func (o *Orchestrator) Catalog() *grid.Catalog {
	return o.catalog
}

// Process classifies text and applies it to prev. It never fails; an
// unavailable classifier degrades to the fallback result inside the gateway.
func (o *Orchestrator) Process(ctx context.Context, text string, prev grid.Snapshot) Outcome {
	c := o.classifier.Classify(ctx, text)

	if types.SignalsReset(c) {
		o.logger.Info("grid reset", zap.String("kind", string(c.Kind())))
		return Outcome{
			Input:          text,
			Classification: c,
			Grid:           o.reducer.Reduce(prev, c, nil),
		}
	}

	hint := types.LocationOf(c)
	opts := resolver.Options{RegionFallback: c.Kind() == types.KindCommand}
	match := resolver.Resolve(hint, prev.Cells(), opts)
	if hint != nil {
		o.resolveLog.Debug("location resolved",
			zap.String("state", hint.Region),
			zap.String("district", hint.SubRegion),
			zap.Bool("region_fallback", opts.RegionFallback),
			zap.Strings("match", match))
	}

	next := o.reducer.Reduce(prev, c, match)
	score, hasScore := types.ThreatScoreOf(c)
	o.reduceLog.Debug("grid reduced",
		zap.String("kind", string(c.Kind())),
		zap.String("threat", string(types.ThreatLevelOf(c))),
		zap.Int("score", score),
		zap.Bool("has_score", hasScore),
		zap.Int("cells", len(match)))

	return Outcome{
		Input:          text,
		Classification: c,
		Grid:           next,
		Match:          match,
	}
}

// Evaluate processes every input independently against the same prev
// snapshot, at most parallel at a time. Outcomes come back in input order.
// Only cancellation of ctx produces an error.
func (o *Orchestrator) Evaluate(ctx context.Context, inputs []string, prev grid.Snapshot, parallel int) ([]Outcome, error) {
	if parallel <= 0 {
		parallel = 1
	}

	outcomes := make([]Outcome, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, text := range inputs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = o.Process(gctx, text, prev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}

	o.logger.Info("evaluation complete",
		zap.Int("inputs", len(inputs)),
		zap.Int("parallel", parallel))
	return outcomes, nil
}
