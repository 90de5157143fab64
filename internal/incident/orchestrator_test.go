package incident

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"resqgrid/internal/grid"
	"resqgrid/internal/perception"
	"resqgrid/internal/types"
)

func TestMain(m *testing.M) {
	// genai links opencensus, whose stats worker starts at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fixed always answers with the same classification.
type fixed struct{ c types.Classification }

func (f fixed) Classify(context.Context, string) types.Classification { return f.c }

func fallbackOrchestrator() *Orchestrator {
	return New(perception.NewGateway(nil), nil, nil)
}

// dirty returns the baseline with every cell active at risk 70.
func dirty() grid.Snapshot {
	return grid.DefaultCatalog().Baseline().Map(func(c grid.Cell) grid.Cell {
		c.Status = grid.StatusActive
		c.RiskScore = 70
		return c
	})
}

func TestScenarioResetRestoresBaseline(t *testing.T) {
	o := fallbackOrchestrator()

	out := o.Process(context.Background(), "Reset map", dirty())
	assert.Equal(t, types.KindCommand, out.Classification.Kind())
	assert.Equal(t, []string{types.ActionResetGrid}, types.ActionPlanOf(out.Classification))
	assert.True(t, out.Grid.Equal(grid.DefaultCatalog().Baseline()))
	assert.Empty(t, out.Match)
}

func TestScenarioActivateMumbai(t *testing.T) {
	o := New(fixed{types.Command{
		Message:  "Command executed. Mumbai grid activated.",
		Location: &types.LocationHint{Region: "Maharashtra", SubRegion: "Mumbai"},
	}}, nil, nil)
	prev := grid.DefaultCatalog().Baseline()

	out := o.Process(context.Background(), "Activate grid for Mumbai", prev)
	assert.Equal(t, []string{"MH-01"}, []string(out.Match))

	cell, ok := out.Grid.Lookup("MH-01")
	require.True(t, ok)
	assert.Equal(t, grid.StatusActive, cell.Status)
	assert.Equal(t, 50, cell.RiskScore)

	changed := out.Changed(prev)
	require.Len(t, changed, 1)
	assert.Equal(t, "MH-01", changed[0].ID)
}

func TestScenarioActivateMumbaiFallback(t *testing.T) {
	out := fallbackOrchestrator().Process(context.Background(), "Activate grid for Mumbai", grid.DefaultCatalog().Baseline())
	cell, _ := out.Grid.Lookup("MH-01")
	assert.Equal(t, grid.StatusActive, cell.Status)
	assert.Equal(t, 50, cell.RiskScore)
}

func TestCommandCarriesThreatAssessment(t *testing.T) {
	c, err := types.Decode([]byte(`{"interaction_type":"COMMAND","human_message":"New Delhi marked critical.",` +
		`"location":{"state":"Delhi","district":"New Delhi"},` +
		`"threat_level":"CRITICAL","analysis":{"threat_score_calculated":90}}`))
	require.NoError(t, err)

	out := New(fixed{c}, nil, nil).Process(context.Background(), "mark new delhi critical", grid.DefaultCatalog().Baseline())
	assert.Equal(t, []string{"DL-01"}, []string(out.Match))

	cell, ok := out.Grid.Lookup("DL-01")
	require.True(t, ok)
	assert.Equal(t, grid.StatusCritical, cell.Status)
	assert.Equal(t, 90, cell.RiskScore)
}

func TestScenarioFallbackEmergency(t *testing.T) {
	out := fallbackOrchestrator().Process(context.Background(), "There is a fire, help!", grid.DefaultCatalog().Baseline())

	assert.Equal(t, types.KindEmergency, out.Classification.Kind())
	assert.Equal(t, types.ThreatHigh, types.ThreatLevelOf(out.Classification))
	assert.Equal(t, []string{"MH-01"}, []string(out.Match))

	cell, _ := out.Grid.Lookup("MH-01")
	assert.Equal(t, grid.StatusCritical, cell.Status)
	assert.Equal(t, 85, cell.RiskScore)
}

func TestScenarioCasualLeavesGrid(t *testing.T) {
	prev := dirty()
	out := fallbackOrchestrator().Process(context.Background(), "hello", prev)

	assert.Equal(t, types.KindCasual, out.Classification.Kind())
	assert.Empty(t, out.Match)
	if diff := cmp.Diff(prev.Cells(), out.Grid.Cells()); diff != "" {
		t.Errorf("grid changed (-want +got):\n%s", diff)
	}
}

func TestScenarioUnknownLocation(t *testing.T) {
	unknown := &types.LocationHint{Region: "Maharashtra", SubRegion: types.UnknownLocation}
	prev := grid.DefaultCatalog().Baseline()

	for _, c := range []types.Classification{
		types.Command{Message: "ok", Location: unknown},
		types.Emergency{Message: "stay calm", Location: unknown, ThreatLevel: types.ThreatCritical},
	} {
		out := New(fixed{c}, nil, nil).Process(context.Background(), "x", prev)
		assert.Empty(t, out.Match, c.Kind())
		assert.True(t, out.Grid.Equal(prev), c.Kind())
	}
}

func TestRegionFallbackOnlyForCommands(t *testing.T) {
	state := &types.LocationHint{Region: "Maharashtra", SubRegion: "Maharashtra"}
	prev := grid.DefaultCatalog().Baseline()

	cmd := New(fixed{types.Command{Message: "ok", Location: state}}, nil, nil).Process(context.Background(), "x", prev)
	assert.Equal(t, []string{"MH-01", "MH-02", "MH-03", "MH-04"}, []string(cmd.Match))

	em := New(fixed{types.Emergency{Message: "ok", Location: state, ThreatLevel: types.ThreatLow}}, nil, nil).Process(context.Background(), "x", prev)
	assert.Empty(t, em.Match)
	assert.True(t, em.Grid.Equal(prev))
}

func TestProcessDoesNotMutatePrevious(t *testing.T) {
	prev := grid.DefaultCatalog().Baseline()
	before := prev.Cells()

	fallbackOrchestrator().Process(context.Background(), "fire", prev)
	assert.Equal(t, before, prev.Cells())
}

func TestProcessWithCustomCatalog(t *testing.T) {
	catalog, err := grid.LoadCatalog(strings.NewReader(`cells:
  - {id: A-1, state: Alpha, district: Mumbai, x: 0, y: 0, population: 10, risk_score: 5}
  - {id: B-1, state: Beta, district: Pune, x: 1, y: 0, population: 10, risk_score: 5}
`))
	require.NoError(t, err)

	o := New(perception.NewGateway(nil), catalog, nil)
	assert.Same(t, catalog, o.Catalog())

	out := o.Process(context.Background(), "help", catalog.Baseline())
	assert.Equal(t, []string{"A-1"}, []string(out.Match))

	reset := o.Process(context.Background(), "reset", out.Grid)
	assert.Equal(t, 2, reset.Grid.Len())
	assert.True(t, reset.Grid.Equal(catalog.Baseline()))
}

func TestEvaluateKeepsInputOrder(t *testing.T) {
	o := fallbackOrchestrator()
	prev := grid.DefaultCatalog().Baseline()
	inputs := []string{"hello", "fire", "Activate Mumbai", "reset", "help me"}

	outcomes, err := o.Evaluate(context.Background(), inputs, prev, 3)
	require.NoError(t, err)
	require.Len(t, outcomes, len(inputs))

	wantKinds := []types.Kind{types.KindCasual, types.KindEmergency, types.KindCommand, types.KindCommand, types.KindEmergency}
	for i, out := range outcomes {
		assert.Equal(t, inputs[i], out.Input)
		assert.Equal(t, wantKinds[i], out.Classification.Kind(), inputs[i])
	}

	// Each input starts from the same snapshot.
	mumbai, _ := outcomes[2].Grid.Lookup("MH-01")
	assert.Equal(t, grid.StatusActive, mumbai.Status)
	assert.Equal(t, 50, mumbai.RiskScore)
}

// slow blocks until released or cancelled and counts concurrent callers.
type slow struct {
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (s *slow) Classify(ctx context.Context, text string) types.Classification {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
	return types.Casual{Message: text}
}

func TestEvaluateRespectsParallelLimit(t *testing.T) {
	s := &slow{delay: 10 * time.Millisecond}
	o := New(s, nil, nil)

	inputs := make([]string, 12)
	for i := range inputs {
		inputs[i] = "ping"
	}
	_, err := o.Evaluate(context.Background(), inputs, grid.DefaultCatalog().Baseline(), 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, s.peak.Load(), int32(2))
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&slow{delay: time.Second}, nil, nil).Evaluate(ctx, []string{"a", "b"}, grid.DefaultCatalog().Baseline(), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateEmpty(t *testing.T) {
	outcomes, err := fallbackOrchestrator().Evaluate(context.Background(), nil, grid.DefaultCatalog().Baseline(), 4)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestProcessLogsEachStage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	o := New(perception.NewGateway(nil), nil, zap.New(core))

	o.Process(context.Background(), "Activate grid for Mumbai", grid.DefaultCatalog().Baseline())

	resolved := logs.FilterLoggerName("resolver").FilterMessage("location resolved").All()
	require.Len(t, resolved, 1)
	assert.Equal(t, "Mumbai", resolved[0].ContextMap()["district"])

	reduced := logs.FilterLoggerName("reducer").FilterMessage("grid reduced").All()
	require.Len(t, reduced, 1)
	assert.Equal(t, "COMMAND", reduced[0].ContextMap()["kind"])
}
