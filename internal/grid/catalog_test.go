package grid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	require.NotNil(t, cat)
	assert.Equal(t, 31, cat.Len())

	mumbai, ok := cat.Lookup("MH-01")
	require.True(t, ok)
	assert.Equal(t, "Maharashtra", mumbai.Region)
	assert.Equal(t, "Mumbai", mumbai.SubRegion)
	assert.Equal(t, 30, mumbai.RiskScore)
	assert.Equal(t, int64(12500000), mumbai.Population)

	jk, ok := cat.Lookup("JK-01")
	require.True(t, ok)
	assert.Equal(t, "Jammu & Kashmir", jk.Region)

	_, ok = cat.Lookup("XX-99")
	assert.False(t, ok)
}

func TestDefaultCatalogIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range DefaultCatalog().All() {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestBaselineAllIdle(t *testing.T) {
	cat := DefaultCatalog()
	base := cat.Baseline()
	require.Equal(t, cat.Len(), base.Len())

	ref := cat.All()
	for i := 0; i < base.Len(); i++ {
		c := base.At(i)
		assert.Equal(t, StatusIdle, c.Status, c.ID)
		assert.Equal(t, ref[i].RiskScore, c.RiskScore, c.ID)
		assert.Equal(t, ref[i].ID, c.ID)
	}
}

func TestBaselineIsFreshValue(t *testing.T) {
	cat := DefaultCatalog()
	a := cat.Baseline()
	cells := a.Cells()
	cells[0].Status = StatusCritical

	assert.Equal(t, StatusIdle, a.At(0).Status)
	assert.True(t, a.Equal(cat.Baseline()))
}

func TestAllReturnsCopy(t *testing.T) {
	cat := DefaultCatalog()
	all := cat.All()
	all[0].RiskScore = 99

	first, _ := cat.Lookup(all[0].ID)
	assert.NotEqual(t, 99, first.RiskScore)
}

func TestLoadCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty document", ""},
		{"no cells", "cells: []"},
		{"missing id", "cells:\n  - {state: A, district: B, risk_score: 1}"},
		{"missing district", "cells:\n  - {id: A-1, state: A, risk_score: 1}"},
		{"risk out of range", "cells:\n  - {id: A-1, state: A, district: B, risk_score: 101}"},
		{"negative population", "cells:\n  - {id: A-1, state: A, district: B, population: -1}"},
		{"unknown status", "cells:\n  - {id: A-1, state: A, district: B, status: burning}"},
		{"duplicate id", "cells:\n  - {id: A-1, state: A, district: B}\n  - {id: A-1, state: A, district: C}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadCatalogRejectsUnknownFields(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("cells:\n  - {id: A-1, state: A, district: B, colour: red}"))
	require.Error(t, err)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "cells:\n  - {id: Z-1, state: Zed, district: Zulu, x: 1, y: 2, status: hazard, population: 10, risk_score: 40}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cat, err := LoadCatalogFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	cell, ok := cat.Lookup("Z-1")
	require.True(t, ok)
	assert.Equal(t, StatusHazard, cell.Status)
	assert.Equal(t, StatusIdle, cat.Baseline().At(0).Status)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSnapshotAccessors(t *testing.T) {
	snap := NewSnapshot([]Cell{
		{ID: "a", Region: "R", SubRegion: "A", Status: StatusIdle},
		{ID: "b", Region: "R", SubRegion: "B", Status: StatusActive},
	})

	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, 1, snap.Index("b"))
	assert.Equal(t, -1, snap.Index("c"))

	b, ok := snap.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, StatusActive, b.Status)

	mapped := snap.Map(func(c Cell) Cell {
		c.RiskScore = 7
		return c
	})
	assert.Equal(t, 0, snap.At(0).RiskScore)
	assert.Equal(t, 7, mapped.At(0).RiskScore)
	assert.False(t, snap.Equal(mapped))

	var empty Snapshot
	assert.Equal(t, 0, empty.Len())
	assert.True(t, empty.Equal(NewSnapshot(nil)))
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusIdle, StatusActive, StatusCritical, StatusHazard} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("IDLE").Valid())
}
