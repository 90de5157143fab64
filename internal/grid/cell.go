// Package grid holds the monitored-region reference data and the immutable
// snapshots the engine produces from it.
package grid

// Status is the operational state of a single cell.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusActive   Status = "active"
	StatusCritical Status = "critical"
	StatusHazard   Status = "hazard"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusActive, StatusCritical, StatusHazard:
		return true
	}
	return false
}

// Cell is one monitored geographic unit. Cells are values: every change
// produces a new Cell inside a new Snapshot.
type Cell struct {
	ID         string `yaml:"id" json:"id"`
	Region     string `yaml:"state" json:"state"`
	SubRegion  string `yaml:"district" json:"district"`
	X          int    `yaml:"x" json:"x"`
	Y          int    `yaml:"y" json:"y"`
	Status     Status `yaml:"status,omitempty" json:"status"`
	Population int64  `yaml:"population" json:"population"`
	RiskScore  int    `yaml:"risk_score" json:"risk_score"`
}

// Snapshot is the full state of every cell at one point in time.
// The zero value is an empty grid.
type Snapshot struct {
	cells []Cell
}

// NewSnapshot copies cells into a new snapshot.
func NewSnapshot(cells []Cell) Snapshot {
	out := make([]Cell, len(cells))
	copy(out, cells)
	return Snapshot{cells: out}
}

// wrap adopts cells without copying. Callers must not touch the slice afterwards.
func wrap(cells []Cell) Snapshot {
	return Snapshot{cells: cells}
}

// Len returns the number of cells.
func (s Snapshot) Len() int {
	return len(s.cells)
}

// At returns the cell at index i.
func (s Snapshot) At(i int) Cell {
	return s.cells[i]
}

// Cells returns a copy of the cells in order.
func (s Snapshot) Cells() []Cell {
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Index returns the position of the cell with the given id, or -1.
func (s Snapshot) Index(id string) int {
	for i := range s.cells {
		if s.cells[i].ID == id {
			return i
		}
	}
	return -1
}

// Lookup returns the cell with the given id.
func (s Snapshot) Lookup(id string) (Cell, bool) {
	if i := s.Index(id); i >= 0 {
		return s.cells[i], true
	}
	return Cell{}, false
}

// Equal reports whether both snapshots hold the same cells in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.cells) != len(other.cells) {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Map returns a new snapshot where each cell is replaced by fn(cell).
// The receiver is left untouched.
func (s Snapshot) Map(fn func(Cell) Cell) Snapshot {
	out := make([]Cell, len(s.cells))
	for i, c := range s.cells {
		out[i] = fn(c)
	}
	return wrap(out)
}
