package grid

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when reference data fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the read-only reference set of cells loaded at startup.
type Catalog struct {
	cells []Cell
}

type catalogFile struct {
	Cells []Cell `yaml:"cells"`
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the built-in catalog of Indian districts.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
		if err != nil {
			panic(fmt.Sprintf("grid: embedded catalog is corrupt: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalogFile reads a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog parses and validates a YAML catalog.
// Cells without an explicit status start idle.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var cf catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no cells", ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(cf.Cells) == 0 {
		return nil, fmt.Errorf("%w: no cells", ErrInvalidCatalog)
	}

	seen := make(map[string]struct{}, len(cf.Cells))
	for i := range cf.Cells {
		c := &cf.Cells[i]
		if c.Status == "" {
			c.Status = StatusIdle
		}
		if err := validateCell(*c); err != nil {
			return nil, fmt.Errorf("%w: cell %d: %v", ErrInvalidCatalog, i, err)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate cell id %q", ErrInvalidCatalog, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	return &Catalog{cells: cf.Cells}, nil
}

func validateCell(c Cell) error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(c.Region) == "":
		return fmt.Errorf("%s: missing state", c.ID)
	case strings.TrimSpace(c.SubRegion) == "":
		return fmt.Errorf("%s: missing district", c.ID)
	case !c.Status.Valid():
		return fmt.Errorf("%s: unknown status %q", c.ID, c.Status)
	case c.RiskScore < 0 || c.RiskScore > 100:
		return fmt.Errorf("%s: risk score %d out of range", c.ID, c.RiskScore)
	case c.Population < 0:
		return fmt.Errorf("%s: negative population", c.ID)
	}
	return nil
}

// Baseline returns the canonical starting state: every cell idle with its
// reference risk score.
func (c *Catalog) Baseline() Snapshot {
	out := make([]Cell, len(c.cells))
	for i, cell := range c.cells {
		cell.Status = StatusIdle
		out[i] = cell
	}
	return wrap(out)
}

// All returns the reference cells in catalog order.
func (c *Catalog) All() []Cell {
	out := make([]Cell, len(c.cells))
	copy(out, c.cells)
	return out
}

// Lookup finds a reference cell by id.
func (c *Catalog) Lookup(id string) (Cell, bool) {
	for _, cell := range c.cells {
		if cell.ID == id {
			return cell, true
		}
	}
	return Cell{}, false
}

// Len returns the number of cells in the catalog.
func (c *Catalog) Len() int {
	return len(c.cells)
}
