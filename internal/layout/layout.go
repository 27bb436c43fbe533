// Package layout maps theatre rows to price bands and seat counts.  A
// layout is loaded once at startup and is read-only afterwards, so lookups
// need no locking.
package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

//go:embed theatre.yaml
var defaultLayout []byte

var ErrInvalidLayout = errors.New("invalid venue layout")

type rowSpec struct {
	Row   string `yaml:"row"`
	Seats int    `yaml:"seats"`
	Band  string `yaml:"band"`
}

type fileSpec struct {
	Name string    `yaml:"name"`
	Rows []rowSpec `yaml:"rows"`
}

// Index is the PriceBandIndex of one venue.
type Index struct {
	name       string
	rows       []string
	bandOfRow  map[string]model.PriceBand
	seatsInRow map[string]int
	rowsOfBand map[model.PriceBand][]string
	bands      []model.PriceBand
}

// Default returns the index of the embedded theatre.
func Default() (*Index, error) {
	return Parse(defaultLayout)
}

// Load reads a layout from path, or the embedded theatre when path is empty.
func Load(path string) (*Index, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Index, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Parse(b)
}

// Parse validates a YAML layout and builds its index.  Rows keep the order
// they are listed in; that order is the allocation order inside a band.
func Parse(b []byte) (*Index, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if len(spec.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidLayout)
	}

	idx := &Index{
		name:       spec.Name,
		bandOfRow:  make(map[string]model.PriceBand, len(spec.Rows)),
		seatsInRow: make(map[string]int, len(spec.Rows)),
		rowsOfBand: make(map[model.PriceBand][]string),
	}
	for i, r := range spec.Rows {
		if r.Row == "" {
			return nil, fmt.Errorf("%w: row %d has no label", ErrInvalidLayout, i)
		}
		if _, dup := idx.bandOfRow[r.Row]; dup {
			return nil, fmt.Errorf("%w: duplicate row %q", ErrInvalidLayout, r.Row)
		}
		if r.Seats <= 0 {
			return nil, fmt.Errorf("%w: row %q has %d seats", ErrInvalidLayout, r.Row, r.Seats)
		}
		band, ok := model.ParsePriceBand(r.Band)
		if !ok {
			return nil, fmt.Errorf("%w: row %q has unknown band %q", ErrInvalidLayout, r.Row, r.Band)
		}
		idx.rows = append(idx.rows, r.Row)
		idx.bandOfRow[r.Row] = band
		idx.seatsInRow[r.Row] = r.Seats
		if _, seen := idx.rowsOfBand[band]; !seen {
			idx.bands = append(idx.bands, band)
		}
		idx.rowsOfBand[band] = append(idx.rowsOfBand[band], r.Row)
	}
	return idx, nil
}

func (x *Index) Name() string { return x.name }

func (x *Index) BandForRow(row string) (model.PriceBand, bool) {
	b, ok := x.bandOfRow[row]
	return b, ok
}

// RowsForBand returns the rows of band in allocation order.  The result is
// a copy.
func (x *Index) RowsForBand(band model.PriceBand) []string {
	return append([]string(nil), x.rowsOfBand[band]...)
}

// SeatsInRow returns 0 for unknown rows.
func (x *Index) SeatsInRow(row string) int { return x.seatsInRow[row] }

func (x *Index) SeatsInBand(band model.PriceBand) int {
	n := 0
	for _, r := range x.rowsOfBand[band] {
		n += x.seatsInRow[r]
	}
	return n
}

// HasBand reports whether at least one row belongs to band.
func (x *Index) HasBand(band model.PriceBand) bool {
	_, ok := x.rowsOfBand[band]
	return ok
}

func (x *Index) Bands() []model.PriceBand { return append([]model.PriceBand(nil), x.bands...) }

func (x *Index) Rows() []string { return append([]string(nil), x.rows...) }

// Capacity is the total number of seats in the venue.
func (x *Index) Capacity() int {
	n := 0
	for _, c := range x.seatsInRow {
		n += c
	}
	return n
}
