package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

func TestDefaultTheatre(t *testing.T) {
	idx, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Main Theatre", idx.Name())
	assert.Len(t, idx.Rows(), 18)
	assert.Equal(t, []string{"A", "B", "C", "D"}, idx.RowsForBand(model.PriceBandC))
	assert.Equal(t, 82, idx.SeatsInBand(model.PriceBandC))
	assert.Equal(t, 202, idx.SeatsInBand(model.PriceBandA))
	assert.Equal(t, 153, idx.SeatsInBand(model.PriceBandB))
	assert.Equal(t, 437, idx.Capacity())

	band, ok := idx.BandForRow("M")
	assert.True(t, ok)
	assert.Equal(t, model.PriceBandB, band)

	_, ok = idx.BandForRow("Z")
	assert.False(t, ok)
	assert.Zero(t, idx.SeatsInRow("Z"))
}

func TestRowsForBandIsACopy(t *testing.T) {
	idx, err := Default()
	require.NoError(t, err)

	rows := idx.RowsForBand(model.PriceBandC)
	rows[0] = "mutated"
	assert.Equal(t, "A", idx.RowsForBand(model.PriceBandC)[0])
}

func TestParseRejectsInvalidLayouts(t *testing.T) {
	cases := map[string]string{
		"empty":        "name: x\nrows: []\n",
		"duplicate":    "rows:\n  - {row: A, seats: 2, band: A}\n  - {row: A, seats: 3, band: B}\n",
		"zero seats":   "rows:\n  - {row: A, seats: 0, band: A}\n",
		"unknown band": "rows:\n  - {row: A, seats: 2, band: Gold}\n",
		"no label":     "rows:\n  - {seats: 2, band: A}\n",
		"not yaml":     "rows: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venue.yaml")
	doc := "name: Tiny\nrows:\n  - {row: X, seats: 1, band: PriceBandA}\n  - {row: Y, seats: 2, band: c}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	idx, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []model.PriceBand{model.PriceBandA, model.PriceBandC}, idx.Bands())
	assert.False(t, idx.HasBand(model.PriceBandB))
	assert.Equal(t, 1, idx.SeatsInBand(model.PriceBandA))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	idx, err = Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Tiny", idx.Name())
}
