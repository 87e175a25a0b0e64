package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"deco-planner/pkg/scuba"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLevels(t *testing.T) {
	content := `
# wreck dive
40 20 18/45 1
21 3 ean50 2   # switch
6 2 oxygen
12 5
15 10 - 1
`
	levels, err := NewTXTFileReader(nil).ReadLevels(content)
	require.NoError(t, err)

	assert.Equal(t, []scuba.Level{
		{Depth: 40, Duration: 20, Gas: scuba.Trimix1845, TankID: 1},
		{Depth: 21, Duration: 3, Gas: scuba.EAN50, TankID: 2},
		{Depth: 6, Duration: 2, Gas: scuba.Oxygen},
		{Depth: 12, Duration: 5},
		{Depth: 15, Duration: 10, TankID: 1},
	}, levels)
}

func TestReadLevelsSkipsZeroDuration(t *testing.T) {
	levels, err := NewTXTFileReader(nil).ReadLevels("30 0\n30 12 air")
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, scuba.Air, levels[0].Gas)
}

func TestReadLevelsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"comments only", "# nothing\n\n"},
		{"one field", "30"},
		{"too many fields", "30 10 air 1 2"},
		{"bad depth", "deep 10"},
		{"negative duration", "30 -1"},
		{"bad gas", "30 10 ean150"},
		{"bad tank", "30 10 air zero"},
	}

	reader := NewTXTFileReader(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reader.ReadLevels(tt.content)
			assert.Error(t, err)
		})
	}
}

func TestReadLevelsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.txt")
	require.NoError(t, os.WriteFile(path, []byte("30 12 air 1\n"), 0o600))

	levels, err := NewTXTFileReader(nil).ReadLevelsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []scuba.Level{{Depth: 30, Duration: 12, Gas: scuba.Air, TankID: 1}}, levels)

	_, err = NewTXTFileReader(nil).ReadLevelsFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
