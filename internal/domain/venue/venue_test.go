package venue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 6, c.Len())

	d, ok := c.FindByID("conference-room-a")
	require.True(t, ok)
	assert.Equal(t, "Conference Room A", d.Name)
	assert.Equal(t, 20, d.Capacity)
	assert.Contains(t, d.Equipment, "Video Conferencing")
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("venues:\n  - id: roof\n    name: Roof\n    capacity: 40\n    category: Outdoor\n"))
	assert.Error(t, err)
}

func TestCatalog_AllSortedByName(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.All()
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}
}

func TestCatalog_ResolveByIDOrName(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	byID, ok := c.Resolve("training-room")
	require.True(t, ok)
	assert.Equal(t, "Training Room", byID.Name)

	byName, ok := c.Resolve("  main auditorium ")
	require.True(t, ok)
	assert.Equal(t, "main-auditorium", byName.ID)

	_, ok = c.Resolve("Rooftop Garden")
	assert.False(t, ok)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	d, _ := c.FindByID("meeting-pod-1")
	d.Equipment[0] = "Typewriter"

	again, _ := c.FindByID("meeting-pod-1")
	assert.NotEqual(t, "Typewriter", again.Equipment[0])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate id", "venues:\n  - {id: a, name: A, capacity: 1}\n  - {id: a, name: B, capacity: 1}\n"},
		{"duplicate name", "venues:\n  - {id: a, name: Hall, capacity: 1}\n  - {id: b, name: hall, capacity: 1}\n"},
		{"missing name", "venues:\n  - {id: a, capacity: 1}\n"},
		{"zero capacity", "venues:\n  - {id: a, name: A, capacity: 0}\n"},
		{"unknown field", "venues:\n  - {id: a, name: A, capacity: 1, colour: red}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.yaml")
	require.NoError(t, os.WriteFile(path, []byte("venues:\n  - {id: lab, name: Lab, capacity: 12}\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	d, ok := c.FindByID("lab")
	require.True(t, ok)
	assert.Empty(t, d.Equipment)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
