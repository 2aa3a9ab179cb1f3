package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/xtalmesh/geometry"
)

// writeOneGrain writes the boundary mesh of a single unit cube grain
func writeOneGrain(t *testing.T, dir string) {
	box := geometry.BoxSurface(geometry.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}})
	var nodes, tris strings.Builder
	nodes.WriteString("#\n#\n#\n8\nx y z\n")
	for _, v := range box.V {
		fmt.Fprintf(&nodes, "%g %g %g\n", v.X, v.Y, v.Z)
	}
	tris.WriteString("#\n#\n#\n#\n#\n#\n#\n12\nn1 n2 n3\n")
	for _, f := range box.F {
		fmt.Fprintf(&tris, "%d %d %d\n", f[0], f[1], f[2])
	}
	files := map[string]string{
		"nodes.txt":      nodes.String(),
		"triangles.txt":  tris.String(),
		"nodetype.txt":   "type\n" + strings.Repeat("12\n", 8),
		"facelabels.txt": "a b\n" + strings.Repeat("1 -1\n", 12),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func execute(args ...string) error {
	rootCmd.SetArgs(append(args, "--params="))
	return rootCmd.Execute()
}

func TestSmoothCommand(t *testing.T) {
	dir := t.TempDir()
	writeOneGrain(t, dir)
	require.NoError(t, execute("smooth", "3", "0.5", "--dir", dir, "--log-level", "warn"))
	_, err := os.Stat(filepath.Join(dir, "GrainSTLs", "1.stl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "Whole.stl"))
	assert.NoError(t, err)
}

func TestCommandArguments(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, execute("smooth", "three", "0.5", "--dir", dir))
	assert.Error(t, execute("smooth", "3", "--dir", dir))
	assert.Error(t, execute("mesh", "0.05", "eps", "--dir", dir))
	assert.Error(t, execute("mesh", "0.05", "0.01", "--dir", dir, "--log-level", "loud"))
	// No Whole.stl in dir
	assert.Error(t, execute("mesh", "0.05", "0.01", "--dir", dir, "--log-level", "error"))
}

func TestParametersFile(t *testing.T) {
	dir := t.TempDir()
	writeOneGrain(t, dir)
	params := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(params, []byte("Stages: [bound, corners]\n"), 0644))
	rootCmd.SetArgs([]string{"smooth", "3", "0.5", "--dir", dir, "--params", params})
	assert.Error(t, rootCmd.Execute())

	require.NoError(t, os.WriteFile(params, []byte("GrainDir: surfaces\nStages: [bound]\n"), 0644))
	rootCmd.SetArgs([]string{"smooth", "3", "0.5", "--dir", dir, "--params", params})
	require.NoError(t, rootCmd.Execute())
	_, err := os.Stat(filepath.Join(dir, "surfaces", "1.stl"))
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)
	_, err = newLogger("chatty")
	assert.Error(t, err)
}
