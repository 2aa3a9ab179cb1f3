package meshio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/xtalmesh/mesh"
	"github.com/notargets/xtalmesh/sets"
)

func singleTet10() *mesh.VolumeMesh {
	return &mesh.VolumeMesh{
		Nodes: [][3]float64{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
			{.5, 0, 0}, {.5, .5, 0}, {0, .5, 0}, {0, 0, .5}, {.5, 0, .5}, {0, .5, .5},
		},
		Elements: [][]int{{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		Type:     mesh.Tet10,
	}
}

func TestEncodeAbaqus(t *testing.T) {
	s := &sets.Sets{
		ElementSets: map[string][]int{sets.AllElements: {0}, "GRAIN_0004": {0}},
		NodeSets:    map[string][]int{sets.AllNodes: {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
	}
	msh := singleTet10()
	msh.Nodes = append(msh.Nodes, make([][3]float64, 7)...)
	var buf bytes.Buffer
	require.NoError(t, EncodeAbaqus(&buf, "test", msh, s))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "*Heading\n test\n*Node\n1, 0.0000000000000000e+00"))
	assert.Contains(t, out, QuadraticTetDeclaration+"\n1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10\n")
	assert.Contains(t, out, "*Elset,elset=GRAIN_0004\n1\n")
	// 16 ids per line
	assert.Contains(t, out, "*Nset,nset=ALLNODES\n1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,\n17\n")
	assert.True(t, strings.HasSuffix(out, abaqusTrailer+"\n"))
}

func TestWriteAbaqusAndPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "XtalMesh.inp")
	require.NoError(t, WriteAbaqus(path, "XtalMesh", singleTet10(), nil))
	require.NoError(t, PatchDeclaration(path, QuadraticTetDeclaration, SolverTetDeclaration))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "\n*Element, type=C3D10\n")
	assert.NotContains(t, out, "C3D10MH")
	assert.NotContains(t, out, abaqusTrailer)
	assert.True(t, strings.HasSuffix(out, "1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10\n"))

	// The declaration is gone now
	err = PatchDeclaration(path, QuadraticTetDeclaration, SolverTetDeclaration)
	assert.ErrorIs(t, err, ErrMalformedOutputFile)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestEncodeVTK(t *testing.T) {
	var buf bytes.Buffer
	field := map[string][]float64{sets.GrainField: {7}}
	require.NoError(t, EncodeVTK(&buf, "XtalMesh", singleTet10(), field))
	out := buf.String()
	assert.Contains(t, out, "POINTS 10 double\n")
	assert.Contains(t, out, "CELLS 1 11\n10 0 1 2 3 4 5 6 7 8 9\n")
	assert.Contains(t, out, "CELL_TYPES 1\n24\n")
	assert.Contains(t, out, "CELL_DATA 1\nSCALARS GrainIds double 1\nLOOKUP_TABLE default\n7.0000000000000000e+00\n")

	err := EncodeVTK(&buf, "XtalMesh", singleTet10(), map[string][]float64{"bad": {1, 2}})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "XtalMesh.vtk")
	require.NoError(t, WriteVTK(path, "XtalMesh", singleTet10(), nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "CELL_DATA")
}
