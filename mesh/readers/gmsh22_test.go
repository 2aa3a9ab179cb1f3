package readers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/xtalmesh/mesh"
)

func createTempMshFile(t *testing.T, content string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "test.msh")
	require.NoError(t, os.WriteFile(fname, []byte(content), 0644))
	return fname
}

// TestReadGmsh22TwoTets reads an ASCII file with boundary triangles and data sections
func TestReadGmsh22TwoTets(t *testing.T) {
	content := `$MeshFormat
2.2 0 8
$EndMeshFormat
$PhysicalNames
1
3 1 "Volume"
$EndPhysicalNames
$Nodes
5
10 0 0 0
20 1 0 0
30 0 1 0
40 0 0 1
50 1 1 1
$EndNodes
$Elements
3
1 2 2 0 1 10 20 30
2 4 2 1 1 10 20 30 40
3 4 2 1 1 20 40 30 50
$EndElements
$NodeData
1
"energy"
$EndNodeData
`
	msh, err := ReadGmsh22(createTempMshFile(t, content))
	require.NoError(t, err)

	assert.Equal(t, mesh.Tet, msh.Type)
	assert.Equal(t, 5, msh.NumNodes())
	require.Equal(t, 2, msh.NumElements(), "triangles are skipped")
	assert.Equal(t, []int{0, 1, 2, 3}, msh.Elements[0])
	assert.Equal(t, []int{1, 3, 2, 4}, msh.Elements[1])
	assert.Equal(t, [3]float64{1, 1, 1}, msh.Nodes[4])
}

// TestReadGmsh22Tet10 checks that the Gmsh mid-edge ordering is converted
func TestReadGmsh22Tet10(t *testing.T) {
	content := `$MeshFormat
2.2 0 8
$EndMeshFormat
$Nodes
10
1 0 0 0
2 1 0 0
3 0 1 0
4 0 0 1
5 0.5 0 0
6 0.5 0.5 0
7 0 0.5 0
8 0 0 0.5
9 0 0.5 0.5
10 0.5 0 0.5
$EndNodes
$Elements
1
1 11 2 0 0 1 2 3 4 5 6 7 8 9 10
$EndElements
`
	msh, err := ReadGmsh22(createTempMshFile(t, content))
	require.NoError(t, err)
	require.Equal(t, mesh.Tet10, msh.Type)
	// Our order ends with edges (1,3), (2,3)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 9, 8}, msh.Elements[0])
	assert.Equal(t, [3]float64{0.5, 0, 0.5}, msh.Nodes[msh.Elements[0][8]])
	assert.Equal(t, [3]float64{0, 0.5, 0.5}, msh.Nodes[msh.Elements[0][9]])
}

func TestGmsh22BinaryRoundTrip(t *testing.T) {
	orig := &mesh.VolumeMesh{
		Nodes: [][3]float64{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1},
		},
		Elements: [][]int{{0, 1, 2, 3}, {1, 3, 2, 4}},
		Type:     mesh.Tet,
	}
	fname := filepath.Join(t.TempDir(), "bin.msh")
	require.NoError(t, WriteGmsh22(fname, orig, []int{1, 2}, true))

	msh, err := ReadGmsh22(fname)
	require.NoError(t, err)
	assert.Equal(t, orig.Nodes, msh.Nodes)
	assert.Equal(t, orig.Elements, msh.Elements)

	// The ASCII writer produces the same mesh
	require.NoError(t, WriteGmsh22(fname, orig, nil, false))
	msh, err = ReadGmsh22(fname)
	require.NoError(t, err)
	assert.Equal(t, orig.Elements, msh.Elements)
}

func TestReadGmsh22Errors(t *testing.T) {
	_, err := ReadGmsh22(filepath.Join(t.TempDir(), "missing.msh"))
	assert.Error(t, err)

	_, err = ReadGmsh22(createTempMshFile(t, "$Nodes\n0\n$EndNodes\n"))
	assert.Error(t, err, "nodes before format")

	_, err = ReadGmsh22(createTempMshFile(t, "$MeshFormat\n4.1 0 8\n$EndMeshFormat\n"))
	assert.Error(t, err, "version 4 is not handled here")

	noTets := `$MeshFormat
2.2 0 8
$EndMeshFormat
$Nodes
3
1 0 0 0
2 1 0 0
3 0 1 0
$EndNodes
$Elements
1
1 2 2 0 1 1 2 3
$EndElements
`
	_, err = ReadGmsh22(createTempMshFile(t, noTets))
	assert.Error(t, err)

	badNode := `$MeshFormat
2.2 0 8
$EndMeshFormat
$Nodes
1
1 0 0 0
$EndNodes
$Elements
1
1 4 2 0 1 1 2 3 4
$EndElements
`
	_, err = ReadGmsh22(createTempMshFile(t, badNode))
	assert.Error(t, err)
}
