package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/xtalmesh/geometry"
	"github.com/notargets/xtalmesh/mesh"
)

func unitCube(n int) (*mesh.VolumeMesh, geometry.Box) {
	msh := mesh.BoxMesh(n, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	return msh, geometry.BoundingBox(msh.Points())
}

func contains(ids []int, n int) bool {
	for _, id := range ids {
		if id == n {
			return true
		}
	}
	return false
}

func TestBoundaryNodeSetsUnitCube(t *testing.T) {
	msh, extents := unitCube(2)
	faceSets, err := BoundaryNodeSets(msh, extents, 0.01)
	require.NoError(t, err)

	for n, p := range msh.Nodes {
		onXMin := contains(faceSets[XMin], n)
		onXMax := contains(faceSets[XMax], n)
		if p[0] == 0 {
			assert.True(t, onXMin, "node %d at x=0 must be in -x", n)
			assert.False(t, onXMax, "node %d at x=0 must not be in +x", n)
		}
		if p[0] == 0.5 {
			assert.False(t, onXMin || onXMax)
		}
	}

	// Corner nodes are on exactly three faces, the center node on none
	corner := 0
	center := 1 + 3*(1+3*1)
	var nCorner, nCenter int
	for f := range faceSets {
		if contains(faceSets[f], corner) {
			nCorner++
		}
		if contains(faceSets[f], center) {
			nCenter++
		}
		assert.Len(t, faceSets[f], 9, "face %s", BoundaryFace(f))
		assert.IsIncreasing(t, faceSets[f])
	}
	assert.Equal(t, 3, nCorner)
	assert.Equal(t, 0, nCenter)
}

func TestBoundaryNodeSetsStrictEnvelope(t *testing.T) {
	msh, extents := unitCube(2)
	// With a zero envelope the comparisons are strict, nodes on the faces are excluded
	faceSets, err := BoundaryNodeSets(msh, extents, 0)
	require.NoError(t, err)
	for f := range faceSets {
		assert.Empty(t, faceSets[f])
	}

	// Extents from a larger domain leave the mesh outside every envelope
	extents.Min.X, extents.Max.X = -1, 2
	faceSets, err = BoundaryNodeSets(msh, extents, 0.01)
	require.NoError(t, err)
	assert.Empty(t, faceSets[XMin])
	assert.Empty(t, faceSets[XMax])
	assert.Len(t, faceSets[YMin], 9)
}

func TestElementSets(t *testing.T) {
	elsets, field := ElementSets([]int{2, 1, 2, 0, 11})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, elsets[AllElements])
	assert.Equal(t, []int{1}, elsets["GRAIN_0001"])
	assert.Equal(t, []int{0, 2}, elsets["GRAIN_0002"])
	assert.Equal(t, []int{4}, elsets["GRAIN_0011"])
	assert.NotContains(t, elsets, "GRAIN_0000")
	assert.Equal(t, []float64{2, 1, 2, 0, 11}, field)
	assert.Equal(t, []string{AllElements, "GRAIN_0001", "GRAIN_0002", "GRAIN_0011"}, SortedNames(elsets))
}

func TestBuild(t *testing.T) {
	msh, extents := unitCube(1)
	labels := make([]int, msh.NumElements())
	for k := range labels {
		labels[k] = 1
	}
	s, err := Build(msh, labels, extents, 0.01)
	require.NoError(t, err)
	assert.Len(t, s.NodeSets, 7)
	assert.Len(t, s.NodeSets[AllNodes], 8)
	assert.Len(t, s.ElementSets["GRAIN_0001"], 6)
	for f := XMin; f <= ZMax; f++ {
		assert.Len(t, s.NodeSets[f.String()], 4)
	}

	_, err = Build(msh, labels[:2], extents, 0.01)
	assert.Error(t, err)
}

func TestBoundaryFace(t *testing.T) {
	dim, isMax := YMax.Axis()
	assert.Equal(t, 1, dim)
	assert.True(t, isMax)
	assert.Equal(t, "f_n-3", ZMin.String())
}
