package smooth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// grid returns a flat 3x3 node patch at z=0 with node (i,j) at index i+3j,
// every cell split along its (i,j)-(i+1,j+1) diagonal.
func grid() (*mat.Dense, [][3]int) {
	V := mat.NewDense(9, 3, nil)
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			V.SetRow(i+3*j, []float64{float64(i), float64(j), 0})
		}
	}
	var F [][3]int
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			a, b, c, d := i+3*j, i+1+3*j, i+1+3*(j+1), i+3*(j+1)
			F = append(F, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return V, F
}

const center = 4

func newSurface(types []int) *Surface {
	V, F := grid()
	V.SetRow(center, []float64{1.3, 0.8, 0})
	return &Surface{V: V, F: F, NodeTypes: types, Constraints: GeometricConstraints(V)}
}

func TestNodeWeights(t *testing.T) {
	fc := DefaultFeatureCodes()
	types := []int{13, 14, 3, 4, 2, 12, 0}
	assert.Equal(t, []float64{1, 2, 0, 0, 0, 0, 0}, fc.NodeWeights(ExtTriple, types))
	assert.Equal(t, []float64{0, 0, 1, 2, 0, 0, 0}, fc.NodeWeights(IntTriple, types))
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1, 1}, fc.NodeWeights(Bound, types))
	assert.True(t, fc.IsPinned(12))
	assert.False(t, fc.IsPinned(13))
}

func TestFeatureMode(t *testing.T) {
	for _, m := range DefaultStages {
		parsed, err := NewFeatureMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := NewFeatureMode("corner")
	assert.Error(t, err)
}

func TestLaplacian(t *testing.T) {
	// Two triangles sharing edge 1-2, node 4 isolated, a degenerate face adds nothing
	F := [][3]int{{0, 1, 2}, {1, 3, 2}, {3, 3, 3}}
	w := []float64{1, 1, 1, 2, 1}
	L := NewFeatureGraph(5, F, w).Laplacian()
	r, c := L.Dims()
	require.Equal(t, 5, r)
	require.Equal(t, 5, c)
	expected := [][]float64{
		{2, -1, -1, 0, 0},
		{-1, 5, -2, -2, 0},
		{-1, -2, 5, -2, 0},
		{0, -2, -2, 4, 0},
		{0, 0, 0, 0, 0},
	}
	for i := range expected {
		var sum float64
		for j := range expected[i] {
			assert.InDelta(t, expected[i][j], L.At(i, j), 1e-15, "L[%d,%d]", i, j)
			sum += L.At(i, j)
		}
		assert.InDelta(t, 0, sum, 1e-15)
	}
	assert.Equal(t, []float64{0.25, 0.1, 0.1, 0.125, 1}, RowNorm(L))
}

func TestMulCSR(t *testing.T) {
	V, F := grid()
	V.Set(center, 2, 0.5)
	L := NewFeatureGraph(9, F, DefaultFeatureCodes().NodeWeights(Bound, make([]int, 9))).Laplacian()
	dense := mat.NewDense(9, 9, nil)
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			dense.Set(i, j, L.At(i, j))
		}
	}
	var expected mat.Dense
	expected.Mul(dense, V)

	// Stale values in dst are overwritten
	got := mat.NewDense(9, 3, nil)
	for i := 0; i < 9; i++ {
		got.SetRow(i, []float64{7, 7, 7})
	}
	MulCSR(got, L, V)
	assert.True(t, mat.EqualApprox(&expected, got, 1e-14))
	// Six center edges, each shared by two faces
	assert.InDelta(t, 12*0.5, got.At(center, 2), 1e-14)
}

func TestGeometricConstraints(t *testing.T) {
	V, _ := grid()
	V.SetRow(center, []float64{1.3, 0.8, 0})
	C := GeometricConstraints(V)
	assert.Equal(t, []float64{0, 0, 0}, mat.Row(nil, 0, C))
	assert.Equal(t, []float64{0, 1, 0}, mat.Row(nil, 3, C))
	assert.Equal(t, []float64{1, 1, 0}, mat.Row(nil, center, C))
}

func TestBoundConvergesOnFlatPatch(t *testing.T) {
	types := []int{2, 2, 2, 12, 0, 12, 2, 2, 2}
	s := newSurface(types)
	orig, _ := grid()
	sm := NewSmoother(100, 0.5, nil)
	require.NoError(t, sm.Stage(s, Bound))
	for n := 0; n < 9; n++ {
		for d := 0; d < 3; d++ {
			if n == center {
				assert.InDelta(t, orig.At(n, d), s.V.At(n, d), 1e-9)
				continue
			}
			// Pinned
			assert.Equal(t, orig.At(n, d), s.V.At(n, d))
		}
	}
}

func TestBoundKeepsDomainFaces(t *testing.T) {
	s := newSurface(make([]int, 9))
	sm := NewSmoother(20, 0.5, nil)
	require.NoError(t, sm.Stage(s, Bound))
	for _, n := range []int{1, 3, 5, 7} {
		p := mat.Row(nil, n, s.V)
		onFace := p[0] == 0 || p[0] == 2 || p[1] == 0 || p[1] == 2
		assert.True(t, onFace, "node %d left the domain face: %v", n, p)
		assert.Equal(t, 0., p[2])
	}
	for _, n := range []int{0, 2, 6, 8} {
		orig, _ := grid()
		assert.Equal(t, mat.Row(nil, n, orig), mat.Row(nil, n, s.V))
	}
}

func TestTripleStagesIgnoreOtherNodes(t *testing.T) {
	s := newSurface(make([]int, 9))
	before := mat.DenseCopyOf(s.V)
	sm := NewSmoother(10, 0.5, nil)
	require.NoError(t, sm.Run(s, []FeatureMode{ExtTriple, IntTriple}))
	assert.True(t, mat.Equal(before, s.V))
}

func TestStageOrder(t *testing.T) {
	// Exterior triple line through the center, interior triple line on the x=0 side
	types := []int{2, 13, 2, 3, 13, 2, 3, 3, 2}
	run := func(stages ...FeatureMode) *mat.Dense {
		s := newSurface(types)
		require.NoError(t, NewSmoother(3, 0.5, nil).Run(s, stages))
		return s.V
	}
	canonical := run(DefaultStages...)
	assert.False(t, mat.EqualApprox(canonical, run(Bound, IntTriple, ExtTriple), 1e-12))

	// The triple line stages act on disjoint node sets
	assert.True(t, mat.Equal(run(ExtTriple, IntTriple), run(IntTriple, ExtTriple)))
}

func TestStageRejectsMismatchedInput(t *testing.T) {
	s := newSurface(make([]int, 8))
	assert.Error(t, NewSmoother(1, 0.5, nil).Stage(s, Bound))

	s = newSurface(make([]int, 9))
	s.F = append(s.F, [3]int{0, 1, 9})
	assert.Error(t, NewSmoother(1, 0.5, nil).Stage(s, Bound))
}
