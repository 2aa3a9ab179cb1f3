package geometry

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var unitBox = Box{Min: r3.Vec{}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox([]r3.Vec{{X: 1, Y: -2, Z: 3}, {X: -1, Y: 4, Z: 0}, {X: 0, Y: 0, Z: 5}})
	assert.Equal(t, r3.Vec{X: -1, Y: -2, Z: 0}, b.Min)
	assert.Equal(t, r3.Vec{X: 1, Y: 4, Z: 5}, b.Max)
	lo, hi := b.Axis(1)
	assert.Equal(t, -2., lo)
	assert.Equal(t, 4., hi)
	assert.InDelta(t, math.Sqrt(3), unitBox.Diagonal(), 1e-15)
	assert.Equal(t, Box{}, BoundingBox(nil))
}

func TestBoxSurface(t *testing.T) {
	tm := BoxSurface(unitBox)
	all := make([]int, len(tm.F))
	for i := range all {
		all[i] = i
		assert.False(t, tm.Degenerate(i))
	}
	assert.InDelta(t, 1.0, tm.SignedVolume(all), 1e-14)
	assert.Equal(t, unitBox, tm.Bounds())
}

func TestWindingNumber(t *testing.T) {
	tm := BoxSurface(unitBox)
	pts := []r3.Vec{
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: 0.1, Y: 0.9, Z: 0.2},
		{X: 1.5, Y: 0.5, Z: 0.5},
		{X: -3, Y: 2, Z: 7},
	}
	w, err := WindingNumber{Workers: 2}.Scores(context.Background(), tm, pts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w[0], 1e-10)
	assert.InDelta(t, 1.0, w[1], 1e-10)
	assert.InDelta(t, 0.0, w[2], 1e-10)
	assert.InDelta(t, 0.0, w[3], 1e-10)

	// Reversing the orientation flips the sign
	for i := range tm.F {
		tm.F[i][1], tm.F[i][2] = tm.F[i][2], tm.F[i][1]
	}
	assert.InDelta(t, -1.0, tm.WindingNumberAt(pts[0]), 1e-10)
}

func TestWindingNumberOpenSurface(t *testing.T) {
	// Removing the top face leaves a partial enclosure near the opening
	tm := BoxSurface(unitBox)
	tm.F = append(tm.F[:2], tm.F[4:]...)
	w := tm.WindingNumberAt(r3.Vec{X: 0.5, Y: 0.5, Z: 0.9})
	assert.True(t, w > 0.01 && w < 1, "got %v", w)
}

func TestWindingNumberCull(t *testing.T) {
	tm := BoxSurface(unitBox)
	pts := []r3.Vec{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 1, Y: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 1.2}}
	w, err := WindingNumber{Workers: 2, Cull: true}.Scores(context.Background(), tm, pts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w[0], 1e-10)
	assert.Equal(t, 0.0, w[2])

	// An open surface is not culled safely, the opening leaks outside the box
	tm.F = append(tm.F[:2], tm.F[4:]...)
	above := r3.Vec{X: 0.5, Y: 0.5, Z: 1.01}
	assert.True(t, tm.WindingNumberAt(above) > 0.01)
	w, err = WindingNumber{Cull: true}.Scores(context.Background(), tm, []r3.Vec{above})
	require.NoError(t, err)
	assert.Equal(t, 0.0, w[0])

	assert.True(t, unitBox.Contains(r3.Vec{X: 1, Y: 0, Z: 0.5}))
	assert.False(t, unitBox.Contains(r3.Vec{X: 1, Y: -1e-12, Z: 0.5}))
}

func TestWindingNumberCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WindingNumber{Workers: 1}.Scores(ctx, BoxSurface(unitBox), make([]r3.Vec, 10))
	assert.Error(t, err)
}

func TestSubMesh(t *testing.T) {
	tm := BoxSurface(unitBox)
	sub := tm.SubMesh([]int{10, 11})
	assert.Len(t, sub.V, 4)
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, sub.F)
	assert.Equal(t, tm.V[1], sub.V[0])
	assert.Equal(t, tm.V[5], sub.V[3])
}
