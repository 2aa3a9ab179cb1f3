package geometry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// TriMesh is an indexed triangle surface
type TriMesh struct {
	V []r3.Vec
	F [][3]int
}

// Box is an axis aligned bounding box
type Box struct {
	Min, Max r3.Vec
}

// BoundingBox returns the extents of a point set
func BoundingBox(pts []r3.Vec) Box {
	if len(pts) == 0 {
		return Box{}
	}
	var (
		x = make([]float64, len(pts))
		y = make([]float64, len(pts))
		z = make([]float64, len(pts))
	)
	for i, p := range pts {
		x[i], y[i], z[i] = p.X, p.Y, p.Z
	}
	return Box{
		Min: r3.Vec{X: floats.Min(x), Y: floats.Min(y), Z: floats.Min(z)},
		Max: r3.Vec{X: floats.Max(x), Y: floats.Max(y), Z: floats.Max(z)},
	}
}

// Diagonal is the length of the box diagonal
func (b Box) Diagonal() float64 {
	return r3.Norm(r3.Sub(b.Max, b.Min))
}

// Contains reports whether p lies in the closed box
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Axis returns the (min, max) extents along axis 0, 1 or 2
func (b Box) Axis(dim int) (lo, hi float64) {
	return Component(b.Min, dim), Component(b.Max, dim)
}

// Component returns coordinate dim of v
func Component(v r3.Vec, dim int) float64 {
	switch dim {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Bounds returns the bounding box of the mesh vertices
func (tm *TriMesh) Bounds() Box {
	return BoundingBox(tm.V)
}

// Normal returns the non-normalized normal of face f (twice its area)
func (tm *TriMesh) Normal(f int) r3.Vec {
	a, b, c := tm.V[tm.F[f][0]], tm.V[tm.F[f][1]], tm.V[tm.F[f][2]]
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

// SignedVolume is the volume enclosed by the faces, positive for outward
// oriented closed surfaces.
func (tm *TriMesh) SignedVolume(faces []int) float64 {
	var vol float64
	for _, f := range faces {
		a, b, c := tm.V[tm.F[f][0]], tm.V[tm.F[f][1]], tm.V[tm.F[f][2]]
		vol += r3.Dot(a, r3.Cross(b, c))
	}
	return vol / 6
}

// SubMesh returns the faces listed in faces with their vertices renumbered
// compactly, in order of first use.
func (tm *TriMesh) SubMesh(faces []int) *TriMesh {
	var (
		newID = make(map[int]int)
		sub   = &TriMesh{F: make([][3]int, len(faces))}
	)
	for i, f := range faces {
		for j, v := range tm.F[f] {
			id, ok := newID[v]
			if !ok {
				id = len(sub.V)
				newID[v] = id
				sub.V = append(sub.V, tm.V[v])
			}
			sub.F[i][j] = id
		}
	}
	return sub
}

// Degenerate reports whether a face repeats a vertex or has zero area
func (tm *TriMesh) Degenerate(f int) bool {
	t := tm.F[f]
	if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
		return true
	}
	return r3.Norm(tm.Normal(f)) == 0
}

// BoxSurface returns the closed, outward oriented triangulation of a box
func BoxSurface(b Box) *TriMesh {
	tm := &TriMesh{V: make([]r3.Vec, 8)}
	for i := range tm.V {
		tm.V[i] = b.Min
		if i&1 != 0 {
			tm.V[i].X = b.Max.X
		}
		if i&2 != 0 {
			tm.V[i].Y = b.Max.Y
		}
		if i&4 != 0 {
			tm.V[i].Z = b.Max.Z
		}
	}
	tm.F = [][3]int{
		{0, 2, 3}, {0, 3, 1}, // -z
		{4, 5, 7}, {4, 7, 6}, // +z
		{0, 1, 5}, {0, 5, 4}, // -y
		{2, 6, 7}, {2, 7, 3}, // +y
		{0, 4, 6}, {0, 6, 2}, // -x
		{1, 3, 7}, {1, 7, 5}, // +x
	}
	return tm
}
