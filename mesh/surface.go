package mesh

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCorruptMesh is returned when a face is shared by more than two elements
var ErrCorruptMesh = errors.New("corrupt mesh")

// SurfaceTriangle holds the corner nodes of a face followed by its mid-edge
// nodes. Linear faces only use the first three entries.
type SurfaceTriangle []int

// TetFaces returns the four faces of a tetrahedron, oriented as the element
// produces them. Quadratic tets yield 6-node triangles whose mid-edge nodes
// follow the corner order.
func TetFaces(etype ElementType, c []int) [4]SurfaceTriangle {
	if etype == Tet10 {
		return [4]SurfaceTriangle{
			{c[0], c[2], c[1], c[4], c[5], c[6]}, // Face 0
			{c[0], c[1], c[3], c[4], c[7], c[8]}, // Face 1
			{c[0], c[3], c[2], c[6], c[7], c[9]}, // Face 2
			{c[1], c[2], c[3], c[5], c[8], c[9]}, // Face 3
		}
	}
	return [4]SurfaceTriangle{
		{c[0], c[2], c[1]}, // Face 0
		{c[0], c[1], c[3]}, // Face 1
		{c[0], c[3], c[2]}, // Face 2
		{c[1], c[2], c[3]}, // Face 3
	}
}

// faceKey is the canonical (sorted) node tuple of a face
type faceKey [6]int

func canonical(tri SurfaceTriangle) (key faceKey) {
	for i := range key {
		key[i] = -1
	}
	copy(key[:], tri)
	sort.Ints(key[:len(tri)])
	return
}

func (a faceKey) less(b faceKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// FaceCounts returns every face of the mesh in element order with the number
// of times its canonical form occurs in the whole mesh.
func (m *VolumeMesh) FaceCounts() (tris []SurfaceTriangle, counts []int) {
	var (
		nf    = 4 * len(m.Elements)
		keys  = make([]faceKey, nf)
		order = make([]int, nf)
	)
	tris = make([]SurfaceTriangle, nf)
	for k, elem := range m.Elements {
		for lf, tri := range TetFaces(m.Type, elem) {
			tris[4*k+lf] = tri
			keys[4*k+lf] = canonical(tri)
		}
	}
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return keys[order[i]].less(keys[order[j]])
	})

	// Runs of equal keys in sorted order are the same face
	counts = make([]int, nf)
	for start := 0; start < nf; {
		end := start + 1
		for end < nf && keys[order[end]] == keys[order[start]] {
			end++
		}
		for i := start; i < end; i++ {
			counts[order[i]] = end - start
		}
		start = end
	}
	return
}

// ExteriorTriangles returns the faces that belong to exactly one element, in
// element order and with the orientation of the owning element. A face shared
// by three or more elements means the mesh is not conforming.
func (m *VolumeMesh) ExteriorTriangles() ([]SurfaceTriangle, error) {
	var (
		tris, counts = m.FaceCounts()
		exterior     []SurfaceTriangle
	)
	for i, tri := range tris {
		switch {
		case counts[i] == 1:
			exterior = append(exterior, tri)
		case counts[i] > 2:
			return nil, fmt.Errorf("%w: face %v (element %d) occurs %d times",
				ErrCorruptMesh, tri, i/4, counts[i])
		}
	}
	return exterior, nil
}

// ExteriorNodes returns the flattened node indices of the exterior faces,
// keeping repeats.
func (m *VolumeMesh) ExteriorNodes() ([]int, error) {
	tris, err := m.ExteriorTriangles()
	if err != nil {
		return nil, err
	}
	nodes := make([]int, 0, len(tris)*6)
	for _, tri := range tris {
		nodes = append(nodes, tri...)
	}
	return nodes, nil
}
