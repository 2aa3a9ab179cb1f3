package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ElementType represents the supported volumetric element types
type ElementType int

const (
	Tet   ElementType = iota // 4-node linear tetrahedron
	Tet10                    // 10-node quadratic tetrahedron
)

func (e ElementType) String() string {
	return [...]string{"Tet", "Tet10"}[e]
}

// GetNumNodes returns the number of nodes per element
func (e ElementType) GetNumNodes() int {
	switch e {
	case Tet:
		return 4
	case Tet10:
		return 10
	default:
		return 0
	}
}

// VolumeMesh is a single-type tetrahedral mesh.
//
// Quadratic elements list the four corner nodes first, followed by the
// mid-edge nodes in the order (0,1), (1,2), (0,2), (0,3), (1,3), (2,3).
type VolumeMesh struct {
	Nodes    [][3]float64 // Node coordinates [nnodes][3]
	Elements [][]int      // Element to node connectivity [nelems][nnodes_per_elem]
	Type     ElementType
}

// NewVolumeMesh creates a mesh and checks its connectivity
func NewVolumeMesh(nodes [][3]float64, elements [][]int, etype ElementType) (*VolumeMesh, error) {
	m := &VolumeMesh{
		Nodes:    nodes,
		Elements: elements,
		Type:     etype,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *VolumeMesh) NumNodes() int    { return len(m.Nodes) }
func (m *VolumeMesh) NumElements() int { return len(m.Elements) }

// Validate checks element sizes and that every node index is in range
func (m *VolumeMesh) Validate() error {
	var (
		nn  = m.Type.GetNumNodes()
		max = len(m.Nodes)
	)
	for k, elem := range m.Elements {
		if len(elem) != nn {
			return fmt.Errorf("element %d: expected %d nodes for %s, got %d",
				k, nn, m.Type, len(elem))
		}
		for _, n := range elem {
			if n < 0 || n >= max {
				return fmt.Errorf("element %d: node index %d out of range [0,%d)", k, n, max)
			}
		}
	}
	return nil
}

// Centroids returns the mean of the four corner nodes of every element
func (m *VolumeMesh) Centroids() []r3.Vec {
	cent := make([]r3.Vec, len(m.Elements))
	for k, elem := range m.Elements {
		var c r3.Vec
		for _, n := range elem[:4] {
			c = r3.Add(c, r3.Vec{X: m.Nodes[n][0], Y: m.Nodes[n][1], Z: m.Nodes[n][2]})
		}
		cent[k] = r3.Scale(0.25, c)
	}
	return cent
}

// Points returns the node coordinates as r3 vectors
func (m *VolumeMesh) Points() []r3.Vec {
	pts := make([]r3.Vec, len(m.Nodes))
	for i, n := range m.Nodes {
		pts[i] = r3.Vec{X: n[0], Y: n[1], Z: n[2]}
	}
	return pts
}

// Submesh keeps the elements whose index appears in keep, drops nodes no
// longer referenced and renumbers the remainder in their original order.
func (m *VolumeMesh) Submesh(keep []int) *VolumeMesh {
	var (
		used  = make([]bool, len(m.Nodes))
		newID = make([]int, len(m.Nodes))
		sub   = &VolumeMesh{Type: m.Type}
	)
	for _, k := range keep {
		for _, n := range m.Elements[k] {
			used[n] = true
		}
	}
	for i := range m.Nodes {
		newID[i] = -1
		if used[i] {
			newID[i] = len(sub.Nodes)
			sub.Nodes = append(sub.Nodes, m.Nodes[i])
		}
	}
	sub.Elements = make([][]int, len(keep))
	for kk, k := range keep {
		elem := make([]int, len(m.Elements[k]))
		for j, n := range m.Elements[k] {
			elem[j] = newID[n]
		}
		sub.Elements[kk] = elem
	}
	return sub
}

// PrintStatistics prints mesh statistics
func (m *VolumeMesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Nodes: %d\n", m.NumNodes())
	fmt.Printf("  Elements: %d (%s)\n", m.NumElements(), m.Type)
}
