// Package sets builds the named element and node sets written with the
// volume mesh: one element set per grain and boundary condition node sets on
// the six faces of the domain.
package sets

import (
	"fmt"
	"sort"

	"github.com/notargets/xtalmesh/geometry"
	"github.com/notargets/xtalmesh/mesh"
)

const (
	AllElements = "ALLELEMENTS"
	AllNodes    = "ALLNODES"
	GrainField  = "GrainIds"
)

// BoundaryFace identifies one of the six faces of the domain bounding box
type BoundaryFace uint8

const (
	XMin BoundaryFace = iota
	XMax
	YMin
	YMax
	ZMin
	ZMax
)

// Node set names of the boundary faces, the digit is the face normal axis
var boundaryFaceNames = [6]string{"f_n-1", "f_n+1", "f_n-2", "f_n+2", "f_n-3", "f_n+3"}

func (f BoundaryFace) String() string {
	return boundaryFaceNames[f]
}

// Axis returns the coordinate normal to the face and whether it is the max face
func (f BoundaryFace) Axis() (dim int, isMax bool) {
	return int(f) / 2, f%2 == 1
}

// Sets holds the named index sets of a volume mesh, 0-based
type Sets struct {
	ElementSets map[string][]int
	NodeSets    map[string][]int
	GrainIds    []float64 // Grain label per element
}

// GrainSetName is the element set name of a grain
func GrainSetName(label int) string {
	return fmt.Sprintf("GRAIN_%04d", label)
}

// Build assembles all element and node sets. extents are the domain bounds
// the boundary faces are measured from; epsilon is the envelope fraction of
// the node bounding box diagonal.
func Build(msh *mesh.VolumeMesh, labels []int, extents geometry.Box, epsilon float64) (*Sets, error) {
	if len(labels) != msh.NumElements() {
		return nil, fmt.Errorf("expected %d element labels, got %d", msh.NumElements(), len(labels))
	}
	s := &Sets{}
	s.ElementSets, s.GrainIds = ElementSets(labels)

	faceSets, err := BoundaryNodeSets(msh, extents, epsilon)
	if err != nil {
		return nil, err
	}
	s.NodeSets = make(map[string][]int, len(faceSets)+1)
	s.NodeSets[AllNodes] = sequence(msh.NumNodes())
	for f, nodes := range faceSets {
		s.NodeSets[BoundaryFace(f).String()] = nodes
	}
	return s, nil
}

// ElementSets returns one set per nonzero grain label plus ALLELEMENTS, and
// the label of each element as a scalar field.
func ElementSets(labels []int) (elsets map[string][]int, field []float64) {
	elsets = map[string][]int{AllElements: sequence(len(labels))}
	field = make([]float64, len(labels))
	for k, l := range labels {
		field[k] = float64(l)
		if l == 0 {
			continue
		}
		name := GrainSetName(l)
		elsets[name] = append(elsets[name], k)
	}
	return
}

// BoundaryNodeSets returns, for each BoundaryFace, the sorted exterior nodes
// lying strictly within delta = epsilon * diagonal of that face, where the
// diagonal is that of the mesh nodes. A node can be on several faces.
func BoundaryNodeSets(msh *mesh.VolumeMesh, extents geometry.Box, epsilon float64) ([6][]int, error) {
	var faceSets [6][]int
	exterior, err := msh.ExteriorNodes()
	if err != nil {
		return faceSets, err
	}
	var (
		delta = epsilon * geometry.BoundingBox(msh.Points()).Diagonal()
		seen  = make(map[int]bool, len(exterior))
	)
	for _, n := range exterior {
		if seen[n] {
			continue
		}
		seen[n] = true
		for f := XMin; f <= ZMax; f++ {
			dim, isMax := f.Axis()
			lo, hi := extents.Axis(dim)
			x := msh.Nodes[n][dim]
			if (!isMax && x < lo+delta) || (isMax && x > hi-delta) {
				faceSets[f] = append(faceSets[f], n)
			}
		}
	}
	for f := range faceSets {
		sort.Ints(faceSets[f])
	}
	return faceSets, nil
}

// SortedNames returns the set names in lexical order
func SortedNames(m map[string][]int) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sequence(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
