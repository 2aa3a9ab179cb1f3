// Package hull turns the face subset of a grain into a clean closed surface.
package hull

import (
	"errors"
	"sort"

	"github.com/notargets/xtalmesh/geometry"
)

// ErrEmptyHull is returned when no usable face remains
var ErrEmptyHull = errors.New("hull: no non-degenerate faces")

// Hull extracts the outer surface of a triangle set
type Hull interface {
	OuterHull(tm *geometry.TriMesh) (*geometry.TriMesh, error)
}

// Oriented drops degenerate and duplicate faces, compacts the vertices and
// orients every connected component consistently with a positive enclosed
// volume. The input is not modified.
type Oriented struct{}

func (Oriented) OuterHull(tm *geometry.TriMesh) (*geometry.TriMesh, error) {
	var (
		faces []int
		seen  = make(map[[3]int]bool)
	)
	for f := range tm.F {
		if tm.Degenerate(f) {
			continue
		}
		key := tm.F[f]
		sort.Ints(key[:])
		if seen[key] {
			continue
		}
		seen[key] = true
		faces = append(faces, f)
	}
	if len(faces) == 0 {
		return nil, ErrEmptyHull
	}
	out := tm.SubMesh(faces)
	for _, comp := range orientComponents(out) {
		if out.SignedVolume(comp) < 0 {
			for _, f := range comp {
				flip(out, f)
			}
		}
	}
	return out, nil
}

func flip(tm *geometry.TriMesh, f int) {
	tm.F[f][1], tm.F[f][2] = tm.F[f][2], tm.F[f][1]
}

type edge [2]int

func undirected(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// hasDirected reports whether face f traverses a -> b
func hasDirected(f [3]int, a, b int) bool {
	for i := 0; i < 3; i++ {
		if f[i] == a && f[(i+1)%3] == b {
			return true
		}
	}
	return false
}

// orientComponents walks the edge adjacency of every connected component from
// a seed face, flipping neighbours that traverse a shared edge in the same
// direction. Non-manifold edges are walked like any other. It returns the
// faces of each component.
func orientComponents(tm *geometry.TriMesh) (components [][]int) {
	edgeFaces := make(map[edge][]int)
	for f, t := range tm.F {
		for i := 0; i < 3; i++ {
			e := undirected(t[i], t[(i+1)%3])
			edgeFaces[e] = append(edgeFaces[e], f)
		}
	}
	visited := make([]bool, len(tm.F))
	for seed := range tm.F {
		if visited[seed] {
			continue
		}
		var (
			comp  []int
			queue = []int{seed}
		)
		visited[seed] = true
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			comp = append(comp, f)
			t := tm.F[f]
			for i := 0; i < 3; i++ {
				a, b := t[i], t[(i+1)%3]
				for _, nb := range edgeFaces[undirected(a, b)] {
					if visited[nb] {
						continue
					}
					visited[nb] = true
					if hasDirected(tm.F[nb], a, b) {
						flip(tm, nb)
					}
					queue = append(queue, nb)
				}
			}
		}
		components = append(components, comp)
	}
	return
}
