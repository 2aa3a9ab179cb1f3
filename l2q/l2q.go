// Package l2q converts linear tet meshes into 10-node quadratic tet meshes.
package l2q

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/notargets/xtalmesh/external"
	"github.com/notargets/xtalmesh/mesh"
	"github.com/notargets/xtalmesh/meshio"
)

// Converter produces a Tet10 mesh from a linear one with the same elements
// in the same order.
type Converter interface {
	Quadratic(ctx context.Context, msh *mesh.VolumeMesh) (*mesh.VolumeMesh, error)
}

// tetEdges are the corner pairs of the mid-edge nodes 4..9
var tetEdges = [6][2]int{{0, 1}, {1, 2}, {0, 2}, {0, 3}, {1, 3}, {2, 3}}

// Native inserts one node at the midpoint of every distinct edge. Corner
// nodes keep their indices; new nodes follow in order of first use.
type Native struct{}

func (Native) Quadratic(_ context.Context, msh *mesh.VolumeMesh) (*mesh.VolumeMesh, error) {
	if msh.Type != mesh.Tet {
		return nil, fmt.Errorf("l2q: expected %s elements, got %s", mesh.Tet, msh.Type)
	}
	if err := msh.Validate(); err != nil {
		return nil, err
	}
	var (
		q = &mesh.VolumeMesh{
			Nodes:    append(make([][3]float64, 0, 2*len(msh.Nodes)), msh.Nodes...),
			Elements: make([][]int, len(msh.Elements)),
			Type:     mesh.Tet10,
		}
		midNode = make(map[[2]int]int)
	)
	for k, elem := range msh.Elements {
		e10 := make([]int, 10)
		copy(e10, elem)
		for i, ed := range tetEdges {
			a, b := elem[ed[0]], elem[ed[1]]
			if a > b {
				a, b = b, a
			}
			id, ok := midNode[[2]int{a, b}]
			if !ok {
				id = len(q.Nodes)
				midNode[[2]int{a, b}] = id
				pa, pb := q.Nodes[a], q.Nodes[b]
				q.Nodes = append(q.Nodes, [3]float64{
					0.5 * (pa[0] + pb[0]), 0.5 * (pa[1] + pb[1]), 0.5 * (pa[2] + pb[2])})
			}
			e10[4+i] = id
		}
		q.Elements[k] = e10
	}
	return q, nil
}

// ExternalOrder maps the converter's mid-edge order (0,1), (0,2), (0,3),
// (1,2), (1,3), (2,3) onto ours
var ExternalOrder = [10]int{0, 1, 2, 3, 4, 7, 5, 6, 8, 9}

const (
	linPrefix = "lin"
	// ExternalDoneFile is written last by the converter
	ExternalDoneFile = linPrefix + "_l2q_elements.txt"
	externalNodeFile = linPrefix + "_l2q_nodes.txt"
)

// External runs a converter binary invoked as "<Bin> lin" in Dir, reading
// lin_nodes.txt and lin_elements.txt and writing lin_l2q_nodes.txt and
// lin_l2q_elements.txt.
type External struct {
	Bin           string
	Dir           string
	Timeout, Poll time.Duration
	Logger        *zap.Logger
}

func (ex *External) path(name string) string { return filepath.Join(ex.Dir, name) }

func (ex *External) Quadratic(ctx context.Context, msh *mesh.VolumeMesh) (*mesh.VolumeMesh, error) {
	if msh.Type != mesh.Tet {
		return nil, fmt.Errorf("l2q: expected %s elements, got %s", mesh.Tet, msh.Type)
	}
	nodes := make([][]float64, len(msh.Nodes))
	for i, n := range msh.Nodes {
		nodes[i] = n[:]
	}
	elems := make([][]float64, len(msh.Elements))
	for k, elem := range msh.Elements {
		elems[k] = make([]float64, 4)
		for j, n := range elem {
			elems[k][j] = float64(n)
		}
	}
	if err := meshio.WriteTable(ex.path(linPrefix+"_nodes.txt"), nodes, false); err != nil {
		return nil, err
	}
	if err := meshio.WriteTable(ex.path(linPrefix+"_elements.txt"), elems, true); err != nil {
		return nil, err
	}

	if err := external.NewRunner(ex.Dir, ex.Logger).Run(ctx, ex.Bin, linPrefix); err != nil {
		return nil, err
	}
	if err := external.AwaitFile(ctx, ex.path(ExternalDoneFile), ex.Timeout, ex.Poll); err != nil {
		return nil, err
	}
	return ReadExternal(ex.path(externalNodeFile), ex.path(ExternalDoneFile))
}

// ReadExternal loads the converter output and reorders the mid-edge nodes.
// One based connectivity is shifted to zero based.
func ReadExternal(nodeFile, elementFile string) (*mesh.VolumeMesh, error) {
	rows, err := meshio.ReadTable(nodeFile, 0)
	if err != nil {
		return nil, err
	}
	elems, err := meshio.ReadIntColumns(elementFile, 0)
	if err != nil {
		return nil, err
	}
	q := &mesh.VolumeMesh{
		Nodes:    make([][3]float64, len(rows)),
		Elements: make([][]int, len(elems)),
		Type:     mesh.Tet10,
	}
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("%s: row %d has %d columns, expected 3", nodeFile, i, len(row))
		}
		copy(q.Nodes[i][:], row)
	}
	base := 1
	for k, row := range elems {
		if len(row) != 10 {
			return nil, fmt.Errorf("%s: row %d has %d columns, expected 10", elementFile, k, len(row))
		}
		for _, n := range row {
			if n == 0 {
				base = 0
			}
		}
	}
	for k, row := range elems {
		e := make([]int, 10)
		for j, src := range ExternalOrder {
			e[j] = row[src] - base
		}
		q.Elements[k] = e
	}
	if err = q.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", elementFile, err)
	}
	return q, nil
}
