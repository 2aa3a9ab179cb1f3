package smooth

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/graph/simple"
)

// FeatureGraph is the edge weighted graph of a surface triangulation. The
// weight of edge (u,v) is weight(u)*weight(v), summed over every face that
// contains the edge.
type FeatureGraph struct {
	*simple.WeightedUndirectedGraph
	NumNodes int
}

// NewFeatureGraph adds the three edges of every face. All numNodes nodes are
// present, so nodes outside F are isolated.
func NewFeatureGraph(numNodes int, F [][3]int, weights []float64) *FeatureGraph {
	g := &FeatureGraph{
		WeightedUndirectedGraph: simple.NewWeightedUndirectedGraph(0, 0),
		NumNodes:                numNodes,
	}
	for i := 0; i < numNodes; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, f := range F {
		g.addEdge(f[0], f[1], weights[f[0]]*weights[f[1]])
		g.addEdge(f[0], f[2], weights[f[0]]*weights[f[2]])
		g.addEdge(f[1], f[2], weights[f[1]]*weights[f[2]])
	}
	return g
}

func (g *FeatureGraph) addEdge(u, v int, w float64) {
	if u == v {
		return
	}
	if e := g.WeightedEdge(int64(u), int64(v)); e != nil {
		w += e.Weight()
	}
	g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(u), simple.Node(v), w))
}

// Laplacian returns D - A as a [NumNodes x NumNodes] CSR matrix
func (g *FeatureGraph) Laplacian() *sparse.CSR {
	var (
		L     = sparse.NewDOK(g.NumNodes, g.NumNodes)
		edges = g.WeightedEdges()
	)
	for edges.Next() {
		e := edges.WeightedEdge()
		u, v, w := int(e.From().ID()), int(e.To().ID()), e.Weight()
		L.Set(u, v, L.At(u, v)-w)
		L.Set(v, u, L.At(v, u)-w)
		L.Set(u, u, L.At(u, u)+w)
		L.Set(v, v, L.At(v, v)+w)
	}
	return L.ToCSR()
}
