// Package smooth relaxes the node positions of a grain boundary surface with
// a weighted graph Laplacian. Each stage weights a different feature class so
// that triple lines and boundaries are smoothed separately, while nodes on
// the domain faces only move within their face.
package smooth

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Smoother holds the parameters shared by every stage
type Smoother struct {
	Iterations int     // Laplacian iterations per stage
	Lambda     float64 // Step size
	Codes      FeatureCodes
	Logger     *zap.Logger
}

func NewSmoother(iterations int, lambda float64, logger *zap.Logger) *Smoother {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Smoother{
		Iterations: iterations,
		Lambda:     lambda,
		Codes:      DefaultFeatureCodes(),
		Logger:     logger,
	}
}

// Surface is the input of a smoothing run. V is updated in place.
type Surface struct {
	V           *mat.Dense // Node positions [nnodes x 3]
	F           [][3]int   // Triangles
	NodeTypes   []int      // Feature code per node
	Constraints *mat.Dense // Free axis mask [nnodes x 3], see GeometricConstraints
}

func (s *Surface) check() error {
	n, nc := s.V.Dims()
	if nc != 3 {
		return fmt.Errorf("positions have %d columns, expected 3", nc)
	}
	if len(s.NodeTypes) != n {
		return fmt.Errorf("expected %d node types, got %d", n, len(s.NodeTypes))
	}
	if r, c := s.Constraints.Dims(); r != n || c != 3 {
		return fmt.Errorf("constraint mask is %dx%d, expected %dx3", r, c, n)
	}
	for k, f := range s.F {
		for _, v := range f {
			if v < 0 || v >= n {
				return fmt.Errorf("face %d: node %d out of range [0,%d)", k, v, n)
			}
		}
	}
	return nil
}

// Run applies the stages in order
func (sm *Smoother) Run(s *Surface, stages []FeatureMode) error {
	for _, mode := range stages {
		if err := sm.Stage(s, mode); err != nil {
			return err
		}
	}
	return nil
}

// Stage performs sm.Iterations updates
//
//	V <- V - lambda * C .* (L V) .* norm
//
// where L is the Laplacian of the stage's feature graph, norm[i] is the
// inverse absolute row sum of L (1 for empty rows) and C is the constraint
// mask, with pinned node types zeroed in the Bound stage.
func (sm *Smoother) Stage(s *Surface, mode FeatureMode) error {
	if err := s.check(); err != nil {
		return fmt.Errorf("%s: %w", mode, err)
	}
	var (
		n, _    = s.V.Dims()
		weights = sm.Codes.NodeWeights(mode, s.NodeTypes)
	)
	sm.Logger.Debug("forming graph", zap.Stringer("stage", mode), zap.Int("nodes", n))
	g := NewFeatureGraph(n, s.F, weights)

	sm.Logger.Debug("computing laplacian", zap.Stringer("stage", mode))
	L := g.Laplacian()
	norm := RowNorm(L)

	C := mat.DenseCopyOf(s.Constraints)
	if mode == Bound {
		for i, t := range s.NodeTypes {
			if sm.Codes.IsPinned(t) {
				C.SetRow(i, []float64{0, 0, 0})
			}
		}
	}
	for i := 0; i < n; i++ {
		for d := 0; d < 3; d++ {
			C.Set(i, d, C.At(i, d)*norm[i]*sm.Lambda)
		}
	}

	sm.Logger.Debug("smoothing", zap.Stringer("stage", mode), zap.Int("iterations", sm.Iterations))
	LV := mat.NewDense(n, 3, nil)
	for it := 0; it < sm.Iterations; it++ {
		MulCSR(LV, L, s.V)
		LV.MulElem(LV, C)
		s.V.Sub(s.V, LV)
	}
	return nil
}

// RowNorm returns 1/sum_j |L_ij| for every row, 1 for rows that sum to 0
func RowNorm(L *sparse.CSR) []float64 {
	nr, _ := L.Dims()
	norm := make([]float64, nr)
	for i := range norm {
		var sum float64
		L.DoRowNonZero(i, func(_, _ int, v float64) {
			sum += math.Abs(v)
		})
		norm[i] = 1
		if sum != 0 {
			norm[i] = 1 / sum
		}
	}
	return norm
}

// MulCSR computes dst = L * V one column at a time
func MulCSR(dst *mat.Dense, L *sparse.CSR, V *mat.Dense) {
	var (
		nr, nc = V.Dims()
		x      = make([]float64, nr)
		y      = make([]float64, nr)
	)
	for c := 0; c < nc; c++ {
		mat.Col(x, c, V)
		for i := range y {
			y[i] = 0
		}
		// MulVecTo accumulates into y
		L.MulVecTo(y, false, x)
		dst.SetCol(c, y)
	}
}

// GeometricConstraints frees every axis of a node except those on which it
// sits at the domain minimum or maximum, so nodes on domain faces, edges and
// corners stay on them.
func GeometricConstraints(V *mat.Dense) *mat.Dense {
	n, _ := V.Dims()
	C := mat.NewDense(n, 3, nil)
	for d := 0; d < 3; d++ {
		col := mat.Col(nil, d, V)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, x := range col {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		for i, x := range col {
			if x != lo && x != hi {
				C.Set(i, d, 1)
			}
		}
	}
	return C
}
