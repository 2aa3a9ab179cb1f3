// Package classify assigns a grain label to every volume element by testing
// the element centroid against the closed surface of each grain.
package classify

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/xtalmesh/geometry"
	"github.com/notargets/xtalmesh/utils"
)

const (
	// DefaultThreshold is the enclosure score above which a point is inside
	DefaultThreshold = 0.01
	// MinSurfaceVertices is the smallest vertex count of a usable surface
	MinSurfaceVertices = 4
	// Void is the label of elements inside no grain
	Void = 0
)

// EnclosureScorer returns a continuous inside/outside score for each point
type EnclosureScorer interface {
	Scores(ctx context.Context, surf *geometry.TriMesh, pts []r3.Vec) ([]float64, error)
}

// GrainSurface is the closed surface of one grain
type GrainSurface struct {
	Label  int
	Source string // File the surface was read from, for logging
	Mesh   *geometry.TriMesh
}

// Order decides which grain wins when a point is inside several surfaces:
// surfaces are applied in this order and later ones overwrite earlier ones.
type Order uint8

const (
	Ascending  Order = iota // Increasing label, the highest label wins
	Descending              // Decreasing label, the lowest label wins
	AsGiven                 // Order of the input slice
)

func NewOrder(label string) (Order, error) {
	switch label {
	case "", "ascending":
		return Ascending, nil
	case "descending":
		return Descending, nil
	case "given":
		return AsGiven, nil
	default:
		return 0, fmt.Errorf("unknown classification order %q", label)
	}
}

func (o Order) String() string {
	return [...]string{"ascending", "descending", "given"}[o]
}

// Classifier labels points by the grain surfaces enclosing them
type Classifier struct {
	Scorer    EnclosureScorer
	Threshold float64
	Order     Order
	Workers   int // Grains scored concurrently
	Logger    *zap.Logger
}

func NewClassifier(scorer EnclosureScorer, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		Scorer:    scorer,
		Threshold: DefaultThreshold,
		Order:     Ascending,
		Logger:    logger,
	}
}

// Sorted returns the surfaces in application order
func (c *Classifier) Sorted(surfaces []GrainSurface) []GrainSurface {
	sorted := append([]GrainSurface(nil), surfaces...)
	switch c.Order {
	case Ascending:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })
	case Descending:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Label > sorted[j].Label })
	}
	return sorted
}

// Classify returns a label per point, Void where no surface encloses it.
// Surfaces with fewer than MinSurfaceVertices vertices are skipped. Scores
// are computed concurrently but applied strictly in order, so the result
// does not depend on scheduling.
func (c *Classifier) Classify(ctx context.Context, pts []r3.Vec, surfaces []GrainSurface) ([]int, error) {
	var (
		sorted = c.Sorted(surfaces)
		scores = make([][]float64, len(sorted))
		labels = make([]int, len(pts))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(utils.Workers(c.Workers))
	for i, gs := range sorted {
		if gs.Mesh == nil || len(gs.Mesh.V) < MinSurfaceVertices {
			c.Logger.Warn("skipping degenerate grain surface",
				zap.Int("grain", gs.Label), zap.String("source", gs.Source))
			continue
		}
		g.Go(func() error {
			s, err := c.Scorer.Scores(gctx, gs.Mesh, pts)
			if err != nil {
				return fmt.Errorf("grain %d (%s): %w", gs.Label, gs.Source, err)
			}
			if len(s) != len(pts) {
				return fmt.Errorf("grain %d (%s): expected %d scores, got %d",
					gs.Label, gs.Source, len(pts), len(s))
			}
			scores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, gs := range sorted {
		if scores[i] == nil {
			continue
		}
		var n int
		for k, s := range scores[i] {
			if s > c.Threshold {
				labels[k] = gs.Label
				n++
			}
		}
		c.Logger.Debug("classified grain", zap.Int("grain", gs.Label), zap.Int("elements", n))
	}
	return labels, nil
}

// Kept returns the indices of the points with a non-void label
func Kept(labels []int) (keep []int) {
	for k, l := range labels {
		if l != Void {
			keep = append(keep, k)
		}
	}
	return
}
