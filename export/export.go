// Package export writes one closed STL surface per grain of a labelled
// boundary mesh.
package export

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/xtalmesh/geometry"
	"github.com/notargets/xtalmesh/hull"
	"github.com/notargets/xtalmesh/meshio"
	"github.com/notargets/xtalmesh/utils"
)

// NoGrain marks the outside of the domain in a face label column
const NoGrain = -1

type Exporter struct {
	Dir     string
	Hull    hull.Hull
	Workers int
	Logger  *zap.Logger
}

func NewExporter(dir string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{Dir: dir, Hull: hull.Oriented{}, Logger: logger}
}

// Labels returns the sorted distinct grain labels of the faces
func Labels(faceLabels [][2]int) []int {
	seen := make(map[int]bool)
	var labels []int
	for _, fl := range faceLabels {
		for _, l := range fl {
			if l != NoGrain && !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Ints(labels)
	return labels
}

// GrainFaces returns the faces bounding grain label
func GrainFaces(faceLabels [][2]int, label int) (faces []int) {
	for f, fl := range faceLabels {
		if fl[0] == label || fl[1] == label {
			faces = append(faces, f)
		}
	}
	return
}

// Export writes <Dir>/<label>.stl for every grain. Workers only read the
// shared inputs. It returns once every file is written or on the first error.
func (ex *Exporter) Export(ctx context.Context, V []r3.Vec, F [][3]int, faceLabels [][2]int) ([]int, error) {
	if len(faceLabels) != len(F) {
		return nil, fmt.Errorf("export: %d face labels for %d faces", len(faceLabels), len(F))
	}
	var (
		labels = Labels(faceLabels)
		whole  = &geometry.TriMesh{V: V, F: F}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(utils.Workers(ex.Workers))
	for _, label := range labels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			surf, err := ex.Hull.OuterHull(whole.SubMesh(GrainFaces(faceLabels, label)))
			if err != nil {
				return fmt.Errorf("grain %d: %w", label, err)
			}
			path := meshio.GrainSurfacePath(ex.Dir, label)
			if err = meshio.WriteSTL(path, surf); err != nil {
				return err
			}
			ex.Logger.Debug("wrote grain surface",
				zap.Int("grain", label), zap.Int("faces", len(surf.F)), zap.String("path", path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ex.Logger.Info("exported grain surfaces", zap.Int("grains", len(labels)), zap.String("dir", ex.Dir))
	return labels, nil
}
