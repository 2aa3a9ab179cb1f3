package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/xtalmesh/InputParameters"
	"github.com/notargets/xtalmesh/export"
	"github.com/notargets/xtalmesh/geometry"
	"github.com/notargets/xtalmesh/meshio"
	"github.com/notargets/xtalmesh/smooth"
)

type Smoother struct {
	Params     *InputParameters.SmootherParameters
	Iterations int
	Lambda     float64
	Dir        string
	Workers    int
	Logger     *zap.Logger
}

func NewSmoother(params *InputParameters.SmootherParameters, iterations int, lambda float64, dir string, logger *zap.Logger) *Smoother {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Smoother{
		Params:     params,
		Iterations: iterations,
		Lambda:     lambda,
		Dir:        dir,
		Logger:     logger,
	}
}

func (sp *Smoother) path(name string) string { return resolve(sp.Dir, name) }

func (sp *Smoother) readSurface() (*smooth.Surface, [][2]int, error) {
	p := sp.Params
	nodesPath := sp.path(p.NodesFile)
	V, err := meshio.ReadNodes(nodesPath, meshio.NodesHeaderLines)
	if err != nil {
		return nil, nil, stageErr("read nodes", nodesPath, err)
	}
	trisPath := sp.path(p.TrianglesFile)
	F, err := meshio.ReadTriangles(trisPath, meshio.TrianglesHeaderLines)
	if err != nil {
		return nil, nil, stageErr("read triangles", trisPath, err)
	}
	typesPath := sp.path(p.NodeTypesFile)
	types, err := meshio.ReadNodeTypes(typesPath, meshio.NodeTypeHeaderLines)
	if err != nil {
		return nil, nil, stageErr("read node types", typesPath, err)
	}
	labelsPath := sp.path(p.FaceLabelsFile)
	rows, err := meshio.ReadIntColumns(labelsPath, meshio.FaceLabelsHeaderLines)
	if err != nil {
		return nil, nil, stageErr("read face labels", labelsPath, err)
	}
	if len(rows) != len(F) {
		return nil, nil, stageErr("read face labels", labelsPath,
			fmt.Errorf("%d face labels for %d triangles", len(rows), len(F)))
	}
	faceLabels := make([][2]int, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			return nil, nil, stageErr("read face labels", labelsPath,
				fmt.Errorf("row %d has %d columns, expected 2", i, len(row)))
		}
		faceLabels[i] = [2]int{row[0], row[1]}
	}
	s := &smooth.Surface{V: V, F: F, NodeTypes: types, Constraints: smooth.GeometricConstraints(V)}
	return s, faceLabels, nil
}

// Run smooths the boundary mesh in stage order, writes one surface per grain
// into a fresh grain directory and then writes the smoothed whole surface.
func (sp *Smoother) Run(ctx context.Context) ([]int, error) {
	start := time.Now()
	stages, err := sp.Params.FeatureModes()
	if err != nil {
		return nil, stageErr("arguments", "", err)
	}
	if sp.Iterations < 0 {
		return nil, stageErr("arguments", "", fmt.Errorf("negative iteration count %d", sp.Iterations))
	}
	sp.Logger.Info("reading triangle data")
	surf, faceLabels, err := sp.readSurface()
	if err != nil {
		return nil, err
	}

	sm := smooth.NewSmoother(sp.Iterations, sp.Lambda, sp.Logger)
	sm.Codes = sp.Params.Codes
	for _, mode := range stages {
		sp.Logger.Info("smoothing", zap.Stringer("stage", mode))
		if err = sm.Stage(surf, mode); err != nil {
			return nil, stageErr("smooth", "", err)
		}
	}

	V := positions(surf.V)

	grainDir := sp.path(sp.Params.GrainDir)
	if err = meshio.EnsureEmptyDir(grainDir); err != nil {
		return nil, stageErr("export", grainDir, err)
	}
	ex := export.NewExporter(grainDir, sp.Logger)
	ex.Workers = sp.Workers
	labels, err := ex.Export(ctx, V, surf.F, faceLabels)
	if err != nil {
		return nil, stageErr("export", grainDir, err)
	}

	wholePath := sp.path(sp.Params.WholeSurface)
	if err = meshio.WriteSTL(wholePath, &geometry.TriMesh{V: V, F: surf.F}); err != nil {
		return nil, stageErr("write whole surface", wholePath, err)
	}
	sp.Logger.Info("finished", zap.Int("grains", len(labels)), zap.Duration("elapsed", time.Since(start)))
	return labels, nil
}

func positions(V mat.Matrix) []r3.Vec {
	n, _ := V.Dims()
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: V.At(i, 0), Y: V.At(i, 1), Z: V.At(i, 2)}
	}
	return pts
}
