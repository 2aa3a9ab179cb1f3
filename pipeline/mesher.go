// Package pipeline runs the two command level workflows: smoothing a
// labelled boundary mesh into grain surfaces, and meshing those surfaces into
// a labelled quadratic volume mesh with element and node sets.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/notargets/xtalmesh/InputParameters"
	"github.com/notargets/xtalmesh/classify"
	"github.com/notargets/xtalmesh/external"
	"github.com/notargets/xtalmesh/geometry"
	"github.com/notargets/xtalmesh/l2q"
	"github.com/notargets/xtalmesh/mesh"
	"github.com/notargets/xtalmesh/mesh/readers"
	"github.com/notargets/xtalmesh/meshio"
	"github.com/notargets/xtalmesh/sets"
	"github.com/notargets/xtalmesh/utils"
)

// VolumeFile is the remesher output name inside the scratch directory
const VolumeFile = "Volume_1.msh"

// Remesher fills a closed surface with linear tets, writing a Gmsh 2.2 file
type Remesher interface {
	Remesh(ctx context.Context, input, output string, edgeLength, epsilon float64) error
}

// FTetWild runs the fTetWild binary and waits for its output
type FTetWild struct {
	Bin           string
	Timeout, Poll time.Duration
	Logger        *zap.Logger
}

// Remesh runs the binary in the output directory, so input and output are
// passed as absolute paths.
func (ft *FTetWild) Remesh(ctx context.Context, input, output string, edgeLength, epsilon float64) (err error) {
	if input, err = filepath.Abs(input); err != nil {
		return err
	}
	if output, err = filepath.Abs(output); err != nil {
		return err
	}
	r := external.NewRunner(filepath.Dir(output), ft.Logger)
	err = r.Run(ctx, ft.Bin,
		"--input", input,
		"--output", output,
		"--disable-filtering",
		"-l", strconv.FormatFloat(edgeLength, 'g', -1, 64),
		"-e", strconv.FormatFloat(epsilon, 'g', -1, 64),
	)
	if err != nil {
		return err
	}
	return external.AwaitFile(ctx, output, ft.Timeout, ft.Poll)
}

type Mesher struct {
	Params      *InputParameters.MesherParameters
	EdgeLength  float64 // Target edge length, relative to the domain
	Epsilon     float64 // Envelope, relative to the domain diagonal
	Dir         string  // Working directory relative paths resolve against
	Workers     int
	KeepScratch bool
	Remesher    Remesher
	Converter   l2q.Converter // Nil builds one from Params.L2Q
	Scorer      classify.EnclosureScorer
	Logger      *zap.Logger
}

func NewMesher(params *InputParameters.MesherParameters, edgeLength, epsilon float64, dir string, logger *zap.Logger) *Mesher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Mesher{
		Params:     params,
		EdgeLength: edgeLength,
		Epsilon:    epsilon,
		Dir:        dir,
		Remesher: &FTetWild{
			Bin:     toolPath(dir, params.Remesher),
			Timeout: params.Timeout(),
			Poll:    params.Poll(),
			Logger:  logger,
		},
		Logger: logger,
	}
}

// scorerWorkers splits the worker budget between the grains scored
// concurrently and the points of each grain.
func scorerWorkers(workers, grains int) int {
	n := utils.Workers(workers)
	if grains > 1 {
		n /= grains
	}
	return max(n, 1)
}

// toolPath resolves a binary given as a path against dir. Bare names are
// left for the PATH lookup.
func toolPath(dir, bin string) string {
	if !strings.ContainsRune(bin, filepath.Separator) {
		return bin
	}
	return resolve(dir, bin)
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (m *Mesher) path(name string) string { return resolve(m.Dir, name) }

// Result summarizes a mesher run
type Result struct {
	Elements, Nodes int
	Grains          int
	AbaqusFile      string
	VTKFile         string
	Mesh            *mesh.VolumeMesh // Quadratic mesh without void elements
	Sets            *sets.Sets
}

// Run remeshes the whole domain surface, labels the elements by grain,
// removes the void, converts to quadratic tets and writes the Abaqus and VTK
// outputs. The scratch directory is removed unless KeepScratch is set.
func (m *Mesher) Run(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	if m.EdgeLength <= 0 || m.Epsilon <= 0 {
		return nil, stageErr("arguments", "",
			fmt.Errorf("edge length %g and epsilon %g must be positive", m.EdgeLength, m.Epsilon))
	}
	order, err := classify.NewOrder(m.Params.Order)
	if err != nil {
		return nil, stageErr("arguments", "", err)
	}

	// External tools run inside the scratch directory
	if m.Dir, err = filepath.Abs(m.Dir); err != nil {
		return nil, stageErr("arguments", m.Dir, err)
	}
	scratch := m.path(".xtalmesh-" + uuid.NewString())
	if err = os.MkdirAll(scratch, 0755); err != nil {
		return nil, stageErr("scratch", scratch, err)
	}
	defer func() {
		if m.KeepScratch {
			m.Logger.Info("keeping scratch directory", zap.String("dir", scratch))
			return
		}
		err = multierr.Append(err, stageErr("cleanup", scratch, os.RemoveAll(scratch)))
	}()

	wholePath := m.path(m.Params.WholeSurface)
	whole, err := meshio.ReadSTL(wholePath)
	if err != nil {
		return nil, stageErr("read whole surface", wholePath, err)
	}
	extents := whole.Bounds()

	m.Logger.Info("meshing", zap.String("input", wholePath),
		zap.Float64("edge_length", m.EdgeLength), zap.Float64("epsilon", m.Epsilon))
	volPath := filepath.Join(scratch, VolumeFile)
	if err = m.Remesher.Remesh(ctx, wholePath, volPath, m.EdgeLength, m.Epsilon); err != nil {
		return nil, stageErr("remesh", volPath, err)
	}
	lin, err := readers.ReadGmsh22(volPath)
	if err != nil {
		return nil, stageErr("read volume mesh", volPath, err)
	}
	m.Logger.Info("meshing completed", zap.Int("elements", lin.NumElements()), zap.Int("nodes", lin.NumNodes()))

	grainDir := m.path(m.Params.GrainDir)
	surfaces, err := meshio.ReadGrainSurfaces(grainDir)
	if err != nil {
		return nil, stageErr("read grain surfaces", grainDir, err)
	}
	scorer := m.Scorer
	if scorer == nil {
		scorer = geometry.WindingNumber{Workers: scorerWorkers(m.Workers, len(surfaces)), Cull: true}
	}
	cl := classify.NewClassifier(scorer, m.Logger)
	cl.Threshold, cl.Order, cl.Workers = m.Params.Threshold, order, m.Workers
	labels, err := cl.Classify(ctx, lin.Centroids(), surfaces)
	if err != nil {
		return nil, stageErr("classify", grainDir, err)
	}

	keep := classify.Kept(labels)
	if len(keep) == 0 {
		return nil, stageErr("remove void", "", fmt.Errorf("no element is inside any of %d grain surfaces", len(surfaces)))
	}
	m.Logger.Info("removing void elements", zap.Int("void", len(labels)-len(keep)))
	lin = lin.Submesh(keep)
	kept := make([]int, len(keep))
	for i, k := range keep {
		kept[i] = labels[k]
	}
	if len(m.Params.LinearMesh) != 0 {
		linPath := m.path(m.Params.LinearMesh)
		if err = readers.WriteGmsh22(linPath, lin, kept, false); err != nil {
			return nil, stageErr("write linear mesh", linPath, err)
		}
	}

	conv := m.Converter
	if conv == nil {
		conv = l2q.Native{}
		if len(m.Params.L2Q) != 0 {
			conv = &l2q.External{
				Bin:     toolPath(m.Dir, m.Params.L2Q),
				Dir:     scratch,
				Timeout: m.Params.Timeout(),
				Poll:    m.Params.Poll(),
				Logger:  m.Logger,
			}
		}
	}
	m.Logger.Info("converting to quadratic tets")
	quad, err := conv.Quadratic(ctx, lin)
	if err != nil {
		return nil, stageErr("quadratic", "", err)
	}

	m.Logger.Info("generating element and node sets")
	s, err := sets.Build(quad, kept, extents, m.Epsilon)
	if err != nil {
		return nil, stageErr("sets", "", err)
	}

	res = &Result{
		Elements:   quad.NumElements(),
		Nodes:      quad.NumNodes(),
		Grains:     len(s.ElementSets) - 1,
		AbaqusFile: m.path(m.Params.Output + ".inp"),
		VTKFile:    m.path(m.Params.Output + ".vtk"),
		Mesh:       quad,
		Sets:       s,
	}
	if err = meshio.WriteAbaqus(res.AbaqusFile, m.Params.Title, quad, s); err != nil {
		return nil, stageErr("write abaqus", res.AbaqusFile, err)
	}
	err = meshio.PatchDeclaration(res.AbaqusFile, meshio.QuadraticTetDeclaration, meshio.SolverTetDeclaration)
	if err != nil {
		return nil, stageErr("patch abaqus", res.AbaqusFile, err)
	}
	cellData := map[string][]float64{sets.GrainField: s.GrainIds}
	if err = meshio.WriteVTK(res.VTKFile, m.Params.Title, quad, cellData); err != nil {
		return nil, stageErr("write vtk", res.VTKFile, err)
	}
	m.Logger.Info("finished", zap.Int("elements", res.Elements), zap.Int("grains", res.Grains),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
