package meshio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/xtalmesh/classify"
	"github.com/notargets/xtalmesh/geometry"
)

// ReadSTL reads an ASCII or binary STL file and merges coincident vertices
func ReadSTL(filename string) (*geometry.TriMesh, error) {
	solid, err := stl.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	var (
		vMap = make(map[stl.Vec3]int)
		tm   = &geometry.TriMesh{F: make([][3]int, len(solid.Triangles))}
	)
	for i, tri := range solid.Triangles {
		for j, v := range tri.Vertices {
			idx, exists := vMap[v]
			if !exists {
				idx = len(tm.V)
				vMap[v] = idx
				tm.V = append(tm.V, r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
			}
			tm.F[i][j] = idx
		}
	}
	return tm, nil
}

// WriteSTL writes a binary STL file with normals computed from the vertices
func WriteSTL(filename string, tm *geometry.TriMesh) error {
	solid := &stl.Solid{
		Name:      strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		Triangles: make([]stl.Triangle, len(tm.F)),
	}
	for i, f := range tm.F {
		for j, v := range f {
			p := tm.V[v]
			solid.Triangles[i].Vertices[j] = stl.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
		}
	}
	solid.RecalculateNormals()
	if err := solid.WriteFile(filename); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// ReadGrainSurfaces reads every <label>.stl file in dir, sorted by label
func ReadGrainSurfaces(dir string) ([]classify.GrainSurface, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.stl"))
	if err != nil {
		return nil, err
	}
	surfaces := make([]classify.GrainSurface, 0, len(files))
	for _, f := range files {
		stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		label, err := strconv.Atoi(stem)
		if err != nil {
			return nil, fmt.Errorf("%s: grain surface name is not a grain label: %w", f, err)
		}
		tm, err := ReadSTL(f)
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, classify.GrainSurface{Label: label, Source: f, Mesh: tm})
	}
	sort.SliceStable(surfaces, func(i, j int) bool { return surfaces[i].Label < surfaces[j].Label })
	return surfaces, nil
}

// GrainSurfacePath is where the surface of a grain is stored
func GrainSurfacePath(dir string, label int) string {
	return filepath.Join(dir, strconv.Itoa(label)+".stl")
}

// EnsureEmptyDir removes dir and creates it again
func EnsureEmptyDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
