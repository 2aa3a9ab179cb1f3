package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/multierr"

	"github.com/notargets/xtalmesh/mesh"
)

// VTK cell type codes
var vtkCellType = map[mesh.ElementType]int{
	mesh.Tet:   10, // VTK_TETRA
	mesh.Tet10: 24, // VTK_QUADRATIC_TETRA, same edge order as mesh.Tet10
}

// WriteVTK writes a legacy ASCII VTK unstructured grid with optional scalar
// cell fields.
func WriteVTK(filename, title string, msh *mesh.VolumeMesh, cellData map[string][]float64) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	w := bufio.NewWriter(file)
	if err = EncodeVTK(w, title, msh, cellData); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return w.Flush()
}

func EncodeVTK(w io.Writer, title string, msh *mesh.VolumeMesh, cellData map[string][]float64) error {
	var (
		ew = &errWriter{w: w}
		ne = msh.NumElements()
		nn = msh.Type.GetNumNodes()
	)
	for name, field := range cellData {
		if len(field) != ne {
			return fmt.Errorf("cell field %s has %d values for %d cells", name, len(field), ne)
		}
	}
	ew.printf("# vtk DataFile Version 4.2\n%s\nASCII\nDATASET UNSTRUCTURED_GRID\n", title)
	ew.printf("POINTS %d double\n", msh.NumNodes())
	for _, n := range msh.Nodes {
		ew.printf("%.16e %.16e %.16e\n", n[0], n[1], n[2])
	}
	ew.printf("CELLS %d %d\n", ne, ne*(nn+1))
	for _, elem := range msh.Elements {
		ew.printf("%d", nn)
		for _, n := range elem {
			ew.printf(" %d", n)
		}
		ew.printf("\n")
	}
	ew.printf("CELL_TYPES %d\n", ne)
	for k := 0; k < ne; k++ {
		ew.printf("%d\n", vtkCellType[msh.Type])
	}
	if len(cellData) > 0 {
		ew.printf("CELL_DATA %d\n", ne)
		for _, name := range sortedKeys(cellData) {
			ew.printf("SCALARS %s double 1\nLOOKUP_TABLE default\n", name)
			for _, v := range cellData[name] {
				ew.printf("%.16e\n", v)
			}
		}
	}
	return ew.err
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
