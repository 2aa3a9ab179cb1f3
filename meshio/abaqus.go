package meshio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/notargets/xtalmesh/mesh"
	"github.com/notargets/xtalmesh/sets"
)

// ErrMalformedOutputFile is returned when a written file lacks a line the
// post-processing step expects.
var ErrMalformedOutputFile = errors.New("malformed output file")

// Generic Abaqus element declarations per element type. Downstream solvers
// expect the plain C3D10 tag, see PatchDeclaration.
var abaqusElementType = map[mesh.ElementType]string{
	mesh.Tet:   "C3D4",
	mesh.Tet10: "C3D10MH",
}

const (
	// QuadraticTetDeclaration is the declaration written for Tet10 meshes
	QuadraticTetDeclaration = "*Element,type=C3D10MH"
	// SolverTetDeclaration replaces QuadraticTetDeclaration
	SolverTetDeclaration = "*Element, type=C3D10"
	abaqusTrailer        = "** end of mesh data"
	abaqusIDsPerLine     = 16
)

// WriteAbaqus writes nodes, elements and sets as an Abaqus input file
func WriteAbaqus(filename, title string, msh *mesh.VolumeMesh, s *sets.Sets) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	w := bufio.NewWriter(file)
	if err = EncodeAbaqus(w, title, msh, s); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return w.Flush()
}

// EncodeAbaqus writes the Abaqus representation of the mesh to w. Indices
// are written 1-based.
func EncodeAbaqus(w io.Writer, title string, msh *mesh.VolumeMesh, s *sets.Sets) error {
	ew := &errWriter{w: w}
	ew.printf("*Heading\n %s\n", title)
	ew.printf("*Node\n")
	for i, n := range msh.Nodes {
		ew.printf("%d, %.16e, %.16e, %.16e\n", i+1, n[0], n[1], n[2])
	}
	ew.printf("*Element,type=%s\n", abaqusElementType[msh.Type])
	for k, elem := range msh.Elements {
		ew.printf("%d", k+1)
		for _, n := range elem {
			ew.printf(", %d", n+1)
		}
		ew.printf("\n")
	}
	if s != nil {
		for _, name := range sets.SortedNames(s.NodeSets) {
			ew.printf("*Nset,nset=%s\n", name)
			writeIDs(ew, s.NodeSets[name])
		}
		for _, name := range sets.SortedNames(s.ElementSets) {
			ew.printf("*Elset,elset=%s\n", name)
			writeIDs(ew, s.ElementSets[name])
		}
	}
	ew.printf("%s\n", abaqusTrailer)
	return ew.err
}

func writeIDs(ew *errWriter, ids []int) {
	for i, id := range ids {
		switch {
		case i%abaqusIDsPerLine == 0 && i > 0:
			ew.printf(",\n")
		case i > 0:
			ew.printf(", ")
		}
		ew.printf("%d", id+1)
	}
	ew.printf("\n")
}

// PatchDeclaration rewrites the first line equal to from into to and drops
// the trailing line of the file. A file without the from line is malformed.
func PatchDeclaration(filename, from, to string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	lines := strings.SplitAfter(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	idx := -1
	for i, line := range lines {
		if strings.TrimRight(line, "\r\n") == from {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s: declaration %q not found", ErrMalformedOutputFile, filename, from)
	}
	lines[idx] = to + "\n"
	lines = lines[:len(lines)-1]
	return os.WriteFile(filename, []byte(strings.Join(lines, "")), 0644)
}

// errWriter keeps the first write error
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, args...)
	}
}
