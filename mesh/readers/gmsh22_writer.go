package readers

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/notargets/xtalmesh/mesh"
)

// WriteGmsh22 writes a tetrahedral mesh in Gmsh MSH 2.2 format. When tags is
// not nil it holds one physical tag per element, grain labels for example.
func WriteGmsh22(filename string, msh *mesh.VolumeMesh, tags []int, isBinary bool) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	w := bufio.NewWriter(file)
	if err = EncodeGmsh22(w, msh, tags, isBinary); err != nil {
		return err
	}
	return w.Flush()
}

// EncodeGmsh22 writes the MSH 2.2 representation of msh to w
func EncodeGmsh22(w io.Writer, msh *mesh.VolumeMesh, tags []int, isBinary bool) error {
	var (
		ew       = &errWriter{w: w}
		gmshType = 4
		order    = [10]int{0, 1, 2, 3}
	)
	if tags != nil && len(tags) != msh.NumElements() {
		return fmt.Errorf("expected %d element tags, got %d", msh.NumElements(), len(tags))
	}
	if msh.Type == mesh.Tet10 {
		gmshType = 11
		order = gmshTet10Order
	}
	fileType := 0
	if isBinary {
		fileType = 1
	}

	ew.printf("$MeshFormat\n2.2 %d 8\n", fileType)
	if isBinary {
		ew.binary(int32(1))
		ew.printf("\n")
	}
	ew.printf("$EndMeshFormat\n")

	ew.printf("$Nodes\n%d\n", msh.NumNodes())
	for i, n := range msh.Nodes {
		if isBinary {
			ew.binary(int32(i + 1))
			ew.binary(n)
		} else {
			ew.printf("%d %.17g %.17g %.17g\n", i+1, n[0], n[1], n[2])
		}
	}
	if isBinary {
		ew.printf("\n")
	}
	ew.printf("$EndNodes\n")

	nn := msh.Type.GetNumNodes()
	ew.printf("$Elements\n%d\n", msh.NumElements())
	if isBinary {
		ew.binary([3]int32{int32(gmshType), int32(msh.NumElements()), 2})
	}
	for k, elem := range msh.Elements {
		tag := 0
		if tags != nil {
			tag = tags[k]
		}
		if isBinary {
			rec := make([]int32, 3+nn)
			rec[0], rec[1], rec[2] = int32(k+1), int32(tag), int32(tag)
			for j := 0; j < nn; j++ {
				rec[3+order[j]] = int32(elem[j] + 1)
			}
			ew.binary(rec)
			continue
		}
		ew.printf("%d %d 2 %d %d", k+1, gmshType, tag, tag)
		ids := make([]int, nn)
		for j := 0; j < nn; j++ {
			ids[order[j]] = elem[j] + 1
		}
		for _, id := range ids {
			ew.printf(" %d", id)
		}
		ew.printf("\n")
	}
	if isBinary {
		ew.printf("\n")
	}
	ew.printf("$EndElements\n")
	return ew.err
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

func (ew *errWriter) binary(data interface{}) {
	if ew.err == nil {
		ew.err = binary.Write(ew.w, binary.LittleEndian, data)
	}
}
