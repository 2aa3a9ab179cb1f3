package readers

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/xtalmesh/mesh"
)

// gmshNodesPerElement maps Gmsh element type codes to node counts
var gmshNodesPerElement = map[int]int{
	1:  2,  // 2-node line
	2:  3,  // 3-node triangle
	3:  4,  // 4-node quadrangle
	4:  4,  // 4-node tetrahedron
	5:  8,  // 8-node hexahedron
	6:  6,  // 6-node prism
	7:  5,  // 5-node pyramid
	8:  3,  // 3-node line
	9:  6,  // 6-node triangle
	11: 10, // 10-node tetrahedron
	15: 1,  // 1-node point
}

// Gmsh orders the last two mid-edge nodes of a Tet10 as (2,3), (1,3)
var gmshTet10Order = [10]int{0, 1, 2, 3, 4, 5, 6, 7, 9, 8}

// gmshHeader holds the $MeshFormat contents
type gmshHeader struct {
	Version   string
	IsBinary  bool
	DataSize  int
	ByteOrder binary.ByteOrder
}

// ReadGmsh22 reads the tetrahedra of a Gmsh MSH 2.2 file, ASCII or binary.
// Lower dimensional elements are skipped. If both linear and quadratic tets
// are present the first type found wins and the others are rejected.
func ReadGmsh22(filename string) (*mesh.VolumeMesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	msh, err := readGmsh22(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return msh, nil
}

func readGmsh22(r *bufio.Reader) (*mesh.VolumeMesh, error) {
	var (
		hdr     *gmshHeader
		nodeMap = make(map[int]int) // Gmsh node ID -> array index
		msh     = &mesh.VolumeMesh{Type: -1}
		err     error
	)
	for {
		line, rerr := r.ReadString('\n')
		line = strings.TrimSpace(line)
		switch line {
		case "$MeshFormat":
			if hdr, err = readMeshFormat22(r); err != nil {
				return nil, err
			}
		case "$Nodes":
			if hdr == nil {
				return nil, fmt.Errorf("$Nodes before $MeshFormat")
			}
			if err = readNodes22(r, hdr, msh, nodeMap); err != nil {
				return nil, err
			}
		case "$Elements":
			if hdr == nil {
				return nil, fmt.Errorf("$Elements before $MeshFormat")
			}
			if err = readElements22(r, hdr, msh, nodeMap); err != nil {
				return nil, err
			}
		default:
			if strings.HasPrefix(line, "$") && !strings.HasPrefix(line, "$End") {
				// Skip data sections, binary payloads included
				if err = skipSection(r, "$End"+line[1:]); err != nil {
					return nil, err
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
	}
	if hdr == nil {
		return nil, fmt.Errorf("could not find $MeshFormat section")
	}
	if msh.Type < 0 {
		return nil, fmt.Errorf("no tetrahedral elements found")
	}
	if err = msh.Validate(); err != nil {
		return nil, err
	}
	return msh, nil
}

// readMeshFormat22 reads the MeshFormat section
func readMeshFormat22(r *bufio.Reader) (*gmshHeader, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("unexpected EOF in MeshFormat")
	}
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid MeshFormat line: %q", line)
	}
	hdr := &gmshHeader{Version: parts[0], ByteOrder: binary.LittleEndian}
	if !strings.HasPrefix(hdr.Version, "2.") {
		return nil, fmt.Errorf("unsupported Gmsh format version: %s", hdr.Version)
	}
	fileType, _ := strconv.Atoi(parts[1])
	hdr.IsBinary = fileType == 1
	hdr.DataSize, _ = strconv.Atoi(parts[2])
	if hdr.IsBinary {
		if hdr.DataSize != 8 {
			return nil, fmt.Errorf("unsupported binary data size %d", hdr.DataSize)
		}
		// Binary files write the integer 1 to fix the byte order
		var one [4]byte
		if _, err = io.ReadFull(r, one[:]); err != nil {
			return nil, fmt.Errorf("unexpected EOF in MeshFormat")
		}
		if binary.BigEndian.Uint32(one[:]) == 1 {
			hdr.ByteOrder = binary.BigEndian
		}
	}
	return hdr, skipSection(r, "$EndMeshFormat")
}

func readCount(r *bufio.Reader, section string) (int, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("unexpected EOF in %s", section)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("invalid %s count: %w", section, err)
	}
	return n, nil
}

// readNodes22 reads nodes in v2.2 format
func readNodes22(r *bufio.Reader, hdr *gmshHeader, msh *mesh.VolumeMesh, nodeMap map[int]int) error {
	numNodes, err := readCount(r, "Nodes")
	if err != nil {
		return err
	}
	msh.Nodes = make([][3]float64, 0, numNodes)

	for i := 0; i < numNodes; i++ {
		var (
			nodeID int
			xyz    [3]float64
		)
		if hdr.IsBinary {
			var rec [28]byte
			if _, err = io.ReadFull(r, rec[:]); err != nil {
				return fmt.Errorf("unexpected EOF reading nodes")
			}
			nodeID = int(int32(hdr.ByteOrder.Uint32(rec[0:4])))
			for j := 0; j < 3; j++ {
				xyz[j] = math.Float64frombits(hdr.ByteOrder.Uint64(rec[4+8*j:]))
			}
		} else {
			line, rerr := r.ReadString('\n')
			if rerr != nil && line == "" {
				return fmt.Errorf("unexpected EOF reading nodes")
			}
			parts := strings.Fields(line)
			if len(parts) < 4 {
				return fmt.Errorf("invalid node line: %s", line)
			}
			nodeID, _ = strconv.Atoi(parts[0])
			for j := 0; j < 3; j++ {
				if xyz[j], err = strconv.ParseFloat(parts[1+j], 64); err != nil {
					return fmt.Errorf("node %d: %w", nodeID, err)
				}
			}
		}
		nodeMap[nodeID] = len(msh.Nodes)
		msh.Nodes = append(msh.Nodes, xyz)
	}
	return skipSection(r, "$EndNodes")
}

// readElements22 reads elements in v2.2 format
func readElements22(r *bufio.Reader, hdr *gmshHeader, msh *mesh.VolumeMesh, nodeMap map[int]int) error {
	numElements, err := readCount(r, "Elements")
	if err != nil {
		return err
	}
	if hdr.IsBinary {
		err = readElementsBinary22(r, hdr, numElements, msh, nodeMap)
	} else {
		err = readElementsASCII22(r, numElements, msh, nodeMap)
	}
	if err != nil {
		return err
	}
	return skipSection(r, "$EndElements")
}

func readElementsASCII22(r *bufio.Reader, numElements int, msh *mesh.VolumeMesh, nodeMap map[int]int) error {
	for i := 0; i < numElements; i++ {
		line, rerr := r.ReadString('\n')
		if rerr != nil && line == "" {
			return fmt.Errorf("unexpected EOF reading elements")
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			return fmt.Errorf("invalid element line: %s", line)
		}
		elemID, _ := strconv.Atoi(parts[0])
		elemType, _ := strconv.Atoi(parts[1])
		numTags, _ := strconv.Atoi(parts[2])
		nodeStart := 3 + numTags
		if len(parts) < nodeStart {
			return fmt.Errorf("element %d: invalid element tags", elemID)
		}
		nodeIDs := make([]int, len(parts)-nodeStart)
		for j := range nodeIDs {
			nodeIDs[j], _ = strconv.Atoi(parts[nodeStart+j])
		}
		if err := addElement22(msh, nodeMap, elemID, elemType, nodeIDs); err != nil {
			return err
		}
	}
	return nil
}

func readElementsBinary22(r *bufio.Reader, hdr *gmshHeader, numElements int, msh *mesh.VolumeMesh, nodeMap map[int]int) error {
	readInts := func(n int) ([]int, error) {
		buf := make([]byte, 4*n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("unexpected EOF reading elements")
		}
		vals := make([]int, n)
		for i := range vals {
			vals[i] = int(int32(hdr.ByteOrder.Uint32(buf[4*i:])))
		}
		return vals, nil
	}
	for read := 0; read < numElements; {
		blk, err := readInts(3) // type, count, number of tags
		if err != nil {
			return err
		}
		elemType, count, numTags := blk[0], blk[1], blk[2]
		nn, ok := gmshNodesPerElement[elemType]
		if !ok {
			return fmt.Errorf("unsupported binary element type %d", elemType)
		}
		for k := 0; k < count; k++ {
			rec, err := readInts(1 + numTags + nn)
			if err != nil {
				return err
			}
			if err = addElement22(msh, nodeMap, rec[0], elemType, rec[1+numTags:]); err != nil {
				return err
			}
		}
		read += count
	}
	return nil
}

// addElement22 keeps tetrahedra and converts node IDs to array indices
func addElement22(msh *mesh.VolumeMesh, nodeMap map[int]int, elemID, elemType int, nodeIDs []int) error {
	var etype mesh.ElementType
	switch elemType {
	case 4:
		etype = mesh.Tet
	case 11:
		etype = mesh.Tet10
	default:
		return nil
	}
	if msh.Type >= 0 && msh.Type != etype {
		return fmt.Errorf("element %d: mixed tetrahedron orders (%s and %s)", elemID, msh.Type, etype)
	}
	msh.Type = etype
	nn := etype.GetNumNodes()
	if len(nodeIDs) < nn {
		return fmt.Errorf("element %d: expected %d nodes, got %d", elemID, nn, len(nodeIDs))
	}
	verts := make([]int, nn)
	for j := 0; j < nn; j++ {
		src := j
		if etype == mesh.Tet10 {
			src = gmshTet10Order[j]
		}
		idx, ok := nodeMap[nodeIDs[src]]
		if !ok {
			return fmt.Errorf("element %d: undefined node %d", elemID, nodeIDs[src])
		}
		verts[j] = idx
	}
	msh.Elements = append(msh.Elements, verts)
	return nil
}

// skipSection reads lines until the end marker, tolerating binary payloads
func skipSection(r *bufio.Reader, endMarker string) error {
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) == endMarker {
			return nil
		}
		if err != nil {
			return fmt.Errorf("missing %s", endMarker)
		}
	}
}
