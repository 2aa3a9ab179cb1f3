package meshio

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// Header lines preceding the data in the surface mesh text exports. The
// counts include the column header line.
const (
	NodesHeaderLines      = 5
	TrianglesHeaderLines  = 9
	NodeTypeHeaderLines   = 1
	FaceLabelsHeaderLines = 1
)

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// ReadTable reads a numeric table after skipping headerLines lines. Fields are
// separated by whitespace or commas; blank lines are ignored.
func ReadTable(filename string, headerLines int) (rows [][]float64, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		if lineNum <= headerLines {
			continue
		}
		fields := splitFields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for j, f := range fields {
			if row[j], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", filename, lineNum, err)
			}
		}
		rows = append(rows, row)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return rows, nil
}

func checkColumns(filename string, rows [][]float64, ncols int) error {
	for i, row := range rows {
		if len(row) < ncols {
			return fmt.Errorf("%s: row %d has %d columns, expected %d", filename, i, len(row), ncols)
		}
	}
	return nil
}

func toInt(filename string, v float64) (int, error) {
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%s: non-integer value %v", filename, v)
	}
	return int(v), nil
}

// ReadNodes reads node positions into a [nnodes x 3] matrix
func ReadNodes(filename string, headerLines int) (*mat.Dense, error) {
	rows, err := ReadTable(filename, headerLines)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no nodes", filename)
	}
	if err = checkColumns(filename, rows, 3); err != nil {
		return nil, err
	}
	V := mat.NewDense(len(rows), 3, nil)
	for i, row := range rows {
		V.SetRow(i, row[:3])
	}
	return V, nil
}

// ReadTriangles reads 0-based triangle connectivity
func ReadTriangles(filename string, headerLines int) ([][3]int, error) {
	rows, err := ReadTable(filename, headerLines)
	if err != nil {
		return nil, err
	}
	if err = checkColumns(filename, rows, 3); err != nil {
		return nil, err
	}
	F := make([][3]int, len(rows))
	for i, row := range rows {
		for j := 0; j < 3; j++ {
			if F[i][j], err = toInt(filename, row[j]); err != nil {
				return nil, err
			}
		}
	}
	return F, nil
}

// ReadIntColumns reads an integer table, every row keeping all its columns
func ReadIntColumns(filename string, headerLines int) ([][]int, error) {
	rows, err := ReadTable(filename, headerLines)
	if err != nil {
		return nil, err
	}
	out := make([][]int, len(rows))
	for i, row := range rows {
		out[i] = make([]int, len(row))
		for j, v := range row {
			if out[i][j], err = toInt(filename, v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// ReadNodeTypes reads one integer feature code per node
func ReadNodeTypes(filename string, headerLines int) ([]int, error) {
	rows, err := ReadIntColumns(filename, headerLines)
	if err != nil {
		return nil, err
	}
	types := make([]int, len(rows))
	for i, row := range rows {
		types[i] = row[0]
	}
	return types, nil
}

// WriteTable writes rows of numbers separated by spaces. Integral tables are
// written without decimals.
func WriteTable(filename string, rows [][]float64, integral bool) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	w := bufio.NewWriter(file)
	for _, row := range rows {
		for j, v := range row {
			if j > 0 {
				w.WriteByte(' ')
			}
			if integral {
				w.WriteString(strconv.FormatInt(int64(v), 10))
			} else {
				w.WriteString(strconv.FormatFloat(v, 'e', 18, 64))
			}
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}
