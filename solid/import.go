package solid

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BaSui01/meshgen/mesh"
	"github.com/BaSui01/meshgen/types"
)

// Import reads a mesh from an OBJ or STL file, dispatching on the
// file extension.
func Import(path string) (*mesh.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return ImportOBJ(path)
	case ".stl":
		return ImportSTL(path)
	default:
		return nil, types.NewError(types.ErrUnsupportedFormat,
			fmt.Sprintf("cannot import %s: only .obj and .stl are supported", path))
	}
}

// ImportOBJ reads vertex and face statements from a Wavefront OBJ
// file. Texture and normal references after a slash are ignored;
// negative (relative) indices are rejected.
func ImportOBJ(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.ErrMissingInput,
			fmt.Sprintf("read %s: %v", path, err)).WithCause(err)
	}
	defer f.Close()

	m := &mesh.Mesh{Name: stemName(path)}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, objErr(path, lineNo, "vertex needs 3 coordinates")
			}
			var v [3]float64
			for i := 0; i < 3; i++ {
				c, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, objErr(path, lineNo,
						fmt.Sprintf("bad coordinate %q", fields[i+1]))
				}
				v[i] = c
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, objErr(path, lineNo, "face needs at least 3 indices")
			}
			face := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idxText, _, _ := strings.Cut(ref, "/")
				idx, err := strconv.Atoi(idxText)
				if err != nil {
					return nil, objErr(path, lineNo,
						fmt.Sprintf("bad index %q", ref))
				}
				if idx < 1 {
					return nil, objErr(path, lineNo,
						fmt.Sprintf("index %d is not positive", idx))
				}
				face = append(face, idx-1)
			}
			m.Faces = append(m.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, types.NewError(types.ErrMeshParse,
			fmt.Sprintf("read %s: %v", path, err)).WithCause(err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ImportSTL reads a binary or ASCII STL file. Identical vertices are
// merged so the faces index a shared vertex list.
func ImportSTL(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrMissingInput,
			fmt.Sprintf("read %s: %v", path, err)).WithCause(err)
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("solid")) && bytes.Contains(data, []byte("facet")) {
		return importASCIISTL(path, data)
	}
	return importBinarySTL(path, data)
}

func importBinarySTL(path string, data []byte) (*mesh.Mesh, error) {
	if len(data) < 84 {
		return nil, types.NewError(types.ErrMeshParse,
			fmt.Sprintf("%s: binary STL shorter than its 84-byte header", path))
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	const recordSize = 50
	if int64(len(data)) < 84+int64(count)*recordSize {
		return nil, types.NewError(types.ErrMeshParse,
			fmt.Sprintf("%s: truncated binary STL, header promises %d triangles", path, count))
	}

	m := &mesh.Mesh{Name: stemName(path)}
	vertIndex := make(map[[3]float32]int)
	for i := 0; i < int(count); i++ {
		rec := data[84+i*recordSize:]
		face := make([]int, 3)
		for v := 0; v < 3; v++ {
			var key [3]float32
			for c := 0; c < 3; c++ {
				// 12 normal bytes precede the vertex floats.
				bits := binary.LittleEndian.Uint32(rec[12+12*v+4*c:])
				key[c] = math.Float32frombits(bits)
			}
			idx, ok := vertIndex[key]
			if !ok {
				idx = len(m.Vertices)
				m.Vertices = append(m.Vertices,
					[3]float64{float64(key[0]), float64(key[1]), float64(key[2])})
				vertIndex[key] = idx
			}
			face[v] = idx
		}
		m.Faces = append(m.Faces, face)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func importASCIISTL(path string, data []byte) (*mesh.Mesh, error) {
	m := &mesh.Mesh{Name: stemName(path)}
	vertIndex := make(map[[3]float64]int)
	var facet []int

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, stlErr(path, lineNo, "vertex needs 3 coordinates")
			}
			var v [3]float64
			for i := 0; i < 3; i++ {
				c, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, stlErr(path, lineNo,
						fmt.Sprintf("bad coordinate %q", fields[i+1]))
				}
				v[i] = c
			}
			idx, ok := vertIndex[v]
			if !ok {
				idx = len(m.Vertices)
				m.Vertices = append(m.Vertices, v)
				vertIndex[v] = idx
			}
			facet = append(facet, idx)
		case "endfacet":
			if len(facet) != 3 {
				return nil, stlErr(path, lineNo,
					fmt.Sprintf("facet has %d vertices, want 3", len(facet)))
			}
			m.Faces = append(m.Faces, facet)
			facet = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, types.NewError(types.ErrMeshParse,
			fmt.Sprintf("read %s: %v", path, err)).WithCause(err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func objErr(path string, line int, msg string) error {
	return types.NewError(types.ErrMeshParse,
		fmt.Sprintf("%s:%d: %s", path, line, msg))
}

func stlErr(path string, line int, msg string) error {
	return types.NewError(types.ErrMeshParse,
		fmt.Sprintf("%s:%d: %s", path, line, msg))
}

func stemName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
