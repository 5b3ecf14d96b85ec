package solid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/meshgen/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportOBJ(t *testing.T) {
	path := writeTemp(t, "bracket.obj", `# exported elsewhere
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
vn 0 0 1
f 1/1/1 3/2/1 2/3/1
f 1 2 4
f 1 4 3
f 2 3 4
`)

	m, err := ImportOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, "bracket", m.Name)
	assert.Len(t, m.Vertices, 4)
	assert.Equal(t, [][]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}, m.Faces)
}

func TestImportOBJ_RoundTripThroughEncode(t *testing.T) {
	s, err := Build(cubeMesh())
	require.NoError(t, err)
	path := writeTemp(t, "cube.obj", string(s.EncodeOBJ()))

	m, err := ImportOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, s.Vertices, m.Vertices)
	assert.Equal(t, s.Faces, m.Faces)

	rebuilt, err := Build(m)
	require.NoError(t, err)
	assert.InDelta(t, s.Volume(), rebuilt.Volume(), 1e-9)
}

func TestImportOBJ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    types.ErrorCode
		msg     string
	}{
		{
			name:    "negative index",
			content: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -1 -2 -3\n",
			code:    types.ErrMeshParse,
			msg:     "not positive",
		},
		{
			name:    "short vertex",
			content: "v 0 0\n",
			code:    types.ErrMeshParse,
			msg:     "3 coordinates",
		},
		{
			name:    "bad coordinate",
			content: "v 0 0 zero\n",
			code:    types.ErrMeshParse,
			msg:     "bad coordinate",
		},
		{
			name:    "index past vertex list",
			content: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
			code:    types.ErrMeshParse,
			msg:     "vertices",
		},
		{
			name:    "no faces",
			content: "v 0 0 0\n",
			code:    types.ErrMeshParse,
			msg:     "no faces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "bad.obj", tt.content)
			_, err := ImportOBJ(path)
			require.Error(t, err)
			assert.Equal(t, tt.code, types.GetErrorCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestImportOBJ_MissingFile(t *testing.T) {
	_, err := ImportOBJ(filepath.Join(t.TempDir(), "nope.obj"))
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingInput, types.GetErrorCode(err))
}

func TestImportSTL_BinaryRoundTrip(t *testing.T) {
	s, err := Build(tetrahedronMesh())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tetra.stl")
	require.NoError(t, os.WriteFile(path, s.EncodeSTL(), 0o644))

	m, err := ImportSTL(path)
	require.NoError(t, err)
	assert.Equal(t, "tetra", m.Name)
	assert.Len(t, m.Vertices, 4, "shared vertices should be merged")
	assert.Len(t, m.Faces, 4)

	rebuilt, err := Build(m)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/6.0, rebuilt.Volume(), 1e-6)
}

func TestImportSTL_ASCII(t *testing.T) {
	path := writeTemp(t, "tetra.stl", `solid tetra
facet normal 0 0 -1
  outer loop
    vertex 0 0 0
    vertex 0 1 0
    vertex 1 0 0
  endloop
endfacet
facet normal 0 -1 0
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 0 1
  endloop
endfacet
facet normal -1 0 0
  outer loop
    vertex 0 0 0
    vertex 0 0 1
    vertex 0 1 0
  endloop
endfacet
facet normal 1 1 1
  outer loop
    vertex 1 0 0
    vertex 0 1 0
    vertex 0 0 1
  endloop
endfacet
endsolid tetra
`)

	m, err := ImportSTL(path)
	require.NoError(t, err)
	assert.Len(t, m.Vertices, 4)
	assert.Len(t, m.Faces, 4)

	_, err = Build(m)
	require.NoError(t, err)
}

func TestImportSTL_Truncated(t *testing.T) {
	s, err := Build(tetrahedronMesh())
	require.NoError(t, err)
	data := s.EncodeSTL()
	path := filepath.Join(t.TempDir(), "cut.stl")
	require.NoError(t, os.WriteFile(path, data[:len(data)-10], 0o644))

	_, err = ImportSTL(path)
	require.Error(t, err)
	assert.Equal(t, types.ErrMeshParse, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "truncated")
}

func TestImport_DispatchesOnExtension(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "mesh.ply"))
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedFormat, types.GetErrorCode(err))
}
