package solid

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/unixpickle/model3d/model3d"
)

// EncodeOBJ renders the authored geometry in Wavefront OBJ format.
// Faces keep their authored arity; indices are shifted to the format's
// one-based convention.
func (s *Solid) EncodeOBJ() []byte {
	var b bytes.Buffer
	for _, v := range s.Vertices {
		fmt.Fprintf(&b, "v %g %g %g\n", v[0], v[1], v[2])
	}
	for _, f := range s.Faces {
		b.WriteString("f")
		for _, idx := range f {
			fmt.Fprintf(&b, " %d", idx+1)
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// EncodeSTL renders the triangulated surface in binary STL format.
func (s *Solid) EncodeSTL() []byte {
	return model3d.EncodeSTL(s.mesh.TriangleSlice())
}

// Metadata is the sidecar record written next to the OBJ and STL
// artifacts. SourceImages is set for generate runs, SourceMesh for
// convert runs.
type Metadata struct {
	Name         string            `json:"name,omitempty"`
	Description  string            `json:"description,omitempty"`
	SourceImages map[string]string `json:"source_images,omitempty"`
	SourceMesh   string            `json:"source_mesh,omitempty"`
	VertexCount  int               `json:"vertex_count"`
	FaceCount    int               `json:"face_count"`
	GeneratedAt  string            `json:"generated_at"`
}

func encodeMetadata(meta Metadata) ([]byte, error) {
	out, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
