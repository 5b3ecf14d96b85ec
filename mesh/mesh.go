// Package mesh recovers vertex and face lists from vision model
// replies. Parsing is strictly structural: indices are checked against
// the vertex list, but no geometric property is ever inspected or
// repaired here.
package mesh

import (
	"fmt"
	"math"

	"github.com/BaSui01/meshgen/types"
)

// Mesh is the geometric payload recovered from a reply.
type Mesh struct {
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Vertices    [][3]float64 `json:"vertices"`
	Faces       [][]int      `json:"faces"`
}

// Validate checks the structural rules: at least one vertex and one
// face, finite coordinates, every face with three or more indices, and
// every index inside the vertex list.
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return types.NewError(types.ErrMeshParse, "no vertices found")
	}
	if len(m.Faces) == 0 {
		return types.NewError(types.ErrMeshParse, "no faces found")
	}

	for i, v := range m.Vertices {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return types.NewError(types.ErrMeshParse,
					fmt.Sprintf("vertex %d has a non-finite coordinate", i))
			}
		}
	}

	for i, face := range m.Faces {
		if len(face) < 3 {
			return types.NewError(types.ErrMeshParse,
				fmt.Sprintf("face %d has %d indices, need at least 3", i, len(face)))
		}
		for _, idx := range face {
			if idx < 0 || idx >= len(m.Vertices) {
				return types.NewError(types.ErrMeshParse,
					fmt.Sprintf("face %d references vertex %d, mesh has %d vertices",
						i, idx, len(m.Vertices)))
			}
		}
	}

	return nil
}

// normalizeOneBased shifts all face indices down by one when the face
// list is unambiguously one-based: no index below 1 and the highest
// index equal to the vertex count. Anything less clear-cut is left
// alone for Validate to judge.
func (m *Mesh) normalizeOneBased() bool {
	if len(m.Vertices) == 0 {
		return false
	}

	var min, max int
	found := false
	for _, face := range m.Faces {
		for _, idx := range face {
			if !found {
				min, max = idx, idx
				found = true
				continue
			}
			if idx < min {
				min = idx
			}
			if idx > max {
				max = idx
			}
		}
	}

	if !found || min < 1 || max != len(m.Vertices) {
		return false
	}

	for _, face := range m.Faces {
		for j := range face {
			face[j]--
		}
	}
	return true
}
