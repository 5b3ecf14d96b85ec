// Package solid turns parsed meshes into validated solids and writes
// their interchange artifacts. Validity is decided entirely by the
// model3d library: a mesh that fails its manifold, intersection, or
// volume checks is rejected as-is, never repaired.
package solid

import (
	"fmt"
	"math"

	"github.com/unixpickle/model3d/model3d"

	"github.com/BaSui01/meshgen/mesh"
	"github.com/BaSui01/meshgen/types"
)

// Volumes below this are treated as empty solids.
const zeroVolumeEps = 1e-9

// Solid is a mesh that passed geometric validation. The authored
// vertex and face lists are retained so exports preserve the ordering
// the model produced; the triangulated surface backs STL output and
// measurements.
type Solid struct {
	Name        string
	Description string
	Vertices    [][3]float64
	Faces       [][]int
	Triangles   [][3]int

	mesh *model3d.Mesh
}

// Build constructs a solid from a parsed mesh. Faces with more than
// three vertices are fan-triangulated around their first vertex before
// the geometry checks run.
func Build(m *mesh.Mesh) (*Solid, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	tris := triangulate(m.Faces)
	mdTris := make([]*model3d.Triangle, 0, len(tris))
	for _, t := range tris {
		mdTris = append(mdTris, &model3d.Triangle{
			coord(m.Vertices[t[0]]),
			coord(m.Vertices[t[1]]),
			coord(m.Vertices[t[2]]),
		})
	}
	md := model3d.NewMeshTriangles(mdTris)

	if md.NeedsRepair() {
		return nil, types.NewError(types.ErrInvalidGeometry,
			"surface has edges not shared by exactly two triangles")
	}
	if len(md.SingularVertices()) > 0 {
		return nil, types.NewError(types.ErrInvalidGeometry,
			"surface is not manifold")
	}
	if n := md.SelfIntersections(); n > 0 {
		return nil, types.NewError(types.ErrInvalidGeometry,
			fmt.Sprintf("surface intersects itself (%d intersections)", n))
	}
	if vol := md.Volume(); math.Abs(vol) < zeroVolumeEps {
		return nil, types.NewError(types.ErrInvalidGeometry,
			fmt.Sprintf("solid encloses no volume (%g)", vol))
	}

	return &Solid{
		Name:        m.Name,
		Description: m.Description,
		Vertices:    m.Vertices,
		Faces:       m.Faces,
		Triangles:   tris,
		mesh:        md,
	}, nil
}

// Volume reports the enclosed volume. The sign follows the authored
// winding order.
func (s *Solid) Volume() float64 {
	return s.mesh.Volume()
}

// SurfaceArea reports the total triangle area.
func (s *Solid) SurfaceArea() float64 {
	return s.mesh.Area()
}

// Genus reports the topological genus derived from the Euler
// characteristic of the triangulated surface.
func (s *Solid) Genus() int {
	verts := make(map[int]struct{})
	edges := make(map[[2]int]struct{})
	for _, t := range s.Triangles {
		for i, v := range t {
			verts[v] = struct{}{}
			a, b := v, t[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			edges[[2]int{a, b}] = struct{}{}
		}
	}
	chi := len(verts) - len(edges) + len(s.Triangles)
	return (2 - chi) / 2
}

// triangulate fans every face around its first vertex. Triangles pass
// through unchanged.
func triangulate(faces [][]int) [][3]int {
	var tris [][3]int
	for _, f := range faces {
		for i := 1; i+1 < len(f); i++ {
			tris = append(tris, [3]int{f[0], f[i], f[i+1]})
		}
	}
	return tris
}

func coord(v [3]float64) model3d.Coord3D {
	return model3d.XYZ(v[0], v[1], v[2])
}
