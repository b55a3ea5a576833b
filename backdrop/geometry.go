package backdrop

import (
	"fmt"
	"math"
	"math/rand"
)

// GeometryKind selects the mesh an Entity is drawn with.
type GeometryKind string

const (
	KindPoints      GeometryKind = "points"
	KindIcosahedron GeometryKind = "icosahedron"
	KindOctahedron  GeometryKind = "octahedron"
	KindTetrahedron GeometryKind = "tetrahedron"
)

// Mesh is a wireframe: local vertices plus index pairs.
type Mesh struct {
	Vertices []Vec3
	Edges    [][2]int
}

// NewMesh builds the wireframe for a solid kind scaled to radius r.
// KindPoints has no edges; its vertices come from ParticleCloud.
func NewMesh(kind GeometryKind, r float64) (Mesh, error) {
	var verts []Vec3
	switch kind {
	case KindPoints:
		return Mesh{}, nil
	case KindIcosahedron:
		phi := (1 + math.Sqrt(5)) / 2
		verts = []Vec3{
			{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
			{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
			{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
		}
	case KindOctahedron:
		verts = []Vec3{
			{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
		}
	case KindTetrahedron:
		verts = []Vec3{
			{1, 1, 1}, {-1, -1, 1}, {-1, 1, -1}, {1, -1, -1},
		}
	default:
		return Mesh{}, fmt.Errorf("unknown geometry kind %q", kind)
	}

	for i, v := range verts {
		verts[i] = v.Scale(r / v.Len())
	}
	return Mesh{Vertices: verts, Edges: shortestEdges(verts)}, nil
}

// shortestEdges links every vertex pair at the minimum pairwise distance.
// For the regular solids above that is exactly the edge set.
func shortestEdges(verts []Vec3) [][2]int {
	minDist := math.Inf(1)
	for i := range verts {
		for j := i + 1; j < len(verts); j++ {
			if d := verts[i].Sub(verts[j]).Len(); d < minDist {
				minDist = d
			}
		}
	}
	const eps = 1e-9
	var edges [][2]int
	for i := range verts {
		for j := i + 1; j < len(verts); j++ {
			if verts[i].Sub(verts[j]).Len()-minDist < eps*math.Max(1, minDist) {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// ParticleCloud scatters count points uniformly in a cube of side spread
// centred on the origin.
func ParticleCloud(count int, spread float64, rng *rand.Rand) []Vec3 {
	pts := make([]Vec3, count)
	for i := range pts {
		pts[i] = Vec3{
			X: (rng.Float64() - 0.5) * spread,
			Y: (rng.Float64() - 0.5) * spread,
			Z: (rng.Float64() - 0.5) * spread,
		}
	}
	return pts
}
