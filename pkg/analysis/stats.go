// Package analysis summarizes decoded payloads for diagnostics.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/scene"
)

// Edge is one triangle edge
type Edge struct {
	Start      geometry.Vector3
	End        geometry.Vector3
	Length     float64
	TriangleID int
}

// Stats describes a payload. Edge and area figures are only known for
// payloads decoded to a triangle list.
type Stats struct {
	Bounds     geometry.BoundingBox
	Dimensions geometry.Vector3
	// Footprint is the floor area of the bounds in model units
	Footprint     float64
	Meshes        int
	TriangleCount int
	SurfaceArea   float64
	EdgeCount     int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
}

// HasTriangles reports whether triangle level figures are filled
func (s Stats) HasTriangles() bool {
	return s.TriangleCount > 0
}

// Analyze computes the statistics of p
func Analyze(p *scene.Payload) Stats {
	stats := Stats{
		Bounds:        p.Bounds,
		Meshes:        p.Meshes,
		TriangleCount: len(p.Triangles),
	}
	if !p.Bounds.Empty() {
		stats.Dimensions = p.Bounds.Size()
		stats.Footprint = stats.Dimensions.X * stats.Dimensions.Z
	}

	edges := Edges(p)
	if len(edges) == 0 {
		return stats
	}

	stats.MinEdgeLength = math.MaxFloat64
	total := 0.0
	for _, e := range edges {
		total += e.Length
		stats.MinEdgeLength = math.Min(stats.MinEdgeLength, e.Length)
		stats.MaxEdgeLength = math.Max(stats.MaxEdgeLength, e.Length)
	}
	for _, t := range p.Triangles {
		stats.SurfaceArea += t.Area()
	}
	stats.EdgeCount = len(edges)
	stats.AvgEdgeLength = total / float64(len(edges))
	return stats
}

// Edges lists the three edges of every triangle in p
func Edges(p *scene.Payload) []Edge {
	edges := make([]Edge, 0, len(p.Triangles)*3)
	for i, t := range p.Triangles {
		for _, e := range [][2]geometry.Vector3{{t.V1, t.V2}, {t.V2, t.V3}, {t.V3, t.V1}} {
			edges = append(edges, Edge{
				Start:      e[0],
				End:        e[1],
				Length:     e[0].Distance(e[1]),
				TriangleID: i,
			})
		}
	}
	return edges
}

// LongestEdges returns up to count edges, longest first
func LongestEdges(p *scene.Payload, count int) []Edge {
	edges := Edges(p)
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Length > edges[j].Length
	})
	if count < len(edges) {
		edges = edges[:count]
	}
	return edges
}

// FormatVector formats a vector for display
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
