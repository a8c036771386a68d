package analysis

import (
	"math"
	"testing"

	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/scene"
)

func rightTriangle() *scene.Payload {
	up := geometry.NewVector3(0, 1, 0)
	tri := geometry.NewTriangle(up,
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(3, 0, 0),
		geometry.NewVector3(0, 0, 4),
	)
	bounds := geometry.NewBoundingBox()
	for _, v := range []geometry.Vector3{tri.V1, tri.V2, tri.V3} {
		bounds.Extend(v)
	}
	return &scene.Payload{Format: scene.FormatSTL, Bounds: bounds, Meshes: 1, Triangles: []geometry.Triangle{tri}}
}

func TestAnalyzeTriangles(t *testing.T) {
	stats := Analyze(rightTriangle())

	if !stats.HasTriangles() || stats.TriangleCount != 1 {
		t.Fatalf("TriangleCount = %d, want 1", stats.TriangleCount)
	}
	if stats.EdgeCount != 3 {
		t.Errorf("EdgeCount = %d, want 3", stats.EdgeCount)
	}
	if stats.MinEdgeLength != 3 || stats.MaxEdgeLength != 5 {
		t.Errorf("edge range = %v..%v, want 3..5", stats.MinEdgeLength, stats.MaxEdgeLength)
	}
	if math.Abs(stats.AvgEdgeLength-4) > 1e-9 {
		t.Errorf("AvgEdgeLength = %v, want 4", stats.AvgEdgeLength)
	}
	if math.Abs(stats.SurfaceArea-6) > 1e-9 {
		t.Errorf("SurfaceArea = %v, want 6", stats.SurfaceArea)
	}
	if stats.Footprint != 12 {
		t.Errorf("Footprint = %v, want 12", stats.Footprint)
	}
}

func TestAnalyzeWithoutTriangles(t *testing.T) {
	bounds := geometry.NewBoundingBox()
	bounds.Extend(geometry.NewVector3(-1, 0, -1))
	bounds.Extend(geometry.NewVector3(1, 2, 1))

	stats := Analyze(&scene.Payload{Format: scene.FormatGLB, Bounds: bounds, Meshes: 2})
	if stats.HasTriangles() || stats.EdgeCount != 0 {
		t.Errorf("unexpected triangle figures: %+v", stats)
	}
	if stats.Dimensions != geometry.NewVector3(2, 2, 2) {
		t.Errorf("Dimensions = %v", stats.Dimensions)
	}
	if stats.Meshes != 2 {
		t.Errorf("Meshes = %d, want 2", stats.Meshes)
	}
}

func TestAnalyzeEmptyBounds(t *testing.T) {
	stats := Analyze(&scene.Payload{Bounds: geometry.NewBoundingBox()})
	if stats.Footprint != 0 || stats.Dimensions != (geometry.Vector3{}) {
		t.Errorf("empty bounds produced %+v", stats)
	}
}

func TestLongestEdges(t *testing.T) {
	edges := LongestEdges(rightTriangle(), 2)
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
	if edges[0].Length != 5 || edges[1].Length != 4 {
		t.Errorf("lengths = %v, %v; want 5, 4", edges[0].Length, edges[1].Length)
	}

	if all := LongestEdges(rightTriangle(), 10); len(all) != 3 {
		t.Errorf("got %d edges, want 3", len(all))
	}
}
