package geometry

import (
	"math"
	"testing"
)

func TestTriangleArea(t *testing.T) {
	// Create a right triangle with sides 3, 4, 5
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)

	area := tri.Area()
	expected := 6.0 // (3 * 4) / 2 = 6

	if math.Abs(area-expected) > 1e-10 {
		t.Errorf("Area failed: expected %v, got %v", expected, area)
	}
}

func TestTriangleEdgeLengths(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)

	lengths := tri.EdgeLengths()

	// Expected lengths: 3, 5, 4 (Pythagorean triple)
	if math.Abs(lengths[0]-3.0) > 1e-10 {
		t.Errorf("Edge 0 length failed: expected 3.0, got %v", lengths[0])
	}
	if math.Abs(lengths[1]-5.0) > 1e-10 {
		t.Errorf("Edge 1 length failed: expected 5.0, got %v", lengths[1])
	}
	if math.Abs(lengths[2]-4.0) > 1e-10 {
		t.Errorf("Edge 2 length failed: expected 4.0, got %v", lengths[2])
	}
}

func TestTrianglePerimeter(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)

	perimeter := tri.Perimeter()
	expected := 12.0 // 3 + 4 + 5 = 12

	if math.Abs(perimeter-expected) > 1e-10 {
		t.Errorf("Perimeter failed: expected %v, got %v", expected, perimeter)
	}
}

func TestTriangleCenter(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 3, 0),
	)

	center := tri.Center()
	expected := NewVector3(1, 1, 0)

	if !center.ApproxEqual(expected, 1e-10) {
		t.Errorf("Center failed: expected %v, got %v", expected, center)
	}
}

func TestTriangleCalculateNormal(t *testing.T) {
	tri := NewTriangle(
		Vector3{},
		NewVector3(0, 0, 0),
		NewVector3(1, 0, 0),
		NewVector3(0, 1, 0),
	)

	normal := tri.CalculateNormal()
	if !normal.ApproxEqual(NewVector3(0, 0, 1), 1e-10) {
		t.Errorf("CalculateNormal failed: expected (0,0,1), got %v", normal)
	}
}

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()
	if !bbox.Empty() {
		t.Fatal("new bounding box should be empty")
	}
	if bbox.Center() != (Vector3{}) {
		t.Errorf("empty box center: expected zero, got %v", bbox.Center())
	}

	bbox.Extend(NewVector3(-1, 0, 2))
	bbox.Extend(NewVector3(1, 4, -2))

	if bbox.Empty() {
		t.Fatal("extended bounding box should not be empty")
	}
	if got := bbox.Center(); got != NewVector3(0, 2, 0) {
		t.Errorf("Center failed: expected (0,2,0), got %v", got)
	}
	if got := bbox.MaxDimension(); math.Abs(got-4) > 1e-10 {
		t.Errorf("MaxDimension failed: expected 4, got %v", got)
	}
}
