package stl

import (
	"github.com/philipparndt/arview/pkg/geometry"
)

// Model is a decoded STL triangle list, the form a scene payload keeps for
// drawing and analysis. Bounds grows with every added triangle, so a
// decoded model needs no second pass before it is placed.
type Model struct {
	Name      string
	Triangles []geometry.Triangle
	Bounds    geometry.BoundingBox
}

// NewModel creates an empty model with room for capacity triangles
func NewModel(name string, capacity int) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0, capacity),
		Bounds:    geometry.NewBoundingBox(),
	}
}

// Add appends t and extends the bounds
func (m *Model) Add(t geometry.Triangle) {
	m.Triangles = append(m.Triangles, t)
	m.Bounds.Extend(t.V1)
	m.Bounds.Extend(t.V2)
	m.Bounds.Extend(t.V3)
}

// Len returns the number of triangles
func (m *Model) Len() int {
	return len(m.Triangles)
}
