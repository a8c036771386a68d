package app

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/scene"
)

var (
	placeholderColor = rl.NewColor(136, 170, 255, 255)
	boundsColor      = rl.NewColor(200, 200, 200, 255)
	reticleColor     = rl.NewColor(255, 255, 255, 230)
)

// nodeLister is implemented by scene.Graph
type nodeLister interface {
	Nodes() []*scene.Node
}

// RenderFrame draws every visible node with the camera's current pose.
// It runs inside BeginDrawing/EndDrawing.
func (app *App) RenderFrame(s scene.Scene, c scene.Camera) {
	if pc, ok := c.(*scene.PerspectiveCamera); ok {
		app.Render.camera = raylibCamera(pc)
	}

	rl.BeginMode3D(app.Render.camera)
	if g, ok := s.(nodeLister); ok {
		for _, n := range g.Nodes() {
			if n.Visible {
				app.drawNode(n)
			}
		}
	}
	rl.EndMode3D()
}

func (app *App) drawNode(n *scene.Node) {
	switch n.Kind {
	case scene.KindHelper:
		drawHelper(n)
	case scene.KindPlaceholder:
		pos := toRL(n.Transform.Position)
		rl.DrawCylinder(pos, 0.4, 0.4, 1.2, 24, placeholderColor)
		rl.DrawCylinderWires(pos, 0.4, 0.4, 1.2, 24, rl.DarkBlue)
	case scene.KindReticle:
		pos := toRL(n.Transform.Position)
		// rings lie flat on the hit surface
		rl.DrawCircle3D(pos, 0.15, rl.Vector3{X: 1}, 90, reticleColor)
		rl.DrawCircle3D(pos, 0.1, rl.Vector3{X: 1}, 90, reticleColor)
	case scene.KindModel:
		app.drawModel(n)
	}
}

func drawHelper(n *scene.Node) {
	switch n.Name {
	case "grid":
		rl.DrawGrid(10, 1)
	case "axes":
		origin := toRL(n.Transform.Position)
		rl.DrawLine3D(origin, rl.Vector3Add(origin, rl.Vector3{X: 0.5}), rl.Red)
		rl.DrawLine3D(origin, rl.Vector3Add(origin, rl.Vector3{Y: 0.5}), rl.Green)
		rl.DrawLine3D(origin, rl.Vector3Add(origin, rl.Vector3{Z: 0.5}), rl.Blue)
	}
}

// drawModel draws meshes for payloads with triangles and the transformed
// bounding box for the rest
func (app *App) drawModel(n *scene.Node) {
	p := n.Payload
	if p == nil {
		return
	}
	if len(p.Triangles) > 0 {
		mesh, ok := app.Render.meshes[p]
		if !ok {
			mesh = trianglesToRaylibMesh(p.Triangles)
			app.Render.meshes[p] = mesh
		}
		rl.DrawMesh(mesh, app.Render.material, toMatrix(n.Transform.Matrix()))
		return
	}
	if p.Bounds.Empty() {
		return
	}

	// the yaw is left out; the box stays axis aligned
	center := n.Transform.Matrix().Mul4x1(p.Bounds.Center().Vec3().Vec4(1)).Vec3()
	size := p.Bounds.Size()
	scale := n.Transform.Scale
	rl.DrawCubeWiresV(toRL(geometry.FromVec3(center)), toRL(geometry.NewVector3(size.X*scale.X, size.Y*scale.Y, size.Z*scale.Z)), boundsColor)
}

// releaseMeshes unloads cached meshes whose payload is no longer in use
func (app *App) releaseMeshes(keep map[*scene.Payload]bool) {
	for p, mesh := range app.Render.meshes {
		if !keep[p] {
			rl.UnloadMesh(&mesh)
			delete(app.Render.meshes, p)
		}
	}
}

// toMatrix converts a column-major mgl64 matrix
func toMatrix(m mgl64.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: float32(m[0]), M1: float32(m[1]), M2: float32(m[2]), M3: float32(m[3]),
		M4: float32(m[4]), M5: float32(m[5]), M6: float32(m[6]), M7: float32(m[7]),
		M8: float32(m[8]), M9: float32(m[9]), M10: float32(m[10]), M11: float32(m[11]),
		M12: float32(m[12]), M13: float32(m[13]), M14: float32(m[14]), M15: float32(m[15]),
	}
}

// shade returns the baked diffuse color for a face normal
func shade(normal geometry.Vector3) (r, g, b uint8) {
	lightDir := geometry.NewVector3(-0.5, -1.0, -0.5).Normalize()
	lightIntensity := math.Max(0.3, -normal.Dot(lightDir)) // Min 30% ambient
	baseColor := 200.0
	return uint8(baseColor * lightIntensity * 0.5), uint8(baseColor * lightIntensity * 0.6), uint8(baseColor * lightIntensity)
}

// trianglesToRaylibMesh converts a triangle list to a Raylib mesh with baked lighting
func trianglesToRaylibMesh(triangles []geometry.Triangle) rl.Mesh {
	vertexCount := len(triangles) * 3
	mesh := rl.Mesh{
		VertexCount:   int32(vertexCount),
		TriangleCount: int32(len(triangles)),
	}

	vertices := make([]float32, vertexCount*3)
	normals := make([]float32, vertexCount*3)
	colors := make([]uint8, vertexCount*4)

	idx := 0
	for _, triangle := range triangles {
		normal := triangle.CalculateNormal()
		r, g, b := shade(normal)

		for _, v := range [3]geometry.Vector3{triangle.V1, triangle.V2, triangle.V3} {
			vertices[idx*3+0] = float32(v.X)
			vertices[idx*3+1] = float32(v.Y)
			vertices[idx*3+2] = float32(v.Z)
			normals[idx*3+0] = float32(normal.X)
			normals[idx*3+1] = float32(normal.Y)
			normals[idx*3+2] = float32(normal.Z)
			colors[idx*4+0] = r
			colors[idx*4+1] = g
			colors[idx*4+2] = b
			colors[idx*4+3] = 255
			idx++
		}
	}

	if vertexCount > 0 {
		mesh.Vertices = &vertices[0]
		mesh.Normals = &normals[0]
		mesh.Colors = &colors[0]
	}

	// Upload mesh data to GPU
	rl.UploadMesh(&mesh, false)
	return mesh
}
