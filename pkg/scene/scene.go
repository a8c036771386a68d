// Package scene is the narrow view of the scene graph and renderer that the
// camera rig and AR session work against.
package scene

import (
	"context"
	"errors"

	"github.com/philipparndt/arview/pkg/geometry"
)

// ErrAssetLoad wraps every network or parse failure from a Loader
var ErrAssetLoad = errors.New("scene: asset load failed")

// Format identifies the container an asset was decoded from
type Format string

const (
	FormatGLB         Format = "glb"
	FormatVRM         Format = "vrm"
	FormatGLTF        Format = "gltf"
	FormatSTL         Format = "stl"
	FormatPlaceholder Format = "placeholder"
)

// Payload is a decoded, renderable asset. It is shared by every node
// instantiated from it.
type Payload struct {
	URL    string
	Format Format
	Name   string
	Bounds geometry.BoundingBox
	Meshes int
	Nodes  int
	Size   int64
	// Triangles is only filled for formats decoded to a flat triangle list
	Triangles []geometry.Triangle
}

// Kind tags what a node is for
type Kind int

const (
	KindModel Kind = iota
	KindReticle
	KindPlaceholder
	KindHelper
)

// Node is one entry in a scene
type Node struct {
	Name      string
	Kind      Kind
	Transform geometry.Transform
	Visible   bool
	Payload   *Payload
}

// NewNode creates a visible node with an identity transform
func NewNode(name string, kind Kind) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Transform: geometry.IdentityTransform(),
		Visible:   true,
	}
}

// Instantiate creates a new model node backed by p
func (p *Payload) Instantiate(name string) *Node {
	n := NewNode(name, KindModel)
	n.Payload = p
	return n
}

// Scene accepts and releases nodes
type Scene interface {
	Add(n *Node)
	Remove(n *Node) bool
}

// Camera is positioned by the rig or the AR viewer pose
type Camera interface {
	SetPosition(p geometry.Vector3)
	LookAt(target geometry.Vector3)
}

// Renderer draws one frame
type Renderer interface {
	RenderFrame(s Scene, c Camera)
}

// Loader fetches and decodes an asset. Errors wrap ErrAssetLoad.
type Loader interface {
	Load(ctx context.Context, url string) (*Payload, error)
}
