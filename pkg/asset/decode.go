// Package asset resolves, probes and decodes the model files the viewer
// shows in preview and places in AR.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/scene"
	"github.com/philipparndt/arview/pkg/stl"
	"github.com/qmuntal/gltf"
)

// MinBinarySize is the smallest payload accepted as a binary glTF container
const MinBinarySize = 20

var (
	// ErrTooSmall is returned for binary containers below MinBinarySize
	ErrTooSmall = errors.New("asset: data too small")
	// ErrUnknownFormat is returned when no decoder recognizes the data
	ErrUnknownFormat = errors.New("asset: unknown format")
)

var glbMagic = []byte("glTF")

// Decode turns raw bytes into a payload. name is the URL or file path and
// only serves as a format hint.
func Decode(name string, data []byte) (*scene.Payload, error) {
	ext := strings.ToLower(path.Ext(stripQuery(name)))

	switch {
	case bytes.HasPrefix(data, glbMagic), ext == ".glb", ext == ".vrm":
		if len(data) < MinBinarySize {
			return nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(data))
		}
		return decodeGLTF(name, data, scene.FormatGLB)
	case ext == ".gltf":
		return decodeGLTF(name, data, scene.FormatGLTF)
	case ext == ".stl", bytes.HasPrefix(data, []byte("solid")):
		return decodeSTL(name, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

func decodeGLTF(name string, data []byte, format scene.Format) (*scene.Payload, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gltf %s: %w", name, err)
	}

	if slices.Contains(doc.ExtensionsUsed, "VRM") || slices.Contains(doc.ExtensionsUsed, "VRMC_vrm") {
		format = scene.FormatVRM
	}

	p := &scene.Payload{
		URL:    name,
		Format: format,
		Name:   modelName(name, doc.Asset.Generator),
		Bounds: gltfBounds(&doc),
		Meshes: len(doc.Meshes),
		Nodes:  len(doc.Nodes),
		Size:   int64(len(data)),
	}
	return p, nil
}

// gltfBounds unions the POSITION accessor ranges of every primitive. Node
// transforms are not applied.
func gltfBounds(doc *gltf.Document) geometry.BoundingBox {
	box := geometry.NewBoundingBox()
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			idx, ok := prim.Attributes[gltf.POSITION]
			if !ok || int(idx) >= len(doc.Accessors) {
				continue
			}
			acc := doc.Accessors[int(idx)]
			if len(acc.Min) < 3 || len(acc.Max) < 3 {
				continue
			}
			box.Extend(geometry.NewVector3(acc.Min[0], acc.Min[1], acc.Min[2]))
			box.Extend(geometry.NewVector3(acc.Max[0], acc.Max[1], acc.Max[2]))
		}
	}
	return box
}

func decodeSTL(name string, data []byte) (*scene.Payload, error) {
	model, err := stl.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode stl %s: %w", name, err)
	}

	return &scene.Payload{
		URL:    name,
		Format: scene.FormatSTL,
		Name:   modelName(name, model.Name),
		Bounds: model.Bounds,
		Meshes: 1,
		Nodes:  1,
		Size:   int64(len(data)),

		Triangles: model.Triangles,
	}, nil
}

// Placeholder is the payload shown when nothing could be preloaded: a
// standing cylinder of radius 0.4 and height 1.2
func Placeholder() *scene.Payload {
	box := geometry.NewBoundingBox()
	box.Extend(geometry.NewVector3(-0.4, 0, -0.4))
	box.Extend(geometry.NewVector3(0.4, 1.2, 0.4))
	return &scene.Payload{
		Format: scene.FormatPlaceholder,
		Name:   "placeholder",
		Bounds: box,
		Meshes: 1,
		Nodes:  1,
	}
}

func modelName(name, fallback string) string {
	base := path.Base(stripQuery(name))
	if base == "." || base == "/" || base == "" {
		return fallback
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
