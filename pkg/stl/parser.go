package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/philipparndt/arview/pkg/geometry"
)

const (
	binaryHeaderSize   = 80
	binaryTriangleSize = 50

	// maxPrealloc caps the capacity taken from an untrusted triangle count
	maxPrealloc = 1 << 16
)

// ErrEmpty is returned for zero-length input
var ErrEmpty = errors.New("stl: empty input")

// Decode reads an STL stream and returns a Model.
// It detects whether the data is ASCII or binary by the "solid" prefix;
// binary files whose 80-byte header happens to start with "solid" are
// recognized by their size matching the declared triangle count.
func Decode(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	if bytes.HasPrefix(data, []byte("solid")) && !looksBinary(data) {
		return parseASCII(bytes.NewReader(data))
	}
	return parseBinary(bytes.NewReader(data))
}

// looksBinary checks the binary layout: header, count, 50 bytes per triangle
func looksBinary(data []byte) bool {
	if len(data) < binaryHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	return uint64(len(data)) == uint64(binaryHeaderSize+4)+uint64(count)*binaryTriangleSize
}

// parseVec reads three floats starting at fields[at]
func parseVec(fields []string, at, line int) (geometry.Vector3, error) {
	if len(fields) < at+3 {
		return geometry.Vector3{}, fmt.Errorf("line %d: expected 3 coordinates", line)
	}
	var c [3]float64
	for i := range c {
		v, err := strconv.ParseFloat(fields[at+i], 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("line %d: %w", line, err)
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

// parseASCII parses an ASCII STL stream
func parseASCII(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	model := NewModel("", 0)

	var normal geometry.Vector3
	vertices := make([]geometry.Vector3, 0, 3)

	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "solid":
			model.Name = strings.Join(fields[1:], " ")
		case "facet":
			if len(fields) > 1 && fields[1] == "normal" {
				normal, err = parseVec(fields, 2, line)
			}
		case "vertex":
			var v geometry.Vector3
			if v, err = parseVec(fields, 1, line); err == nil {
				vertices = append(vertices, v)
			}
		case "endfacet":
			if len(vertices) == 3 {
				model.Add(geometry.NewTriangle(normal, vertices[0], vertices[1], vertices[2]))
			}
			vertices = vertices[:0]
		}
		if err != nil {
			return nil, fmt.Errorf("invalid ASCII STL: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}

	return model, nil
}

// binaryFacet mirrors the 50-byte on-disk triangle record
type binaryFacet struct {
	Normal    [3]float32
	Vertices  [3][3]float32
	Attribute uint16
}

func vec(v [3]float32) geometry.Vector3 {
	return geometry.NewVector3(float64(v[0]), float64(v[1]), float64(v[2]))
}

// parseBinary parses a binary STL stream
func parseBinary(reader io.Reader) (*Model, error) {
	header := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	var count uint32
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}
	model := NewModel(string(bytes.TrimRight(header, "\x00 ")), int(min(count, maxPrealloc)))

	for i := uint32(0); i < count; i++ {
		var f binaryFacet
		if err := binary.Read(reader, binary.LittleEndian, &f); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d: %w", i, err)
		}
		model.Add(geometry.NewTriangle(vec(f.Normal), vec(f.Vertices[0]), vec(f.Vertices[1]), vec(f.Vertices[2])))
	}

	return model, nil
}
