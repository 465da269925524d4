package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	errInvalidGLTFVersion  = errors.New("glTF version must be 2.x")
	errInvalidGLBMagic     = errors.New("not a GLB container")
	errMalformedGLB        = errors.New("malformed GLB container")
	errUnsupportedAccessor = errors.New("unsupported accessor")
	errAccessorOutOfRange  = errors.New("accessor reads past the end of its buffer view")
)

// gltfSource is a decoded glTF document with every buffer resolved to its bytes.
type gltfSource struct {
	file    gltfFile
	buffers [][]byte
}

// accessorSpan is where an accessor's elements live inside a resolved buffer.
type accessorSpan struct {
	data      []byte // begins at the first element
	stride    int
	count     int
	component int
}

// isGLB reports whether data starts with the GLB magic.
func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic
}

// decodeGLTF decodes a glTF JSON document, or a GLB container when glb is set, and resolves
// its buffers. Relative buffer URIs are read from baseDir.
//
// Parameters:
//   - data: the file contents
//   - baseDir: the directory external buffers are relative to
//   - glb: true if data is a GLB container
//
// Returns:
//   - *gltfSource: the document with its buffers loaded
//   - error: error if the container, the JSON or a buffer is invalid
func decodeGLTF(data []byte, baseDir string, glb bool) (*gltfSource, error) {
	var bin []byte
	if glb {
		var err error
		if data, bin, err = splitGLB(data); err != nil {
			return nil, err
		}
	}

	src := &gltfSource{}
	if err := json.Unmarshal(data, &src.file); err != nil {
		return nil, fmt.Errorf("failed to decode glTF JSON: %w", err)
	}
	if v := src.file.Asset.Version; !strings.HasPrefix(v, "2.") {
		return nil, fmt.Errorf("%w, got %q", errInvalidGLTFVersion, v)
	}

	src.buffers = make([][]byte, len(src.file.Buffers))
	for i, b := range src.file.Buffers {
		var (
			raw []byte
			err error
		)
		switch {
		case b.URI == "" && i == 0 && bin != nil:
			raw = bin
		case b.URI == "":
			err = errors.New("no uri and no GLB binary chunk")
		case strings.HasPrefix(b.URI, "data:"):
			raw, err = decodeDataURI(b.URI)
		default:
			raw, err = os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(b.URI)))
		}
		if err == nil && len(raw) < b.ByteLength {
			err = fmt.Errorf("holds %d bytes, byteLength is %d", len(raw), b.ByteLength)
		}
		if err != nil {
			return nil, fmt.Errorf("buffer %d: %w", i, err)
		}
		src.buffers[i] = raw
	}
	return src, nil
}

// splitGLB returns the payloads of the first JSON and BIN chunks of a GLB container.
// Chunks of other types are skipped.
func splitGLB(data []byte) (doc, bin []byte, err error) {
	le := binary.LittleEndian
	if len(data) < glbHeaderSize || !isGLB(data) {
		return nil, nil, errInvalidGLBMagic
	}
	if v := le.Uint32(data[4:]); v != glbVersion {
		return nil, nil, fmt.Errorf("%w: version %d", errMalformedGLB, v)
	}

	for rest := data[glbHeaderSize:]; len(rest) > 0; {
		if len(rest) < 8 {
			return nil, nil, fmt.Errorf("%w: truncated chunk header", errMalformedGLB)
		}
		n, kind := int(le.Uint32(rest)), le.Uint32(rest[4:])
		rest = rest[8:]
		if n > len(rest) {
			return nil, nil, fmt.Errorf("%w: chunk of %d bytes with %d left", errMalformedGLB, n, len(rest))
		}
		switch {
		case kind == glbChunkJSON && doc == nil:
			doc = rest[:n]
		case kind == glbChunkBIN && bin == nil:
			bin = rest[:n]
		}
		rest = rest[n:]
	}
	if doc == nil {
		return nil, nil, fmt.Errorf("%w: no JSON chunk", errMalformedGLB)
	}
	return doc, bin, nil
}

// decodeDataURI decodes a base64 data URI such as "data:application/octet-stream;base64,AAAA".
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}

// span locates accessor index. The accessor must be dense, of element type elemType and of one
// of the given component types, and all of its elements must lie inside its buffer view.
func (s *gltfSource) span(index int, elemType string, width int, components ...int) (accessorSpan, error) {
	if index < 0 || index >= len(s.file.Accessors) {
		return accessorSpan{}, fmt.Errorf("accessor %d does not exist", index)
	}
	acc := s.file.Accessors[index]
	switch {
	case acc.Sparse != nil:
		return accessorSpan{}, fmt.Errorf("accessor %d: %w: sparse", index, errUnsupportedAccessor)
	case acc.BufferView == nil:
		return accessorSpan{}, fmt.Errorf("accessor %d: %w: no buffer view", index, errUnsupportedAccessor)
	case acc.Type != elemType || !slices.Contains(components, acc.ComponentType):
		return accessorSpan{}, fmt.Errorf("accessor %d: %w: %s of component type %d", index, errUnsupportedAccessor, acc.Type, acc.ComponentType)
	}

	v := *acc.BufferView
	if v < 0 || v >= len(s.file.BufferViews) {
		return accessorSpan{}, fmt.Errorf("accessor %d: buffer view %d does not exist", index, v)
	}
	view := s.file.BufferViews[v]
	if view.Buffer < 0 || view.Buffer >= len(s.buffers) {
		return accessorSpan{}, fmt.Errorf("buffer view %d: buffer %d does not exist", v, view.Buffer)
	}
	buf := s.buffers[view.Buffer]

	size := width
	switch acc.ComponentType {
	case componentU16:
		size *= 2
	case componentU32, componentF32:
		size *= 4
	}
	stride := size
	if view.ByteStride > 0 {
		stride = view.ByteStride
	}

	sp := accessorSpan{stride: stride, count: acc.Count, component: acc.ComponentType}
	if acc.Count <= 0 {
		sp.count = 0
		return sp, nil
	}
	start := view.ByteOffset + acc.ByteOffset
	last := start + (acc.Count-1)*stride + size
	if start < 0 || last > min(view.ByteOffset+view.ByteLength, len(buf)) {
		return accessorSpan{}, fmt.Errorf("accessor %d: %w", index, errAccessorOutOfRange)
	}
	sp.data = buf[start:last]
	return sp, nil
}

// vec3s reads a VEC3 FLOAT accessor such as POSITION or NORMAL.
func (s *gltfSource) vec3s(index int) ([][3]float32, error) {
	sp, err := s.span(index, "VEC3", 3, componentF32)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, sp.count)
	for i := range out {
		e := sp.data[i*sp.stride:]
		for c := range 3 {
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(e[4*c:]))
		}
	}
	return out, nil
}

// indices reads an unsigned SCALAR accessor and widens it to uint32.
func (s *gltfSource) indices(index int) ([]uint32, error) {
	sp, err := s.span(index, "SCALAR", 1, componentU8, componentU16, componentU32)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, sp.count)
	for i := range out {
		e := sp.data[i*sp.stride:]
		switch sp.component {
		case componentU8:
			out[i] = uint32(e[0])
		case componentU16:
			out[i] = uint32(binary.LittleEndian.Uint16(e))
		default:
			out[i] = binary.LittleEndian.Uint32(e)
		}
	}
	return out, nil
}
