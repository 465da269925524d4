package loader

import "github.com/cogentcore/webgpu/wgpu"

// gltfFile is the part of a glTF 2.0 document that describes mesh geometry. Everything else
// (nodes, materials, skins, animations) is skipped by encoding/json.
type gltfFile struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	Meshes []struct {
		Name       string          `json:"name"`
		Primitives []gltfPrimitive `json:"primitives"`
	} `json:"meshes"`
	Accessors   []gltfAccessor `json:"accessors"`
	BufferViews []struct {
		Buffer     int `json:"buffer"`
		ByteOffset int `json:"byteOffset"`
		ByteLength int `json:"byteLength"`
		ByteStride int `json:"byteStride"`
	} `json:"bufferViews"`
	Buffers []struct {
		URI        string `json:"uri"`
		ByteLength int    `json:"byteLength"`
	} `json:"buffers"`
}

// gltfPrimitive names the accessors of one drawable piece of a mesh.
type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices"`
	Mode       *int           `json:"mode"`
}

// gltfAccessor is a typed window into a buffer view.
type gltfAccessor struct {
	BufferView    *int      `json:"bufferView"`
	ByteOffset    int       `json:"byteOffset"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Sparse        *struct{} `json:"sparse"`
}

const (
	attrPosition = "POSITION"
	attrNormal   = "NORMAL"

	// modeTriangles is the primitive mode used when a primitive has none.
	modeTriangles = 4

	componentU8  = 5121
	componentU16 = 5123
	componentU32 = 5125
	componentF32 = 5126
)

// gltfTopologies maps the glTF primitive modes WebGPU can draw. LINE_LOOP (2) and
// TRIANGLE_FAN (6) have no WebGPU topology.
var gltfTopologies = map[int]wgpu.PrimitiveTopology{
	0:             wgpu.PrimitiveTopologyPointList,
	1:             wgpu.PrimitiveTopologyLineList,
	3:             wgpu.PrimitiveTopologyLineStrip,
	modeTriangles: wgpu.PrimitiveTopologyTriangleList,
	5:             wgpu.PrimitiveTopologyTriangleStrip,
}

// GLB container layout: a 12 byte header (magic, version, total length) followed by chunks,
// each an 8 byte header (length, type) and its payload.
const (
	glbMagic      = 0x46546C67 // "glTF"
	glbVersion    = 2
	glbHeaderSize = 12
	glbChunkJSON  = 0x4E4F534A // "JSON"
	glbChunkBIN   = 0x004E4942 // "BIN\0"
)
