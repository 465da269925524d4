package pipeline

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cogentcore/webgpu/wgpu"
)

// VertexLayout is a mesh's vertex buffer layout. wgpu.VertexBufferLayout holds a slice and
// cannot be used as a map key, so specialization caches key on Key instead.
type VertexLayout struct {
	Buffers []wgpu.VertexBufferLayout
}

// NewVertexLayout wraps the given buffer layouts.
//
// Parameters:
//   - buffers: the vertex buffer layouts in slot order
//
// Returns:
//   - VertexLayout: the layout
func NewVertexLayout(buffers ...wgpu.VertexBufferLayout) VertexLayout {
	return VertexLayout{Buffers: buffers}
}

// Key fingerprints the buffer layouts. It is computed from Buffers on every call, so layouts
// built as struct literals key the same as ones built with NewVertexLayout, and two layouts
// with equal buffers always have equal keys.
//
// Returns:
//   - uint64: the xxhash fingerprint of the buffers
func (l VertexLayout) Key() uint64 {
	buf := make([]byte, 0, 64)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(l.Buffers)))
	for _, b := range l.Buffers {
		buf = binary.LittleEndian.AppendUint64(buf, b.ArrayStride)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(b.StepMode))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Attributes)))
		for _, a := range b.Attributes {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(a.Format))
			buf = binary.LittleEndian.AppendUint64(buf, a.Offset)
			buf = binary.LittleEndian.AppendUint32(buf, a.ShaderLocation)
		}
	}
	return xxhash.Sum64(buf)
}
