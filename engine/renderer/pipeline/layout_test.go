package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNewVertexLayout_Fingerprint(t *testing.T) {
	t.Parallel()
	attrs := func() []wgpu.VertexAttribute {
		return []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		}
	}
	a := NewVertexLayout(wgpu.VertexBufferLayout{ArrayStride: 24, StepMode: wgpu.VertexStepModeVertex, Attributes: attrs()})
	b := NewVertexLayout(wgpu.VertexBufferLayout{ArrayStride: 24, StepMode: wgpu.VertexStepModeVertex, Attributes: attrs()})
	assert.Equal(t, a.Key(), b.Key())

	moved := attrs()
	moved[1].ShaderLocation = 2
	c := NewVertexLayout(wgpu.VertexBufferLayout{ArrayStride: 24, StepMode: wgpu.VertexStepModeVertex, Attributes: moved})
	assert.NotEqual(t, a.Key(), c.Key())

	d := NewVertexLayout(wgpu.VertexBufferLayout{ArrayStride: 32, StepMode: wgpu.VertexStepModeVertex, Attributes: attrs()})
	assert.NotEqual(t, a.Key(), d.Key())

	assert.NotEqual(t, a.Key(), NewVertexLayout().Key())
}

func TestVertexLayout_LiteralMatchesConstructor(t *testing.T) {
	t.Parallel()
	buf := wgpu.VertexBufferLayout{
		ArrayStride: 12,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  []wgpu.VertexAttribute{{Format: wgpu.VertexFormatFloat32x3, ShaderLocation: 0}},
	}
	literal := VertexLayout{Buffers: []wgpu.VertexBufferLayout{buf}}
	assert.Equal(t, NewVertexLayout(buf).Key(), literal.Key())
	assert.NotEqual(t, VertexLayout{}.Key(), literal.Key())
}
