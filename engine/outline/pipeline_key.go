package outline

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// PassType identifies which outline pass a pipeline variant renders.
type PassType int

const (
	// PassTypeStencil renders the mesh into the stencil buffer so the outline is masked out behind it.
	PassTypeStencil PassType = iota

	// PassTypeOpaque renders a fully opaque outline volume.
	PassTypeOpaque

	// PassTypeTransparent renders an alpha blended outline volume.
	PassTypeTransparent
)

func (p PassType) String() string {
	switch p {
	case PassTypeStencil:
		return "stencil"
	case PassTypeOpaque:
		return "opaque"
	case PassTypeTransparent:
		return "transparent"
	default:
		return fmt.Sprintf("PassType(%d)", int(p))
	}
}

// DepthMode controls how the outline's depth interacts with the scene depth.
type DepthMode int

const (
	// DepthModeInvalid means the depth mode has not been propagated to the entity yet this frame.
	// Entities carrying it are skipped by the queuers.
	DepthModeInvalid DepthMode = iota

	// DepthModeFlat draws the whole outline at the depth of the entity's origin.
	DepthModeFlat

	// DepthModeReal draws the outline at the real depth of each vertex.
	DepthModeReal
)

func (d DepthMode) String() string {
	switch d {
	case DepthModeInvalid:
		return "invalid"
	case DepthModeFlat:
		return "flat"
	case DepthModeReal:
		return "real"
	default:
		return fmt.Sprintf("DepthMode(%d)", int(d))
	}
}

// PipelineKey identifies one specialized variant of the outline pipeline.
// It is an immutable value: every With method returns an updated copy. Keys compare with ==
// and are valid map keys; two keys are equal iff every axis matches.
type PipelineKey struct {
	msaa             uint32
	passType         PassType
	topology         wgpu.PrimitiveTopology
	depthMode        DepthMode
	offsetZero       bool
	hdrFormat        bool
	openGLWorkaround bool
}

// NewPipelineKey returns the neutral key: one sample, stencil pass, triangle list,
// invalid depth mode and every flag cleared.
//
// Returns:
//   - PipelineKey: the neutral key
func NewPipelineKey() PipelineKey {
	return PipelineKey{
		msaa:      1,
		passType:  PassTypeStencil,
		topology:  wgpu.PrimitiveTopologyTriangleList,
		depthMode: DepthModeInvalid,
	}
}

// WithMSAA returns a copy of the key with the given sample count.
func (k PipelineKey) WithMSAA(samples uint32) PipelineKey {
	k.msaa = samples
	return k
}

// WithPassType returns a copy of the key with the given pass type.
func (k PipelineKey) WithPassType(pass PassType) PipelineKey {
	k.passType = pass
	return k
}

// WithPrimitiveTopology returns a copy of the key with the given primitive topology.
func (k PipelineKey) WithPrimitiveTopology(topology wgpu.PrimitiveTopology) PipelineKey {
	k.topology = topology
	return k
}

// WithDepthMode returns a copy of the key with the given depth mode.
func (k PipelineKey) WithDepthMode(mode DepthMode) PipelineKey {
	k.depthMode = mode
	return k
}

// WithOffsetZero returns a copy of the key with the offset-is-zero flag set to zero.
func (k PipelineKey) WithOffsetZero(zero bool) PipelineKey {
	k.offsetZero = zero
	return k
}

// WithHDRFormat returns a copy of the key with the HDR target flag set to hdr.
func (k PipelineKey) WithHDRFormat(hdr bool) PipelineKey {
	k.hdrFormat = hdr
	return k
}

// WithOpenGLWorkaround returns a copy of the key with the OpenGL workaround flag set to enabled.
func (k PipelineKey) WithOpenGLWorkaround(enabled bool) PipelineKey {
	k.openGLWorkaround = enabled
	return k
}

// MSAA returns the sample count of the view's color target.
func (k PipelineKey) MSAA() uint32 { return k.msaa }

// PassType returns the phase the pipeline draws in.
func (k PipelineKey) PassType() PassType { return k.passType }

// PrimitiveTopology returns the topology of the meshes the pipeline draws.
func (k PipelineKey) PrimitiveTopology() wgpu.PrimitiveTopology { return k.topology }

// DepthMode returns whether the outline is drawn at each vertex's depth or flat at the entity origin's depth.
func (k PipelineKey) DepthMode() DepthMode { return k.depthMode }

// OffsetZero reports whether the entity's outline offset is zero, which selects the OFFSET_ZERO shader variant.
func (k PipelineKey) OffsetZero() bool { return k.offsetZero }

// HDRFormat reports whether the view renders to an HDR color target.
func (k PipelineKey) HDRFormat() bool { return k.hdrFormat }

// OpenGLWorkaround reports whether the pipeline uses the OpenGL backend workaround.
func (k PipelineKey) OpenGLWorkaround() bool { return k.openGLWorkaround }

// String renders the key as a compact label, e.g. "msaa4_opaque_TriangleList_real_hdr".
func (k PipelineKey) String() string {
	s := fmt.Sprintf("msaa%d_%s_%v_%s", k.msaa, k.passType, k.topology, k.depthMode)
	if k.offsetZero {
		s += "_offset0"
	}
	if k.hdrFormat {
		s += "_hdr"
	}
	if k.openGLWorkaround {
		s += "_gl"
	}
	return s
}

// UsesOpenGLWorkaround reports whether the adapter backend needs the OpenGL workaround.
//
// Parameters:
//   - backend: the adapter's backend type
//
// Returns:
//   - bool: true for the OpenGL and OpenGL ES backends
func UsesOpenGLWorkaround(backend wgpu.BackendType) bool {
	return backend == wgpu.BackendTypeOpenGL || backend == wgpu.BackendTypeOpenGLES
}
