package camera

import "github.com/Carmen-Shannon/oxy-outline/common"

// ExtractedView is the immutable per-frame snapshot of a camera consumed by the render stage.
type ExtractedView struct {
	// Transform is the camera-to-world matrix (column-major).
	Transform [16]float32
	// View is the world-to-camera matrix, the inverse of Transform (column-major).
	View [16]float32
	// HDR is true when the view renders into a high dynamic range target.
	HDR bool
	// RenderLayers is the view's layer mask. Nil means the view renders every layer.
	RenderLayers *RenderLayers
}

// NewExtractedView builds a view snapshot from a camera-to-world transform.
// If the transform is singular the view matrix is left as identity.
//
// Parameters:
//   - transform: the camera-to-world matrix (column-major)
//   - hdr: whether the view renders into an HDR target
//   - layers: the view's layer mask, or nil for every layer
//
// Returns:
//   - ExtractedView: the view snapshot
func NewExtractedView(transform [16]float32, hdr bool, layers *RenderLayers) ExtractedView {
	v := ExtractedView{
		Transform:    transform,
		HDR:          hdr,
		RenderLayers: layers,
	}
	common.Identity(v.View[:])
	common.Invert4(v.View[:], transform[:])
	return v
}

// Layers resolves the view's layer mask, falling back to AllLayers when the view has none.
//
// Returns:
//   - RenderLayers: the effective layer mask
func (v ExtractedView) Layers() RenderLayers {
	if v.RenderLayers == nil {
		return AllLayers()
	}
	return *v.RenderLayers
}

// Rangefinder3D returns the distance function used to sort draw items of this view.
//
// Returns:
//   - Rangefinder3D: the rangefinder for this view
func (v ExtractedView) Rangefinder3D() Rangefinder3D {
	return Rangefinder3D{
		viewRow2: [4]float32{v.View[2], v.View[6], v.View[10], v.View[14]},
	}
}

// Rangefinder3D maps a world transform to its depth in front of a view.
// Only the third row of the view matrix is needed, so it is cached once per view.
type Rangefinder3D struct {
	viewRow2 [4]float32
}

// Distance returns the view-space depth of the transform's translation.
// The value is positive in front of the camera and grows as the point moves away along the view axis.
//
// Parameters:
//   - transform: a column-major model matrix, typically common.Translation of an origin
//
// Returns:
//   - float32: the sort distance
func (r Rangefinder3D) Distance(transform [16]float32) float32 {
	return r.DistanceTranslation(transform[12], transform[13], transform[14])
}

// DistanceTranslation is Distance for a bare world-space position.
//
// Parameters:
//   - x, y, z: the world-space position
//
// Returns:
//   - float32: the sort distance
func (r Rangefinder3D) DistanceTranslation(x, y, z float32) float32 {
	// view space looks down -Z
	return -(r.viewRow2[0]*x + r.viewRow2[1]*y + r.viewRow2[2]*z + r.viewRow2[3])
}
