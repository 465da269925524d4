package camera

import (
	"math"
	"sync"
)

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32

	// minDistance keeps Dolly from collapsing position onto target
	minDistance float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new camera controller positioned at the origin and looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		position:    [3]float32{0, 0, 0},
		target:      [3]float32{0, 0, -1},
		minDistance: 0.01,
	}

	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target[0], cc.target[1], cc.target[2]
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = [3]float32{x, y, z}
}

func (cc *cameraControllerImpl) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = [3]float32{x, y, z}
}

func (cc *cameraControllerImpl) Dolly(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	dx := cc.target[0] - cc.position[0]
	dy := cc.target[1] - cc.position[1]
	dz := cc.target[2] - cc.position[2]
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
	if dist == 0 {
		return
	}

	step := min(delta, dist-cc.minDistance)
	scale := step / dist
	cc.position[0] += dx * scale
	cc.position[1] += dy * scale
	cc.position[2] += dz * scale
}
