package camera

// CameraController owns the positional state (position, target) of a camera.
// The Camera reads from its controller and derives its view matrix each Update.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// Target returns the look-at point.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// SetTarget sets the look-at point.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// Dolly moves the position toward the target by delta world units, keeping the target fixed.
	// Positive delta moves closer. The position never passes the target.
	//
	// Parameters:
	//   - delta: distance to move along the view axis
	Dolly(delta float32)
}
