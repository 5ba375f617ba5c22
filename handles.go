package previz

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mode is the active manipulation tool.
type Mode int

const (
	ModeSelect Mode = iota
	ModeTranslate
	ModeRotate
	ModeScale
)

func (m Mode) String() string {
	switch m {
	case ModeSelect:
		return "select"
	case ModeTranslate:
		return "translate"
	case ModeRotate:
		return "rotate"
	case ModeScale:
		return "scale"
	}
	return "unknown"
}

// Space selects the gizmo's basis: world axes or the object's local axes.
type Space int

const (
	SpaceWorld Space = iota
	SpaceLocal
)

func (s Space) String() string {
	if s == SpaceLocal {
		return "local"
	}
	return "world"
}

// Handle identifies one interactive part of the gizmo.
type Handle int

const (
	HandleNone Handle = iota
	HandleAxisX
	HandleAxisY
	HandleAxisZ
	HandlePlaneXY
	HandlePlaneXZ
	HandlePlaneYZ
	HandleRingX
	HandleRingY
	HandleRingZ
	HandleRingView
	HandleUniform
)

func (h Handle) String() string {
	switch h {
	case HandleNone:
		return "none"
	case HandleAxisX:
		return "axis-x"
	case HandleAxisY:
		return "axis-y"
	case HandleAxisZ:
		return "axis-z"
	case HandlePlaneXY:
		return "plane-xy"
	case HandlePlaneXZ:
		return "plane-xz"
	case HandlePlaneYZ:
		return "plane-yz"
	case HandleRingX:
		return "ring-x"
	case HandleRingY:
		return "ring-y"
	case HandleRingZ:
		return "ring-z"
	case HandleRingView:
		return "ring-view"
	case HandleUniform:
		return "uniform"
	}
	return "unknown"
}

// AxisIndex returns 0/1/2 for per-axis handles (axis arrows and rings),
// -1 otherwise.
func (h Handle) AxisIndex() int {
	switch h {
	case HandleAxisX, HandleRingX:
		return 0
	case HandleAxisY, HandleRingY:
		return 1
	case HandleAxisZ, HandleRingZ:
		return 2
	}
	return -1
}

// PlaneAxes returns the two basis indices spanning a plane handle,
// ok=false for non-plane handles.
func (h Handle) PlaneAxes() (int, int, bool) {
	switch h {
	case HandlePlaneXY:
		return 0, 1, true
	case HandlePlaneXZ:
		return 0, 2, true
	case HandlePlaneYZ:
		return 1, 2, true
	}
	return 0, 0, false
}

// IsRing reports whether the handle is one of the rotation rings.
func (h Handle) IsRing() bool {
	switch h {
	case HandleRingX, HandleRingY, HandleRingZ, HandleRingView:
		return true
	}
	return false
}

// Basis holds the three gizmo axis directions (unit vectors).
type Basis [3]mgl32.Vec3

// WorldBasis is the fixed world-axis basis.
func WorldBasis() Basis {
	return Basis{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// BasisFromQuat rotates the world basis by q, for local-space gizmos.
func BasisFromQuat(q mgl32.Quat) Basis {
	q = q.Normalize()
	return Basis{
		q.Rotate(mgl32.Vec3{1, 0, 0}),
		q.Rotate(mgl32.Vec3{0, 1, 0}),
		q.Rotate(mgl32.Vec3{0, 0, 1}),
	}
}

// GizmoBasis picks the basis for the given space and object rotation.
func GizmoBasis(space Space, rotation mgl32.Quat) Basis {
	if space == SpaceLocal {
		return BasisFromQuat(rotation)
	}
	return WorldBasis()
}
