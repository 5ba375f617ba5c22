package previz

import (
	"fmt"
)

// PickKind is the 4-bit category of a pickable.
type PickKind uint8

const (
	PickNone PickKind = iota
	PickSceneMesh
	PickGizmoHandle
	PickLightHelper

	pickKindCount
)

func (k PickKind) String() string {
	switch k {
	case PickNone:
		return "none"
	case PickSceneMesh:
		return "mesh"
	case PickGizmoHandle:
		return "gizmo"
	case PickLightHelper:
		return "light-helper"
	}
	return "unknown"
}

// MaxPickObjectID is the largest object id the 20-bit field can carry.
const MaxPickObjectID = 0xFFFFF

// PickKey identifies one pickable in the id buffer: a 4-bit kind, a 20-bit
// object id and an 8-bit sub id, packed into one RGBA8 pixel. The all-zero
// pixel means "no hit", so kind None with object 0 / sub 0 never encodes a
// real pickable.
type PickKey struct {
	Kind     PickKind
	ObjectID uint32
	SubID    uint8
}

// IsNone reports whether the key is the no-hit sentinel.
func (k PickKey) IsNone() bool {
	return k.Kind == PickNone
}

// EncodeRGBA packs the key into an RGBA8 pixel:
// R = kind<<4 | objectID[19:16], G = objectID[15:8], B = objectID[7:0],
// A = subID.
func (k PickKey) EncodeRGBA() [4]uint8 {
	return [4]uint8{
		uint8(k.Kind)<<4 | uint8(k.ObjectID>>16)&0xF,
		uint8(k.ObjectID >> 8),
		uint8(k.ObjectID),
		k.SubID,
	}
}

// DecodePickKey unpacks an RGBA8 pixel. Every field is validated in stages:
// the zero pixel decodes to the no-hit key, any pixel with an out-of-range
// kind is rejected so stale or miscleared buffer contents cannot fabricate
// a hit.
func DecodePickKey(px [4]uint8) (PickKey, bool) {
	if px == ([4]uint8{}) {
		return PickKey{}, true
	}
	kind := PickKind(px[0] >> 4)
	if kind == PickNone || kind >= pickKindCount {
		return PickKey{}, false
	}
	return PickKey{
		Kind:     kind,
		ObjectID: uint32(px[0]&0xF)<<16 | uint32(px[1])<<8 | uint32(px[2]),
		SubID:    px[3],
	}, true
}

// Validate rejects keys that cannot be represented in the pixel layout.
func (k PickKey) Validate() error {
	if k.Kind >= pickKindCount {
		return fmt.Errorf("pick key: kind %d exceeds 4-bit range", k.Kind)
	}
	if k.ObjectID > MaxPickObjectID {
		return fmt.Errorf("pick key: object id %d exceeds 20-bit range", k.ObjectID)
	}
	return nil
}

// PickHit is one resolved readback sample.
type PickHit struct {
	Key   PickKey
	Depth float32
	X, Y  int
}

// Gizmo handle sub ids in the pick buffer. Grouped by tool so a stale id
// from another tool's frame can be rejected.
const (
	subAxisX   uint8 = 1
	subAxisY   uint8 = 2
	subAxisZ   uint8 = 3
	subPlaneXY uint8 = 4
	subPlaneXZ uint8 = 5
	subPlaneYZ uint8 = 6

	subRingX    uint8 = 11
	subRingY    uint8 = 12
	subRingZ    uint8 = 13
	subRingView uint8 = 14

	subScaleX       uint8 = 21
	subScaleY       uint8 = 22
	subScaleZ       uint8 = 23
	subScalePlaneXY uint8 = 24
	subScalePlaneXZ uint8 = 25
	subScalePlaneYZ uint8 = 26
	subScaleUniform uint8 = 27
)

// HandleSubID maps a handle to its pick-buffer sub id for the given tool.
// Returns 0 for combinations the tool does not draw.
func HandleSubID(mode Mode, h Handle) uint8 {
	switch mode {
	case ModeTranslate:
		switch h {
		case HandleAxisX:
			return subAxisX
		case HandleAxisY:
			return subAxisY
		case HandleAxisZ:
			return subAxisZ
		case HandlePlaneXY:
			return subPlaneXY
		case HandlePlaneXZ:
			return subPlaneXZ
		case HandlePlaneYZ:
			return subPlaneYZ
		}
	case ModeRotate:
		switch h {
		case HandleRingX:
			return subRingX
		case HandleRingY:
			return subRingY
		case HandleRingZ:
			return subRingZ
		case HandleRingView:
			return subRingView
		}
	case ModeScale:
		switch h {
		case HandleAxisX:
			return subScaleX
		case HandleAxisY:
			return subScaleY
		case HandleAxisZ:
			return subScaleZ
		case HandlePlaneXY:
			return subScalePlaneXY
		case HandlePlaneXZ:
			return subScalePlaneXZ
		case HandlePlaneYZ:
			return subScalePlaneYZ
		case HandleUniform:
			return subScaleUniform
		}
	}
	return 0
}

// SubIDHandle resolves a pick-buffer sub id back to a handle, and the tool
// it belongs to.
func SubIDHandle(sub uint8) (Mode, Handle, bool) {
	switch sub {
	case subAxisX:
		return ModeTranslate, HandleAxisX, true
	case subAxisY:
		return ModeTranslate, HandleAxisY, true
	case subAxisZ:
		return ModeTranslate, HandleAxisZ, true
	case subPlaneXY:
		return ModeTranslate, HandlePlaneXY, true
	case subPlaneXZ:
		return ModeTranslate, HandlePlaneXZ, true
	case subPlaneYZ:
		return ModeTranslate, HandlePlaneYZ, true
	case subRingX:
		return ModeRotate, HandleRingX, true
	case subRingY:
		return ModeRotate, HandleRingY, true
	case subRingZ:
		return ModeRotate, HandleRingZ, true
	case subRingView:
		return ModeRotate, HandleRingView, true
	case subScaleX:
		return ModeScale, HandleAxisX, true
	case subScaleY:
		return ModeScale, HandleAxisY, true
	case subScaleZ:
		return ModeScale, HandleAxisZ, true
	case subScalePlaneXY:
		return ModeScale, HandlePlaneXY, true
	case subScalePlaneXZ:
		return ModeScale, HandlePlaneXZ, true
	case subScalePlaneYZ:
		return ModeScale, HandlePlaneYZ, true
	case subScaleUniform:
		return ModeScale, HandleUniform, true
	}
	return ModeSelect, HandleNone, false
}
