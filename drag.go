package previz

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Conditioning guards. The closest-point solver stays finite well past
// these, but its output grows as 1/sin^2 of the ray/axis angle; switching
// to the fallback early keeps the drag continuous through parallel.
const (
	axisParallelDot = 0.999 // |ray . axis| above this: use the plane fallback
	planeEdgeOnDot  = 0.05  // |ray . normal| below this: plane is edge-on, hold
)

// DragConfig tunes drag behavior. Zero values are replaced by the defaults.
type DragConfig struct {
	// ScaleSensitivity is the exponent gain per world unit of handle
	// travel, normalized by the gizmo world length (zoom-invariant).
	ScaleSensitivity float32
	// MinScale clamps every scale component to a positive floor.
	MinScale float32
	// ClickThresholdPx separates a click from a drag.
	ClickThresholdPx float32
}

// DefaultDragConfig returns the stock tuning.
func DefaultDragConfig() DragConfig {
	return DragConfig{
		ScaleSensitivity: 2.0,
		MinScale:         1e-4,
		ClickThresholdPx: 4,
	}
}

func (c DragConfig) withDefaults() DragConfig {
	d := DefaultDragConfig()
	if c.ScaleSensitivity == 0 {
		c.ScaleSensitivity = d.ScaleSensitivity
	}
	if c.MinScale <= 0 {
		c.MinScale = d.MinScale
	}
	if c.ClickThresholdPx <= 0 {
		c.ClickThresholdPx = d.ClickThresholdPx
	}
	return c
}

// GizmoState is the full state of one drag, captured at press. Every frame
// computes its delta against these reference values, never against the
// previous frame, so replaying the same cursor positions always yields the
// same transform.
type GizmoState struct {
	Mode   Mode
	Space  Space
	Handle Handle

	Pivot    mgl32.Vec3
	Basis    Basis
	WorldLen float32

	StartCursor    mgl32.Vec2
	StartTransform Transform

	// Press-time references. Which fields are meaningful depends on the
	// handle: axis handles use refParam, plane translate uses refHit,
	// rings use refVec + refNormal, scale handles use refDist + refNormal.
	refParam  float32
	refHit    mgl32.Vec3
	refVec    mgl32.Vec3
	refNormal mgl32.Vec3
	refDist   float32

	last  Transform
	moved bool
}

// Moved reports whether the cursor ever left the click threshold. Sticky:
// once a drag, always a drag.
func (st *GizmoState) Moved() bool { return st.moved }

// Last returns the most recently produced transform (the start transform
// until the first successful update).
func (st *GizmoState) Last() Transform { return st.last }

// BeginDrag captures the drag reference for a handle press. Returns ok=false
// when the press configuration is degenerate (handle axis parallel to the
// cursor ray, ring plane edge-on, pivot under the cursor) — the drag never
// starts rather than starting from a garbage reference.
func BeginDrag(cam CameraFrame, cursor mgl32.Vec2, mode Mode, space Space, handle Handle, obj Transform) (*GizmoState, bool) {
	ray, ok := cam.ViewportRay(cursor.X(), cursor.Y())
	if !ok {
		return nil, false
	}
	pivot := obj.Position
	st := &GizmoState{
		Mode:           mode,
		Space:          space,
		Handle:         handle,
		Pivot:          pivot,
		Basis:          GizmoBasis(space, obj.Rotation),
		WorldLen:       GizmoWorldLen(cam, pivot),
		StartCursor:    cursor,
		StartTransform: obj,
		last:           obj,
	}

	switch {
	case handle.AxisIndex() >= 0 && !handle.IsRing():
		axis := st.Basis[handle.AxisIndex()]
		if math32.Abs(ray.Direction.Dot(axis)) > axisParallelDot {
			return nil, false
		}
		t, ok := ClosestParamOnLineToRay(pivot, axis, ray)
		if !ok {
			return nil, false
		}
		st.refParam = t

	case handle == HandlePlaneXY || handle == HandlePlaneXZ || handle == HandlePlaneYZ:
		a, b, _ := handle.PlaneAxes()
		st.refNormal = st.Basis[a].Cross(st.Basis[b]).Normalize()
		if math32.Abs(ray.Direction.Dot(st.refNormal)) < planeEdgeOnDot {
			return nil, false
		}
		hit, ok := RayPlaneHit(ray, pivot, st.refNormal)
		if !ok {
			return nil, false
		}
		st.refHit = hit
		if mode == ModeScale {
			d := hit.Sub(pivot).Len()
			if d <= relEpsilon(st.WorldLen) {
				return nil, false
			}
			st.refDist = d
		}

	case handle.IsRing():
		var axis mgl32.Vec3
		if handle == HandleRingView {
			axis = cam.Eye.Sub(pivot)
			if l := axis.Len(); l > baseEpsilon {
				axis = axis.Mul(1 / l)
			} else {
				return nil, false
			}
		} else {
			axis = st.Basis[handle.AxisIndex()]
		}
		if math32.Abs(ray.Direction.Dot(axis)) < planeEdgeOnDot {
			return nil, false
		}
		hit, ok := RayPlaneHit(ray, pivot, axis)
		if !ok {
			return nil, false
		}
		v0 := hit.Sub(pivot)
		if v0.Len() <= relEpsilon(st.WorldLen) {
			return nil, false
		}
		st.refNormal = axis
		st.refVec = v0.Normalize()

	case handle == HandleUniform:
		axis := cam.Eye.Sub(pivot)
		l := axis.Len()
		if l <= baseEpsilon {
			return nil, false
		}
		st.refNormal = axis.Mul(1 / l)
		hit, ok := RayPlaneHit(ray, pivot, st.refNormal)
		if !ok {
			return nil, false
		}
		d := hit.Sub(pivot).Len()
		if d <= relEpsilon(st.WorldLen) {
			return nil, false
		}
		st.refDist = d

	default:
		return nil, false
	}
	return st, true
}

// UpdateDrag advances the drag for the current cursor and camera and returns
// the transform to apply. When this frame's geometry is unusable (ray
// parallel to the handle, plane hit behind the camera) the last produced
// transform is returned with changed=false; the drag itself stays alive.
func UpdateDrag(st *GizmoState, cam CameraFrame, cursor mgl32.Vec2, cfg DragConfig) (Transform, bool) {
	cfg = cfg.withDefaults()
	if !st.moved && cursor.Sub(st.StartCursor).Len() > cfg.ClickThresholdPx {
		st.moved = true
	}
	ray, ok := cam.ViewportRay(cursor.X(), cursor.Y())
	if !ok {
		return st.last, false
	}

	out := st.StartTransform
	switch {
	case st.Handle.AxisIndex() >= 0 && !st.Handle.IsRing():
		axisIdx := st.Handle.AxisIndex()
		axis := st.Basis[axisIdx]
		var tNow float32
		ok := math32.Abs(ray.Direction.Dot(axis)) <= axisParallelDot
		if ok {
			tNow, ok = ClosestParamOnLineToRay(st.Pivot, axis, ray)
		}
		if !ok {
			// Near-parallel: reroute through a camera-facing plane at the
			// pivot and measure the axis parameter of the plane hit. Keeps
			// the parameter continuous as the view sweeps through parallel.
			hit, hok := RayPlaneHit(ray, st.Pivot, cam.Forward.Mul(-1))
			if !hok {
				return st.last, false
			}
			tNow = hit.Sub(st.Pivot).Dot(axis)
		}
		if st.Mode == ModeScale {
			out.Scale[axisIdx] = scaleFactor(st, cfg, tNow-st.refParam) * st.StartTransform.Scale[axisIdx]
			out.Scale[axisIdx] = max32(out.Scale[axisIdx], cfg.MinScale)
		} else {
			out.Position = st.StartTransform.Position.Add(axis.Mul(tNow - st.refParam))
		}

	case st.Handle == HandlePlaneXY || st.Handle == HandlePlaneXZ || st.Handle == HandlePlaneYZ:
		if math32.Abs(ray.Direction.Dot(st.refNormal)) < planeEdgeOnDot {
			return st.last, false
		}
		hit, hok := RayPlaneHit(ray, st.Pivot, st.refNormal)
		if !hok {
			return st.last, false
		}
		a, b, _ := st.Handle.PlaneAxes()
		if st.Mode == ModeScale {
			f := scaleFactor(st, cfg, hit.Sub(st.Pivot).Len()-st.refDist)
			out.Scale[a] = max32(f*st.StartTransform.Scale[a], cfg.MinScale)
			out.Scale[b] = max32(f*st.StartTransform.Scale[b], cfg.MinScale)
		} else {
			delta := hit.Sub(st.refHit)
			// Re-project onto the plane basis so numerical drift off the
			// plane cannot leak into the third axis.
			delta = st.Basis[a].Mul(delta.Dot(st.Basis[a])).
				Add(st.Basis[b].Mul(delta.Dot(st.Basis[b])))
			out.Position = st.StartTransform.Position.Add(delta)
		}

	case st.Handle.IsRing():
		if math32.Abs(ray.Direction.Dot(st.refNormal)) < planeEdgeOnDot {
			return st.last, false
		}
		hit, hok := RayPlaneHit(ray, st.Pivot, st.refNormal)
		if !hok {
			return st.last, false
		}
		v1 := hit.Sub(st.Pivot)
		if v1.Len() <= relEpsilon(st.WorldLen) {
			return st.last, false
		}
		v1 = v1.Normalize()
		angle := math32.Atan2(st.refNormal.Dot(st.refVec.Cross(v1)), st.refVec.Dot(v1))
		q := mgl32.QuatRotate(angle, st.refNormal)
		out.Rotation = q.Mul(st.StartTransform.Rotation).Normalize()
		out.Position = st.Pivot.Add(q.Rotate(st.StartTransform.Position.Sub(st.Pivot)))

	case st.Handle == HandleUniform:
		hit, hok := RayPlaneHit(ray, st.Pivot, st.refNormal)
		if !hok {
			return st.last, false
		}
		f := scaleFactor(st, cfg, hit.Sub(st.Pivot).Len()-st.refDist)
		for i := 0; i < 3; i++ {
			out.Scale[i] = max32(f*st.StartTransform.Scale[i], cfg.MinScale)
		}

	default:
		return st.last, false
	}

	if !finiteVec3(out.Position) || !finiteVec3(out.Scale) {
		return st.last, false
	}
	st.last = out
	return out, true
}

// scaleFactor maps signed handle travel (world units) to a multiplicative
// ratio. exp keeps it symmetric: +d then -d lands exactly back on 1.
func scaleFactor(st *GizmoState, cfg DragConfig, travel float32) float32 {
	return math32.Exp(cfg.ScaleSensitivity * travel / max32(st.WorldLen, gizmoMinWorldLen))
}
