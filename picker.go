package previz

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Pick thresholds in pixels.
const (
	axisPickPx = 10
	ringPickPx = 8
)

// PickHandle resolves which gizmo handle (if any) sits under the cursor,
// screen-space first with a world-space fallback when the projection of a
// handle failed this frame. Faded handles (below the pick visibility
// threshold) are skipped so near-invisible geometry cannot steal clicks.
// The caller freezes the result for the duration of an active drag.
func PickHandle(vis GizmoVisual, cam CameraFrame, cursor mgl32.Vec2) Handle {
	if !vis.Visible || !finiteVec2(cursor) {
		return HandleNone
	}
	switch vis.Mode {
	case ModeTranslate:
		if h := pickPlanes(vis, cursor); h != HandleNone {
			return h
		}
		return pickAxes(vis, cam, cursor)
	case ModeRotate:
		return pickRings(vis, cursor)
	case ModeScale:
		if h := pickPlanes(vis, cursor); h != HandleNone {
			return h
		}
		if h := pickAxes(vis, cam, cursor); h != HandleNone {
			return h
		}
		return pickUniform(vis, cursor)
	}
	return HandleNone
}

// pickPlanes tests the plane quads by containment. Plane handles are small
// and unambiguous, so containment beats axis distance.
func pickPlanes(vis GizmoVisual, cursor mgl32.Vec2) Handle {
	for plane := 0; plane < 3; plane++ {
		if !vis.PlaneOK[plane] || vis.PlaneVis[plane] < pickVisibilityThreshold {
			continue
		}
		q := vis.PlaneQuad[plane]
		if PointInQuad(cursor, q[0], q[1], q[2], q[3]) {
			return planeHandleFor(plane)
		}
	}
	return HandleNone
}

func pickAxes(vis GizmoVisual, cam CameraFrame, cursor mgl32.Vec2) Handle {
	best := HandleNone
	bestDist := float32(axisPickPx)
	for axis := 0; axis < 3; axis++ {
		if vis.AxisVis[axis] < pickVisibilityThreshold && vis.AxisEndOK[axis] {
			continue
		}
		if vis.AxisEndOK[axis] {
			d := DistToSegment(cursor, vis.Center, vis.AxisEnd[axis])
			if d < bestDist {
				bestDist = d
				best = axisHandleFor(axis)
			}
			continue
		}
		// Projection failed (endpoint behind the camera plane): fall back
		// to a world-space closest-point test against the cursor ray.
		if pickAxisWorld(vis, cam, cursor, axis) {
			return axisHandleFor(axis)
		}
	}
	return best
}

// pickAxisWorld is the world-space fallback for an axis whose screen
// projection is unavailable: distance between the cursor ray and the axis
// segment, compared against a fraction of the gizmo world length.
func pickAxisWorld(vis GizmoVisual, cam CameraFrame, cursor mgl32.Vec2, axis int) bool {
	ray, ok := cam.ViewportRay(cursor.X(), cursor.Y())
	if !ok {
		return false
	}
	t, ok := ClosestParamOnLineToRay(vis.Pivot, vis.Basis[axis], ray)
	if !ok {
		return false
	}
	t = mgl32.Clamp(t, 0, vis.WorldLen)
	onAxis := vis.Pivot.Add(vis.Basis[axis].Mul(t))
	s := onAxis.Sub(ray.Origin).Dot(ray.Direction)
	if s < 0 {
		return false
	}
	d := onAxis.Sub(ray.At(s)).Len()
	return d < 0.1*vis.WorldLen
}

func pickRings(vis GizmoVisual, cursor mgl32.Vec2) Handle {
	best := HandleNone
	bestDist := float32(ringPickPx)
	for axis := 0; axis < 3; axis++ {
		r := vis.Rings[axis]
		if !r.OK || r.Vis < pickVisibilityThreshold {
			continue
		}
		d := RingDistanceClipped(cursor, r.Pts, r.Dots, vis.Center, vis.InnerClipR)
		if d < bestDist {
			bestDist = d
			best = ringHandleFor(axis)
		}
	}
	if best != HandleNone {
		return best
	}
	if vis.ViewRing.OK {
		// The view ring is camera-facing; no hemisphere or inner clip.
		if ringPolylineDistance(cursor, vis.ViewRing.Pts) < ringPickPx {
			return HandleRingView
		}
	}
	return HandleNone
}

func pickUniform(vis GizmoVisual, cursor mgl32.Vec2) Handle {
	if !vis.UniformRing.OK {
		return HandleNone
	}
	if ringPolylineDistance(cursor, vis.UniformRing.Pts) < ringPickPx {
		return HandleUniform
	}
	return HandleNone
}

func ringPolylineDistance(p mgl32.Vec2, pts []mgl32.Vec2) float32 {
	if len(pts) < 2 {
		return math32.MaxFloat32
	}
	best := float32(math32.MaxFloat32)
	for i := range pts {
		j := (i + 1) % len(pts)
		if d := DistToSegment(p, pts[i], pts[j]); d < best {
			best = d
		}
	}
	return best
}
