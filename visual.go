package previz

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Gizmo proportions, in fractions of the gizmo world length unless noted.
const (
	gizmoScreenFraction = 0.15 // of viewport height at the pivot's depth
	gizmoMinWorldLen    = 1e-3

	planeInner = 0.22 // plane quad corners along each contributing axis
	planeOuter = 0.38

	ringRadiusScale    = 0.90
	ringInnerClipScale = 0.86 // inner occluder circle of the axis rings
	viewRingScale      = 1.05
	uniformRingScale   = 1.25
	ringSegments       = 64

	// Two-threshold fade: fully visible at >=20% of the reference screen
	// extent, fully hidden at <=10%, linear in between.
	fadeVisibleStart = 0.20
	fadeHiddenEnd    = 0.10

	// Handles whose fade falls below this are not pickable.
	pickVisibilityThreshold = 0.2
)

// GizmoWorldLen returns the world-space length of the gizmo axes so the
// gizmo covers a fixed fraction of the viewport height regardless of
// distance, FOV, or viewport size.
func GizmoWorldLen(cam CameraFrame, pivot mgl32.Vec3) float32 {
	depth := pivot.Sub(cam.Eye).Dot(cam.Forward)
	if depth < gizmoMinWorldLen {
		depth = gizmoMinWorldLen
	}
	tanHalf := math32.Tan(mgl32.DegToRad(cam.FovYDeg) * 0.5)
	l := depth * 2 * tanHalf * gizmoScreenFraction
	if l < gizmoMinWorldLen {
		l = gizmoMinWorldLen
	}
	return l
}

// fadeFromRatio maps a visible-extent ratio to an alpha in [0,1] through
// the two fade thresholds.
func fadeFromRatio(ratio float32) float32 {
	if ratio >= fadeVisibleStart {
		return 1
	}
	if ratio <= fadeHiddenEnd {
		return 0
	}
	return (ratio - fadeHiddenEnd) / (fadeVisibleStart - fadeHiddenEnd)
}

// RingVisual is one rotation ring projected to the screen: the polyline
// samples, the per-sample front-hemisphere measure (nil for unclipped
// rings), and the fade alpha.
type RingVisual struct {
	Pts  []mgl32.Vec2
	Dots []float32
	Vis  float32
	OK   bool
}

// GizmoVisual is the per-frame visual state of the gizmo: everything the
// picker and the overlay drawing need, computed once.
type GizmoVisual struct {
	Visible bool
	Mode    Mode
	Pivot   mgl32.Vec3
	Basis   Basis

	WorldLen float32
	// RefLen is the screen-space length of a world-length axis lying
	// perpendicular to the view direction; fades compare against it.
	RefLen float32

	Center mgl32.Vec2

	AxisEnd      [3]mgl32.Vec2
	AxisEndOK    [3]bool
	AxisWorldEnd [3]mgl32.Vec3
	AxisVis      [3]float32

	PlaneQuad   [3][4]mgl32.Vec2 // indexed XY, XZ, YZ
	PlaneOK     [3]bool
	PlaneVis    [3]float32
	PlanePoint  [3]mgl32.Vec3
	PlaneNormal [3]mgl32.Vec3

	Rings       [3]RingVisual
	ViewRing    RingVisual
	UniformRing RingVisual
	InnerClipR  float32
}

func planeHandleAxes(plane int) (int, int) {
	switch plane {
	case 0:
		return 0, 1 // XY
	case 1:
		return 0, 2 // XZ
	default:
		return 1, 2 // YZ
	}
}

func planeHandleFor(plane int) Handle {
	switch plane {
	case 0:
		return HandlePlaneXY
	case 1:
		return HandlePlaneXZ
	default:
		return HandlePlaneYZ
	}
}

func ringHandleFor(axis int) Handle {
	switch axis {
	case 0:
		return HandleRingX
	case 1:
		return HandleRingY
	default:
		return HandleRingZ
	}
}

func axisHandleFor(axis int) Handle {
	switch axis {
	case 0:
		return HandleAxisX
	case 1:
		return HandleAxisY
	default:
		return HandleAxisZ
	}
}

// projectRing samples a world-space circle to a screen polyline. ok is false
// when too few samples project (the ring is unusable this frame).
func projectRing(cam CameraFrame, center mgl32.Vec3, u, v mgl32.Vec3, radius float32) ([]mgl32.Vec2, bool) {
	pts := make([]mgl32.Vec2, ringSegments)
	for i := 0; i < ringSegments; i++ {
		a := float32(i) / float32(ringSegments) * 2 * math32.Pi
		w := center.Add(u.Mul(radius * math32.Cos(a))).Add(v.Mul(radius * math32.Sin(a)))
		p, ok := cam.WorldToScreen(w)
		if !ok {
			return nil, false
		}
		pts[i] = p
	}
	return pts, true
}

// ringPlaneBasis returns two unit vectors spanning the plane perpendicular
// to n.
func ringPlaneBasis(n mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	ref := mgl32.Vec3{0, 1, 0}
	if math32.Abs(n.Dot(ref)) > 0.99 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	u := n.Cross(ref).Normalize()
	v := n.Cross(u).Normalize()
	return u, v
}

// ComputeGizmoVisual projects the gizmo for the current camera. The result
// is deterministic in its inputs; Visible is false when the pivot cannot be
// projected (gizmo hidden, nothing pickable).
func ComputeGizmoVisual(cam CameraFrame, pivot mgl32.Vec3, basis Basis, mode Mode) GizmoVisual {
	vis := GizmoVisual{Mode: mode, Pivot: pivot, Basis: basis}
	if mode == ModeSelect {
		return vis
	}
	center, ok := cam.WorldToScreen(pivot)
	if !ok {
		return vis
	}
	vis.Visible = true
	vis.Center = center
	vis.WorldLen = GizmoWorldLen(cam, pivot)

	depth := pivot.Sub(cam.Eye).Dot(cam.Forward)
	tanHalf := math32.Tan(mgl32.DegToRad(cam.FovYDeg) * 0.5)
	pxPerUnit := float32(cam.Height) / (2 * depth * tanHalf)
	vis.RefLen = vis.WorldLen * pxPerUnit

	toEye := cam.Eye.Sub(pivot)

	for i := 0; i < 3; i++ {
		end := pivot.Add(basis[i].Mul(vis.WorldLen))
		vis.AxisWorldEnd[i] = end
		p, pok := cam.WorldToScreen(end)
		vis.AxisEndOK[i] = pok
		if pok {
			vis.AxisEnd[i] = p
			ratio := p.Sub(center).Len() / max32(vis.RefLen, 1)
			vis.AxisVis[i] = fadeFromRatio(ratio)
		}
	}

	for plane := 0; plane < 3; plane++ {
		a, b := planeHandleAxes(plane)
		vis.PlaneVis[plane] = min32(vis.AxisVis[a], vis.AxisVis[b])
		vis.PlanePoint[plane] = pivot
		vis.PlaneNormal[plane] = basis[a].Cross(basis[b]).Normalize()
		corners := [4]mgl32.Vec3{
			pivot.Add(basis[a].Mul(planeInner * vis.WorldLen)).Add(basis[b].Mul(planeInner * vis.WorldLen)),
			pivot.Add(basis[a].Mul(planeOuter * vis.WorldLen)).Add(basis[b].Mul(planeInner * vis.WorldLen)),
			pivot.Add(basis[a].Mul(planeOuter * vis.WorldLen)).Add(basis[b].Mul(planeOuter * vis.WorldLen)),
			pivot.Add(basis[a].Mul(planeInner * vis.WorldLen)).Add(basis[b].Mul(planeOuter * vis.WorldLen)),
		}
		okAll := true
		for ci, c := range corners {
			p, pok := cam.WorldToScreen(c)
			if !pok {
				okAll = false
				break
			}
			vis.PlaneQuad[plane][ci] = p
		}
		vis.PlaneOK[plane] = okAll
	}

	vis.InnerClipR = vis.RefLen * ringRadiusScale * ringInnerClipScale

	viewDir := toEye
	if l := viewDir.Len(); l > baseEpsilon {
		viewDir = viewDir.Mul(1 / l)
	}

	for axis := 0; axis < 3; axis++ {
		n := basis[axis]
		u, v := ringPlaneBasis(n)
		pts, pok := projectRing(cam, pivot, u, v, ringRadiusScale*vis.WorldLen)
		if !pok {
			continue
		}
		// Ring fade tracks how edge-on the ring plane is, independent of
		// the hemisphere clip.
		ratio := math32.Abs(n.Dot(viewDir))
		vis.Rings[axis] = RingVisual{
			Pts:  pts,
			Dots: RingFrontDots(u, v, toEye, ringSegments),
			Vis:  fadeFromRatio(ratio),
			OK:   true,
		}
	}

	// The view ring and the uniform-scale ring face the camera; they never
	// fade or clip.
	vu := cam.Right()
	vv := cam.Up
	if pts, pok := projectRing(cam, pivot, vu, vv, viewRingScale*vis.WorldLen); pok {
		vis.ViewRing = RingVisual{Pts: pts, Vis: 1, OK: true}
	}
	if pts, pok := projectRing(cam, pivot, vu, vv, uniformRingScale*vis.WorldLen); pok {
		vis.UniformRing = RingVisual{Pts: pts, Vis: 1, OK: true}
	}
	return vis
}
