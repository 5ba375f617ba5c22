package previz

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a world-space ray with a unit direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

const baseEpsilon = 1e-6

// relEpsilon scales the base epsilon by the magnitude of the quantities
// involved so the degeneracy tests stay meaningful far from the origin.
func relEpsilon(scale float32) float32 {
	s := math32.Abs(scale)
	if s < 1.0 {
		s = 1.0
	}
	return baseEpsilon * s
}

func finiteVec3(v mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math32.IsNaN(v[i]) || math32.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

func finiteVec2(v mgl32.Vec2) bool {
	return !math32.IsNaN(v[0]) && !math32.IsInf(v[0], 0) &&
		!math32.IsNaN(v[1]) && !math32.IsInf(v[1], 0)
}

// ClosestParamOnLineToRay solves the two-line closest-point system and
// returns the parameter t on the line origin + t*dir closest to the ray.
// Fails when the line and the ray are near parallel; callers pick the
// documented fallback (support plane or hold) rather than guessing a value.
func ClosestParamOnLineToRay(origin, dir mgl32.Vec3, ray Ray) (float32, bool) {
	w0 := ray.Origin.Sub(origin)
	a := ray.Direction.Dot(ray.Direction)
	b := ray.Direction.Dot(dir)
	c := dir.Dot(dir)
	d := ray.Direction.Dot(w0)
	e := dir.Dot(w0)
	denom := a*c - b*b
	if math32.Abs(denom) <= relEpsilon(a*c) {
		return 0, false
	}
	t := (a*e - b*d) / denom
	if math32.IsNaN(t) || math32.IsInf(t, 0) {
		return 0, false
	}
	return t, true
}

// RayPlaneHit intersects the ray with the plane through point with the given
// normal. Fails for near-parallel configurations and for hits behind the ray.
func RayPlaneHit(ray Ray, point, normal mgl32.Vec3) (mgl32.Vec3, bool) {
	denom := ray.Direction.Dot(normal)
	if math32.Abs(denom) <= relEpsilon(normal.Len()) {
		return mgl32.Vec3{}, false
	}
	t := point.Sub(ray.Origin).Dot(normal) / denom
	if t < 0 || math32.IsNaN(t) || math32.IsInf(t, 0) {
		return mgl32.Vec3{}, false
	}
	return ray.At(t), true
}

// DistToSegment returns the distance from p to the segment a-b.
func DistToSegment(p, a, b mgl32.Vec2) float32 {
	v := b.Sub(a)
	w := p.Sub(a)
	c1 := v.Dot(w)
	if c1 <= 0 {
		return w.Len()
	}
	c2 := v.Dot(v)
	if c2 <= c1 {
		return p.Sub(b).Len()
	}
	t := c1 / c2
	return p.Sub(a.Add(v.Mul(t))).Len()
}

func cross2(a, b, c mgl32.Vec2) float32 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	return ab.X()*ac.Y() - ab.Y()*ac.X()
}

func pointInTriangle(p, a, b, c mgl32.Vec2) bool {
	c1 := cross2(a, b, p)
	c2 := cross2(b, c, p)
	c3 := cross2(c, a, p)
	hasNeg := c1 < 0 || c2 < 0 || c3 < 0
	hasPos := c1 > 0 || c2 > 0 || c3 > 0
	return !(hasNeg && hasPos)
}

// PointInQuad tests containment in the (possibly non-axis-aligned) quad
// a-b-c-d via a two-triangle decomposition.
func PointInQuad(p, a, b, c, d mgl32.Vec2) bool {
	return pointInTriangle(p, a, b, c) || pointInTriangle(p, a, c, d)
}

// ringSpan is a visible sub-range of one ring polyline segment, in the
// segment's own 0..1 parameter.
type ringSpan struct {
	t0, t1 float32
}

// clipRingSegment computes the visible spans of the segment a-b of a
// screen-space ring polyline. da/db are the front-facing measures at the
// endpoints (positive = front hemisphere); the boundary is placed exactly
// where the linear interpolation crosses zero. center/innerR describe the
// inner occluder circle; its crossings are the roots of a quadratic in the
// segment parameter. At most two spans survive.
func clipRingSegment(a, b mgl32.Vec2, da, db float32, center mgl32.Vec2, innerR float32) ([2]ringSpan, int) {
	var out [2]ringSpan
	if da < 0 && db < 0 {
		return out, 0
	}
	th0, th1 := float32(0), float32(1)
	if da < 0 {
		th0 = -da / (db - da)
	} else if db < 0 {
		th1 = -da / (db - da)
	}
	if th0 >= th1 {
		return out, 0
	}

	d0 := a.Sub(center)
	e := b.Sub(a)
	qa := e.Dot(e)
	qb := 2 * d0.Dot(e)
	qc := d0.Dot(d0) - innerR*innerR

	n := 0
	emit := func(ts, te float32) {
		if ts < te && n < 2 {
			out[n] = ringSpan{ts, te}
			n++
		}
	}

	disc := qb*qb - 4*qa*qc
	if qa < 1e-10 || disc < 0 {
		// Segment never crosses the inner circle; visible iff outside it.
		if qc >= 0 {
			emit(th0, th1)
		}
		return out, n
	}
	sq := math32.Sqrt(disc)
	t1 := (-qb - sq) / (2 * qa)
	t2 := (-qb + sq) / (2 * qa)
	emit(th0, min32(th1, t1))
	emit(max32(th0, t2), th1)
	return out, n
}

// RingDistanceClipped returns the distance from p to the visible portion of
// a closed ring polyline, after the exact hemisphere and inner-circle split.
// Returns MaxFloat32 when nothing is visible.
func RingDistanceClipped(p mgl32.Vec2, pts []mgl32.Vec2, frontDots []float32, center mgl32.Vec2, innerR float32) float32 {
	if len(pts) < 2 {
		return math32.MaxFloat32
	}
	best := float32(math32.MaxFloat32)
	for i := range pts {
		j := (i + 1) % len(pts)
		da, db := float32(1), float32(1)
		if len(frontDots) == len(pts) {
			da, db = frontDots[i], frontDots[j]
		}
		spans, n := clipRingSegment(pts[i], pts[j], da, db, center, innerR)
		for s := 0; s < n; s++ {
			seg := pts[j].Sub(pts[i])
			pa := pts[i].Add(seg.Mul(spans[s].t0))
			pb := pts[i].Add(seg.Mul(spans[s].t1))
			if d := DistToSegment(p, pa, pb); d < best {
				best = d
			}
		}
	}
	return best
}

// VisibleRingSegments emits the visible sub-segments of a closed ring
// polyline as point pairs, for drawing.
func VisibleRingSegments(pts []mgl32.Vec2, frontDots []float32, center mgl32.Vec2, innerR float32) [][2]mgl32.Vec2 {
	if len(pts) < 2 {
		return nil
	}
	out := make([][2]mgl32.Vec2, 0, len(pts))
	for i := range pts {
		j := (i + 1) % len(pts)
		da, db := float32(1), float32(1)
		if len(frontDots) == len(pts) {
			da, db = frontDots[i], frontDots[j]
		}
		spans, n := clipRingSegment(pts[i], pts[j], da, db, center, innerR)
		for s := 0; s < n; s++ {
			seg := pts[j].Sub(pts[i])
			out = append(out, [2]mgl32.Vec2{
				pts[i].Add(seg.Mul(spans[s].t0)),
				pts[i].Add(seg.Mul(spans[s].t1)),
			})
		}
	}
	return out
}

// RingFrontDots samples the front-facing measure of a ring lying in the
// plane spanned by u and v: the dot of each sample's radial direction with
// the unit vector from pivot to eye. Positive means front hemisphere.
func RingFrontDots(u, v, toEye mgl32.Vec3, segments int) []float32 {
	dots := make([]float32, segments)
	view := toEye
	if l := view.Len(); l > baseEpsilon {
		view = view.Mul(1 / l)
	}
	for i := 0; i < segments; i++ {
		a := float32(i) / float32(segments) * 2 * math32.Pi
		radial := u.Mul(math32.Cos(a)).Add(v.Mul(math32.Sin(a)))
		dots[i] = radial.Dot(view)
	}
	return dots
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
