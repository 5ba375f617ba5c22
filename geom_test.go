package previz

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestClosestParamOnLineToRay(t *testing.T) {
	// Ray through (2, 0, 0) looking down -Z should find param 2 on the X axis.
	ray := Ray{Origin: mgl32.Vec3{2, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}
	got, ok := ClosestParamOnLineToRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, ray)
	if !ok {
		t.Fatal("expected solve to succeed")
	}
	if math32.Abs(got-2) > 1e-5 {
		t.Fatalf("param = %v, want 2", got)
	}
}

func TestClosestParamSkewLines(t *testing.T) {
	// Ray offset in Y, aimed down -Z; closest approach to the X axis is
	// still at x = 3.
	ray := Ray{Origin: mgl32.Vec3{3, 1, 5}, Direction: mgl32.Vec3{0, 0, -1}}
	got, ok := ClosestParamOnLineToRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, ray)
	if !ok {
		t.Fatal("expected solve to succeed")
	}
	if math32.Abs(got-3) > 1e-5 {
		t.Fatalf("param = %v, want 3", got)
	}
}

func TestClosestParamParallelFails(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{0, 1, 0}, Direction: mgl32.Vec3{1, 0, 0}}
	if _, ok := ClosestParamOnLineToRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, ray); ok {
		t.Fatal("parallel ray/line must fail, not return a value")
	}
}

func TestRayPlaneHit(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{0, 5, 0}, Direction: mgl32.Vec3{0, -1, 0}}
	hit, ok := RayPlaneHit(ray, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	if !ok {
		t.Fatal("expected hit")
	}
	if hit.Sub(mgl32.Vec3{0, 0, 0}).Len() > 1e-5 {
		t.Fatalf("hit = %v, want origin", hit)
	}
}

func TestRayPlaneHitBehindRay(t *testing.T) {
	// Plane is behind the ray origin; a negative-t hit must be rejected.
	ray := Ray{Origin: mgl32.Vec3{0, 5, 0}, Direction: mgl32.Vec3{0, 1, 0}}
	if _, ok := RayPlaneHit(ray, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}); ok {
		t.Fatal("hit behind the ray must be rejected")
	}
}

func TestRayPlaneParallelFails(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{0, 1, 0}, Direction: mgl32.Vec3{1, 0, 0}}
	if _, ok := RayPlaneHit(ray, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}); ok {
		t.Fatal("ray parallel to plane must fail")
	}
}

func TestDistToSegment(t *testing.T) {
	a := mgl32.Vec2{0, 0}
	b := mgl32.Vec2{10, 0}
	cases := []struct {
		p    mgl32.Vec2
		want float32
	}{
		{mgl32.Vec2{5, 3}, 3},    // above the middle
		{mgl32.Vec2{-4, 0}, 4},   // beyond the a end
		{mgl32.Vec2{13, 4}, 5},   // beyond the b end, diagonal
		{mgl32.Vec2{7, 0}, 0},    // on the segment
	}
	for _, c := range cases {
		if got := DistToSegment(c.p, a, b); math32.Abs(got-c.want) > 1e-5 {
			t.Errorf("DistToSegment(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPointInQuad(t *testing.T) {
	// Quad rotated 45 degrees around its center (5, 5).
	a := mgl32.Vec2{5, 0}
	b := mgl32.Vec2{10, 5}
	c := mgl32.Vec2{5, 10}
	d := mgl32.Vec2{0, 5}
	if !PointInQuad(mgl32.Vec2{5, 5}, a, b, c, d) {
		t.Error("center must be inside")
	}
	if !PointInQuad(mgl32.Vec2{7, 5}, a, b, c, d) {
		t.Error("(7,5) must be inside")
	}
	if PointInQuad(mgl32.Vec2{9, 9}, a, b, c, d) {
		t.Error("(9,9) is outside the rotated quad")
	}
	if PointInQuad(mgl32.Vec2{-1, 5}, a, b, c, d) {
		t.Error("(-1,5) is outside")
	}
}

func circlePts(center mgl32.Vec2, r float32, n int) []mgl32.Vec2 {
	pts := make([]mgl32.Vec2, n)
	for i := 0; i < n; i++ {
		a := float32(i) / float32(n) * 2 * math32.Pi
		pts[i] = center.Add(mgl32.Vec2{r * math32.Cos(a), r * math32.Sin(a)})
	}
	return pts
}

func TestRingDistanceBackHemisphereHidden(t *testing.T) {
	center := mgl32.Vec2{100, 100}
	pts := circlePts(center, 50, 64)
	// Mark the right half (x > center) as back-facing.
	dots := make([]float32, len(pts))
	for i, p := range pts {
		if p.X() > center.X() {
			dots[i] = -1
		} else {
			dots[i] = 1
		}
	}
	// A point on the back half must not register, one on the front must.
	if d := RingDistanceClipped(mgl32.Vec2{150, 100}, pts, dots, center, 0); d < 10 {
		t.Fatalf("back-hemisphere point registered at distance %v", d)
	}
	if d := RingDistanceClipped(mgl32.Vec2{50, 100}, pts, dots, center, 0); d > 1 {
		t.Fatalf("front-hemisphere distance = %v, want ~0", d)
	}
}

func TestRingDistanceInnerCircleClips(t *testing.T) {
	center := mgl32.Vec2{100, 100}
	pts := circlePts(center, 50, 64)
	// Inner occluder bigger than the ring hides everything.
	if d := RingDistanceClipped(mgl32.Vec2{150, 100}, pts, nil, center, 60); d < 1e6 {
		t.Fatalf("fully occluded ring still registered at %v", d)
	}
	// Occluder centered elsewhere hides only the part it covers.
	occ := mgl32.Vec2{150, 100}
	if d := RingDistanceClipped(mgl32.Vec2{150, 100}, pts, nil, occ, 20); d < 15 {
		t.Fatalf("occluded arc registered at %v", d)
	}
	if d := RingDistanceClipped(mgl32.Vec2{50, 100}, pts, nil, occ, 20); d > 1 {
		t.Fatalf("unoccluded arc distance = %v, want ~0", d)
	}
}

func TestClipRingSegmentBoundaryInterpolation(t *testing.T) {
	// Front measure crosses zero a quarter of the way along the segment.
	spans, n := clipRingSegment(mgl32.Vec2{0, 0}, mgl32.Vec2{4, 0}, -1, 3, mgl32.Vec2{100, 100}, 0)
	if n != 1 {
		t.Fatalf("span count = %d, want 1", n)
	}
	if math32.Abs(spans[0].t0-0.25) > 1e-5 || math32.Abs(spans[0].t1-1) > 1e-5 {
		t.Fatalf("span = [%v, %v], want [0.25, 1]", spans[0].t0, spans[0].t1)
	}
}

func TestClipRingSegmentInnerSplitsInTwo(t *testing.T) {
	// Segment passes straight through an occluder of radius 1 at (5, 0):
	// two visible spans survive, one on each side.
	spans, n := clipRingSegment(mgl32.Vec2{0, 0}, mgl32.Vec2{10, 0}, 1, 1, mgl32.Vec2{5, 0}, 1)
	if n != 2 {
		t.Fatalf("span count = %d, want 2", n)
	}
	if math32.Abs(spans[0].t1-0.4) > 1e-4 || math32.Abs(spans[1].t0-0.6) > 1e-4 {
		t.Fatalf("spans = %v, want exits at 0.4 and 0.6", spans)
	}
}
