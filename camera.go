package previz

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraFrame is the immutable per-frame camera snapshot the manipulation
// core works from. Forward and Up are unit vectors; FovYDeg is the vertical
// field of view; Width/Height are the viewport size in pixels.
type CameraFrame struct {
	Eye     mgl32.Vec3
	Forward mgl32.Vec3
	Up      mgl32.Vec3
	FovYDeg float32
	Width   int
	Height  int
}

// Right returns the camera right vector (forward x up, renormalized).
func (c CameraFrame) Right() mgl32.Vec3 {
	r := c.Forward.Cross(c.Up)
	if l := r.Len(); l > baseEpsilon {
		return r.Mul(1 / l)
	}
	return mgl32.Vec3{1, 0, 0}
}

// Aspect returns width/height, or 1 for a degenerate viewport.
func (c CameraFrame) Aspect() float32 {
	if c.Width <= 0 || c.Height <= 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// ViewportRay builds the world-space ray through the pixel (mx, my).
// Pixel (0,0) is the top-left corner of the viewport. The NDC mapping is
// x = 2*mx/w - 1, y = 1 - 2*my/h (y flips because pixels grow downward).
// Fails on a zero-area viewport or a non-finite cursor.
func (c CameraFrame) ViewportRay(mx, my float32) (Ray, bool) {
	if c.Width <= 0 || c.Height <= 0 {
		return Ray{}, false
	}
	if !finiteVec2(mgl32.Vec2{mx, my}) {
		return Ray{}, false
	}
	ndcX := 2*mx/float32(c.Width) - 1
	ndcY := 1 - 2*my/float32(c.Height)
	tanHalf := math32.Tan(mgl32.DegToRad(c.FovYDeg) * 0.5)
	dir := c.Right().Mul(ndcX * c.Aspect() * tanHalf).
		Add(c.Up.Mul(ndcY * tanHalf)).
		Add(c.Forward)
	l := dir.Len()
	if l <= baseEpsilon {
		return Ray{}, false
	}
	return Ray{Origin: c.Eye, Direction: dir.Mul(1 / l)}, true
}

// WorldToScreen projects a world point to pixel coordinates (top-left
// origin). Fails for points at or behind the camera plane, where the
// projection is undefined.
func (c CameraFrame) WorldToScreen(p mgl32.Vec3) (mgl32.Vec2, bool) {
	if c.Width <= 0 || c.Height <= 0 {
		return mgl32.Vec2{}, false
	}
	rel := p.Sub(c.Eye)
	viewZ := rel.Dot(c.Forward)
	if viewZ <= 1e-3 {
		return mgl32.Vec2{}, false
	}
	viewX := rel.Dot(c.Right())
	viewY := rel.Dot(c.Up)
	tanHalf := math32.Tan(mgl32.DegToRad(c.FovYDeg) * 0.5)
	ndcX := viewX / (viewZ * tanHalf * c.Aspect())
	ndcY := viewY / (viewZ * tanHalf)
	out := mgl32.Vec2{
		(ndcX + 1) * 0.5 * float32(c.Width),
		(1 - ndcY) * 0.5 * float32(c.Height),
	}
	if !finiteVec2(out) {
		return mgl32.Vec2{}, false
	}
	return out, true
}
