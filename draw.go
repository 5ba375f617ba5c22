package previz

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LineHead selects the end-cap of an overlay line.
type LineHead int

const (
	HeadNone LineHead = iota
	HeadArrow
	HeadSquare
)

// OverlayLine is one 2D overlay segment in pixel coordinates.
type OverlayLine struct {
	From, To mgl32.Vec2
	Color    [4]float32
	Width    float32
	Head     LineHead
}

// OverlayQuad is a filled 2D quad.
type OverlayQuad struct {
	Pts   [4]mgl32.Vec2
	Color [4]float32
}

// OverlayCircle is an outlined 2D circle.
type OverlayCircle struct {
	Center mgl32.Vec2
	Radius float32
	Color  [4]float32
}

// DrawCommands is the renderer-agnostic 2D overlay for one frame. The
// caller rasterizes it however it likes; nothing here touches a GPU.
type DrawCommands struct {
	Lines   []OverlayLine
	Quads   []OverlayQuad
	Circles []OverlayCircle
}

var (
	axisColors = [3][4]float32{
		{0.93, 0.26, 0.26, 1},
		{0.38, 0.85, 0.25, 1},
		{0.27, 0.52, 0.95, 1},
	}
	highlightColor = [4]float32{1, 0.85, 0.2, 1}
	viewRingColor  = [4]float32{0.85, 0.85, 0.85, 1}
	uniformColor   = [4]float32{0.75, 0.75, 0.75, 1}

	planeFillAlpha = float32(0.35)
	gizmoLineWidth = float32(2)
)

func withAlpha(c [4]float32, a float32) [4]float32 {
	c[3] *= a
	return c
}

func handleColor(base [4]float32, alpha float32, h, hover, active Handle) [4]float32 {
	if h == active || (active == HandleNone && h == hover) {
		return withAlpha(highlightColor, alpha)
	}
	return withAlpha(base, alpha)
}

// BuildDrawCommands turns the gizmo visual state into overlay primitives.
// hover is the handle under the cursor, active the handle being dragged
// (HandleNone when idle). Pure: same inputs, same commands.
func BuildDrawCommands(vis GizmoVisual, hover, active Handle) DrawCommands {
	var cmd DrawCommands
	if !vis.Visible {
		return cmd
	}
	switch vis.Mode {
	case ModeTranslate:
		buildAxes(&cmd, vis, hover, active, HeadArrow)
		buildPlanes(&cmd, vis, hover, active)
	case ModeRotate:
		buildRings(&cmd, vis, hover, active)
	case ModeScale:
		buildAxes(&cmd, vis, hover, active, HeadSquare)
		buildPlanes(&cmd, vis, hover, active)
		buildUniform(&cmd, vis, hover, active)
	}
	return cmd
}

func buildAxes(cmd *DrawCommands, vis GizmoVisual, hover, active Handle, head LineHead) {
	for axis := 0; axis < 3; axis++ {
		if !vis.AxisEndOK[axis] || vis.AxisVis[axis] <= 0 {
			continue
		}
		h := axisHandleFor(axis)
		cmd.Lines = append(cmd.Lines, OverlayLine{
			From:  vis.Center,
			To:    vis.AxisEnd[axis],
			Color: handleColor(axisColors[axis], vis.AxisVis[axis], h, hover, active),
			Width: gizmoLineWidth,
			Head:  head,
		})
	}
}

func buildPlanes(cmd *DrawCommands, vis GizmoVisual, hover, active Handle) {
	for plane := 0; plane < 3; plane++ {
		if !vis.PlaneOK[plane] || vis.PlaneVis[plane] <= 0 {
			continue
		}
		h := planeHandleFor(plane)
		a, b := planeHandleAxes(plane)
		// Plane quads blend the two contributing axis colors.
		base := [4]float32{
			(axisColors[a][0] + axisColors[b][0]) * 0.5,
			(axisColors[a][1] + axisColors[b][1]) * 0.5,
			(axisColors[a][2] + axisColors[b][2]) * 0.5,
			planeFillAlpha,
		}
		cmd.Quads = append(cmd.Quads, OverlayQuad{
			Pts:   vis.PlaneQuad[plane],
			Color: handleColor(base, vis.PlaneVis[plane], h, hover, active),
		})
	}
}

func buildRings(cmd *DrawCommands, vis GizmoVisual, hover, active Handle) {
	for axis := 0; axis < 3; axis++ {
		r := vis.Rings[axis]
		if !r.OK || r.Vis <= 0 {
			continue
		}
		h := ringHandleFor(axis)
		color := handleColor(axisColors[axis], r.Vis, h, hover, active)
		for _, seg := range VisibleRingSegments(r.Pts, r.Dots, vis.Center, vis.InnerClipR) {
			cmd.Lines = append(cmd.Lines, OverlayLine{
				From:  seg[0],
				To:    seg[1],
				Color: color,
				Width: gizmoLineWidth,
			})
		}
	}
	if vis.ViewRing.OK {
		// Camera-facing: projects to a circle, no clipping needed.
		cmd.Circles = append(cmd.Circles, OverlayCircle{
			Center: vis.Center,
			Radius: viewRingScale * vis.RefLen,
			Color:  handleColor(viewRingColor, 1, HandleRingView, hover, active),
		})
	}
}

func buildUniform(cmd *DrawCommands, vis GizmoVisual, hover, active Handle) {
	if !vis.UniformRing.OK {
		return
	}
	cmd.Circles = append(cmd.Circles, OverlayCircle{
		Center: vis.Center,
		Radius: uniformRingScale * vis.RefLen,
		Color:  handleColor(uniformColor, 1, HandleUniform, hover, active),
	})
}
