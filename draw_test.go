package previz

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBuildDrawCommandsTranslate(t *testing.T) {
	_, vis := translateVisual(t)
	cmd := BuildDrawCommands(vis, HandleNone, HandleNone)

	// Looking down -Z: X and Y arrows survive, the end-on Z axis is faded
	// out, and only the XY plane quad is visible.
	if len(cmd.Lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(cmd.Lines))
	}
	for _, l := range cmd.Lines {
		if l.Head != HeadArrow {
			t.Fatalf("translate arrows must use arrow heads, got %v", l.Head)
		}
	}
	if len(cmd.Quads) != 1 {
		t.Fatalf("quad count = %d, want 1 (XY only)", len(cmd.Quads))
	}
}

func TestBuildDrawCommandsHighlightsHover(t *testing.T) {
	_, vis := translateVisual(t)
	cmd := BuildDrawCommands(vis, HandleAxisX, HandleNone)
	found := false
	for _, l := range cmd.Lines {
		if l.Color == highlightColor {
			found = true
		}
	}
	if !found {
		t.Fatal("hovered axis must be highlighted")
	}
}

func TestBuildDrawCommandsActiveBeatsHover(t *testing.T) {
	_, vis := translateVisual(t)
	cmd := BuildDrawCommands(vis, HandleAxisX, HandleAxisY)
	highlighted := 0
	for _, l := range cmd.Lines {
		if l.Color == highlightColor {
			highlighted++
		}
	}
	if highlighted != 1 {
		t.Fatalf("exactly the active handle is highlighted, got %d", highlighted)
	}
}

func TestBuildDrawCommandsRotate(t *testing.T) {
	cam := testCamera()
	vis := ComputeGizmoVisual(cam, mgl32.Vec3{0, 0, 0}, WorldBasis(), ModeRotate)
	cmd := BuildDrawCommands(vis, HandleNone, HandleNone)
	if len(cmd.Lines) == 0 {
		t.Fatal("rotate mode must emit ring segments")
	}
	if len(cmd.Circles) != 1 {
		t.Fatalf("rotate mode emits one view-ring circle, got %d", len(cmd.Circles))
	}
	// Scale-mode primitives never leak into rotate mode.
	if len(cmd.Quads) != 0 {
		t.Fatalf("rotate mode emitted %d quads", len(cmd.Quads))
	}
}

func TestBuildDrawCommandsHiddenGizmoEmpty(t *testing.T) {
	cmd := BuildDrawCommands(GizmoVisual{}, HandleNone, HandleNone)
	if len(cmd.Lines)+len(cmd.Quads)+len(cmd.Circles) != 0 {
		t.Fatal("hidden gizmo must emit nothing")
	}
}
