package previz

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SceneBinding is how the session reads and writes the scene it edits.
// ApplyTransform failures are logged and the drag continues; the scene
// owner decides what a failed write means.
type SceneBinding interface {
	Transform(id NodeId) (Transform, bool)
	ApplyTransform(id NodeId, t Transform) error
}

// CursorState is one frame of pointer input.
type CursorState struct {
	Pos          mgl32.Vec2
	Pressed      bool
	JustPressed  bool
	JustReleased bool
	// FocusLost is set the frame the window loses focus; it ends an active
	// drag exactly like a release.
	FocusLost bool
}

// Session is the per-viewport interaction state machine: mode, selection,
// hover, and the active drag. One Update call per frame, on one goroutine.
type Session struct {
	log     Logger
	cfg     DragConfig
	binding SceneBinding
	nodes   *NodeRegistry
	helpers *HelperSet

	mode  Mode
	space Space

	selection    NodeId
	hasSelection bool

	hover  Handle
	visual GizmoVisual

	drag     *GizmoState
	dragNode NodeId
}

// NewSession creates a session over the given scene. logger may be nil.
func NewSession(binding SceneBinding, nodes *NodeRegistry, logger Logger, cfg DragConfig) *Session {
	if logger == nil {
		logger = NewNopLogger()
	}
	if nodes == nil {
		nodes = NewNodeRegistry()
	}
	return &Session{
		log:     logger,
		cfg:     cfg.withDefaults(),
		binding: binding,
		nodes:   nodes,
		helpers: NewHelperSet(nodes),
	}
}

func (s *Session) Mode() Mode            { return s.mode }
func (s *Session) Space() Space          { return s.space }
func (s *Session) Hover() Handle         { return s.hover }
func (s *Session) Dragging() bool        { return s.drag != nil }
func (s *Session) Visual() GizmoVisual   { return s.visual }
func (s *Session) Nodes() *NodeRegistry  { return s.nodes }
func (s *Session) Helpers() *HelperSet   { return s.helpers }

// Selection returns the selected node, ok=false when nothing is selected.
func (s *Session) Selection() (NodeId, bool) {
	return s.selection, s.hasSelection
}

// SetMode switches the tool. An active drag ends first, keeping its last
// committed transform.
func (s *Session) SetMode(m Mode) {
	if s.drag != nil {
		s.endDrag(false)
	}
	s.mode = m
	s.hover = HandleNone
}

// SetSpace switches between world and local gizmo axes. Takes effect on the
// next press; the active drag keeps its captured basis.
func (s *Session) SetSpace(sp Space) {
	s.space = sp
}

// Select sets the selection directly (outliner click, programmatic focus).
func (s *Session) Select(id NodeId) {
	s.selection = id
	s.hasSelection = true
}

// ClearSelection drops the selection. No-op during a drag.
func (s *Session) ClearSelection() {
	if s.drag != nil {
		return
	}
	s.hasSelection = false
}

// Update advances the session one frame. scenePick is this frame's resolved
// id-buffer hit under the cursor (zero key when nothing or not yet read).
// Precedence: active drag is exclusive; then gizmo handles; then helpers
// and scene meshes; a background click clears the selection only in Select
// mode.
func (s *Session) Update(cam CameraFrame, cursor CursorState, scenePick PickHit) {
	if s.drag != nil {
		s.updateDrag(cam, cursor)
		return
	}

	s.refreshVisual(cam)

	s.hover = HandleNone
	if s.visual.Visible {
		s.hover = PickHandle(s.visual, cam, cursor.Pos)
	}

	if !cursor.JustPressed {
		return
	}

	if s.hover != HandleNone {
		s.beginDrag(cam, cursor.Pos, s.hover)
		return
	}

	key := scenePick.Key
	switch key.Kind {
	case PickGizmoHandle:
		// The analytic picker is authoritative for gizmo handles; an
		// id-buffer gizmo hit it disagreed with still counts, but only if
		// the sub id belongs to the current tool (stale-frame rejection).
		mode, handle, ok := SubIDHandle(key.SubID)
		if !ok || mode != s.mode {
			s.log.Debugf("session: ignoring stale gizmo pick sub=%d", key.SubID)
			return
		}
		s.beginDrag(cam, cursor.Pos, handle)

	case PickSceneMesh, PickLightHelper:
		node, ok := s.nodes.Node(key.ObjectID)
		if !ok {
			s.log.Debugf("session: pick object %d has no node", key.ObjectID)
			return
		}
		s.Select(node)

	default:
		if s.mode == ModeSelect {
			s.hasSelection = false
		}
	}
}

func (s *Session) refreshVisual(cam CameraFrame) {
	s.visual = GizmoVisual{}
	if !s.hasSelection || s.mode == ModeSelect {
		return
	}
	t, ok := s.binding.Transform(s.selection)
	if !ok {
		// Selected node left the scene; drop the selection.
		s.hasSelection = false
		return
	}
	s.visual = ComputeGizmoVisual(cam, t.Position, GizmoBasis(s.space, t.Rotation), s.mode)
}

func (s *Session) beginDrag(cam CameraFrame, cursor mgl32.Vec2, handle Handle) {
	if !s.hasSelection {
		return
	}
	t, ok := s.binding.Transform(s.selection)
	if !ok {
		return
	}
	st, ok := BeginDrag(cam, cursor, s.mode, s.space, handle, t)
	if !ok {
		s.log.Debugf("session: degenerate press on %v, drag not started", handle)
		return
	}
	s.drag = st
	s.dragNode = s.selection
	s.hover = handle
}

func (s *Session) updateDrag(cam CameraFrame, cursor CursorState) {
	if cursor.FocusLost || cursor.JustReleased {
		s.endDrag(!s.drag.Moved() && !cursor.FocusLost)
		return
	}
	out, changed := UpdateDrag(s.drag, cam, cursor.Pos, s.cfg)
	if changed {
		if err := s.binding.ApplyTransform(s.dragNode, out); err != nil {
			s.log.Errorf("session: apply transform: %v", err)
		}
	}
	// Hover stays frozen on the dragged handle for the whole drag.
	s.hover = s.drag.Handle
	s.visual = ComputeGizmoVisual(cam, out.Position, s.drag.Basis, s.mode)
}

// endDrag finishes the active drag. restore=true rolls back to the press
// transform (a click, not a drag); otherwise the last committed transform
// stands.
func (s *Session) endDrag(restore bool) {
	if restore {
		if err := s.binding.ApplyTransform(s.dragNode, s.drag.StartTransform); err != nil {
			s.log.Errorf("session: restore transform: %v", err)
		}
	}
	s.drag = nil
	s.hover = HandleNone
}
