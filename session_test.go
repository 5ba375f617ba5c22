package previz

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScene struct {
	transforms map[NodeId]Transform
	applied    int
}

func newFakeScene() *fakeScene {
	return &fakeScene{transforms: make(map[NodeId]Transform)}
}

func (f *fakeScene) Transform(id NodeId) (Transform, bool) {
	t, ok := f.transforms[id]
	return t, ok
}

func (f *fakeScene) ApplyTransform(id NodeId, t Transform) error {
	f.transforms[id] = t
	f.applied++
	return nil
}

type sessionFixture struct {
	scene *fakeScene
	sess  *Session
	cam   CameraFrame
	node  NodeId
	pick  uint32
}

func newSessionFixture(t *testing.T) *sessionFixture {
	scene := newFakeScene()
	nodes := NewNodeRegistry()
	sess := NewSession(scene, nodes, NewNopLogger(), DragConfig{})

	node := NewNodeId()
	scene.transforms[node] = NewTransform()
	idx, err := nodes.Register(node)
	require.NoError(t, err)

	return &sessionFixture{
		scene: scene,
		sess:  sess,
		cam:   testCamera(),
		node:  node,
		pick:  idx,
	}
}

func (f *sessionFixture) frame(cursor mgl32.Vec2, st CursorState, pick PickHit) {
	st.Pos = cursor
	f.sess.Update(f.cam, st, pick)
}

func (f *sessionFixture) meshPick() PickHit {
	return PickHit{Key: PickKey{Kind: PickSceneMesh, ObjectID: f.pick}}
}

func TestSessionSelectsMeshOnClick(t *testing.T) {
	f := newSessionFixture(t)
	f.frame(mgl32.Vec2{400, 300}, CursorState{JustPressed: true, Pressed: true}, f.meshPick())
	sel, ok := f.sess.Selection()
	require.True(t, ok)
	assert.Equal(t, f.node, sel)
}

func TestSessionBackgroundClickClearsOnlyInSelectMode(t *testing.T) {
	f := newSessionFixture(t)
	f.sess.Select(f.node)

	// Translate mode: background click keeps the selection.
	f.sess.SetMode(ModeTranslate)
	f.frame(mgl32.Vec2{20, 20}, CursorState{JustPressed: true, Pressed: true}, PickHit{})
	_, ok := f.sess.Selection()
	assert.True(t, ok, "background click in translate mode must keep selection")

	// Select mode: it clears.
	f.frame(mgl32.Vec2{20, 20}, CursorState{JustReleased: true}, PickHit{})
	f.sess.SetMode(ModeSelect)
	f.frame(mgl32.Vec2{20, 20}, CursorState{JustPressed: true, Pressed: true}, PickHit{})
	_, ok = f.sess.Selection()
	assert.False(t, ok, "background click in select mode must clear selection")
}

func axisPressCursor(t *testing.T, f *sessionFixture) mgl32.Vec2 {
	t.Helper()
	p, ok := f.cam.WorldToScreen(mgl32.Vec3{0.5, 0, 0})
	require.True(t, ok)
	return p
}

func TestSessionHandlePressWinsOverScenePick(t *testing.T) {
	f := newSessionFixture(t)
	other := NewNodeId()
	f.scene.transforms[other] = NewTransform()
	otherIdx, err := f.sess.Nodes().Register(other)
	require.NoError(t, err)

	f.sess.Select(f.node)
	f.sess.SetMode(ModeTranslate)

	// The cursor is over the X axis handle; the id buffer reports another
	// mesh behind it. The handle wins and the selection does not change.
	pick := PickHit{Key: PickKey{Kind: PickSceneMesh, ObjectID: otherIdx}}
	f.frame(axisPressCursor(t, f), CursorState{JustPressed: true, Pressed: true}, pick)

	assert.True(t, f.sess.Dragging(), "handle press must start a drag")
	sel, _ := f.sess.Selection()
	assert.Equal(t, f.node, sel)
}

func TestSessionClickOnHandleRestoresTransform(t *testing.T) {
	f := newSessionFixture(t)
	f.sess.Select(f.node)
	f.sess.SetMode(ModeTranslate)

	press := axisPressCursor(t, f)
	f.frame(press, CursorState{JustPressed: true, Pressed: true}, PickHit{})
	require.True(t, f.sess.Dragging())

	// Release within the click threshold: any intermediate commit is
	// rolled back to the press transform.
	f.frame(press.Add(mgl32.Vec2{1, 0}), CursorState{Pressed: true}, PickHit{})
	f.frame(press.Add(mgl32.Vec2{1, 0}), CursorState{JustReleased: true}, PickHit{})

	assert.False(t, f.sess.Dragging())
	got := f.scene.transforms[f.node]
	assert.InDelta(t, 0, float64(got.Position.Len()), 1e-4, "click must not move the object")
}

func TestSessionDragAppliesAndReleaseKeeps(t *testing.T) {
	f := newSessionFixture(t)
	f.sess.Select(f.node)
	f.sess.SetMode(ModeTranslate)

	press := axisPressCursor(t, f)
	target, ok := f.cam.WorldToScreen(mgl32.Vec3{1.5, 0, 0})
	require.True(t, ok)

	f.frame(press, CursorState{JustPressed: true, Pressed: true}, PickHit{})
	f.frame(target, CursorState{Pressed: true}, PickHit{})
	require.True(t, f.sess.Dragging())

	moved := f.scene.transforms[f.node]
	assert.InDelta(t, 1.0, float64(moved.Position.X()), 0.05)

	f.frame(target, CursorState{JustReleased: true}, PickHit{})
	assert.False(t, f.sess.Dragging())
	kept := f.scene.transforms[f.node]
	assert.Equal(t, moved.Position, kept.Position, "release keeps the last committed transform")
}

func TestSessionFocusLossEndsDragKeepingLast(t *testing.T) {
	f := newSessionFixture(t)
	f.sess.Select(f.node)
	f.sess.SetMode(ModeTranslate)

	press := axisPressCursor(t, f)
	target, _ := f.cam.WorldToScreen(mgl32.Vec3{1.5, 0, 0})
	f.frame(press, CursorState{JustPressed: true, Pressed: true}, PickHit{})
	f.frame(target, CursorState{Pressed: true}, PickHit{})
	moved := f.scene.transforms[f.node]

	f.frame(target, CursorState{FocusLost: true}, PickHit{})
	assert.False(t, f.sess.Dragging())
	assert.Equal(t, moved.Position, f.scene.transforms[f.node].Position)
}

func TestSessionHoverFrozenDuringDrag(t *testing.T) {
	f := newSessionFixture(t)
	f.sess.Select(f.node)
	f.sess.SetMode(ModeTranslate)

	press := axisPressCursor(t, f)
	f.frame(press, CursorState{JustPressed: true, Pressed: true}, PickHit{})
	require.Equal(t, HandleAxisX, f.sess.Hover())

	// Cursor wanders over the Y axis mid-drag; hover must not follow.
	overY, _ := f.cam.WorldToScreen(mgl32.Vec3{0, 0.5, 0})
	f.frame(overY, CursorState{Pressed: true}, PickHit{})
	assert.Equal(t, HandleAxisX, f.sess.Hover())
}

func TestSessionRejectsStaleGizmoPick(t *testing.T) {
	f := newSessionFixture(t)
	f.sess.Select(f.node)
	f.sess.SetMode(ModeTranslate)

	// An id-buffer gizmo hit carrying a rotate-tool sub id is a leftover
	// from a previous frame's tool; it must not start a drag.
	stale := PickHit{Key: PickKey{Kind: PickGizmoHandle, SubID: HandleSubID(ModeRotate, HandleRingX)}}
	f.frame(mgl32.Vec2{20, 20}, CursorState{JustPressed: true, Pressed: true}, stale)
	assert.False(t, f.sess.Dragging())
}

func TestSessionSelectsLightHelper(t *testing.T) {
	f := newSessionFixture(t)
	light := NewNodeId()
	f.scene.transforms[light] = NewTransform()
	require.NoError(t, f.sess.Helpers().Sync([]LightHelperSpec{
		{Node: light, Kind: LightPoint, Position: mgl32.Vec3{2, 0, 0}},
	}))
	inst, ok := f.sess.Helpers().Get(light)
	require.True(t, ok)

	f.frame(mgl32.Vec2{500, 300}, CursorState{JustPressed: true, Pressed: true}, PickHit{Key: inst.Key()})
	sel, ok := f.sess.Selection()
	require.True(t, ok)
	assert.Equal(t, light, sel)
}

func TestSessionDropsSelectionWhenNodeVanishes(t *testing.T) {
	f := newSessionFixture(t)
	f.sess.Select(f.node)
	f.sess.SetMode(ModeTranslate)
	delete(f.scene.transforms, f.node)

	f.frame(mgl32.Vec2{400, 300}, CursorState{}, PickHit{})
	_, ok := f.sess.Selection()
	assert.False(t, ok)
	assert.False(t, f.sess.Visual().Visible)
}

func TestHelperSetSyncAddsAndRemoves(t *testing.T) {
	nodes := NewNodeRegistry()
	set := NewHelperSet(nodes)
	a, b := NewNodeId(), NewNodeId()

	require.NoError(t, set.Sync([]LightHelperSpec{
		{Node: a, Kind: LightDirectional},
		{Node: b, Kind: LightSpot, Position: mgl32.Vec3{1, 2, 3}},
	}))
	assert.Len(t, set.Instances(), 2)
	inst, ok := set.Get(b)
	require.True(t, ok)
	assert.Equal(t, LightSpot, inst.Kind)
	assert.Equal(t, uint8(LightSpot), inst.Key().SubID)

	// b disappears: its helper goes away and its pick id is freed.
	freed := inst.PickIndex
	require.NoError(t, set.Sync([]LightHelperSpec{{Node: a, Kind: LightDirectional}}))
	assert.Len(t, set.Instances(), 1)
	_, ok = nodes.Node(freed)
	assert.False(t, ok, "removed helper's pick id must be freed")
}
