package previz

import (
	"fmt"
)

// PickDrawItem is one draw into the id buffer: the pick key plus an opaque
// renderer payload (mesh handle, instance data) the PickTarget understands.
type PickDrawItem struct {
	Key     PickKey
	Payload any
}

// PickTarget is the off-screen id buffer. Implementations render flat pick
// keys with depth testing and read single pixels back, either blocking
// (click) or split across frames (hover).
type PickTarget interface {
	Resize(width, height int) error
	Render(cam CameraFrame, items []PickDrawItem) error

	// ReadPixel blocks until the pixel is available.
	ReadPixel(x, y int) ([4]uint8, float32, error)

	// RequestReadPixel starts an asynchronous readback; PollReadPixel
	// returns it once complete (typically the next frame).
	RequestReadPixel(x, y int) error
	PollReadPixel() ([4]uint8, float32, bool, error)
}

// PickCoordinator owns the id pass: draw-order policy, key validation, and
// the two readback paths. Clicks use the synchronous path so selection is
// exact for the frame of the press; hover uses the asynchronous path and
// tolerates one frame of latency.
type PickCoordinator struct {
	log    Logger
	target PickTarget

	width, height int
	hoverPending  bool
	lastHover     PickHit
	haveHover     bool
}

// NewPickCoordinator wraps a target. logger may be nil.
func NewPickCoordinator(target PickTarget, logger Logger) *PickCoordinator {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &PickCoordinator{log: logger, target: target}
}

// Resize resizes the id buffer. A zero-area viewport is a configuration
// error, not a degenerate frame.
func (c *PickCoordinator) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("pick pass: invalid viewport %dx%d", width, height)
	}
	if err := c.target.Resize(width, height); err != nil {
		return fmt.Errorf("pick pass: resize: %w", err)
	}
	c.width, c.height = width, height
	return nil
}

// Frame renders the id buffer for this frame: scene meshes first, helpers
// after, so a helper wins a depth tie against the surface it sits on.
// Items with unrepresentable keys are skipped, not truncated.
func (c *PickCoordinator) Frame(cam CameraFrame, scene, helpers []PickDrawItem) error {
	items := make([]PickDrawItem, 0, len(scene)+len(helpers))
	for _, group := range [][]PickDrawItem{scene, helpers} {
		for _, it := range group {
			if err := it.Key.Validate(); err != nil {
				c.log.Warnf("pick pass: skipping draw: %v", err)
				continue
			}
			items = append(items, it)
		}
	}
	if err := c.target.Render(cam, items); err != nil {
		return fmt.Errorf("pick pass: render: %w", err)
	}
	return nil
}

// PickAt resolves the pickable under the pixel synchronously. Undecodable
// pixels (stale or corrupt buffer contents) resolve to no-hit with a log
// line rather than a fabricated selection.
func (c *PickCoordinator) PickAt(x, y int) (PickHit, error) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return PickHit{X: x, Y: y}, nil
	}
	px, depth, err := c.target.ReadPixel(x, y)
	if err != nil {
		return PickHit{}, fmt.Errorf("pick pass: read: %w", err)
	}
	return c.decode(px, depth, x, y), nil
}

// RequestHover starts the asynchronous readback for the hover pixel.
// Only one request is in flight; newer requests supersede older ones
// after the in-flight one completes.
func (c *PickCoordinator) RequestHover(x, y int) {
	if c.hoverPending {
		return
	}
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	if err := c.target.RequestReadPixel(x, y); err != nil {
		c.log.Warnf("pick pass: hover request: %v", err)
		return
	}
	c.hoverPending = true
}

// PollHover returns the most recent completed hover hit. ok is false until
// the first readback lands.
func (c *PickCoordinator) PollHover() (PickHit, bool) {
	if c.hoverPending {
		px, depth, done, err := c.target.PollReadPixel()
		if err != nil {
			c.log.Warnf("pick pass: hover poll: %v", err)
			c.hoverPending = false
		} else if done {
			c.hoverPending = false
			c.lastHover = c.decode(px, depth, -1, -1)
			c.haveHover = true
		}
	}
	return c.lastHover, c.haveHover
}

func (c *PickCoordinator) decode(px [4]uint8, depth float32, x, y int) PickHit {
	key, ok := DecodePickKey(px)
	if !ok {
		c.log.Debugf("pick pass: rejecting undecodable pixel %v", px)
		return PickHit{X: x, Y: y}
	}
	return PickHit{Key: key, Depth: depth, X: x, Y: y}
}
