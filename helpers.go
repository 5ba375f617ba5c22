package previz

import (
	"github.com/go-gl/mathgl/mgl32"
)

// HelperScaleMode controls how a helper responds to camera distance.
type HelperScaleMode int

const (
	// HelperScaleScreenInvariant keeps the helper the same apparent size
	// regardless of distance (like the gizmo).
	HelperScaleScreenInvariant HelperScaleMode = iota
	// HelperScaleWorldFixed keeps a fixed world size (range spheres).
	HelperScaleWorldFixed
)

// HelperDepthMode controls depth testing for a helper's draws.
type HelperDepthMode int

const (
	HelperDepthTested HelperDepthMode = iota
	HelperDepthAlways
)

// LightKind doubles as the pick sub id of a light helper.
type LightKind uint8

const (
	LightDirectional LightKind = 1
	LightPoint       LightKind = 2
	LightSpot        LightKind = 3
)

func (k LightKind) String() string {
	switch k {
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	}
	return "unknown"
}

// LightHelperSpec is one frame's description of a light that should have a
// helper: identity, kind, and placement.
type LightHelperSpec struct {
	Node      NodeId
	Kind      LightKind
	Position  mgl32.Vec3
	Direction mgl32.Vec3
}

// HelperInstance is a live pickable helper.
type HelperInstance struct {
	Node      NodeId
	Kind      LightKind
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	ScaleMode HelperScaleMode
	DepthMode HelperDepthMode
	PickIndex uint32
}

// Key returns the helper's pick key.
func (h *HelperInstance) Key() PickKey {
	return PickKey{Kind: PickLightHelper, ObjectID: h.PickIndex, SubID: uint8(h.Kind)}
}

// HelperSet keeps helper instances in sync with the scene's lights: helpers
// appear when a light appears, follow it, and vanish (freeing their pick id)
// when it is removed.
type HelperSet struct {
	nodes  *NodeRegistry
	byNode map[NodeId]*HelperInstance
	order  []NodeId
}

// NewHelperSet creates an empty set sharing the given registry, so helper
// pick ids live in the same 20-bit space as scene nodes.
func NewHelperSet(nodes *NodeRegistry) *HelperSet {
	return &HelperSet{
		nodes:  nodes,
		byNode: make(map[NodeId]*HelperInstance),
	}
}

// Sync reconciles the set against this frame's light list.
func (s *HelperSet) Sync(specs []LightHelperSpec) error {
	seen := make(map[NodeId]bool, len(specs))
	for _, spec := range specs {
		seen[spec.Node] = true
		inst, ok := s.byNode[spec.Node]
		if !ok {
			idx, err := s.nodes.Register(spec.Node)
			if err != nil {
				return err
			}
			inst = &HelperInstance{
				Node:      spec.Node,
				ScaleMode: HelperScaleScreenInvariant,
				DepthMode: HelperDepthAlways,
				PickIndex: idx,
			}
			s.byNode[spec.Node] = inst
			s.order = append(s.order, spec.Node)
		}
		inst.Kind = spec.Kind
		inst.Position = spec.Position
		inst.Direction = spec.Direction
	}
	for node, inst := range s.byNode {
		if seen[node] {
			continue
		}
		s.nodes.Unregister(inst.Node)
		delete(s.byNode, node)
		for i, n := range s.order {
			if n == node {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Get returns the helper for a node.
func (s *HelperSet) Get(node NodeId) (*HelperInstance, bool) {
	inst, ok := s.byNode[node]
	return inst, ok
}

// Instances returns the helpers in stable insertion order.
func (s *HelperSet) Instances() []*HelperInstance {
	out := make([]*HelperInstance, 0, len(s.order))
	for _, node := range s.order {
		out = append(out, s.byNode[node])
	}
	return out
}

// PickItems emits the helpers' id-buffer draws. Payload carries the
// instance; the renderer chooses the shape from its kind.
func (s *HelperSet) PickItems() []PickDrawItem {
	out := make([]PickDrawItem, 0, len(s.order))
	for _, inst := range s.Instances() {
		out = append(out, PickDrawItem{Key: inst.Key(), Payload: inst})
	}
	return out
}
