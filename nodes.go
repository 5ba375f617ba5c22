package previz

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeId is the stable identity of a scene node.
type NodeId = uuid.UUID

// NewNodeId mints a fresh node id.
func NewNodeId() NodeId {
	return uuid.New()
}

// NodeRegistry maps node ids to the 20-bit object-id space of the pick
// buffer and back. Capacity is enforced at registration time so the bit
// budget surfaces once, at setup, instead of as silent truncation per frame.
type NodeRegistry struct {
	toIndex map[NodeId]uint32
	toNode  []NodeId
	free    []uint32
}

// NewNodeRegistry creates an empty registry. Index 0 is reserved: the zero
// pick pixel means "no hit".
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		toIndex: make(map[NodeId]uint32),
		toNode:  []NodeId{uuid.Nil},
	}
}

// Register assigns a pick object id to the node, reusing freed slots first.
// Registering an already-registered node returns its existing id.
func (r *NodeRegistry) Register(id NodeId) (uint32, error) {
	if idx, ok := r.toIndex[id]; ok {
		return idx, nil
	}
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
		r.toNode[idx] = id
	} else {
		if len(r.toNode) > MaxPickObjectID {
			return 0, fmt.Errorf("node registry: %d nodes exceed the 20-bit pick id space", len(r.toNode))
		}
		idx = uint32(len(r.toNode))
		r.toNode = append(r.toNode, id)
	}
	r.toIndex[id] = idx
	return idx, nil
}

// Unregister frees the node's pick id for reuse.
func (r *NodeRegistry) Unregister(id NodeId) {
	idx, ok := r.toIndex[id]
	if !ok {
		return
	}
	delete(r.toIndex, id)
	r.toNode[idx] = uuid.Nil
	r.free = append(r.free, idx)
}

// Index returns the pick object id of a registered node.
func (r *NodeRegistry) Index(id NodeId) (uint32, bool) {
	idx, ok := r.toIndex[id]
	return idx, ok
}

// Node resolves a pick object id back to its node. Fails for unassigned or
// freed slots.
func (r *NodeRegistry) Node(index uint32) (NodeId, bool) {
	if index == 0 || index >= uint32(len(r.toNode)) {
		return uuid.Nil, false
	}
	id := r.toNode[index]
	if id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// Len returns the number of registered nodes.
func (r *NodeRegistry) Len() int {
	return len(r.toIndex)
}
