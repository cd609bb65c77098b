package pf

import (
	"container/list"
)

// mruNode tracks one frame in the recency list
type mruNode struct {
	frameID uint32
	pinned  bool
}

// MRUReplacer implements MRU (Most Recently Used) replacement: the
// victim is the unpinned frame touched most recently. MRU beats LRU on
// cyclic scans larger than the pool, where LRU evicts exactly the page
// that is needed next. Same structure as the LRU replacer, only the
// victim scan direction differs.
type MRUReplacer struct {
	capacity  uint32
	order     *list.List
	nodes     map[uint32]*list.Element
	evictable uint32
}

// NewMRUReplacer creates a new MRU replacer
func NewMRUReplacer(capacity uint32) *MRUReplacer {
	return &MRUReplacer{
		capacity: capacity,
		order:    list.New(),
		nodes:    make(map[uint32]*list.Element),
	}
}

// OnAccess moves a frame to the most-recently-used end of the list,
// inserting it if not yet tracked
func (mru *MRUReplacer) OnAccess(frameID uint32) {
	if elem, exists := mru.nodes[frameID]; exists {
		mru.order.MoveToBack(elem)
		return
	}

	node := &mruNode{frameID: frameID}
	mru.nodes[frameID] = mru.order.PushBack(node)
	mru.evictable++
}

// Pin marks a frame as not evictable
func (mru *MRUReplacer) Pin(frameID uint32) {
	elem, exists := mru.nodes[frameID]
	if !exists {
		node := &mruNode{frameID: frameID, pinned: true}
		mru.nodes[frameID] = mru.order.PushBack(node)
		return
	}

	node := elem.Value.(*mruNode)
	if !node.pinned {
		node.pinned = true
		mru.evictable--
	}
}

// Unpin marks a frame as available for eviction
func (mru *MRUReplacer) Unpin(frameID uint32) {
	elem, exists := mru.nodes[frameID]
	if !exists {
		mru.OnAccess(frameID)
		return
	}

	node := elem.Value.(*mruNode)
	if node.pinned {
		node.pinned = false
		mru.evictable++
	}
}

// Victim selects the most recently accessed unpinned frame, scanning
// from the newest end and skipping pinned frames. The frame stays
// tracked until Remove confirms the eviction.
func (mru *MRUReplacer) Victim() (uint32, bool) {
	for elem := mru.order.Back(); elem != nil; elem = elem.Prev() {
		node := elem.Value.(*mruNode)
		if node.pinned {
			continue
		}
		return node.frameID, true
	}

	return 0, false
}

// Remove stops tracking a frame entirely
func (mru *MRUReplacer) Remove(frameID uint32) {
	elem, exists := mru.nodes[frameID]
	if !exists {
		return
	}

	if !elem.Value.(*mruNode).pinned {
		mru.evictable--
	}
	mru.order.Remove(elem)
	delete(mru.nodes, frameID)
}

// Size returns the number of evictable frames
func (mru *MRUReplacer) Size() uint32 {
	return mru.evictable
}
