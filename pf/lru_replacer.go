package pf

import (
	"container/list"
)

// lruNode tracks one frame in the recency list
type lruNode struct {
	frameID uint32
	pinned  bool
}

// LRUReplacer implements LRU (Least Recently Used) replacement. Frames
// are kept in a doubly linked list ordered oldest-first by last access;
// a side map gives O(1) lookup from frame ID to list element. Pinned
// frames stay in the list so their recency survives the pin, but are
// skipped during victim selection.
type LRUReplacer struct {
	capacity  uint32
	order     *list.List
	nodes     map[uint32]*list.Element
	evictable uint32
}

// NewLRUReplacer creates a new LRU replacer
func NewLRUReplacer(capacity uint32) *LRUReplacer {
	return &LRUReplacer{
		capacity: capacity,
		order:    list.New(),
		nodes:    make(map[uint32]*list.Element),
	}
}

// OnAccess moves a frame to the most-recently-used end of the list,
// inserting it if not yet tracked
func (lru *LRUReplacer) OnAccess(frameID uint32) {
	if elem, exists := lru.nodes[frameID]; exists {
		lru.order.MoveToBack(elem)
		return
	}

	node := &lruNode{frameID: frameID}
	lru.nodes[frameID] = lru.order.PushBack(node)
	lru.evictable++
}

// Pin marks a frame as not evictable. The frame keeps its position in
// the recency order.
func (lru *LRUReplacer) Pin(frameID uint32) {
	elem, exists := lru.nodes[frameID]
	if !exists {
		node := &lruNode{frameID: frameID, pinned: true}
		lru.nodes[frameID] = lru.order.PushBack(node)
		return
	}

	node := elem.Value.(*lruNode)
	if !node.pinned {
		node.pinned = true
		lru.evictable--
	}
}

// Unpin marks a frame as available for eviction
func (lru *LRUReplacer) Unpin(frameID uint32) {
	elem, exists := lru.nodes[frameID]
	if !exists {
		lru.OnAccess(frameID)
		return
	}

	node := elem.Value.(*lruNode)
	if node.pinned {
		node.pinned = false
		lru.evictable++
	}
}

// Victim selects the least recently accessed unpinned frame. Scans from
// the oldest end, skipping pinned frames; ties fall out of stable list
// order (insertion order for never-reaccessed frames). The frame stays
// tracked until Remove confirms the eviction.
func (lru *LRUReplacer) Victim() (uint32, bool) {
	for elem := lru.order.Front(); elem != nil; elem = elem.Next() {
		node := elem.Value.(*lruNode)
		if node.pinned {
			continue
		}
		return node.frameID, true
	}

	return 0, false
}

// Remove stops tracking a frame entirely
func (lru *LRUReplacer) Remove(frameID uint32) {
	elem, exists := lru.nodes[frameID]
	if !exists {
		return
	}

	if !elem.Value.(*lruNode).pinned {
		lru.evictable--
	}
	lru.order.Remove(elem)
	delete(lru.nodes, frameID)
}

// Size returns the number of evictable frames
func (lru *LRUReplacer) Size() uint32 {
	return lru.evictable
}
