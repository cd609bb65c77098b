package pf

import (
	"fmt"
	"time"
)

// BufferPool caches pages of a backing store in a fixed arena of
// frames, tracking pin counts and dirty flags per frame and delegating
// eviction to a replacement policy. It is the sole writer of its Stats
// recorder: every logical access and every backing store transfer is
// counted here, never in the store.
//
// The pool is single-threaded by contract. Calls run to completion
// with no internal locking; concurrent callers must serialize access
// themselves. A failed Fix or Unfix leaves the frame table unchanged.
type BufferPool struct {
	capacity  uint32
	frames    []frame
	pageTable map[uint32]uint32 // pageID -> frame index
	freeList  []uint32
	store     PageStore
	replacer  Replacer
	policy    Policy
	stats     *Stats
}

// NewBufferPool creates a buffer pool with the given number of frames
// over the given backing store. The store is owned by the pool until
// Close.
func NewBufferPool(capacity uint32, store PageStore, policy Policy) (*BufferPool, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("pool capacity must be greater than 0")
	}
	if store == nil {
		return nil, fmt.Errorf("backing store must not be nil")
	}

	bp := &BufferPool{
		capacity:  capacity,
		frames:    make([]frame, capacity),
		pageTable: make(map[uint32]uint32, capacity),
		freeList:  make([]uint32, 0, capacity),
		store:     store,
		replacer:  NewReplacer(policy, capacity),
		policy:    policy,
		stats:     NewStats(),
	}

	for i := uint32(0); i < capacity; i++ {
		bp.frames[i] = newFrame()
		bp.freeList = append(bp.freeList, i)
	}

	return bp, nil
}

// Capacity returns the number of frames in the pool
func (bp *BufferPool) Capacity() uint32 {
	return bp.capacity
}

// Policy returns the active replacement policy
func (bp *BufferPool) Policy() Policy {
	return bp.policy
}

// Stats returns the pool's stats recorder
func (bp *BufferPool) Stats() *Stats {
	return bp.stats
}

// Resident returns the number of pages currently held in frames
func (bp *BufferPool) Resident() int {
	return len(bp.pageTable)
}

// Fix pins a page in the pool and returns a handle to its bytes. A
// resident page is a hit and costs no physical I/O; otherwise the page
// faults in from the backing store, evicting an unpinned victim if no
// frame is free. The fault's access is counted on both the logical and
// the physical side. Every call counts one page fix, hit or not. The
// reserved id InvalidPageID is rejected: it could never be told apart
// from an empty frame once resident.
func (bp *BufferPool) Fix(pageID uint32, intent AccessIntent) (*PageHandle, error) {
	const op = "BufferPool.Fix"

	bp.stats.IncPageFix()

	if pageID == InvalidPageID {
		return nil, ErrInvalidPageID(op, pageID)
	}

	// Hit path
	if frameID, resident := bp.pageTable[pageID]; resident {
		f := &bp.frames[frameID]
		f.pinCount++
		bp.replacer.OnAccess(frameID)
		if f.pinCount == 1 {
			bp.replacer.Pin(frameID)
		}
		bp.countLogical(intent)
		return &PageHandle{PageID: pageID, Data: f.data}, nil
	}

	// Fault path
	frameID, victim, err := bp.prepareFrame(op)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := bp.store.ReadPage(pageID)
	if err != nil {
		// A victim frame is still resident and merely clean; a free
		// frame goes back on the list
		if !victim {
			bp.freeList = append(bp.freeList, frameID)
		}
		return nil, ErrStoreRead(op, pageID, err)
	}
	bp.stats.IncPhysicalRead()
	bp.stats.RecordFaultLoadLatency(time.Since(start))

	if victim {
		bp.evictFrame(frameID)
	}

	f := &bp.frames[frameID]
	copy(f.data, data)
	f.pageID = pageID
	f.pinCount = 1
	f.dirty = false
	bp.pageTable[pageID] = frameID

	bp.replacer.OnAccess(frameID)
	bp.replacer.Pin(frameID)
	bp.countLogical(intent)

	return &PageHandle{PageID: pageID, Data: f.data}, nil
}

// AllocPage reserves a fresh page in the backing store and pins it in
// the pool with zeroed content. No physical read happens; the page
// materializes in memory and reaches the store on its first flush. The
// caller releases it with Unfix, normally marking it dirty.
func (bp *BufferPool) AllocPage() (*PageHandle, error) {
	const op = "BufferPool.AllocPage"

	bp.stats.IncPageFix()

	// The frame is secured before a page id is consumed, so an
	// exhausted pool leaves no hole in the store's page space
	frameID, victim, err := bp.prepareFrame(op)
	if err != nil {
		return nil, err
	}

	pageID, err := bp.store.AllocatePage()
	if err == nil && pageID == InvalidPageID {
		err = fmt.Errorf("store allocated the reserved page id")
	}
	if err != nil {
		if !victim {
			bp.freeList = append(bp.freeList, frameID)
		}
		return nil, NewPFError(ErrCodeInternal, op, "page allocation failed", err)
	}

	if victim {
		bp.evictFrame(frameID)
	}

	f := &bp.frames[frameID]
	clear(f.data)
	f.pageID = pageID
	f.pinCount = 1
	f.dirty = false
	bp.pageTable[pageID] = frameID

	bp.replacer.OnAccess(frameID)
	bp.replacer.Pin(frameID)
	bp.stats.IncLogicalWrite()

	return &PageHandle{PageID: pageID, Data: f.data}, nil
}

// Unfix releases one pin on a resident page. With markDirty the frame
// is flagged for write-back and one dirty mark is counted, even if the
// frame was already dirty: the counter reflects write intents, not
// state transitions.
func (bp *BufferPool) Unfix(pageID uint32, markDirty bool) error {
	const op = "BufferPool.Unfix"

	frameID, resident := bp.pageTable[pageID]
	if !resident {
		return ErrNotPinned(op, pageID)
	}

	f := &bp.frames[frameID]
	if f.pinCount <= 0 {
		return ErrNotPinned(op, pageID)
	}

	if markDirty {
		f.dirty = true
		bp.stats.IncDirtyMark()
	}

	f.pinCount--
	if f.pinCount == 0 {
		bp.replacer.Unpin(frameID)
	}

	return nil
}

// FlushPage writes a resident page to the backing store if it is
// dirty. A clean page costs nothing.
func (bp *BufferPool) FlushPage(pageID uint32) error {
	const op = "BufferPool.FlushPage"

	frameID, resident := bp.pageTable[pageID]
	if !resident {
		return ErrPageNotResident(op, pageID)
	}

	return bp.flushFrame(op, &bp.frames[frameID])
}

// FlushAll writes every dirty resident frame to the backing store,
// clearing dirty flags. Idempotent: a second call with no intervening
// writes performs no I/O. Used at shutdown and for checkpoints.
func (bp *BufferPool) FlushAll() error {
	const op = "BufferPool.FlushAll"

	for i := range bp.frames {
		f := &bp.frames[i]
		if f.pageID == InvalidPageID {
			continue
		}
		if err := bp.flushFrame(op, f); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes all dirty frames and releases the backing store. The
// store is closed even when the flush fails; the flush error wins.
func (bp *BufferPool) Close() error {
	flushErr := bp.FlushAll()
	closeErr := bp.store.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// prepareFrame returns a frame that can receive a new page: a free
// frame if one exists, otherwise the policy's victim flushed in place.
// A victim frame stays resident and tracked until evictFrame confirms
// the takeover, so a caller that fails between the two calls leaves
// the pool exactly as it was, the victim merely clean.
func (bp *BufferPool) prepareFrame(op string) (frameID uint32, victim bool, err error) {
	if n := len(bp.freeList); n > 0 {
		frameID = bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
		return frameID, false, nil
	}

	frameID, ok := bp.replacer.Victim()
	if !ok {
		return 0, false, ErrPoolExhausted(op)
	}

	if err := bp.flushFrame(op, &bp.frames[frameID]); err != nil {
		return 0, false, err
	}

	return frameID, true, nil
}

// evictFrame completes a victim eviction: the frame leaves the
// replacer and the page table and comes back empty
func (bp *BufferPool) evictFrame(frameID uint32) {
	f := &bp.frames[frameID]
	bp.replacer.Remove(frameID)
	delete(bp.pageTable, f.pageID)
	f.reset()
}

// flushFrame writes a frame's page to the store if dirty, counting one
// physical write and clearing the dirty flag
func (bp *BufferPool) flushFrame(op string, f *frame) error {
	if !f.dirty {
		return nil
	}

	start := time.Now()
	if err := bp.store.WritePage(f.pageID, f.data); err != nil {
		return ErrStoreWrite(op, f.pageID, err)
	}
	bp.stats.IncPhysicalWrite()
	bp.stats.RecordFlushLatency(time.Since(start))

	f.dirty = false
	return nil
}

func (bp *BufferPool) countLogical(intent AccessIntent) {
	if intent == AccessWrite {
		bp.stats.IncLogicalWrite()
	} else {
		bp.stats.IncLogicalRead()
	}
}
