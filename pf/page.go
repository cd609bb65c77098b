package pf

// PageSize is the fixed size in bytes of every page in a backing store.
const PageSize = 4096

// InvalidPageID marks a frame that holds no page. The id is reserved:
// stores never allocate it and the pool rejects it, so an occupied
// frame can always be told apart from an empty one.
const InvalidPageID = ^uint32(0)

// AccessIntent declares whether a Fix is a read or a write access.
// The intent drives logical I/O accounting only; the caller may still
// mutate the page bytes and report the mutation through Unfix.
type AccessIntent int

const (
	AccessRead AccessIntent = iota
	AccessWrite
)

func (a AccessIntent) String() string {
	if a == AccessWrite {
		return "write"
	}
	return "read"
}

// frame is one slot in the buffer pool arena. The pool owns all frames;
// callers only ever see a frame through a PageHandle.
type frame struct {
	pageID   uint32
	pinCount int32
	dirty    bool
	data     []byte
}

func newFrame() frame {
	return frame{
		pageID: InvalidPageID,
		data:   make([]byte, PageSize),
	}
}

// reset returns a frame to its empty state so it can be reused.
func (f *frame) reset() {
	f.pageID = InvalidPageID
	f.pinCount = 0
	f.dirty = false
}

// PageHandle is a pinned view of a resident page. The handle stays valid
// until the matching Unfix; holding it past that point is a caller bug.
type PageHandle struct {
	PageID uint32
	Data   []byte
}
