package pf

import "fmt"

// Policy names a page replacement strategy. The set is closed: the PF
// layer ships exactly LRU and MRU.
type Policy string

const (
	PolicyLRU Policy = "lru"
	PolicyMRU Policy = "mru"
)

// ParsePolicy maps a command-line policy name to a Policy
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "lru", "LRU":
		return PolicyLRU, nil
	case "mru", "MRU":
		return PolicyMRU, nil
	default:
		return "", fmt.Errorf("unknown replacement policy %q (must be lru or mru)", name)
	}
}

// Replacer decides which unpinned resident frame to evict next.
//
// The buffer pool drives the replacer through four events:
//   - OnAccess on every hit and every fault completion, so recency
//     reflects Fix order rather than Unfix order
//   - Pin/Unpin when a frame's pin count leaves or reaches zero, so
//     Victim never selects a pinned frame
//   - Remove after an eviction, or when a frame is dropped outright
type Replacer interface {
	// OnAccess marks a frame as the most recently accessed, inserting
	// it if not yet tracked
	OnAccess(frameID uint32)

	// Pin marks a frame as in-use (not evictable)
	Pin(frameID uint32)

	// Unpin marks a frame as available for eviction
	Unpin(frameID uint32)

	// Victim selects a frame to evict among unpinned tracked frames.
	// Returns the frame ID and true if a victim was found, false
	// otherwise. The victim stays tracked until the pool confirms the
	// eviction with Remove, so a failed eviction leaves the ordering
	// untouched.
	Victim() (uint32, bool)

	// Remove stops tracking a frame entirely
	Remove(frameID uint32)

	// Size returns the number of evictable frames
	Size() uint32
}

// NewReplacer creates a replacer for the given policy
func NewReplacer(policy Policy, capacity uint32) Replacer {
	switch policy {
	case PolicyMRU:
		return NewMRUReplacer(capacity)
	default:
		return NewLRUReplacer(capacity)
	}
}
