package pf

import (
	"testing"
)

// TestMRUVictimOrder tests that victims come out newest-access first
func TestMRUVictimOrder(t *testing.T) {
	replacer := NewMRUReplacer(5)

	replacer.OnAccess(0)
	replacer.OnAccess(1)
	replacer.OnAccess(2)

	for _, expected := range []uint32{2, 1, 0} {
		victim, ok := replacer.Victim()
		if !ok {
			t.Fatal("Should have a victim")
		}
		if victim != expected {
			t.Errorf("Expected victim %d, got %d", expected, victim)
		}
		replacer.Remove(victim)
	}
}

// TestMRUAccessUpdatesRecency tests that reaccess makes a frame the victim
func TestMRUAccessUpdatesRecency(t *testing.T) {
	replacer := NewMRUReplacer(5)

	replacer.OnAccess(0)
	replacer.OnAccess(1)
	replacer.OnAccess(2)

	// Reaccess frame 0: it becomes the most recently used, so MRU
	// picks it first
	replacer.OnAccess(0)

	victim, ok := replacer.Victim()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 0 {
		t.Errorf("Expected victim 0 (newest), got %d", victim)
	}
}

// TestMRUPinSkipsFrame tests that the scan falls back past pinned frames
func TestMRUPinSkipsFrame(t *testing.T) {
	replacer := NewMRUReplacer(5)

	replacer.OnAccess(0)
	replacer.OnAccess(1)
	replacer.OnAccess(2)

	replacer.Pin(2)

	victim, ok := replacer.Victim()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 1 {
		t.Errorf("Expected victim 1 (newest unpinned), got %d", victim)
	}
}

// TestMRUEmpty tests an empty replacer
func TestMRUEmpty(t *testing.T) {
	replacer := NewMRUReplacer(5)

	if _, ok := replacer.Victim(); ok {
		t.Error("Should not have a victim when empty")
	}
	if replacer.Size() != 0 {
		t.Errorf("Expected size 0, got %d", replacer.Size())
	}
}

// TestNewReplacerFactory tests policy selection
func TestNewReplacerFactory(t *testing.T) {
	if _, ok := NewReplacer(PolicyLRU, 4).(*LRUReplacer); !ok {
		t.Error("PolicyLRU should build an LRUReplacer")
	}
	if _, ok := NewReplacer(PolicyMRU, 4).(*MRUReplacer); !ok {
		t.Error("PolicyMRU should build an MRUReplacer")
	}
}

// TestParsePolicy tests policy name parsing
func TestParsePolicy(t *testing.T) {
	for name, expected := range map[string]Policy{
		"lru": PolicyLRU,
		"LRU": PolicyLRU,
		"mru": PolicyMRU,
		"MRU": PolicyMRU,
	} {
		got, err := ParsePolicy(name)
		if err != nil {
			t.Errorf("ParsePolicy(%q) failed: %v", name, err)
		}
		if got != expected {
			t.Errorf("ParsePolicy(%q) = %q, expected %q", name, got, expected)
		}
	}

	if _, err := ParsePolicy("clock"); err == nil {
		t.Error("ParsePolicy should reject unknown policies")
	}
}
