package idhash

import "testing"

func TestComputePositionID(t *testing.T) {
	id1 := ComputePositionID("MintABC", 1700000000000, 0.1)
	id2 := ComputePositionID("MintABC", 1700000000000, 0.1)

	if len(id1) != 64 {
		t.Errorf("id length = %d, want 64", len(id1))
	}
	if id1 != id2 {
		t.Error("same inputs must produce the same id")
	}

	if ComputePositionID("MintABC", 1700000000001, 0.1) == id1 {
		t.Error("different entry time must change the id")
	}
	if ComputePositionID("MintABC", 1700000000000, 0.2) == id1 {
		t.Error("different amount must change the id")
	}
	if ComputePositionID("MintXYZ", 1700000000000, 0.1) == id1 {
		t.Error("different mint must change the id")
	}
}

func TestComputeEventID(t *testing.T) {
	id1 := ComputeEventID("pos1", "ENTRY", 1700000000000)
	id2 := ComputeEventID("pos1", "ENTRY", 1700000000000)

	if len(id1) != 64 {
		t.Errorf("id length = %d, want 64", len(id1))
	}
	if id1 != id2 {
		t.Error("same inputs must produce the same id")
	}
	if ComputeEventID("pos1", "EXIT", 1700000000000) == id1 {
		t.Error("different event type must change the id")
	}
}
