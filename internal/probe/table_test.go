package probe

import (
	"errors"
	"testing"
	"time"
)

func TestTableRegister(t *testing.T) {
	tbl := NewTable(4)
	now := time.Now()

	p, err := tbl.Register(0, 3, 28, now)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if p.ID != 0 || p.TTL != 3 || p.Length != 28 || !p.SentAt.Equal(now) || p.Responded {
		t.Errorf("Register() = %+v, want unanswered probe 0 at TTL 3", p)
	}
	if got, ok := tbl.Lookup(0); !ok || got != p {
		t.Errorf("Lookup(0) = %v, %v, want registered probe", got, ok)
	}
	if _, ok := tbl.Lookup(1); ok {
		t.Errorf("Lookup(1) found unregistered probe")
	}
	if _, ok := tbl.Lookup(400); ok {
		t.Errorf("Lookup(400) found probe outside the table")
	}

	if _, err := tbl.Register(0, 4, 28, now); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Register(duplicate) error = %v, want ErrDuplicateID", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
	if !tbl.Tried(3) || tbl.Tried(4) {
		t.Errorf("Tried(3), Tried(4) = %v, %v, want true, false", tbl.Tried(3), tbl.Tried(4))
	}
}

func TestTableNextIDSequential(t *testing.T) {
	tbl := NewTable(8)
	for want := uint16(0); want < 8; want++ {
		id, err := tbl.NextID()
		if err != nil {
			t.Fatalf("NextID() error = %v", err)
		}
		if id != want {
			t.Fatalf("NextID() = %d, want %d", id, want)
		}
		if _, err := tbl.Register(id, 1, 28, time.Now()); err != nil {
			t.Fatalf("Register(%d) error = %v", id, err)
		}
	}
	if _, err := tbl.NextID(); !errors.Is(err, ErrIdentifierSpaceExhausted) {
		t.Errorf("NextID() on full table error = %v, want ErrIdentifierSpaceExhausted", err)
	}
}

func TestTableExhaustion(t *testing.T) {
	tbl := NewTable(DefaultTableSize)
	now := time.Now()
	for i := 0; i < DefaultTableSize; i++ {
		if _, err := tbl.Register(uint16(i), uint8(i%255)+1, 28, now); err != nil {
			t.Fatalf("Register(%d) error = %v", i, err)
		}
	}
	if tbl.Len() != tbl.Cap() {
		t.Fatalf("Len() = %d, want %d", tbl.Len(), tbl.Cap())
	}

	_, err := tbl.Register(DefaultTableSize, 1, 28, now)
	if !errors.Is(err, ErrIdentifierSpaceExhausted) {
		t.Errorf("Register() past capacity error = %v, want ErrIdentifierSpaceExhausted", err)
	}
}

func TestTableProbesAndCounts(t *testing.T) {
	tbl := NewTable(16)
	now := time.Now()
	for i, ttl := range []uint8{2, 2, 5, 9} {
		if _, err := tbl.Register(uint16(i), ttl, 30, now); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	probes := tbl.Probes()
	if len(probes) != 4 {
		t.Fatalf("len(Probes()) = %d, want 4", len(probes))
	}
	for i, p := range probes {
		if p.ID != uint16(i) {
			t.Errorf("Probes()[%d].ID = %d, want %d", i, p.ID, i)
		}
	}

	// copies, not references
	probes[0].Responded = true
	if p, _ := tbl.Lookup(0); p.Responded {
		t.Errorf("Probes() returned a reference into the table")
	}

	if got := tbl.SentWithTTL(2); got != 2 {
		t.Errorf("SentWithTTL(2) = %d, want 2", got)
	}
	if got := tbl.SentWithTTL(3); got != 0 {
		t.Errorf("SentWithTTL(3) = %d, want 0", got)
	}
}

func TestNewTableSize(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, DefaultTableSize},
		{-1, DefaultTableSize},
		{10, 10},
		{1 << 20, 1 << 16},
	}
	for _, tt := range tests {
		if got := NewTable(tt.size).Cap(); got != tt.want {
			t.Errorf("NewTable(%d).Cap() = %d, want %d", tt.size, got, tt.want)
		}
	}
}
