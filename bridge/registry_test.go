package bridge

import (
	"errors"
	"testing"
	"time"

	"mobile-bridge/protocol"
)

func TestRegistryResolveOnce(t *testing.T) {
	r := NewRegistry()
	calls := 0
	if err := r.Register("a", time.Now().Add(time.Second), func(protocol.Response) { calls++ }); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, _ := protocol.Success("a", nil, time.Now())
	if !r.Resolve(resp) {
		t.Fatal("expected first resolve to settle")
	}
	if r.Resolve(resp) {
		t.Fatal("expected second resolve to be dropped")
	}
	if calls != 1 {
		t.Fatalf("expected 1 settle, got %d", calls)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryUnknownID(t *testing.T) {
	r := NewRegistry()
	resp, _ := protocol.Success("never-issued", nil, time.Now())
	if r.Resolve(resp) {
		t.Fatal("expected unknown id to be dropped")
	}
}

func TestRegistryDuplicateID(t *testing.T) {
	r := NewRegistry()
	noop := func(protocol.Response) {}
	if err := r.Register("a", time.Now(), noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("a", time.Now(), noop); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	deadline := time.UnixMilli(5000)
	settled := false
	if err := r.Register("a", deadline, func(protocol.Response) { settled = true }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got, ok := r.Deadline("a"); !ok || !got.Equal(deadline) {
		t.Fatalf("expected deadline %v, got %v", deadline, got)
	}
	if !r.Remove("a") {
		t.Fatal("expected remove to find entry")
	}
	if r.Remove("a") {
		t.Fatal("expected second remove to be a no-op")
	}
	if r.Pending("a") {
		t.Fatal("expected entry to be gone")
	}
	resp, _ := protocol.Success("a", nil, time.Now())
	r.Resolve(resp)
	if settled {
		t.Fatal("expected removed entry never to settle")
	}
}
