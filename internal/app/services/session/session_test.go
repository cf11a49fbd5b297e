package session

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewGeneratesDistinctUUIDs(t *testing.T) {
	a, b := New(), New()
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct sessions, both %s", a.ID())
	}
	if _, err := uuid.Parse(a.ID()); err != nil {
		t.Fatalf("session id %q is not a uuid: %v", a.ID(), err)
	}
}

func TestFromID(t *testing.T) {
	if got := FromID("sid-1").String(); got != "sid-1" {
		t.Fatalf("String() = %s", got)
	}
}
