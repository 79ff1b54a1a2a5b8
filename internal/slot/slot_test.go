package slot

import (
	"errors"
	"testing"
)

func TestStaleCommitIsDropped(t *testing.T) {
	var s Slot[string]
	first := s.Begin()
	second := s.Begin()

	if s.Commit(first, "old image analysis", nil) {
		t.Fatalf("stale commit must be rejected")
	}
	if _, ok := s.Get(); ok {
		t.Fatalf("stale value must not be visible")
	}
	if !s.State().Pending {
		t.Fatalf("second request should still be pending")
	}
	if !s.Commit(second, "new", nil) {
		t.Fatalf("current commit must be accepted")
	}
	if v, ok := s.Get(); !ok || v != "new" {
		t.Fatalf("unexpected value %q %v", v, ok)
	}
}

func TestCommitErrorClearsValue(t *testing.T) {
	var s Slot[int]
	s.Set(3)
	tk := s.Begin()
	s.Commit(tk, 0, errors.New("failed"))
	st := s.State()
	if st.Present || st.Pending || st.Err == nil {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestResetDropsInFlight(t *testing.T) {
	var s Slot[int]
	tk := s.Begin()
	s.Reset()
	if s.Current(tk) || s.Commit(tk, 1, nil) {
		t.Fatalf("reset must invalidate in-flight tickets")
	}
}
