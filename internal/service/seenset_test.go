package service

import (
	"fmt"
	"testing"
)

func TestSeenSetAddHas(t *testing.T) {
	s := newSeenSet(100, 50)

	if s.Has("a") {
		t.Error("empty set should not contain a")
	}
	s.Add("a")
	if !s.Has("a") {
		t.Error("set should contain a after Add")
	}
	s.Add("a")
	if s.Len() != 1 {
		t.Errorf("duplicate Add should not grow the set, len=%d", s.Len())
	}
}

func TestSeenSetTrimKeepsMostRecent(t *testing.T) {
	s := newSeenSet(100, 50)

	for i := 0; i < 101; i++ {
		s.Add(fmt.Sprintf("req-%03d", i))
	}

	// Crossing the cap trims down to the most recent 50.
	if s.Len() != 50 {
		t.Fatalf("expected 50 entries after trim, got %d", s.Len())
	}
	if s.Has("req-000") {
		t.Error("oldest entry should have been trimmed")
	}
	if s.Has("req-050") {
		t.Error("entry 50 should have been trimmed (51..100 are the most recent 50)")
	}
	if !s.Has("req-051") {
		t.Error("entry 51 should have been kept")
	}
	if !s.Has("req-100") {
		t.Error("newest entry should have been kept")
	}
}

func TestSeenSetStaysBounded(t *testing.T) {
	s := newSeenSet(100, 50)

	for i := 0; i < 1000; i++ {
		s.Add(fmt.Sprintf("req-%04d", i))
		if s.Len() > 100 {
			t.Fatalf("set exceeded cap at i=%d: len=%d", i, s.Len())
		}
	}
}
