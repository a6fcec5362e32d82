package refdata

import "testing"

func TestLookupFallback(t *testing.T) {
	s := Lookup(131)
	if s.CommonName != "loblolly pine" {
		t.Errorf("got %+v", s)
	}
	unknown := Lookup(999999)
	if unknown.CommonName != "unknown species" {
		t.Errorf("expected fallback descriptor, got %+v", unknown)
	}
}

func TestForestTypeGroupFallback(t *testing.T) {
	g := ForestTypeGroupFor(161)
	if g.Name != "Loblolly / shortleaf pine group" {
		t.Errorf("got %+v", g)
	}
	fallback := ForestTypeGroupFor(1)
	if fallback.Code != 999 {
		t.Errorf("expected fallback, got %+v", fallback)
	}
}

func TestOwnershipGroupFor(t *testing.T) {
	if OwnershipGroupFor(40) != "Private" {
		t.Errorf("got %q", OwnershipGroupFor(40))
	}
	if OwnershipGroupFor(999) != "Unknown ownership" {
		t.Errorf("expected fallback")
	}
}
