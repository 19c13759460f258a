package id

import "testing"

func TestNextMonotonic(t *testing.T) {
	g := NewGenerator()
	prev := g.Next()
	for i := 0; i < 1000; i++ {
		cur := g.Next()
		if cur.Compare(prev) <= 0 {
			t.Fatalf("id %d not greater than predecessor: %s <= %s", i, cur, prev)
		}
		prev = cur
	}
}

func TestNextSurvivesClockStepBack(t *testing.T) {
	g := NewGenerator()
	real := NowMs
	now := int64(10_000)
	NowMs = func() int64 { return now }
	defer func() { NowMs = real }()

	a := g.Next()
	now = 9_000 // clock steps back
	b := g.Next()
	if b.Compare(a) <= 0 {
		t.Fatalf("expected monotonic id after clock step back: %s <= %s", b, a)
	}
	if b.TimeMs() < a.TimeMs() {
		t.Fatalf("timestamp regressed: %d < %d", b.TimeMs(), a.TimeMs())
	}
}

func TestParseRoundTrip(t *testing.T) {
	g := NewGenerator()
	orig := g.Next()
	parsed, err := Parse(orig.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Compare(orig) != 0 {
		t.Fatalf("round trip mismatch: %s != %s", parsed, orig)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "zz00000000000000000000000000000000"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}
