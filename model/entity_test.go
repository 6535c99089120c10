package model

import "testing"

func TestHandOther(t *testing.T) {
	if got := HandLeft.Other(); got != HandRight {
		t.Fatalf("HandLeft.Other() = %v, want %v", got, HandRight)
	}
	if got := HandRight.Other(); got != HandLeft {
		t.Fatalf("HandRight.Other() = %v, want %v", got, HandLeft)
	}
}

func TestHandTextRoundTrip(t *testing.T) {
	for _, h := range []Hand{HandLeft, HandRight} {
		b, err := h.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", h, err)
		}
		var got Hand
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != h {
			t.Fatalf("round trip = %v, want %v", got, h)
		}
	}

	var h Hand
	if err := h.UnmarshalText([]byte("middle")); err == nil {
		t.Fatalf("UnmarshalText(middle) succeeded, want error")
	}
}

func TestDamageVariantUnmarshal(t *testing.T) {
	cases := map[string]DamageVariant{
		"chop":  DamageChop,
		"SMASH": DamageSmash,
		"hit":   DamageHit,
		"":      DamageNone,
	}
	for in, want := range cases {
		var got DamageVariant
		if err := got.UnmarshalText([]byte(in)); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("UnmarshalText(%q) = %v, want %v", in, got, want)
		}
	}
}
