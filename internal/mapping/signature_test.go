package mapping

import (
	"strings"
	"testing"
)

func TestSignatureHashIsDeterministic(t *testing.T) {
	a := Signature{Kind: "Scalabel", Version: 1, Fields: map[string]any{
		"annotations": "/data/train.json",
		"categories":  []string{"car", "person"},
		"skip_empty":  true,
	}}
	b := Signature{Kind: "Scalabel", Version: 1, Fields: map[string]any{
		"skip_empty":  true,
		"categories":  []string{"car", "person"},
		"annotations": "/data/train.json",
	}}

	ha, err := a.Hash(DefaultHashLength)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hb, err := b.Hash(DefaultHashLength)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if ha != hb {
		t.Fatalf("expected identical hashes, got %q and %q", ha, hb)
	}
	if len(ha) != DefaultHashLength {
		t.Fatalf("unexpected hash length: got %d want %d", len(ha), DefaultHashLength)
	}
}

func TestSignatureHashNormalizesUnicode(t *testing.T) {
	composed := Signature{Kind: "Scalabel", Fields: map[string]any{"root": "caf\u00e9"}}
	decomposed := Signature{Kind: "Scalabel", Fields: map[string]any{"root": "cafe\u0301"}}

	h1, _ := composed.Hash(16)
	h2, _ := decomposed.Hash(16)
	if h1 != h2 {
		t.Fatalf("expected NFC-equivalent strings to hash equally: %q vs %q", h1, h2)
	}
}

func TestSignatureHashDistinguishesFields(t *testing.T) {
	base := Signature{Kind: "Scalabel", Version: 1, Fields: map[string]any{"annotations": "a.json"}}
	cases := map[string]Signature{
		"field":   {Kind: "Scalabel", Version: 1, Fields: map[string]any{"annotations": "b.json"}},
		"version": {Kind: "Scalabel", Version: 2, Fields: map[string]any{"annotations": "a.json"}},
		"kind":    {Kind: "COCO", Version: 1, Fields: map[string]any{"annotations": "a.json"}},
	}
	baseHash, _ := base.Hash(64)
	for name, sig := range cases {
		got, err := sig.Hash(64)
		if err != nil {
			t.Fatalf("%s: Hash failed: %v", name, err)
		}
		if got == baseHash {
			t.Fatalf("%s: expected a different hash", name)
		}
	}
}

func TestSignatureHashLength(t *testing.T) {
	sig := Signature{Kind: "Scalabel"}
	for _, tc := range []struct{ in, want int }{{8, 8}, {64, 64}, {0, DefaultHashLength}, {65, DefaultHashLength}} {
		got, err := sig.Hash(tc.in)
		if err != nil {
			t.Fatalf("Hash(%d) failed: %v", tc.in, err)
		}
		if len(got) != tc.want {
			t.Fatalf("Hash(%d): got length %d want %d", tc.in, len(got), tc.want)
		}
	}
}

func TestSignatureRequiresKind(t *testing.T) {
	if _, err := (Signature{}).Canonical(); err == nil || !strings.Contains(err.Error(), "kind") {
		t.Fatalf("expected kind error, got %v", err)
	}
}
