package cip

import "testing"

func TestEncodeDecodeSymbolicPath(t *testing.T) {
	p := Path{{Kind: SegSymbolic, Name: "SCADA"}}
	b := EncodePath(p)
	decoded, consumed, err := DecodePath(b)
	if err != nil {
		t.Fatalf("DecodePath: %v", err)
	}
	if consumed != len(b) {
		t.Fatalf("consumed %d, want %d", consumed, len(b))
	}
	name, ok := decoded.SymbolicName()
	if !ok || name != "SCADA" {
		t.Fatalf("symbolic name: got %q, ok=%v", name, ok)
	}
}

func TestEncodeDecodeOddLengthNamePadding(t *testing.T) {
	p := Path{{Kind: SegSymbolic, Name: "XYZ"}}
	b := EncodePath(p)
	if len(b)%2 != 1 {
		// word-count byte + even body
		t.Fatalf("expected odd total length (1 + even body), got %d", len(b))
	}
	decoded, _, err := DecodePath(b)
	if err != nil {
		t.Fatalf("DecodePath: %v", err)
	}
	name, _ := decoded.SymbolicName()
	if name != "XYZ" {
		t.Fatalf("name: got %q", name)
	}
}

func TestDecodePathUnknownSegment(t *testing.T) {
	b := []byte{0x01, 0xFF, 0x00}
	if _, _, err := DecodePath(b); err == nil {
		t.Fatalf("expected error for unknown segment tag")
	}
}

func TestElementIndexDefaultsToZero(t *testing.T) {
	p := Path{{Kind: SegSymbolic, Name: "COUNTER"}}
	if idx := p.ElementIndex(); idx != 0 {
		t.Fatalf("expected default element index 0, got %d", idx)
	}
}

func TestElementIndexExplicit(t *testing.T) {
	p := Path{{Kind: SegSymbolic, Name: "COUNTER"}, {Kind: SegElement, Number: 7}}
	if idx := p.ElementIndex(); idx != 7 {
		t.Fatalf("expected element index 7, got %d", idx)
	}
}

func TestLogicalClassInstanceAttributeRoundTrip(t *testing.T) {
	p := Path{
		{Kind: SegClass, Number: 0x6B},
		{Kind: SegInstance, Number: 1},
		{Kind: SegAttribute, Number: 1},
	}
	b := EncodePath(p)
	decoded, _, err := DecodePath(b)
	if err != nil {
		t.Fatalf("DecodePath: %v", err)
	}
	if len(decoded) != 3 || decoded[0].Number != 0x6B || decoded[1].Number != 1 || decoded[2].Number != 1 {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
}
