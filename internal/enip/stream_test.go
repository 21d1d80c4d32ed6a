package enip

import "testing"

func TestStreamNeedsMoreBytes(t *testing.T) {
	s := NewStream()
	s.Feed([]byte{0x65, 0x00, 0x04, 0x00})
	_, ok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected suspension, got a frame")
	}
}

func TestStreamFullFrame(t *testing.T) {
	s := NewStream()
	f := Frame{Command: CommandRegisterSession, Payload: []byte{0x01, 0x00, 0x00, 0x00}}
	b := Encode(f)
	s.Feed(b[:10])
	if _, ok, _ := s.Next(); ok {
		t.Fatalf("expected suspension on partial header")
	}
	s.Feed(b[10:])
	got, ok, err := s.Next()
	if err != nil || !ok {
		t.Fatalf("expected a complete frame, ok=%v err=%v", ok, err)
	}
	if got.Command != CommandRegisterSession {
		t.Fatalf("command: got %v", got.Command)
	}
	if s.Buffered() != 0 {
		t.Fatalf("expected buffer drained, got %d bytes left", s.Buffered())
	}
}

func TestStreamTwoFramesInOneFeed(t *testing.T) {
	s := NewStream()
	a := Encode(Frame{Command: CommandRegisterSession, Payload: []byte{0x01, 0x00, 0x00, 0x00}})
	b := Encode(Frame{Command: CommandUnregisterSession})
	s.Feed(append(append([]byte{}, a...), b...))

	first, ok, err := s.Next()
	if err != nil || !ok || first.Command != CommandRegisterSession {
		t.Fatalf("first frame: ok=%v err=%v cmd=%v", ok, err, first.Command)
	}
	second, ok, err := s.Next()
	if err != nil || !ok || second.Command != CommandUnregisterSession {
		t.Fatalf("second frame: ok=%v err=%v cmd=%v", ok, err, second.Command)
	}
	if _, ok, _ := s.Next(); ok {
		t.Fatalf("expected no third frame")
	}
}

func TestStreamRetainsMemoryOfLastFrame(t *testing.T) {
	s := NewStream()
	b := Encode(Frame{Command: CommandUnregisterSession})
	s.Feed(b)
	if _, ok, _ := s.Next(); !ok {
		t.Fatalf("expected a frame")
	}
	if len(s.Memory()) != len(b) {
		t.Fatalf("Memory() length: got %d, want %d", len(s.Memory()), len(b))
	}
}
