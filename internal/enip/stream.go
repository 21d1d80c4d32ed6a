package enip

// Stream is a sliding window over bytes received from a socket. It is fed
// incrementally (Feed) and yields complete frames one at a time (Next);
// a partial frame is a suspension, not an error, and the caller is expected
// to Feed more bytes and call Next again. Consumed bytes are discarded from
// the internal buffer so memory does not grow with connection lifetime,
// but the last-consumed run is retained for diagnostics (Memory).
type Stream struct {
	buf     []byte
	sent    int
	lastRun []byte
}

// NewStream returns an empty Stream.
func NewStream() *Stream {
	return &Stream{}
}

// Feed appends newly-received bytes to the stream's buffer.
func (s *Stream) Feed(b []byte) {
	s.buf = append(s.buf, b...)
	s.sent += len(b)
}

// Peek returns the next unconsumed byte without consuming it.
func (s *Stream) Peek() (byte, bool) {
	if len(s.buf) == 0 {
		return 0, false
	}
	return s.buf[0], true
}

// Buffered reports how many unconsumed bytes are currently held.
func (s *Stream) Buffered() int {
	return len(s.buf)
}

// Sent reports the total number of bytes fed into the stream so far.
func (s *Stream) Sent() int {
	return s.sent
}

// Memory returns the most recently fully-consumed frame's raw bytes, for
// diagnostic logging when a later frame fails to parse.
func (s *Stream) Memory() []byte {
	return s.lastRun
}

// Next attempts to decode one frame from the front of the buffer. It
// returns (frame, true, nil) on success, advancing past the consumed bytes.
// It returns (Frame{}, false, nil) when fewer than a full frame's worth of
// bytes are buffered ("need more bytes" suspension, not an error), whether
// the shortfall is in the header or the payload. No header field other
// than the length is validated, so a fully buffered frame always decodes;
// the error result is non-nil only if Decode rejects it.
func (s *Stream) Next() (Frame, bool, error) {
	if len(s.buf) < HeaderSize {
		return Frame{}, false, nil
	}
	total, err := frameLength(s.buf)
	if err != nil {
		return Frame{}, false, err
	}
	if len(s.buf) < total {
		return Frame{}, false, nil
	}
	frame, err := Decode(s.buf[:total])
	if err != nil {
		return Frame{}, false, err
	}
	s.lastRun = append([]byte(nil), s.buf[:total]...)
	s.buf = s.buf[total:]
	return frame, true, nil
}

func frameLength(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, nil
	}
	length := int(b[2]) | int(b[3])<<8
	return HeaderSize + length, nil
}
