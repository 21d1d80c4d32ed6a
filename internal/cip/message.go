package cip

import "fmt"

// Service codes recognized by the service processor. The high bit (0x80)
// distinguishes a reply from its request.
const (
	ServiceReadTag             byte = 0x4C
	ServiceReadTagFragmented   byte = 0x52
	ServiceWriteTag            byte = 0x4D
	ServiceWriteTagFragmented  byte = 0x53
	ServiceMultipleServicePacket byte = 0x0A

	ReplyMask byte = 0x80
)

// General status codes (CIP-level, carried in a Reply's Status field).
const (
	StatusSuccess             byte = 0x00
	StatusPathSegmentError    byte = 0x04
	StatusPathDestUnknown     byte = 0x05
	StatusPartialTransfer     byte = 0x06
	StatusServiceNotSupported byte = 0x08
	StatusNotEnoughData       byte = 0x13
	StatusTooMuchData         byte = 0x15
)

// Request is a decoded unconnected CIP message request.
type Request struct {
	Service byte
	Path    Path
	Data    []byte
}

// Reply is an encoded CIP message reply.
type Reply struct {
	Service   byte // request's service, with ReplyMask set
	Status    byte
	ExtStatus []uint16
	Data      []byte
}

// DecodeRequest parses a CIP message request: service byte, EPATH, and the
// remaining service-specific data.
func DecodeRequest(b []byte) (Request, error) {
	if len(b) < 1 {
		return Request{}, fmt.Errorf("cip: empty request")
	}
	service := b[0]
	path, consumed, err := DecodePath(b[1:])
	if err != nil {
		return Request{}, err
	}
	return Request{
		Service: service,
		Path:    path,
		Data:    b[1+consumed:],
	}, nil
}

// EncodeReply serializes a CIP message reply: service|0x80, a reserved
// zero byte, status, a length-prefixed extended-status word list, and the
// service-specific reply data.
func EncodeReply(r Reply) []byte {
	out := make([]byte, 0, 4+2*len(r.ExtStatus)+len(r.Data))
	out = append(out, r.Service|ReplyMask, 0x00, r.Status, byte(len(r.ExtStatus)))
	for _, es := range r.ExtStatus {
		out = append(out, byte(es), byte(es>>8))
	}
	out = append(out, r.Data...)
	return out
}

// ErrorReply builds a bare status-only reply (no data, no extended status)
// for the given request service code.
func ErrorReply(service byte, status byte) Reply {
	return Reply{Service: service, Status: status}
}
