package cipserver

import (
	"encoding/binary"

	"github.com/cipdip/enipsim/internal/cip"
)

// serviceMultiple implements the Multiple Service Packet (0x0A): decode
// count + offsets, dispatch each embedded request independently, and
// re-assemble a reply with the same count + offsets + concatenated replies
// shape. A sub-request's failure never aborts its siblings.
func (s *Server) serviceMultiple(req cip.Request) cip.Reply {
	data := req.Data
	if len(data) < 2 {
		return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
	}
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	offsetsEnd := 2 + 2*count
	if len(data) < offsetsEnd {
		return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
	}

	offsets := make([]int, count)
	for i := 0; i < count; i++ {
		offsets[i] = int(binary.LittleEndian.Uint16(data[2+2*i : 4+2*i]))
	}

	replies := make([][]byte, count)
	for i := 0; i < count; i++ {
		start := offsets[i]
		end := len(data)
		if i+1 < count {
			end = offsets[i+1]
		}
		if start < 0 || start > len(data) || end > len(data) || start > end {
			replies[i] = cip.EncodeReply(cip.ErrorReply(0, cip.StatusPathSegmentError))
			continue
		}
		embReq, err := cip.DecodeRequest(data[start:end])
		if err != nil {
			replies[i] = cip.EncodeReply(cip.ErrorReply(0, cip.StatusPathSegmentError))
			continue
		}
		replies[i] = cip.EncodeReply(s.dispatchCIPRequest(embReq))
	}

	out := make([]byte, offsetsEnd)
	binary.LittleEndian.PutUint16(out[0:2], uint16(count))
	cursor := offsetsEnd
	for i, r := range replies {
		binary.LittleEndian.PutUint16(out[2+2*i:4+2*i], uint16(cursor))
		cursor += len(r)
	}
	for _, r := range replies {
		out = append(out, r...)
	}

	return cip.Reply{Service: req.Service, Status: cip.StatusSuccess, Data: out}
}
