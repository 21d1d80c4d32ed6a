package cipserver

import (
	"encoding/binary"

	"github.com/cipdip/enipsim/internal/cip"
	"github.com/cipdip/enipsim/internal/tags"
)

// processCIP decodes one CIP message request, dispatches it, and encodes
// the reply. It is the entry point called from SendRRData handling.
func (s *Server) processCIP(raw []byte) []byte {
	req, err := cip.DecodeRequest(raw)
	if err != nil {
		return cip.EncodeReply(cip.ErrorReply(0, cip.StatusPathSegmentError))
	}
	return cip.EncodeReply(s.dispatchCIPRequest(req))
}

// dispatchCIPRequest resolves the path, honors a pre-armed per-attribute
// error verbatim, then dispatches by service code.
func (s *Server) dispatchCIPRequest(req cip.Request) cip.Reply {
	attr, status := s.plane.Tags.Resolve(req.Path)
	if status != cip.StatusSuccess {
		return cip.ErrorReply(req.Service, status)
	}
	if code := attr.ErrorCode(); code != 0 {
		return cip.ErrorReply(req.Service, code)
	}

	switch req.Service {
	case cip.ServiceReadTag:
		return serviceReadTag(req, attr, false)
	case cip.ServiceReadTagFragmented:
		return serviceReadTag(req, attr, true)
	case cip.ServiceWriteTag:
		return serviceWriteTag(req, attr, false)
	case cip.ServiceWriteTagFragmented:
		return serviceWriteTag(req, attr, true)
	case cip.ServiceMultipleServicePacket:
		return s.serviceMultiple(req)
	default:
		return cip.ErrorReply(req.Service, cip.StatusServiceNotSupported)
	}
}

func serviceReadTag(req cip.Request, attr *tags.Attribute, fragmented bool) cip.Reply {
	data := req.Data
	if len(data) < 2 {
		return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
	}
	requested := int(binary.LittleEndian.Uint16(data[0:2]))

	start := int(req.Path.ElementIndex())
	if fragmented {
		if len(data) < 6 {
			return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
		}
		start = int(binary.LittleEndian.Uint32(data[2:6]))
	}

	vals, status := attr.Read(start, requested)
	if status != cip.StatusSuccess {
		return cip.ErrorReply(req.Service, status)
	}
	encoded, err := cip.EncodeElements(attr.Type, vals)
	if err != nil {
		return cip.ErrorReply(req.Service, cip.StatusServiceNotSupported)
	}

	replyStatus := byte(cip.StatusSuccess)
	if fragmented && start+len(vals) < attr.Len() {
		replyStatus = cip.StatusPartialTransfer
	}

	typeCode := make([]byte, 2)
	binary.LittleEndian.PutUint16(typeCode, uint16(attr.Type))
	return cip.Reply{Service: req.Service, Status: replyStatus, Data: append(typeCode, encoded...)}
}

func serviceWriteTag(req cip.Request, attr *tags.Attribute, fragmented bool) cip.Reply {
	data := req.Data
	if len(data) < 4 {
		return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
	}
	typeCode := cip.DataType(binary.LittleEndian.Uint16(data[0:2]))
	elemCount := int(binary.LittleEndian.Uint16(data[2:4]))

	bodyStart := 4
	start := int(req.Path.ElementIndex())
	if fragmented {
		if len(data) < 8 {
			return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
		}
		start = int(binary.LittleEndian.Uint32(data[4:8]))
		bodyStart = 8
	}

	width, ok := typeCode.Width()
	if !ok {
		return cip.ErrorReply(req.Service, cip.StatusServiceNotSupported)
	}
	need := width * elemCount
	avail := len(data) - bodyStart
	switch {
	case avail < need:
		return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
	case avail > need:
		return cip.ErrorReply(req.Service, cip.StatusTooMuchData)
	}

	vals, err := cip.DecodeElements(typeCode, data[bodyStart:bodyStart+need], elemCount)
	if err != nil {
		return cip.ErrorReply(req.Service, cip.StatusNotEnoughData)
	}
	status := attr.Write(start, vals)
	return cip.ErrorReply(req.Service, status)
}
