package cipserver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/cipdip/enipsim/internal/control"
	"github.com/cipdip/enipsim/internal/enip"
)

// refillTimeout bounds how long a session task blocks on a socket read
// before re-checking stats.eof.
const refillTimeout = 100 * time.Millisecond

// maxBufferedBytes is the protocol-error cap: if buffered but un-consumed
// bytes exceed this without the parser advancing, the session is closed
// as a protocol error.
const maxBufferedBytes = 64 * 1024

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	host, portStr, _ := net.SplitHostPort(conn.RemoteAddr().String())
	port, _ := strconv.Atoi(portStr)
	key := control.ConnectionKey(host, port)
	stats := s.plane.Track(key, host, port)
	defer s.plane.Untrack(key)

	sess := &session{
		id:     s.nextConnID.Add(1),
		conn:   conn,
		stream: enip.NewStream(),
		stats:  stats,
		server: s,
	}
	sess.run()
}

// session is the per-connection state machine: LISTEN/UNREGISTERED ->
// REGISTERED -> CLOSED.
type session struct {
	id            uint32
	conn          net.Conn
	stream        *enip.Stream
	stats         *control.ConnectionStats
	server        *Server
	sessionHandle uint32
	registered    bool
}

func (sess *session) run() {
	buf := make([]byte, 4096)
	for {
		if sess.stats.EOF() {
			return
		}
		for {
			frame, ok, err := sess.stream.Next()
			if err != nil {
				sess.server.logger.Error("session %d: parse error: %v", sess.id, err)
				sess.server.logger.LogHex(fmt.Sprintf("session %d: rejected frame", sess.id), sess.stream.Memory())
				return
			}
			if !ok {
				break
			}
			sess.stats.Requests++
			reply, closeAfter := sess.dispatch(frame)
			sess.server.plane.Delay.Sleep()
			if _, err := sess.conn.Write(enip.Encode(reply)); err != nil {
				sess.server.logger.Error("session %d: write: %v", sess.id, err)
				return
			}
			sess.stats.Processed++
			if closeAfter {
				return
			}
		}
		if sess.stream.Buffered() > maxBufferedBytes {
			sess.server.logger.Error("session %d: buffered bytes exceed cap, dropping connection", sess.id)
			return
		}

		_ = sess.conn.SetReadDeadline(time.Now().Add(refillTimeout))
		n, err := sess.conn.Read(buf)
		if n > 0 {
			sess.stream.Feed(buf[:n])
			sess.stats.Received++
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if err == io.EOF {
				if sess.stream.Buffered() == 0 {
					return // clean EOF between frames: silent termination
				}
				sess.server.logger.Error("session %d: EOF mid-frame, dropping connection", sess.id)
				return
			}
			sess.server.logger.Error("session %d: read: %v", sess.id, err)
			return
		}
	}
}

// dispatch handles one ENIP command and returns the reply frame to send,
// plus whether the connection should be closed afterward.
func (sess *session) dispatch(frame enip.Frame) (enip.Frame, bool) {
	switch frame.Command {
	case enip.CommandRegisterSession:
		return sess.handleRegisterSession(frame), false
	case enip.CommandUnregisterSession:
		return sess.ackFrame(frame), true
	case enip.CommandListServices:
		return sess.handleListServices(frame), false
	case enip.CommandListIdentity:
		return sess.handleListIdentity(frame), false
	case enip.CommandListInterfaces:
		return sess.handleListInterfaces(frame), false
	case enip.CommandSendRRData:
		return sess.handleSendRRData(frame), false
	case enip.CommandSendUnitData:
		return sess.handleSendUnitData(frame), false
	default:
		return enip.Frame{
			Command:       frame.Command,
			SessionHandle: frame.SessionHandle,
			Status:        enip.StatusInvalidCommand,
			SenderContext: frame.SenderContext,
		}, false
	}
}

func (sess *session) ackFrame(frame enip.Frame) enip.Frame {
	return enip.Frame{
		Command:       frame.Command,
		SessionHandle: frame.SessionHandle,
		SenderContext: frame.SenderContext,
	}
}

func (sess *session) handleRegisterSession(frame enip.Frame) enip.Frame {
	sess.sessionHandle = sess.server.allocateSessionHandle()
	sess.registered = true
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], 1) // protocol version
	binary.LittleEndian.PutUint16(payload[2:4], 0) // options flags
	return enip.Frame{
		Command:       enip.CommandRegisterSession,
		SessionHandle: sess.sessionHandle,
		SenderContext: frame.SenderContext,
		Payload:       payload,
	}
}

func (sess *session) handleListServices(frame enip.Frame) enip.Frame {
	name := "Communications"
	data := make([]byte, 4, 4+len(name))
	binary.LittleEndian.PutUint16(data[0:2], 1)      // protocol version
	binary.LittleEndian.PutUint16(data[2:4], 0x0020) // supports CIP encapsulation via TCP
	data = append(data, name...)
	payload := enip.EncodeItemList([]enip.Item{{Type: enip.ItemListServices, Data: data}})
	return enip.Frame{
		Command:       enip.CommandListServices,
		SessionHandle: frame.SessionHandle,
		SenderContext: frame.SenderContext,
		Payload:       payload,
	}
}

func (sess *session) handleListIdentity(frame enip.Frame) enip.Frame {
	id := sess.server.identity
	data := make([]byte, 0, 32)
	data = append(data, le16(id.VendorID)...)
	data = append(data, le16(id.DeviceType)...)
	data = append(data, le16(id.ProductCode)...)
	data = append(data, id.RevMajor, id.RevMinor)
	data = append(data, le16(0)...) // status
	data = append(data, le32(id.Serial)...)
	data = append(data, byte(len(id.ProductName)))
	data = append(data, id.ProductName...)
	data = append(data, 0xFF) // state: operational

	payload := enip.EncodeItemList([]enip.Item{{Type: enip.ItemCIPIdentity, Data: data}})
	return enip.Frame{
		Command:       enip.CommandListIdentity,
		SessionHandle: frame.SessionHandle,
		SenderContext: frame.SenderContext,
		Payload:       payload,
	}
}

func (sess *session) handleListInterfaces(frame enip.Frame) enip.Frame {
	payload := enip.EncodeItemList(nil)
	return enip.Frame{
		Command:       enip.CommandListInterfaces,
		SessionHandle: frame.SessionHandle,
		SenderContext: frame.SenderContext,
		Payload:       payload,
	}
}

// handleSendUnitData is a stub: connected/Class-1 messaging is out of
// scope, so every SendUnitData is rejected with invalid command status
// rather than dispatched.
func (sess *session) handleSendUnitData(frame enip.Frame) enip.Frame {
	return enip.Frame{
		Command:       enip.CommandSendUnitData,
		SessionHandle: frame.SessionHandle,
		Status:        enip.StatusInvalidCommand,
		SenderContext: frame.SenderContext,
	}
}

func (sess *session) handleSendRRData(frame enip.Frame) enip.Frame {
	if !sess.registered || frame.SessionHandle != sess.sessionHandle {
		return enip.Frame{
			Command:       enip.CommandSendRRData,
			SessionHandle: frame.SessionHandle,
			Status:        enip.StatusInvalidCommand,
			SenderContext: frame.SenderContext,
		}
	}

	rr, err := enip.DecodeRRData(frame.Payload)
	if err != nil {
		sess.server.logger.Error("session %d: SendRRData payload: %v", sess.id, err)
		return enip.Frame{
			Command:       enip.CommandSendRRData,
			SessionHandle: frame.SessionHandle,
			Status:        enip.StatusIncorrectData,
			SenderContext: frame.SenderContext,
		}
	}
	cipReq, err := enip.ExtractUnconnectedData(rr.Items)
	if err != nil {
		sess.server.logger.Error("session %d: SendRRData CPF: %v", sess.id, err)
		return enip.Frame{
			Command:       enip.CommandSendRRData,
			SessionHandle: frame.SessionHandle,
			Status:        enip.StatusIncorrectData,
			SenderContext: frame.SenderContext,
		}
	}

	cipReply := sess.server.processCIP(cipReq)
	replyRR := enip.UnconnectedMessage(cipReply)
	return enip.Frame{
		Command:       enip.CommandSendRRData,
		SessionHandle: frame.SessionHandle,
		SenderContext: frame.SenderContext,
		Payload:       enip.EncodeRRData(replyRR),
	}
}

func (s *Server) allocateSessionHandle() uint32 {
	// Non-zero, unique per listener: a monotonic counter suffices.
	return s.nextSessionHandle.Add(1)
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func le32(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
