// Package enip implements the EtherNet/IP encapsulation layer: the 24-byte
// header framing every command, and the incremental parser that turns a
// stream of socket reads into a sequence of complete frames.
package enip

import (
	"encoding/binary"
	"fmt"
)

// Command is one of the closed set of ENIP encapsulation commands.
type Command uint16

const (
	CommandListServices    Command = 0x0004
	CommandListIdentity    Command = 0x0063
	CommandListInterfaces  Command = 0x0064
	CommandRegisterSession Command = 0x0065
	CommandUnregisterSession Command = 0x0066
	CommandSendRRData      Command = 0x006F
	CommandSendUnitData    Command = 0x0070
)

func (c Command) String() string {
	switch c {
	case CommandListServices:
		return "ListServices"
	case CommandListIdentity:
		return "ListIdentity"
	case CommandListInterfaces:
		return "ListInterfaces"
	case CommandRegisterSession:
		return "RegisterSession"
	case CommandUnregisterSession:
		return "UnregisterSession"
	case CommandSendRRData:
		return "SendRRData"
	case CommandSendUnitData:
		return "SendUnitData"
	default:
		return fmt.Sprintf("Unknown(0x%04X)", uint16(c))
	}
}

// Encapsulation-level status codes, carried in the header's Status field.
const (
	StatusSuccess            uint32 = 0x0000
	StatusInvalidCommand     uint32 = 0x0001
	StatusInsufficientMemory uint32 = 0x0002
	StatusIncorrectData      uint32 = 0x0003
)

// HeaderSize is the fixed length of the ENIP encapsulation header.
const HeaderSize = 24

// Frame is a decoded ENIP encapsulation frame: header fields plus payload.
type Frame struct {
	Command       Command
	SessionHandle uint32
	Status        uint32
	SenderContext [8]byte
	Options       uint32
	Payload       []byte
}

// Encode serializes a Frame to its wire representation. Length is derived
// from len(Payload), never trusted from a caller-supplied field.
func Encode(f Frame) []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(f.Command))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(f.Payload)))
	binary.LittleEndian.PutUint32(buf[4:8], f.SessionHandle)
	binary.LittleEndian.PutUint32(buf[8:12], f.Status)
	copy(buf[12:20], f.SenderContext[:])
	binary.LittleEndian.PutUint32(buf[20:24], f.Options)
	copy(buf[24:], f.Payload)
	return buf
}

// Decode parses a single frame from exactly HeaderSize+payloadLen bytes.
// Callers that only have a socket buffer should use Stream instead, which
// handles partial reads.
func Decode(b []byte) (Frame, error) {
	if len(b) < HeaderSize {
		return Frame{}, fmt.Errorf("enip: short header: %d bytes", len(b))
	}
	length := binary.LittleEndian.Uint16(b[2:4])
	if len(b) < HeaderSize+int(length) {
		return Frame{}, fmt.Errorf("enip: short payload: have %d, want %d", len(b)-HeaderSize, length)
	}
	var f Frame
	f.Command = Command(binary.LittleEndian.Uint16(b[0:2]))
	f.SessionHandle = binary.LittleEndian.Uint32(b[4:8])
	f.Status = binary.LittleEndian.Uint32(b[8:12])
	copy(f.SenderContext[:], b[12:20])
	f.Options = binary.LittleEndian.Uint32(b[20:24])
	f.Payload = append([]byte(nil), b[24:24+int(length)]...)
	return f, nil
}
