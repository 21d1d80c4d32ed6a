package enip

import (
	"encoding/binary"
	"fmt"
)

// CPF item type IDs used by SendRRData/SendUnitData.
const (
	ItemNullAddress    uint16 = 0x0000
	ItemConnectedAddr  uint16 = 0x00A1
	ItemConnectedData  uint16 = 0x00B1
	ItemUnconnectedData uint16 = 0x00B2
	ItemListServices   uint16 = 0x0100
	ItemCIPIdentity    uint16 = 0x0C00
)

// Item is one entry of a Common Packet Format item list.
type Item struct {
	Type uint16
	Data []byte
}

// RRData is the decoded SendRRData (or SendUnitData) payload: an interface
// handle, a timeout, and an ordered CPF item list.
type RRData struct {
	InterfaceHandle uint32
	Timeout         uint16
	Items           []Item
}

// EncodeRRData serializes the interface handle, timeout, and CPF item count
// + item list into a SendRRData/SendUnitData payload.
func EncodeRRData(r RRData) []byte {
	buf := make([]byte, 0, 8+cpfEncodedLen(r.Items))
	head := make([]byte, 8)
	binary.LittleEndian.PutUint32(head[0:4], r.InterfaceHandle)
	binary.LittleEndian.PutUint16(head[4:6], r.Timeout)
	binary.LittleEndian.PutUint16(head[6:8], uint16(len(r.Items)))
	buf = append(buf, head...)
	buf = append(buf, encodeItems(r.Items)...)
	return buf
}

func cpfEncodedLen(items []Item) int {
	n := 0
	for _, it := range items {
		n += 4 + len(it.Data)
	}
	return n
}

func encodeItems(items []Item) []byte {
	buf := make([]byte, 0, cpfEncodedLen(items))
	for _, it := range items {
		h := make([]byte, 4)
		binary.LittleEndian.PutUint16(h[0:2], it.Type)
		binary.LittleEndian.PutUint16(h[2:4], uint16(len(it.Data)))
		buf = append(buf, h...)
		buf = append(buf, it.Data...)
	}
	return buf
}

// DecodeRRData parses a SendRRData/SendUnitData payload's interface handle,
// timeout, and CPF item list.
func DecodeRRData(b []byte) (RRData, error) {
	if len(b) < 8 {
		return RRData{}, fmt.Errorf("enip: cpf payload too short: %d bytes", len(b))
	}
	var r RRData
	r.InterfaceHandle = binary.LittleEndian.Uint32(b[0:4])
	r.Timeout = binary.LittleEndian.Uint16(b[4:6])
	count := binary.LittleEndian.Uint16(b[6:8])
	items, err := decodeItems(b[8:], int(count))
	if err != nil {
		return RRData{}, err
	}
	r.Items = items
	return r, nil
}

func decodeItems(b []byte, count int) ([]Item, error) {
	items := make([]Item, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		if off+4 > len(b) {
			return nil, fmt.Errorf("enip: cpf item %d header truncated", i)
		}
		typ := binary.LittleEndian.Uint16(b[off : off+2])
		length := binary.LittleEndian.Uint16(b[off+2 : off+4])
		off += 4
		if off+int(length) > len(b) {
			return nil, fmt.Errorf("enip: cpf item %d data truncated", i)
		}
		items = append(items, Item{Type: typ, Data: append([]byte(nil), b[off:off+int(length)]...)})
		off += int(length)
	}
	return items, nil
}

// EncodeItemList serializes a bare item-count-prefixed CPF list, used by
// ListServices (no interface handle / timeout wrapper, unlike SendRRData).
func EncodeItemList(items []Item) []byte {
	buf := make([]byte, 2, 2+cpfEncodedLen(items))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(items)))
	return append(buf, encodeItems(items)...)
}

// UnconnectedMessage builds the standard two-item CPF list used by
// unconnected SendRRData exchanges: a null address item followed by the
// unconnected-data item carrying the CIP message.
func UnconnectedMessage(cipData []byte) RRData {
	return RRData{
		Items: []Item{
			{Type: ItemNullAddress, Data: nil},
			{Type: ItemUnconnectedData, Data: cipData},
		},
	}
}

// ExtractUnconnectedData pulls the CIP message bytes out of a SendRRData
// item list: the data of the first unconnected-data item. Other items,
// including the null-address item, are not checked.
func ExtractUnconnectedData(items []Item) ([]byte, error) {
	for _, it := range items {
		if it.Type == ItemUnconnectedData {
			return it.Data, nil
		}
	}
	return nil, fmt.Errorf("enip: no unconnected-data item in CPF list")
}

// ExtractConnectedData pulls the connection ID and CIP message bytes out of
// a SendUnitData item list (connected-address + connected-data items).
func ExtractConnectedData(items []Item) (connID uint32, data []byte, err error) {
	var haveAddr bool
	for _, it := range items {
		switch it.Type {
		case ItemConnectedAddr:
			if len(it.Data) < 4 {
				return 0, nil, fmt.Errorf("enip: connected-address item too short")
			}
			connID = binary.LittleEndian.Uint32(it.Data[0:4])
			haveAddr = true
		case ItemConnectedData:
			data = it.Data
		}
	}
	if !haveAddr {
		return 0, nil, fmt.Errorf("enip: no connected-address item in CPF list")
	}
	return connID, data, nil
}
