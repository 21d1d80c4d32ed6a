package enip

import (
	"bytes"
	"testing"
)

func TestUnconnectedMessageRoundTrip(t *testing.T) {
	cip := []byte{0x4C, 0x02, 0x91, 0x05, 'S', 'C', 'A', 'D', 'A', 0x00}
	rr := UnconnectedMessage(cip)
	b := EncodeRRData(rr)

	decoded, err := DecodeRRData(b)
	if err != nil {
		t.Fatalf("DecodeRRData: %v", err)
	}
	got, err := ExtractUnconnectedData(decoded.Items)
	if err != nil {
		t.Fatalf("ExtractUnconnectedData: %v", err)
	}
	if !bytes.Equal(got, cip) {
		t.Fatalf("payload mismatch: got %v, want %v", got, cip)
	}
}

func TestExtractUnconnectedDataMissingItem(t *testing.T) {
	rr := RRData{Items: []Item{{Type: ItemNullAddress}}}
	if _, err := ExtractUnconnectedData(rr.Items); err == nil {
		t.Fatalf("expected error for missing unconnected-data item")
	}
}

func TestExtractConnectedData(t *testing.T) {
	items := []Item{
		{Type: ItemConnectedAddr, Data: []byte{0x78, 0x56, 0x34, 0x12}},
		{Type: ItemConnectedData, Data: []byte{0xAA, 0xBB}},
	}
	id, data, err := ExtractConnectedData(items)
	if err != nil {
		t.Fatalf("ExtractConnectedData: %v", err)
	}
	if id != 0x12345678 {
		t.Fatalf("conn id: got 0x%08X", id)
	}
	if !bytes.Equal(data, []byte{0xAA, 0xBB}) {
		t.Fatalf("data mismatch: %v", data)
	}
}

func TestDecodeRRDataTruncated(t *testing.T) {
	if _, err := DecodeRRData([]byte{0x00, 0x00}); err == nil {
		t.Fatalf("expected error for short payload")
	}
}
