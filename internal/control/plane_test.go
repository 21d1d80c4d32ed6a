package control

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cipdip/enipsim/internal/cip"
	"github.com/cipdip/enipsim/internal/tags"
)

func httpGet(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func newTestPlane(t *testing.T) *Plane {
	t.Helper()
	reg := tags.NewRegistry()
	if _, err := reg.Create("SCADA", cip.TypeINT, 1, 0); err != nil {
		t.Fatalf("create tag: %v", err)
	}
	return NewPlane(reg)
}

func TestDelaySetAndValue(t *testing.T) {
	d := NewDelay(0)
	d.Set(1.5)
	if v := d.Value(); v != 1.5 {
		t.Fatalf("Value(): got %v, want 1.5", v)
	}
}

func TestDelayParseSpecConstant(t *testing.T) {
	d := NewDelay(0)
	if err := d.ParseSpec("0.25"); err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if v := d.Value(); v != 0.25 {
		t.Fatalf("Value(): got %v", v)
	}
}

func TestDelayParseSpecRange(t *testing.T) {
	d := NewDelay(0)
	if err := d.ParseSpec("0.1-0.5"); err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	d.mu.Lock()
	ranged, lo, hi := d.ranged, d.lo, d.hi
	d.mu.Unlock()
	if !ranged || lo != 0.1 || hi != 0.5 {
		t.Fatalf("range not set: ranged=%v lo=%v hi=%v", ranged, lo, hi)
	}
}

func TestConnectionTrackUntrack(t *testing.T) {
	p := newTestPlane(t)
	key := ConnectionKey("10.0.0.1", 5000)
	p.Track(key, "10.0.0.1", 5000)
	if _, ok := p.Connection(key); !ok {
		t.Fatalf("expected connection to be tracked")
	}
	p.Untrack(key)
	if _, ok := p.Connection(key); ok {
		t.Fatalf("expected connection to be untracked")
	}
}

func TestShutdownSetsEOFOnAllConnections(t *testing.T) {
	p := newTestPlane(t)
	key := ConnectionKey("10.0.0.1", 5000)
	c := p.Track(key, "10.0.0.1", 5000)
	p.Shutdown()
	if !c.EOF() {
		t.Fatalf("expected eof set after Shutdown")
	}
}

func TestHTTPReadTagValue(t *testing.T) {
	p := newTestPlane(t)
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := httpGet(srv.URL + "/api/tags/SCADA/value")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var result commandResult
	if err := json.Unmarshal(resp, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !result.Command.Success {
		t.Fatalf("command not successful: %+v", result.Command)
	}
}

func TestHTTPWriteOptionsDelay(t *testing.T) {
	p := newTestPlane(t)
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	if _, err := httpGet(srv.URL + "/api/options/delay/value/0.75"); err != nil {
		t.Fatalf("GET: %v", err)
	}
	if v := p.Delay.Value(); v != 0.75 {
		t.Fatalf("delay: got %v, want 0.75", v)
	}
}

func TestHTTPInjectTagError(t *testing.T) {
	p := newTestPlane(t)
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	if _, err := httpGet(srv.URL + "/api/tags/SCADA/error/30"); err != nil {
		t.Fatalf("GET: %v", err)
	}
	attr, _ := p.Tags.ByName("SCADA")
	if attr.ErrorCode() != 30 {
		t.Fatalf("error code: got %d, want 30", attr.ErrorCode())
	}
}
