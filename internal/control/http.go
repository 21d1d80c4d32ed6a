package control

import (
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cipdip/enipsim/internal/cip"
)

// commandResult is the JSON envelope returned by every control-plane
// inspection endpoint: {data, command:{success, message}, alarm, since,
// until}.
type commandResult struct {
	Data    any        `json:"data"`
	Command cmdOutcome `json:"command"`
	Alarm   bool       `json:"alarm"`
	Since   string     `json:"since,omitempty"`
	Until   string     `json:"until,omitempty"`
}

type cmdOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handler returns an http.Handler serving
// GET /api/<group>/<match>/<command>/<value> against the plane's three
// maps. value is optional: when absent the request is a read, not a
// write.
func (p *Plane) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", p.handleAPI)
	return mux
}

func (p *Plane) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(path.Clean(r.URL.Path), "/api/")
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) < 3 {
		writeJSON(w, commandResult{Command: cmdOutcome{Success: false, Message: "path must be /api/<group>/<match>/<command>[/<value>]"}})
		return
	}
	group, match, command := parts[0], parts[1], parts[2]
	var value string
	hasValue := len(parts) == 4
	if hasValue {
		value = parts[3]
	}

	switch group {
	case "options":
		writeJSON(w, p.handleOptions(match, command, value, hasValue))
	case "connections":
		writeJSON(w, p.handleConnections(match, command, value, hasValue))
	case "tags":
		writeJSON(w, p.handleTags(match, command, value, hasValue))
	default:
		writeJSON(w, commandResult{Command: cmdOutcome{Success: false, Message: "unknown group " + group}})
	}
}

func (p *Plane) handleOptions(match, command, value string, hasValue bool) commandResult {
	if !globMatch(match, "delay") || command != "value" && command != "range" {
		return commandResult{Command: cmdOutcome{Success: false, Message: "unknown options command"}}
	}
	if !hasValue {
		return commandResult{Data: p.Delay.Value(), Command: cmdOutcome{Success: true}}
	}
	var err error
	if command == "range" {
		err = p.Delay.ParseSpec(value)
	} else {
		var f float64
		f, err = strconv.ParseFloat(value, 64)
		if err == nil {
			p.Delay.Set(f)
		}
	}
	if err != nil {
		return commandResult{Command: cmdOutcome{Success: false, Message: err.Error()}}
	}
	return commandResult{Data: p.Delay.Value(), Command: cmdOutcome{Success: true}}
}

func (p *Plane) handleConnections(match, command, value string, hasValue bool) commandResult {
	if command != "eof" {
		return commandResult{Command: cmdOutcome{Success: false, Message: "unknown connections command"}}
	}
	data := map[string]bool{}
	for key, conn := range p.Connections() {
		if !globMatch(match, key) {
			continue
		}
		if hasValue {
			conn.SetEOF(value == "true" || value == "1")
		}
		data[key] = conn.EOF()
	}
	return commandResult{Data: data, Command: cmdOutcome{Success: true}}
}

func (p *Plane) handleTags(match, command, value string, hasValue bool) commandResult {
	data := map[string]any{}
	for _, attr := range p.Tags.All() {
		if !globMatch(match, attr.Name) {
			continue
		}
		switch command {
		case "error":
			if hasValue {
				code, err := strconv.ParseUint(value, 0, 8)
				if err != nil {
					return commandResult{Command: cmdOutcome{Success: false, Message: err.Error()}}
				}
				attr.SetErrorCode(byte(code))
			}
			data[attr.Name] = attr.ErrorCode()
		case "value":
			vals, status := attr.Read(0, attr.Len())
			if status != cip.StatusSuccess {
				continue
			}
			data[attr.Name] = vals
		case "events":
			events := attr.Events()
			msgs := make([]string, len(events))
			for i, e := range events {
				msgs[i] = e.Time.Format(time.RFC3339) + " " + e.Message
			}
			data[attr.Name] = msgs
		default:
			return commandResult{Command: cmdOutcome{Success: false, Message: "unknown tags command " + command}}
		}
	}
	return commandResult{Data: data, Command: cmdOutcome{Success: true}}
}

func writeJSON(w http.ResponseWriter, v commandResult) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// globMatch implements the glob the "match" URL segment needs, using
// path.Match: '*' matches any run of characters, '?' matches one, and
// '[...]' matches a character class; everything else is literal.
func globMatch(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
