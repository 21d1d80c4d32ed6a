// Package tui renders the live dashboard: a bubbletea program that polls
// the control-plane HTTP endpoint and shows connection and tag state,
// built on the Tokyo Night lipgloss styling in theme.go around a single
// poll/render loop.
package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// snapshot is what one poll of the control plane yields.
type snapshot struct {
	delay       float64
	connections map[string]bool
	tagErrors   map[string]uint64
	err         error
}

type pollMsg snapshot

// Dashboard is the bubbletea model driving `enipsim watch`.
type Dashboard struct {
	baseURL string
	client  *http.Client
	styles  Styles
	width   int
	height  int
	last    snapshot
	ticks   int
	status  string
}

// NewDashboard builds a dashboard polling the control-plane HTTP endpoint
// at baseURL (e.g. "http://127.0.0.1:8787").
func NewDashboard(baseURL string) Dashboard {
	return Dashboard{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Second},
		styles:  NewStyles(DefaultTheme),
	}
}

func (d Dashboard) Init() tea.Cmd {
	return d.poll()
}

func (d Dashboard) poll() tea.Cmd {
	return func() tea.Msg {
		var s snapshot
		s.connections = map[string]bool{}
		s.tagErrors = map[string]uint64{}

		delay, err := d.getFloat("/api/options/delay/value")
		if err != nil {
			return pollMsg(snapshot{err: err})
		}
		s.delay = delay

		conns, err := d.getBoolMap("/api/connections/*/eof")
		if err != nil {
			return pollMsg(snapshot{err: err})
		}
		s.connections = conns

		errs, err := d.getUintMap("/api/tags/*/error")
		if err != nil {
			return pollMsg(snapshot{err: err})
		}
		s.tagErrors = errs

		return pollMsg(s)
	}
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		d.width, d.height = m.Width, m.Height
		return d, nil
	case tea.KeyMsg:
		switch m.String() {
		case "q", "ctrl+c", "esc":
			return d, tea.Quit
		case "c":
			if err := clipboard.WriteAll(d.summaryText()); err != nil {
				d.status = fmt.Sprintf("clipboard error: %v", err)
			} else {
				d.status = "summary copied to clipboard"
			}
		}
		return d, nil
	case pollMsg:
		d.last = snapshot(m)
		d.ticks++
		return d, tea.Tick(time.Second, func(time.Time) tea.Msg { return d.poll()() })
	}
	return d, nil
}

func (d Dashboard) View() string {
	s := d.styles
	var b strings.Builder
	b.WriteString(s.Title.Render("enipsim — live dashboard") + "\n\n")

	if d.last.err != nil {
		b.WriteString(s.Error.Render(fmt.Sprintf("poll error: %v", d.last.err)) + "\n")
		b.WriteString(s.Dim.Render("q to quit") + "\n")
		return b.String()
	}

	b.WriteString(s.Header.Render("delay") + "  " + fmt.Sprintf("%.3fs", d.last.delay) + "\n\n")

	b.WriteString(s.Header.Render(fmt.Sprintf("connections (%d)", len(d.last.connections))) + "\n")
	for _, key := range sortedKeys(d.last.connections) {
		eof := d.last.connections[key]
		status := s.Success.Render("open")
		if eof {
			status = s.Warning.Render("closing")
		}
		b.WriteString(fmt.Sprintf("  %-24s %s\n", key, status))
	}
	b.WriteString("\n")

	b.WriteString(s.Header.Render("tag errors") + "\n")
	any := false
	for _, name := range sortedUintKeys(d.last.tagErrors) {
		code := d.last.tagErrors[name]
		if code == 0 {
			continue
		}
		any = true
		b.WriteString(fmt.Sprintf("  %-24s %s\n", name, s.Error.Render(fmt.Sprintf("0x%02X", code))))
	}
	if !any {
		b.WriteString(s.Dim.Render("  none") + "\n")
	}

	if d.status != "" {
		b.WriteString("\n" + s.Dim.Render(d.status) + "\n")
	}
	b.WriteString("\n" + s.Footer.Render("q to quit  ·  c to copy summary") + "\n")
	return b.String()
}

// summaryText renders a plain-text summary suitable for pasting into a
// chat or ticket, independent of the styled terminal view.
func (d Dashboard) summaryText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "enipsim delay=%.3fs\n", d.last.delay)
	for _, key := range sortedKeys(d.last.connections) {
		fmt.Fprintf(&b, "connection %s eof=%v\n", key, d.last.connections[key])
	}
	for _, name := range sortedUintKeys(d.last.tagErrors) {
		if code := d.last.tagErrors[name]; code != 0 {
			fmt.Fprintf(&b, "tag %s error=0x%02X\n", name, code)
		}
	}
	return b.String()
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUintKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type apiEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Command struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	} `json:"command"`
}

func (d Dashboard) get(path string) (apiEnvelope, error) {
	resp, err := d.client.Get(d.baseURL + path)
	if err != nil {
		return apiEnvelope{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiEnvelope{}, err
	}
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apiEnvelope{}, err
	}
	if !env.Command.Success {
		return apiEnvelope{}, fmt.Errorf("%s: %s", path, env.Command.Message)
	}
	return env, nil
}

func (d Dashboard) getFloat(path string) (float64, error) {
	env, err := d.get(path)
	if err != nil {
		return 0, err
	}
	var v float64
	err = json.Unmarshal(env.Data, &v)
	return v, err
}

func (d Dashboard) getBoolMap(path string) (map[string]bool, error) {
	env, err := d.get(path)
	if err != nil {
		return nil, err
	}
	var v map[string]bool
	err = json.Unmarshal(env.Data, &v)
	return v, err
}

func (d Dashboard) getUintMap(path string) (map[string]uint64, error) {
	env, err := d.get(path)
	if err != nil {
		return nil, err
	}
	var v map[string]uint64
	err = json.Unmarshal(env.Data, &v)
	return v, err
}
