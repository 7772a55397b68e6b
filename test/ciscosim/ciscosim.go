// Package ciscosim simulates the command line of a Cisco IOS router.
//
// A scenario consists of a preamble, that is sent after connect, and
// of sections "# COMMAND" followed by the output of COMMAND.
// If the same command is given multiple times, the outputs are used in
// order and the last one is repeated.
// Marker "<!>" in output waits for input of user, e.g. a password.
// Preamble ending in "EOF" closes the connection after it was sent.
package ciscosim

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

type Simulator struct {
	device   string
	preamble string
	eof      bool
	cmd2out  map[string][]string
}

var delim = regexp.MustCompile(`(?m)^#[ ]*(.*)[ ]*\n`)

// FromScenario parses scenario text for device.
func FromScenario(device, scenario string) *Simulator {
	parts := delim.Split(scenario, -1)
	matches := delim.FindAllStringSubmatch(scenario, -1)
	preamble := strings.TrimRight(parts[0], "\r\n")
	preamble, eof := strings.CutSuffix(preamble, "EOF")
	cmd2out := make(map[string][]string)
	for i, m := range matches {
		cmd := strings.TrimSpace(m[1])
		cmd2out[cmd] = append(cmd2out[cmd], parts[i+1])
	}
	return &Simulator{
		device:   device,
		preamble: preamble,
		eof:      eof,
		cmd2out:  cmd2out,
	}
}

// ReadScenario reads scenario from file.
func ReadScenario(device, fname string) (*Simulator, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return FromScenario(device, string(data)), nil
}

// Expecter answers commands synchronously from a buffer.
type Expecter struct {
	sim        *Simulator
	buffer     bytes.Buffer
	readIdx    int
	done       bool
	configMode bool
	pending    []string // Segments of output waiting for input.
	sent       []string
}

// Start returns a new session with preamble already sent.
func (s *Simulator) Start() *Expecter {
	e := &Expecter{sim: s}
	if s.preamble != "" {
		e.write(s.preamble, false)
	}
	e.done = s.eof
	return e
}

func (e *Expecter) prompt() string {
	if e.configMode {
		return e.sim.device + "(config)#"
	}
	return e.sim.device + "#"
}

// write converts LF to CRLF and stops at first "<!>".
func (e *Expecter) write(text string, withPrompt bool) {
	text = strings.ReplaceAll(text, "\n", "\r\n")
	parts := strings.Split(text, "<!>")
	e.buffer.WriteString(parts[0])
	if len(parts) > 1 {
		e.pending = parts[1:]
		if withPrompt {
			e.pending[len(e.pending)-1] += e.prompt()
		}
	} else if withPrompt {
		e.buffer.WriteString(e.prompt())
	}
}

func (e *Expecter) Expect(re *regexp.Regexp, timeout time.Duration) (
	string, []string, error) {

	data := e.buffer.String()[e.readIdx:]
	if loc := re.FindStringIndex(data); loc != nil {
		e.readIdx += loc[1]
		return data[:loc[1]], nil, nil
	}
	e.readIdx += len(data)
	if e.done {
		return data, nil, fmt.Errorf("expect: Process not running")
	}
	return data, nil, fmt.Errorf(
		"expect: timer expired after %v seconds", timeout.Seconds())
}

func (e *Expecter) Send(in string) error {
	if e.done {
		return nil
	}
	cmd := strings.TrimRight(in, "\r\n")
	e.buffer.WriteString(cmd + "\r\n")
	if len(e.pending) > 0 {
		e.buffer.WriteString(e.pending[0])
		e.pending = e.pending[1:]
		return nil
	}
	e.sent = append(e.sent, cmd)
	lookup := strings.TrimSpace(cmd)
	switch lookup {
	case "exit":
		e.done = true
		return nil
	case "configure terminal":
		e.configMode = true
	case "end":
		e.configMode = false
	}
	out := ""
	if l := e.sim.cmd2out[lookup]; len(l) > 0 {
		out = l[0]
		if len(l) > 1 {
			e.sim.cmd2out[lookup] = l[1:]
		}
	}
	e.write(out, true)
	return nil
}

func (e *Expecter) Close() error {
	e.done = true
	return nil
}

// Sent returns all commands received after login.
func (e *Expecter) Sent() []string {
	return e.sent
}
