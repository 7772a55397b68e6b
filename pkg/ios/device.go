package ios

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/cisco"
	"github.com/hknutzen/bgp-route-mapper/pkg/console"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"github.com/hknutzen/bgp-route-mapper/pkg/program"
)

// Sections of running config needed to compute changes.
var sections = []string{
	"show running-config | section router bgp",
	"show running-config | section route-map",
	"show running-config | section ip as-path",
}

type State struct {
	Conn *console.Conn
}

// LoadDevice connects to device name at ip and reads its BGP state.
func (s *State) LoadDevice(
	name, ip string, cfg *program.Config, logLogin, logConfig *os.File,
) (*bgp.Snapshot, error) {

	user, pass, err := cfg.GetUserPass(name)
	if err != nil {
		return nil, err
	}
	s.Conn, err = console.Spawn(
		name, ip, user, cfg.Timeout, cfg.LoginTimeout, logLogin)
	if err != nil {
		return nil, err
	}
	s.loginEnable(pass)
	s.setTerminal()
	s.checkDeviceName(name)

	s.Conn.SetLogFH(logConfig)
	errlog.Info("%s: Requesting device config", name)
	var b strings.Builder
	for _, cmd := range sections {
		b.WriteString(s.Conn.GetCmdOutput(cmd))
	}
	snap, err := cisco.Parse([]byte(b.String()), name)
	if err != nil {
		return nil, fmt.Errorf("While reading device: %v", err)
	}
	return snap, nil
}

func (s *State) setTerminal() {
	s.Conn.SendCmd("terminal length 0")
	s.Conn.SendCmd("terminal width 512")
}

func (s *State) checkDeviceName(name string) {
	// Force new prompt by issuing empty command.
	// Output is: \r\n\s*NAME#\s?
	out := strings.TrimSpace(s.Conn.IssueCmd("", `#[ ]?`))
	out = strings.TrimSuffix(out, "#")
	if name != out {
		errlog.Abort("Wrong device name: %q, expected: %q", out, name)
	}
}

// ApplyCommands enters configuration mode, sends lines one by one and
// saves the configuration.
func (s *State) ApplyCommands(lines []string, logFh *os.File) error {
	s.Conn.SetLogFH(logFh)
	func() {
		s.Conn.SendCmd("configure terminal")
		defer s.Conn.SendCmd("end")
		for _, l := range lines {
			s.cmd(l)
		}
	}()
	s.writeMem()
	return nil
}

// Output of "write mem":
// 1.
// Building configuration...
// Compressed configuration from 22772 bytes to 7054 bytes[OK]
// 2.
// Building configuration...
// [OK]
// 3.
// Warning: Attempting to overwrite an NVRAM configuration previously written
// by a different version of the system image.
// Overwrite the previous NVRAM configuration?[confirm]
// Building configuration...
// Compressed configuration from 10194 bytes to 5372 bytes[OK]
// 4.
// startup-config file open failed (Device or resource busy)
// In this case we retry the command up to three times.

var retryDelay = 3 * time.Second

func (s *State) writeMem() {
	retries := 2
	for {
		out := s.Conn.IssueCmd("write memory", `#[ ]?|\[confirm\]`)
		if strings.Contains(out, "Overwrite the previous NVRAM configuration") {
			out = s.Conn.GetCmdOutput("")
		}
		if strings.Contains(out, "[OK]") {
			return
		}
		if strings.Contains(out, "startup-config file open failed") {
			if retries > 0 {
				retries--
				time.Sleep(retryDelay)
				continue
			}
			errlog.Abort("write mem: startup-config open failed - giving up")
		}
		errlog.Abort("write mem: unexpected result: %s", out)
	}
}

// Send command to device. No output expected.
func (s *State) cmd(c string) {
	s.Conn.Send(c)
	out := s.Conn.GetOutput(c)
	if out != "" && !isValidOutput(c, out) {
		errlog.Abort("Got unexpected output from '%s':\n%s", c, out)
	}
}

func isValidOutput(cmd, out string) bool {
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "INFO:") {
			continue
		}
		if strings.HasPrefix(line, "WARNING:") || strings.HasPrefix(line, "%") &&
			strings.Contains(line, "Warning") {
			errlog.Warning("Got unexpected output from '%s':\n%s", cmd, line)
			continue
		}
		return false
	}
	return true
}

func (s *State) CloseConnection() {
	if c := s.Conn; c != nil {
		c.Close()
	}
}
