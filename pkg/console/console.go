package console

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	expect "github.com/google/goexpect"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
)

// Expecter is the part of *expect.GExpect used here.
type Expecter interface {
	Expect(re *regexp.Regexp, timeout time.Duration) (string, []string, error)
	Send(in string) error
	Close() error
}

// Simulate, if set, is used instead of a ssh connection.
var Simulate func(device string) (Expecter, error)

type Conn struct {
	con          Expecter
	promptRE     *regexp.Regexp
	Timeout      time.Duration
	ShortTimeout time.Duration
	log          *os.File
}

// Spawn connects to device at ip as user.
// Environment variable SIMULATE_ROUTER may name a different command.
func Spawn(device, ip, user string, timeout, loginTimeout int,
	logLogin *os.File) (*Conn, error) {

	short := time.Duration(loginTimeout) * time.Second
	long := time.Duration(timeout) * time.Second
	if Simulate != nil {
		e, err := Simulate(device)
		if err != nil {
			return nil, fmt.Errorf("Can't connect to %s: %v", device, err)
		}
		return NewConn(e, long, short, logLogin), nil
	}
	cmd := []string{"ssh", "-l", user, ip}
	if simul := os.Getenv("SIMULATE_ROUTER"); simul != "" {
		cmd = strings.Fields(simul)
	}
	con, _, err := expect.SpawnWithArgs(cmd, short, expect.PartialMatch(true))
	if err != nil {
		return nil, fmt.Errorf("Can't connect to %s: %v", device, err)
	}
	return NewConn(con, long, short, logLogin), nil
}

func NewConn(e Expecter, timeout, short time.Duration, log *os.File) *Conn {
	return &Conn{
		con:          e,
		log:          log,
		Timeout:      timeout,
		ShortTimeout: short,
	}
}

func (c *Conn) SetLogFH(fh *os.File) {
	c.log = fh
}

func (c *Conn) logString(s string) {
	if fh := c.log; fh != nil {
		fh.Write([]byte(s))
	}
}

func (c *Conn) Close() {
	if c.con != nil {
		c.SetLogFH(nil)
		c.con.Send("exit\n")
		c.con.Close()
		c.con = nil
	}
}

// Wait for prompt.
// Remove all "\r" characters in output for simplicity.
func (c *Conn) expectLog(prompt *regexp.Regexp, t time.Duration) string {
	out, _, err := c.con.Expect(prompt, t)
	out = strings.ReplaceAll(out, "\r\n", "\n")
	c.logString(out)
	if err != nil {
		errlog.Abort("while waiting for prompt '%s': %v", prompt, err)
	}
	return out
}

// WaitLogin waits for first output of device.
func (c *Conn) WaitLogin(re string) string {
	return c.expectLog(regexp.MustCompile(re), c.ShortTimeout)
}

func (c *Conn) Send(cmd string) {
	c.con.Send(cmd + "\n")
}

func (c *Conn) IssueCmd(cmd, re string) string {
	c.Send(cmd)
	return c.expectLog(regexp.MustCompile(re), c.Timeout)
}

func (c *Conn) SendCmd(cmd string) {
	c.Send(cmd)
	c.expectLog(c.promptRE, c.Timeout)
}

func (c *Conn) GetCmdOutput(cmd string) string {
	c.Send(cmd)
	return c.GetOutput(cmd)
}

// GetOutput reads up to next prompt and removes echo of cmd.
func (c *Conn) GetOutput(cmd string) string {
	out := c.expectLog(c.promptRE, c.Timeout)
	out = c.stripStdPrompt(out)
	out = c.stripEcho(cmd, out)
	return out
}

func (c *Conn) SetStdPrompt(p *regexp.Regexp) {
	c.promptRE = p
}

func (c *Conn) stripStdPrompt(s string) string {
	loc := c.promptRE.FindStringIndex(s)
	if loc == nil {
		errlog.Abort("Missing prompt '%s' in response:\n'%v'", c.promptRE, s)
	}
	i := loc[0]
	// Don't remove trailing "\n".
	return s[:i+1]
}

func (c *Conn) stripEcho(cmd, s string) string {
	echo := cmd + "\n"
	if !strings.HasPrefix(s, echo) {
		errlog.Abort("Got unexpected echo in response to '%s':\n%v", cmd, s)
	}
	return s[len(echo):]
}
