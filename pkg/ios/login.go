package ios

import (
	"regexp"
	"strings"

	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
)

func (s *State) loginEnable(pass string) {
	conn := s.Conn
	out := conn.WaitLogin(`(?i)password:|\(yes/no.*\)\?`)
	if strings.HasSuffix(out, "?") {
		conn.IssueCmd("yes", `(?i)password:`)
	}
	// Look for prompt. Ignore prompt lines with whitespace or multiple
	// hash that may occur in lines of banner.
	waitPrompt := func(enter, suffix string) bool {
		stdPrompt := `\r\n\r?[^#> ]+[>#] ?$`
		out = conn.IssueCmd(enter, `(?i)password:|`+stdPrompt)
		out = strings.TrimSuffix(out, " ")
		return strings.HasSuffix(out, suffix)
	}
	if waitPrompt(pass, ">") {
		// Enter enable mode.
		if !waitPrompt("enable", "#") {
			// Use login password as enable password.
			if !waitPrompt(pass, "#") {
				errlog.Abort("Authentication for enable mode failed")
			}
		}
	} else if !strings.HasSuffix(out, "#") {
		errlog.Abort("Authentication failed")
	}

	// Force new prompt by issuing empty command.
	out = conn.IssueCmd("", `#[ ]?`)
	i := max(strings.LastIndex(out, "\n"), 0)
	// Current prompt: "\nHOSTNAME# "
	p := out[i:]
	// Prompt changes to "HOSTNAME(config)#" in config mode.
	i = strings.LastIndex(p, "#")
	rx := regexp.MustCompile(
		regexp.QuoteMeta(p[:i]) + `\S*` + regexp.QuoteMeta(p[i:]))
	conn.SetStdPrompt(rx)
}
