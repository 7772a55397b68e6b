package cisco

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
)

type cmdType struct {
	prefix   string   // e.g. "ip as-path access-list"
	template []string // e.g. ["$SEQ", "permit", "*"]
	ignore   bool     // Matching command is ignored.
	// Subcommands of matching subcommand are added to toplevel command.
	flatten bool
	sub     []*cmdType
}

type cmd struct {
	typ  *cmdType
	orig string   // e.g. "route-map abc permit 10"
	name string   // Value of $NAME, e.g. "abc"
	seq  int      // Value of $SEQ,  e.g. 10
	args []string // Values of $ARG and *
	sub  []*cmd
}

type Parser struct {
	cmdDescr  []*cmdType
	prefixMap map[string]*cmdLookup
}

// NewParser compiles a description of commands in the format of cmdInfo.
func NewParser(info string) *Parser {
	p := &Parser{}
	p.setupCmdDescr(info)
	p.setupLookup()
	return p
}

var defaultParser = NewParser(cmdInfo)

// Parse reads the output of "show running-config" or of some of its
// sections and extracts BGP neighbors, route-maps and as-path
// access-lists.
func Parse(data []byte, hostname string) (*bgp.Snapshot, error) {
	l, err := defaultParser.parseCmds(data)
	if err != nil {
		return nil, err
	}
	s := toSnapshot(l)
	s.Hostname = hostname
	return s, nil
}

// parseCmds returns toplevel commands in order of input.
func (p *Parser) parseCmds(data []byte) ([]*cmd, error) {
	var result []*cmd
	// Remember previous toplevel command where subcommands are added.
	var prev *cmd
	// Allow uncommon indentation only at first subcommand.
	isFirstSubCmd := false
	// Indentation count of subcommand.
	indent := 1
	// Previous subcommand has subcommands, that are added to prev.
	flatten := false
	for len(data) > 0 {
		first, rest, _ := bytes.Cut(data, []byte("\n"))
		data = rest
		line := string(first)
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" || line[0] == '!' {
			continue
		}
		if line[0] != ' ' {
			// Handle toplevel command.
			c := p.lookupCmd(line)
			prev = c // Set to next command or nil.
			isFirstSubCmd = true
			flatten = false
			if c != nil {
				result = append(result, c)
			}
		} else if prev != nil {
			// Handle sub command of non ignored command.
			getIndent := func() int {
				return strings.IndexFunc(line, func(c rune) bool { return c != ' ' })
			}
			if isFirstSubCmd {
				// Allow higher indentation at first subcommand.
				// This applies to following subcommands as well.
				isFirstSubCmd = false
				indent = getIndent()
			} else if getIndent() < indent {
				return nil,
					fmt.Errorf("Bad indentation in subcommands of '%s':\n>>%s<<",
						prev.orig, line)
			}
			line = line[indent:]
			if line[0] == ' ' {
				// Ignore sub-sub command,
				// if not located below address-family.
				if !flatten {
					continue
				}
			} else {
				flatten = false
			}
			// Get arguments.  Use strings.Fields, not strings.Split to
			// remove extra indentation between arguments.
			words := strings.Fields(line)
			if c := matchCmd("", words, prev.typ.sub); c != nil {
				if c.typ.flatten {
					flatten = true
				} else {
					prev.sub = append(prev.sub, c)
				}
			}
		}
	}
	return result, nil
}

// Initialize cmdDescr from lines in info.
func (p *Parser) setupCmdDescr(info string) {
	toParse := info
	for toParse != "" {
		store := &p.cmdDescr
		line, rest, _ := strings.Cut(toParse, "\n")
		toParse = rest
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		isSubCmd := false
		if line[0] == ' ' {
			line = line[1:]
			if len(*store) == 0 {
				panic(fmt.Errorf("first line of cmdInfo must not be indented"))
			}
			if line[0] == ' ' {
				panic(fmt.Errorf(
					"only indentation with one space supported in cmdInfo"))
			}
			prev := (*store)[len(*store)-1]
			store = &prev.sub
			isSubCmd = true
		}
		descr := &cmdType{}
		switch line[0] {
		case '#':
			continue
		case '!':
			descr.ignore = true
			line = line[1:]
		case '+':
			if !isSubCmd {
				panic(fmt.Errorf("'+' is only valid at subcommand in cmdInfo"))
			}
			descr.flatten = true
			line = line[1:]
		}
		if line == "" {
			panic(fmt.Errorf("invalid line with only marker in cmdInfo"))
		}
		parts := strings.Fields(line)
		if !isSubCmd {
			descr.prefix = strings.ReplaceAll(parts[0], "_", " ")
			parts = parts[1:]
		}
		for i, val := range parts {
			if val == "*" && i != len(parts)-1 {
				panic(fmt.Errorf("* must only be used at end of line in cmdInfo"))
			}
			if val == "$NAME" && isSubCmd {
				panic(fmt.Errorf("$NAME must not be used in subcommand of cmdInfo"))
			}
		}
		descr.template = parts
		*store = append(*store, descr)
	}
}

type cmdLookup struct {
	prefixMap map[string]*cmdLookup
	descrList []*cmdType
}

// Fill prefixMap with commands from cmdDescr.
func (p *Parser) setupLookup() {
	p.prefixMap = make(map[string]*cmdLookup)
	for _, descr := range p.cmdDescr {
		words := strings.Split(descr.prefix, " ")
		m := p.prefixMap
		for {
			w1 := words[0]
			words = words[1:]
			cl := m[w1]
			if cl == nil {
				cl = &cmdLookup{}
				m[w1] = cl
			}
			if len(words) == 0 {
				if cl.prefixMap != nil {
					panic(fmt.Errorf("inconsistent prefix in cmdInfo: %s", descr.prefix))
				}
				cl.descrList = append(cl.descrList, descr)
				break
			}
			if cl.descrList != nil {
				panic(fmt.Errorf("inconsistent prefix in cmdInfo: %s", descr.prefix))
			}
			if cl.prefixMap == nil {
				cl.prefixMap = make(map[string]*cmdLookup)
			}
			m = cl.prefixMap
		}
	}
}

func (p *Parser) lookupCmd(line string) *cmd {
	words := strings.Fields(line)
	m := p.prefixMap
	for i, w1 := range words {
		cl := m[w1]
		if cl == nil {
			return nil
		}
		if l := cl.descrList; l != nil {
			prefix := strings.Join(words[:i+1], " ")
			args := words[i+1:]
			return matchCmd(prefix, args, l)
		}
		m = cl.prefixMap
	}
	return nil
}

func matchCmd(prefix string, words []string, l []*cmdType) *cmd {
DESCR:
	for _, descr := range l {
		args := words
		var name string
		var seq int
		var values []string
	TEMPLATE:
		for _, token := range descr.template {
			if len(args) == 0 {
				continue DESCR
			}
			w := args[0]
			switch token {
			case "$NAME":
				name = w
			case "$SEQ":
				num, err := strconv.ParseUint(w, 10, 31)
				if err != nil {
					continue DESCR
				}
				seq = int(num)
			case "$ARG":
				values = append(values, w)
			case "*":
				values = append(values, strings.Join(args, " "))
				args = nil
				break TEMPLATE
			default:
				if token != w {
					continue DESCR
				}
			}
			args = args[1:]
		}
		if len(args) > 0 {
			continue
		}
		if descr.ignore {
			return nil
		}
		if prefix != "" {
			words = append([]string{prefix}, words...)
		}
		return &cmd{
			typ:  descr,
			orig: strings.Join(words, " "),
			name: name,
			seq:  seq,
			args: values,
		}
	}
	return nil
}
