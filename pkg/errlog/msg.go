package errlog

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/hknutzen/bgp-route-mapper/pkg/mytime"
)

var Quiet bool

var (
	mu        sync.Mutex
	stderrLog io.Writer = os.Stderr
)

func Info(format string, args ...any) {
	if !Quiet {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(stderrLog, format+"\n", args...)
	}
}

func Warning(format string, args ...any) {
	PrintWithMarker("WARNING>>> ", format, args...)
}

// Error shows an error message, but processing continues.
func Error(format string, args ...any) {
	PrintWithMarker("ERROR>>> ", format, args...)
}

// SetStderrLog redirects messages to file fname.
// Messages are written to STDERR if fname is empty.
func SetStderrLog(fname string) {
	mu.Lock()
	stderrLog = os.Stderr
	mu.Unlock()
	if fname != "" {
		MoveLogFile(fname)
		fh, err := CreateWithPath(fname)
		if err != nil {
			Abort("Can't %v", err)
		}
		mu.Lock()
		stderrLog = fh
		mu.Unlock()
	}
}

// PrintWithMarker prefixes each line of message with marker m.
func PrintWithMarker(m string, format string, args ...any) {
	out := fmt.Sprintf(format, args...)
	out = strings.TrimSuffix(out, "\n")
	out = strings.ReplaceAll(out, "\n", "\n"+m)
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(stderrLog, m+out)
}

// Rename existing logfile.
func MoveLogFile(fname string) {
	if _, err := os.Stat(fname); err == nil {
		os.Rename(fname, fmt.Sprintf("%s.%d", fname, mytime.Now().Unix()))
	}
}

func CreateWithPath(fname string) (*os.File, error) {
	return openWithPath(fname, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

// AppendWithPath opens fname for appending; missing directories are
// created.
func AppendWithPath(fname string) (*os.File, error) {
	return openWithPath(fname, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
}

func openWithPath(fname string, flag int) (*os.File, error) {
	dir := path.Dir(fname)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(fname, flag, 0666)
}
