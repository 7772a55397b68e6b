package capture

import (
	"fmt"
	"io"
	"os"
)

// Capture redirects *fh to a pipe while f runs and returns
// everything written.
func Capture(fh **os.File, f func()) string {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}
	old := *fh
	*fh = w
	done := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()
	defer func() {
		*fh = old
	}()
	f()
	w.Close()
	return <-done
}

// CatchPanic runs f and converts an unexpected panic into
// exit status 2 with message on STDERR.
func CatchPanic(f func() int) (status int) {
	defer func() {
		if e := recover(); e != nil {
			fmt.Fprintln(os.Stderr, "panic:", e)
			status = 2
		}
	}()
	return f()
}
