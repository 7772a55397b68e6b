package errlog

import "fmt"

type bailout struct{ msg string }

// AbortError is returned by Try. Its message has already been shown.
type AbortError struct{ Msg string }

func (e *AbortError) Error() string { return e.Msg }

// HandleAbort runs f and converts a call of Abort inside f into exit code 1.
func HandleAbort(f func() int) (exitCode int) {
	defer func() {
		if e := recover(); e != nil {
			if _, ok := e.(bailout); !ok {
				panic(e) // Resume same panic if it's not a bailout.
			}
			exitCode = 1
		}
	}()
	return f()
}

// Try runs f and converts a call of Abort inside f into *AbortError.
// Used where a failure must only stop the current device.
func Try(f func() error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			b, ok := e.(bailout)
			if !ok {
				panic(e)
			}
			err = &AbortError{Msg: b.msg}
		}
	}()
	return f()
}

func Abort(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Error("%s", msg)
	panic(bailout{msg: msg})
}
