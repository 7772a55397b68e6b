package mytime

import (
	"os"
	"time"
)

// Now returns the current time or the time given in environment variable
// TEST_TIME, e.g. "2024-Jan-02 15:04:05".
func Now() time.Time {
	if v := os.Getenv("TEST_TIME"); v != "" {
		t, err := time.Parse("2006-Jan-02 15:04:05", v)
		if err != nil {
			panic(err)
		}
		return t
	}
	return time.Now()
}

// Stamp returns Now in a format used in log files.
func Stamp() string {
	return Now().Format("2006-01-02 15:04:05")
}
