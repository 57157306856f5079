package utils

import (
	"time"
)

// LoadLocation returns the named location, falling back to UTC when it is unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UnixNow returns the current time in epoch seconds.
func UnixNow() int64 {
	return time.Now().Unix()
}
