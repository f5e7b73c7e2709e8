//go:build linux

package logger

import (
	"io"

	"golang.org/x/sys/unix"
)

type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether w is backed by a terminal device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}
