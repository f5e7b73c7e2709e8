//go:build !linux

package logger

import "io"

// IsTerminal reports false on platforms without termios probing.
func IsTerminal(io.Writer) bool { return false }
