//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package netx

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// ReusePortSupported reports whether Listen sets SO_REUSEPORT.
const ReusePortSupported = true

func reusePortControl(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
