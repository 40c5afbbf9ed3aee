//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package netx

import "syscall"

// ReusePortSupported reports whether Listen sets SO_REUSEPORT.
const ReusePortSupported = false

// reusePortControl is nil; run a single worker on these platforms.
var reusePortControl func(network, address string, c syscall.RawConn) error
