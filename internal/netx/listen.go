// Package netx opens the TCP listeners workers share.
package netx

import (
	"context"
	"net"
)

// Listen binds addr with SO_REUSEPORT where the platform supports it, so
// several worker processes can accept on the same port and the kernel
// balances connections between them.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reusePortControl}
	return lc.Listen(ctx, "tcp", addr)
}
