// SPDX-FileCopyrightText: 2026 The vmtest Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// StatusChannel is the host side of the exit-status protocol: a unix socket
// listener that QEMU connects the guest's virtserialport to.
//
// Exactly one connection is accepted per run. The guest writes one short
// terminated message and closes; there is no acknowledgment and no retry
// channel, the VM is destroyed right after reporting.
type StatusChannel struct {
	listener *net.UnixListener
	path     string
}

// ListenStatus binds a listening status channel to the given filesystem path.
//
// It must be called before the hypervisor starts so the guest cannot connect
// before the host is ready.
func ListenStatus(path string) (*StatusChannel, error) {
	addr := &net.UnixAddr{Name: path, Net: "unix"}

	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on status channel: %w", err)
	}

	return &StatusChannel{
		listener: listener,
		path:     path,
	}, nil
}

// Path returns the filesystem path the channel is bound to.
func (c *StatusChannel) Path() string {
	return c.path
}

// Receive waits for the single guest connection and returns the reported
// exit code.
//
// The accept is bounded by the given timeout; exceeding it is a [LostVMError]
// with [ErrConnectTimeout]. The subsequent read is unbounded and collects
// bytes until the peer closes. A connection reset counts as a close: what was
// received so far is evaluated instead of raising a transport error.
func (c *StatusChannel) Receive(timeout time.Duration) (int, error) {
	err := c.listener.SetDeadline(time.Now().Add(timeout))
	if err != nil {
		return 0, fmt.Errorf("set accept deadline: %w", err)
	}

	conn, err := c.listener.Accept()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, &LostVMError{
				Err: fmt.Errorf("%w (%s)", ErrConnectTimeout, timeout),
			}
		}

		return 0, fmt.Errorf("accept on status channel: %w", err)
	}
	defer conn.Close()

	return ParseStatus(collect(conn))
}

// Close stops listening and removes the socket path.
func (c *StatusChannel) Close() error {
	return c.listener.Close()
}

// collect reads until the peer closes the connection. Read errors end the
// collection like a clean close; validation of the buffer decides the
// outcome.
func collect(conn net.Conn) []byte {
	var buf bytes.Buffer

	chunk := make([]byte, 64)

	for {
		n, err := conn.Read(chunk)
		buf.Write(chunk[:n])

		if err != nil {
			return buf.Bytes()
		}
	}
}
