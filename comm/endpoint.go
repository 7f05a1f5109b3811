/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package comm

import (
	"io"
	"syscall"
	"time"
)

// Endpoint is the contract every comm-layer byte stream satisfies:
// TCP listener, TCP client socket, or serial device.
type Endpoint interface {
	// Connected reports whether there is a live, readable/writable stream.
	Connected() bool
	// Listening reports whether a server FD is waiting for accept_client.
	Listening() bool
	// Configured reports whether enough settings are present to Initialize.
	Configured() bool
	// Initialize binds/dials/opens the endpoint from its current settings.
	Initialize() error
	// Disconnect tears down any live connection without forgetting settings.
	Disconnect() error
	// Read blocks for up to one deadline-bounded read and returns the
	// bytes read. A zero-length, nil-error return means the peer closed
	// the connection; the endpoint has already disconnected itself
	// before returning.
	Read(dst []byte) (int, error)
	// Write loops until every byte in src is pushed or a hard error occurs.
	Write(src []byte) (int, error)
	// Fd returns the underlying file descriptor, or -1 if none is open.
	Fd() int
}

// readDeadline bounds every blocking Read so a dead peer surfaces as a
// timeout instead of hanging the endpoint's goroutine forever.
const readDeadline = 30 * time.Second

// writeAll implements the write-loops-until-exhausted policy shared by
// every stream-backed endpoint.
func writeAll(w io.Writer, src []byte) (int, error) {
	total := 0
	for total < len(src) {
		n, err := w.Write(src[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// connFd extracts the raw file descriptor backing anything that exposes
// a syscall.RawConn (net.TCPConn, net.TCPListener, ...), the same way
// timestamp.ConnFd pulls a UDP socket's FD for low-level control.
func connFd(v interface{}) (int, error) {
	sc, ok := v.(syscall.Conn)
	if !ok {
		return -1, ErrNotConnected
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	if err := raw.Control(func(p uintptr) { fd = int(p) }); err != nil {
		return -1, err
	}
	return fd, nil
}
