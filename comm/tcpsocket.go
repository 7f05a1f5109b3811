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
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// dialTimeout bounds how long Initialize waits for the instrument to
// accept a connection before treating it as unreachable.
const dialTimeout = 5 * time.Second

// TCPSocket is a connected TCP client, the instrument-side endpoint for
// Instrument TCP/RSN/BOTPT connections.
type TCPSocket struct {
	mu sync.Mutex

	host string
	port uint16

	conn net.Conn
}

var _ Endpoint = (*TCPSocket)(nil)

// NewTCPSocket builds a socket with no target address until SetTarget.
func NewTCPSocket() *TCPSocket {
	return &TCPSocket{}
}

// SetTarget updates the (host, port) dialed on the next Initialize.
func (s *TCPSocket) SetTarget(host string, port uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.host = host
	s.port = port
}

// Configured reports whether both a host and port have been set.
func (s *TCPSocket) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host != "" && s.port != 0
}

// Listening is always false: a client socket never accepts.
func (s *TCPSocket) Listening() bool { return false }

// Connected reports whether a live connection is held.
func (s *TCPSocket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Initialize dials the configured (host, port). A failed dial leaves
// the socket disconnected so the caller's reconnect loop can retry.
func (s *TCPSocket) Initialize() error {
	s.mu.Lock()
	host, port := s.host, s.port
	s.mu.Unlock()
	if host == "" || port == 0 {
		return ErrNotConfigured
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("comm: dial %s: %w", addr, err)
	}
	if fd, ferr := connFd(conn); ferr == nil {
		if serr := unix.SetNonblock(fd, true); serr != nil {
			log.Warnf("comm: failed to set %s non-blocking: %v", addr, serr)
		}
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	log.Infof("comm: connected to %s", addr)
	return nil
}

// Disconnect closes the live connection, if any.
func (s *TCPSocket) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Read reads from the instrument connection. Per the comm read policy,
// a zero-byte or ETIMEDOUT read disconnects the socket so the caller's
// state machine can drive a reconnect from DISCONNECTED.
func (s *TCPSocket) Read(dst []byte) (int, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return 0, ErrNotConnected
	}

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	n, err := conn.Read(dst)
	if err != nil && (errors.Is(err, io.EOF) || isTimeout(err)) {
		s.Disconnect()
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}
	return n, err
}

// Write pushes src to the instrument connection, looping until exhausted.
func (s *TCPSocket) Write(src []byte) (int, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return 0, ErrNotConnected
	}
	return writeAll(conn, src)
}

// Fd returns the connection FD, or -1 if not connected.
func (s *TCPSocket) Fd() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return -1
	}
	fd, err := connFd(s.conn)
	if err != nil {
		return -1
	}
	return fd
}
