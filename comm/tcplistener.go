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
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// bindRetryWindow bounds how long Initialize keeps retrying an
// EADDRINUSE bind before giving up.
const bindRetryWindow = 5 * time.Second

// bindRetryInterval is the pause between bind attempts within the window.
const bindRetryInterval = 100 * time.Millisecond

// TCPListener is the observatory-side endpoint: a rebindable TCP server
// socket that hands its single accepted client the server FD's identity
// and automatically re-listens once that client disconnects.
type TCPListener struct {
	mu sync.Mutex

	port uint16

	ln     *net.TCPListener
	client net.Conn
}

var _ Endpoint = (*TCPListener)(nil)

// NewTCPListener builds a listener bound to no port until Initialize.
func NewTCPListener() *TCPListener {
	return &TCPListener{}
}

// SetPort updates the port to (re)bind on the next Initialize.
func (t *TCPListener) SetPort(port uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.port = port
}

// Configured reports whether a non-zero port has been set.
func (t *TCPListener) Configured() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != 0
}

// Listening reports whether the server FD is waiting for a client.
func (t *TCPListener) Listening() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ln != nil
}

// Connected reports whether a client has been accepted.
func (t *TCPListener) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client != nil
}

// reuseAddrControl sets SO_REUSEADDR on the listening socket before
// bind, mirroring the raw-fd control the teacher applies post-bind via
// unix.SetNonblock in ptp/ptp4u/server/server.go.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var setErr error
	err := c.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return setErr
}

// Initialize binds the server socket. On EADDRINUSE it retries for up
// to bindRetryWindow; any other bind error fails immediately.
func (t *TCPListener) Initialize() error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == 0 {
		return ErrNotConfigured
	}

	lc := net.ListenConfig{Control: reuseAddrControl}
	addr := fmt.Sprintf(":%d", port)

	deadline := time.Now().Add(bindRetryWindow)
	for {
		conn, err := lc.Listen(context.Background(), "tcp", addr)
		if err == nil {
			ln := conn.(*net.TCPListener)
			if fd, ferr := connFd(ln); ferr == nil {
				if serr := unix.SetNonblock(fd, true); serr != nil {
					log.Warnf("comm: failed to set listener %s non-blocking: %v", addr, serr)
				}
			}
			t.mu.Lock()
			t.ln = ln
			t.client = nil
			t.mu.Unlock()
			log.Infof("comm: listening on %s", addr)
			return nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) || time.Now().After(deadline) {
			return fmt.Errorf("comm: bind %s: %w", addr, err)
		}
		time.Sleep(bindRetryInterval)
	}
}

// AcceptClient accepts the single client this listener will ever hold
// at once. On success the listener closes its own server FD so no
// second client can ever connect on the same port.
func (t *TCPListener) AcceptClient() error {
	t.mu.Lock()
	ln := t.ln
	t.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}

	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	if fd, ferr := connFd(conn); ferr == nil {
		if serr := unix.SetNonblock(fd, true); serr != nil {
			log.Warnf("comm: failed to set client non-blocking: %v", serr)
		}
	}

	t.mu.Lock()
	t.client = conn
	t.ln.Close()
	t.ln = nil
	t.mu.Unlock()
	return nil
}

// Disconnect closes the accepted client, if any, without forgetting
// the configured port.
func (t *TCPListener) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var err error
	if t.client != nil {
		err = t.client.Close()
		t.client = nil
	}
	if t.ln != nil {
		if cerr := t.ln.Close(); err == nil {
			err = cerr
		}
		t.ln = nil
	}
	return err
}

// Read reads from the accepted client. A zero-byte, nil-error return
// means the peer closed the stream; per the listener-to-client
// hand-off contract this re-initializes the listener to resume
// accepting.
func (t *TCPListener) Read(dst []byte) (int, error) {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return 0, ErrNotConnected
	}

	client.SetReadDeadline(time.Now().Add(readDeadline))
	n, err := client.Read(dst)
	if err != nil && (errors.Is(err, io.EOF) || isTimeout(err)) {
		t.Disconnect()
		if ierr := t.Initialize(); ierr != nil {
			log.Errorf("comm: re-initialize after client disconnect: %v", ierr)
		}
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}
	return n, err
}

// Write pushes src to the accepted client, looping until exhausted.
func (t *TCPListener) Write(src []byte) (int, error) {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return 0, ErrNotConnected
	}
	return writeAll(client, src)
}

// Fd returns the client FD if connected, else the listener FD, else -1.
func (t *TCPListener) Fd() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		fd, err := connFd(t.client)
		if err == nil {
			return fd
		}
	}
	if t.ln != nil {
		fd, err := connFd(t.ln)
		if err == nil {
			return fd
		}
	}
	return -1
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
