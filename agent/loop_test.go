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

package agent

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tapanagupta/port-agent/config"
	"github.com/tapanagupta/port-agent/packet"
	"github.com/tapanagupta/port-agent/publisher"
)

// recordingPublisher accepts every packet type and records payloads,
// standing in for a real connPublisher in tests that only care about
// what the run loop fanned out.
type recordingPublisher struct {
	mu       sync.Mutex
	payloads []string
}

func (r *recordingPublisher) Kind() publisher.Kind     { return publisher.KindTCP }
func (r *recordingPublisher) EndpointKey() string      { return "test-sink" }
func (r *recordingPublisher) Accepts(packet.Type) bool { return true }
func (r *recordingPublisher) WritePacket(p *packet.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, string(p.Payload()))
	return nil
}

func (r *recordingPublisher) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.payloads...)
}

func TestRunFramesInstrumentDataAndShutsDownCleanly(t *testing.T) {
	instLn, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer instLn.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := instLn.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	cfg := baseConfig(t)
	cfg.InstrumentType = config.InstrumentTCP
	cfg.InstrumentAddr = "127.0.0.1"
	cfg.InstrumentDataPort = uint16(instLn.Addr().(*net.TCPAddr).Port)
	cfg.MaxPacketSizeVal = 4

	a := New(cfg)
	fake := &recordingPublisher{}
	a.Publishers.Add(fake)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	conn := <-accepted
	defer conn.Close()

	require.Eventually(t, func() bool {
		return a.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(fake.snapshot()) > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "hell", fake.snapshot()[0])

	a.Shutdown()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
