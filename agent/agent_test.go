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
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tapanagupta/port-agent/config"
	"github.com/tapanagupta/port-agent/connection"
	"github.com/tapanagupta/port-agent/packet"
	"github.com/tapanagupta/port-agent/publisher"
)

func freePort(t *testing.T) uint16 {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())
	return port
}

func baseConfig(t *testing.T) *config.PortAgentConfig {
	cfg := config.New()
	cfg.ObservatoryCommandPort = freePort(t)
	cfg.ObservatoryDataPort = freePort(t)
	return cfg
}

func TestApplyCommConfigWiresEachInstrumentType(t *testing.T) {
	t.Run("tcp", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.InstrumentType = config.InstrumentTCP
		cfg.InstrumentAddr = "127.0.0.1"
		cfg.InstrumentDataPort = freePort(t)

		a := New(cfg)
		require.NoError(t, a.applyCommConfig())
		inst, rsn, reader := a.currentInstrument()
		require.NotNil(t, inst)
		require.Nil(t, rsn)
		require.NotNil(t, reader)
		require.Equal(t, StateConfigured, a.State())
	})

	t.Run("rsn", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.InstrumentType = config.InstrumentRSN
		cfg.InstrumentAddr = "127.0.0.1"
		cfg.InstrumentDataPort = freePort(t)
		cfg.InstrumentCommandPort = freePort(t)

		a := New(cfg)
		require.NoError(t, a.applyCommConfig())
		inst, rsn, reader := a.currentInstrument()
		require.NotNil(t, inst)
		require.NotNil(t, rsn)
		require.Nil(t, reader)
	})

	t.Run("botpt", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.InstrumentType = config.InstrumentBOTPT
		cfg.InstrumentAddr = "127.0.0.1"
		cfg.InstrumentDataTxPort = freePort(t)
		cfg.InstrumentDataRxPort = freePort(t)

		a := New(cfg)
		require.NoError(t, a.applyCommConfig())
		inst, rsn, reader := a.currentInstrument()
		require.NotNil(t, inst)
		require.Nil(t, rsn)
		require.NotNil(t, reader)
		if _, ok := inst.(*connection.InstrumentBOTPT); !ok {
			t.Fatalf("expected *connection.InstrumentBOTPT, got %T", inst)
		}
	})

	t.Run("serial", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.InstrumentType = config.InstrumentSerial
		cfg.DevicePath = "/dev/ttyUSB0"
		cfg.Baud = 9600

		a := New(cfg)
		require.NoError(t, a.applyCommConfig())
		inst, rsn, reader := a.currentInstrument()
		require.NotNil(t, inst)
		require.Nil(t, rsn)
		require.NotNil(t, reader)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.InstrumentType = config.InstrumentUnknown

		a := New(cfg)
		err := a.applyCommConfig()
		require.ErrorIs(t, err, ErrUnknownInstrumentType)
	})
}

func TestApplyCommConfigWiresInstrumentAndDriverPublishers(t *testing.T) {
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

	a := New(cfg)
	require.NoError(t, a.applyCommConfig())

	inst, _, _ := a.currentInstrument()
	require.NoError(t, inst.Initialize())
	defer inst.Disconnect()

	instConn := <-accepted
	defer instConn.Close()

	var foundInstrumentData, foundDriverCommand bool
	for _, p := range a.Publishers.Publishers() {
		switch p.Kind() {
		case publisher.KindInstrumentData:
			foundInstrumentData = true
		case publisher.KindDriverCommand:
			foundDriverCommand = true
		}
	}
	require.True(t, foundInstrumentData, "expected an InstrumentData publisher wired from the live instrument writer")
	require.True(t, foundDriverCommand, "expected a DriverCommand publisher wired from the observatory command listener")

	p, err := packet.New(packet.DataFromDriver, packet.Now(), []byte("rebond\n"))
	require.NoError(t, err)
	require.NoError(t, a.Publishers.Publish(p))

	instConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(instConn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "rebond\n", line)
}

func TestApplyPublisherConfigWiresDataLogPublisher(t *testing.T) {
	cfg := baseConfig(t)
	a := New(cfg)

	require.NoError(t, a.applyPublisherConfig())
	found := false
	for _, p := range a.Publishers.Publishers() {
		if p.Kind() == publisher.KindFile {
			found = true
		}
	}
	require.True(t, found, "expected a File publisher wired from DataDir/InstanceID")

	cfg.RotationInterval = config.RotationDaily
	require.NoError(t, a.applyPublisherConfig())
	require.Equal(t, 1, countKind(a, publisher.KindFile))
}

func countKind(a *PortAgent, k publisher.Kind) int {
	n := 0
	for _, p := range a.Publishers.Publishers() {
		if p.Kind() == k {
			n++
		}
	}
	return n
}

func TestSetStateRecordsMetricsAndSkipsNoop(t *testing.T) {
	a := New(baseConfig(t))
	a.setState(StateStartup)
	require.Equal(t, float64(0), a.Metrics.StateTransitionCount("STARTUP", "UNCONFIGURED"))

	a.setState(StateUnconfigured)
	require.Equal(t, float64(1), a.Metrics.StateTransitionCount("STARTUP", "UNCONFIGURED"))
	require.Equal(t, StateUnconfigured, a.State())
}

func TestApplyPublisherConfigRebuildsFramerAndTelnetSniffer(t *testing.T) {
	cfg := baseConfig(t)
	a := New(cfg)

	require.NoError(t, a.applyPublisherConfig())
	require.NotNil(t, a.currentFramer())
	require.Nil(t, a.telnetSniffer)

	cfg.TelnetSnifferPort = freePort(t)
	require.NoError(t, a.applyPublisherConfig())
	require.NotNil(t, a.telnetSniffer)
	require.True(t, a.telnetSniffer.Listening())

	cfg.TelnetSnifferPort = 0
	require.NoError(t, a.applyPublisherConfig())
	require.Nil(t, a.telnetSniffer)
}
