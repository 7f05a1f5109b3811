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

package connection

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tapanagupta/port-agent/comm"
	"github.com/tapanagupta/port-agent/packet"
)

func freePort(t *testing.T) uint16 {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())
	return port
}

func TestObservatoryIndependentPortsAndRebind(t *testing.T) {
	o := NewObservatory()
	require.NoError(t, o.SetPorts(freePort(t), freePort(t)))
	require.NoError(t, o.Initialize())
	require.True(t, o.Command.Listening())
	require.True(t, o.Data.Listening())
	require.True(t, o.DataConfigured())
	require.True(t, o.DataInitialized())
	require.False(t, o.DataConnected())
	require.False(t, o.CommandConnected())

	newDataPort := freePort(t)
	require.NoError(t, o.SetPorts(o.commandPort, newDataPort))
	require.True(t, o.Data.Listening())

	require.NoError(t, o.Disconnect())
}

func TestInstrumentTCPComposition(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	i := NewInstrumentTCP()
	require.False(t, i.DataConfigured())
	addr := ln.Addr().(*net.TCPAddr)
	i.SetTarget("127.0.0.1", uint16(addr.Port))
	require.True(t, i.DataConfigured())
	require.NoError(t, i.Initialize())
	require.True(t, i.DataConnected())
	require.False(t, i.CommandConnected())
	require.NoError(t, i.Disconnect())
}

func TestInstrumentBOTPTRequiresBothSockets(t *testing.T) {
	i := NewInstrumentBOTPT()
	require.False(t, i.DataConfigured())
	i.SetTargets("127.0.0.1", 1, 2)
	require.True(t, i.DataConfigured())
	require.False(t, i.DataConnected())
}

func TestInstrumentRSNBufferPumpsCompletedPackets(t *testing.T) {
	dataLn, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer dataLn.Close()
	cmdLn, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer cmdLn.Close()

	frame, err := packet.New(packet.DataFromInstrument, packet.NewTimestamp(1, 0), []byte("hello"))
	require.NoError(t, err)

	go func() {
		conn, err := dataLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(frame.Bytes())
	}()
	go func() {
		conn, err := cmdLn.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	i, err := NewInstrumentRSN()
	require.NoError(t, err)
	i.SetTargets("127.0.0.1",
		uint16(dataLn.Addr().(*net.TCPAddr).Port),
		uint16(cmdLn.Addr().(*net.TCPAddr).Port))
	require.True(t, i.DataConfigured())
	require.NoError(t, i.Initialize())
	require.True(t, i.DataConnected())
	require.True(t, i.CommandConnected())

	scratch := make([]byte, 256)
	var packets []*packet.Packet
	require.Eventually(t, func() bool {
		got, err := i.PumpData(scratch)
		require.NoError(t, err)
		packets = append(packets, got...)
		return len(packets) > 0
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, "hello", string(packets[0].Payload()))
}

func TestInstrumentSerialDirtyFlagsForward(t *testing.T) {
	i := NewInstrumentSerial()
	require.False(t, i.DataConfigured())
	i.ApplySettings(comm.SerialSettings{DevicePath: "/dev/ttyUSB0", Baud: 9600})
	require.True(t, i.DataConfigured())
}
