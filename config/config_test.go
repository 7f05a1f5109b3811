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

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsConfiguredByInstrumentType(t *testing.T) {
	cases := []struct {
		name string
		cfg  func() *PortAgentConfig
		want bool
	}{
		{"nothing set", func() *PortAgentConfig { return New() }, false},
		{"ports only, no instrument type", func() *PortAgentConfig {
			c := New()
			c.ObservatoryCommandPort = 4000
			c.ObservatoryDataPort = 4001
			return c
		}, false},
		{"tcp complete", func() *PortAgentConfig {
			c := New()
			c.ObservatoryCommandPort = 4000
			c.ObservatoryDataPort = 4001
			c.InstrumentType = InstrumentTCP
			c.InstrumentAddr = "10.0.0.1"
			c.InstrumentDataPort = 5000
			return c
		}, true},
		{"rsn missing command port", func() *PortAgentConfig {
			c := New()
			c.ObservatoryCommandPort = 4000
			c.ObservatoryDataPort = 4001
			c.InstrumentType = InstrumentRSN
			c.InstrumentAddr = "10.0.0.1"
			c.InstrumentDataPort = 5000
			return c
		}, false},
		{"serial complete", func() *PortAgentConfig {
			c := New()
			c.ObservatoryCommandPort = 4000
			c.ObservatoryDataPort = 4001
			c.InstrumentType = InstrumentSerial
			c.DevicePath = "/dev/ttyS0"
			c.Baud = 9600
			return c
		}, true},
		{"botpt missing rx", func() *PortAgentConfig {
			c := New()
			c.ObservatoryCommandPort = 4000
			c.ObservatoryDataPort = 4001
			c.InstrumentType = InstrumentBOTPT
			c.InstrumentAddr = "10.0.0.1"
			c.InstrumentDataTxPort = 6000
			return c
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.cfg().IsConfigured())
		})
	}
}

func TestSetPortRejectsOutOfRange(t *testing.T) {
	c := New()
	require.Error(t, c.SetObservatoryCommandPort("0"))
	require.Error(t, c.SetObservatoryCommandPort("70000"))
	require.Error(t, c.SetObservatoryCommandPort("notanumber"))
	require.NoError(t, c.SetObservatoryCommandPort("4000"))
	require.EqualValues(t, 4000, c.ObservatoryCommandPort)
}

func TestSetBaudEnumeration(t *testing.T) {
	c := New()
	require.Error(t, c.SetBaud("300"))
	require.EqualValues(t, 0, c.Baud)
	require.NoError(t, c.SetBaud("9600"))
	require.EqualValues(t, 9600, c.Baud)
	require.True(t, c.SerialSettingsChanged)
}

func TestSetStopbitsDatabitsParityFlow(t *testing.T) {
	c := New()
	require.Error(t, c.SetStopbits("3"))
	require.NoError(t, c.SetStopbits("2"))
	require.EqualValues(t, 2, c.Stopbits)

	require.Error(t, c.SetDatabits("9"))
	require.NoError(t, c.SetDatabits("7"))
	require.EqualValues(t, 7, c.Databits)

	require.Error(t, c.SetParity("3"))
	require.NoError(t, c.SetParity("1"))
	require.EqualValues(t, 1, c.Parity)

	require.Error(t, c.SetFlow("9"))
	require.NoError(t, c.SetFlow("2"))
	require.EqualValues(t, 2, c.Flow)
}

func TestSetMaxPacketSizeRange(t *testing.T) {
	c := New()
	require.Error(t, c.SetMaxPacketSize("0"))
	require.EqualValues(t, DefaultPacketSize, c.MaxPacketSizeVal)
	require.Error(t, c.SetMaxPacketSize("70000"))
	require.NoError(t, c.SetMaxPacketSize("2048"))
	require.EqualValues(t, 2048, c.MaxPacketSizeVal)
}

func TestSetSentinelSequenceEscapes(t *testing.T) {
	c := New()
	require.NoError(t, c.SetSentinelSequence(`sentinel 'ab\n\rcd'`))
	require.Equal(t, "ab\n\rcd", c.SentinelSequence)

	require.Error(t, c.SetSentinelSequence("sentinel noquotes"))
}

func TestSetLogLevelAcceptsWarnAlias(t *testing.T) {
	c := New()
	require.NoError(t, c.SetLogLevel("WARN"))
	require.Equal(t, "warning", c.LogLevel)
	require.Error(t, c.SetLogLevel("bogus"))
}

func TestCommandQueueCoalescesDuplicates(t *testing.T) {
	var q CommandQueue
	q.Push(CmdCommConfigUpdate)
	q.Push(CmdCommConfigUpdate)
	q.Push(CmdGetState)
	require.Equal(t, 2, q.Len())

	c, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, CmdCommConfigUpdate, c)

	c, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, CmdGetState, c)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestSnapshotMarshalsToYAML(t *testing.T) {
	c := New()
	c.ObservatoryCommandPort = 4000
	c.ObservatoryDataPort = 4001
	c.InstrumentType = InstrumentTCP
	c.InstrumentAddr = "10.0.0.1"

	data, err := c.MarshalYAML()
	require.NoError(t, err)
	require.Contains(t, string(data), "command_port: 4000")
	require.Contains(t, string(data), "instrument_type: tcp")
}
