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
	"github.com/tapanagupta/port-agent/comm"
	"github.com/tapanagupta/port-agent/packet"
)

// defaultRSNBufferCapacity/maxPacketSize/maxInvalidDataSize size the
// RawPacketDataBuffer fronting the RSN data socket's read path.
const (
	defaultRSNBufferCapacity   = 64 * 1024
	defaultRSNMaxPacketSize    = 65472
	defaultRSNMaxInvalidData   = 65472
)

// InstrumentRSN is the same shape as InstrumentTCP but with a second
// connected TCP client to (addr, command_port), and a
// RawPacketDataBuffer fronting the data socket's read path since an
// RSN digi already emits port-agent-framed packets.
type InstrumentRSN struct {
	Data    *comm.TCPSocket
	Command *comm.TCPSocket
	Buffer  *packet.RawPacketDataBuffer
}

var _ Connection = (*InstrumentRSN)(nil)

// NewInstrumentRSN builds an InstrumentRSN with default buffer sizing.
func NewInstrumentRSN() (*InstrumentRSN, error) {
	buf, err := packet.NewRawPacketDataBuffer(defaultRSNBufferCapacity, defaultRSNMaxPacketSize, defaultRSNMaxInvalidData)
	if err != nil {
		return nil, err
	}
	return &InstrumentRSN{
		Data:    comm.NewTCPSocket(),
		Command: comm.NewTCPSocket(),
		Buffer:  buf,
	}, nil
}

// SetTargets updates the dialed data and command (host, port) pairs.
func (i *InstrumentRSN) SetTargets(host string, dataPort, commandPort uint16) {
	i.Data.SetTarget(host, dataPort)
	i.Command.SetTarget(host, commandPort)
}

// DataConnected reports whether the data socket is connected.
func (i *InstrumentRSN) DataConnected() bool { return i.Data.Connected() }

// CommandConnected reports whether the command socket is connected.
func (i *InstrumentRSN) CommandConnected() bool { return i.Command.Connected() }

// DataConfigured reports whether both the data and command targets are set.
func (i *InstrumentRSN) DataConfigured() bool {
	return i.Data.Configured() && i.Command.Configured()
}

// DataInitialized reports whether the data socket is connected.
func (i *InstrumentRSN) DataInitialized() bool { return i.Data.Connected() }

// Initialize dials both the data and command sockets.
func (i *InstrumentRSN) Initialize() error {
	if err := i.Data.Initialize(); err != nil {
		return err
	}
	return i.Command.Initialize()
}

// Disconnect closes both sockets.
func (i *InstrumentRSN) Disconnect() error {
	err := i.Data.Disconnect()
	if cerr := i.Command.Disconnect(); cerr != nil {
		err = cerr
	}
	return err
}

// PumpData reads one chunk off the data socket into the
// RawPacketDataBuffer and returns every packet the chunk completed.
// Returns (nil, nil) on a peer-close read so the caller disconnects.
func (i *InstrumentRSN) PumpData(scratch []byte) ([]*packet.Packet, error) {
	n, err := i.Data.Read(scratch)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if err := i.Buffer.WriteRawData(scratch[:n]); err != nil {
		return nil, err
	}

	var out []*packet.Packet
	for {
		p, err := i.Buffer.GetNextPacket()
		if err != nil {
			return out, err
		}
		if p == nil {
			return out, nil
		}
		out = append(out, p)
	}
}
