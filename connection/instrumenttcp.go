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

import "github.com/tapanagupta/port-agent/comm"

// InstrumentTCP is one connected TCP client to (addr, data_port).
// Reconnect is driven by the PortAgent state machine from DISCONNECTED.
type InstrumentTCP struct {
	Data *comm.TCPSocket
}

var _ Connection = (*InstrumentTCP)(nil)

// NewInstrumentTCP builds an InstrumentTCP with no target set yet.
func NewInstrumentTCP() *InstrumentTCP {
	return &InstrumentTCP{Data: comm.NewTCPSocket()}
}

// SetTarget updates the dialed (host, port).
func (i *InstrumentTCP) SetTarget(host string, port uint16) { i.Data.SetTarget(host, port) }

// DataConnected reports whether the data socket is connected.
func (i *InstrumentTCP) DataConnected() bool { return i.Data.Connected() }

// CommandConnected is always false: this composition has no command socket.
func (i *InstrumentTCP) CommandConnected() bool { return false }

// DataConfigured reports whether the target address/port are set.
func (i *InstrumentTCP) DataConfigured() bool { return i.Data.Configured() }

// DataInitialized reports whether the data socket is connected.
func (i *InstrumentTCP) DataInitialized() bool { return i.Data.Connected() }

// Initialize dials the instrument.
func (i *InstrumentTCP) Initialize() error { return i.Data.Initialize() }

// Disconnect closes the instrument connection.
func (i *InstrumentTCP) Disconnect() error { return i.Data.Disconnect() }
