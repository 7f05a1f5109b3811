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

// InstrumentBOTPT is two TCP clients, (addr, tx_port) and (addr,
// rx_port): reads come from Rx, writes go to Tx.
type InstrumentBOTPT struct {
	Tx *comm.TCPSocket
	Rx *comm.TCPSocket
}

var _ Connection = (*InstrumentBOTPT)(nil)

// NewInstrumentBOTPT builds an InstrumentBOTPT with no targets set yet.
func NewInstrumentBOTPT() *InstrumentBOTPT {
	return &InstrumentBOTPT{
		Tx: comm.NewTCPSocket(),
		Rx: comm.NewTCPSocket(),
	}
}

// SetTargets updates the dialed Tx and Rx (host, port) pairs.
func (i *InstrumentBOTPT) SetTargets(host string, txPort, rxPort uint16) {
	i.Tx.SetTarget(host, txPort)
	i.Rx.SetTarget(host, rxPort)
}

// DataConnected reports whether both Tx and Rx sockets are connected.
func (i *InstrumentBOTPT) DataConnected() bool {
	return i.Tx.Connected() && i.Rx.Connected()
}

// CommandConnected is always false: BOTPT has no separate command socket.
func (i *InstrumentBOTPT) CommandConnected() bool { return false }

// DataConfigured reports whether both Tx and Rx targets are set.
func (i *InstrumentBOTPT) DataConfigured() bool {
	return i.Tx.Configured() && i.Rx.Configured()
}

// DataInitialized reports whether both sockets are connected.
func (i *InstrumentBOTPT) DataInitialized() bool { return i.DataConnected() }

// Initialize dials both the Tx and Rx sockets.
func (i *InstrumentBOTPT) Initialize() error {
	if err := i.Tx.Initialize(); err != nil {
		return err
	}
	return i.Rx.Initialize()
}

// Disconnect closes both sockets.
func (i *InstrumentBOTPT) Disconnect() error {
	err := i.Tx.Disconnect()
	if rerr := i.Rx.Disconnect(); rerr != nil {
		err = rerr
	}
	return err
}

// Read reads from the Rx socket.
func (i *InstrumentBOTPT) Read(dst []byte) (int, error) { return i.Rx.Read(dst) }

// Write writes to the Tx socket.
func (i *InstrumentBOTPT) Write(src []byte) (int, error) { return i.Tx.Write(src) }
