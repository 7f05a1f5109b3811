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

// InstrumentSerial is a serial device. Its "settings changed"/"device
// path changed" dirty flags live in comm.SerialSocket: a path change
// reopens the device, a settings change re-applies the mode in place.
type InstrumentSerial struct {
	Device *comm.SerialSocket
}

var _ Connection = (*InstrumentSerial)(nil)

// NewInstrumentSerial builds an InstrumentSerial with no settings yet.
func NewInstrumentSerial() *InstrumentSerial {
	return &InstrumentSerial{Device: comm.NewSerialSocket()}
}

// ApplySettings forwards to the underlying SerialSocket.
func (i *InstrumentSerial) ApplySettings(s comm.SerialSettings) { i.Device.ApplySettings(s) }

// DataConnected reports whether the device is open.
func (i *InstrumentSerial) DataConnected() bool { return i.Device.Connected() }

// CommandConnected is always false: a serial device has no separate
// command channel.
func (i *InstrumentSerial) CommandConnected() bool { return false }

// DataConfigured reports whether a device path and baud rate are set.
func (i *InstrumentSerial) DataConfigured() bool { return i.Device.Configured() }

// DataInitialized reports whether the device is open.
func (i *InstrumentSerial) DataInitialized() bool { return i.Device.Connected() }

// Initialize opens (or re-applies settings to) the serial device.
func (i *InstrumentSerial) Initialize() error { return i.Device.Initialize() }

// Disconnect closes the serial device.
func (i *InstrumentSerial) Disconnect() error { return i.Device.Disconnect() }
