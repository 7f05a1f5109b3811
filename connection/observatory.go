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

// Observatory is a TCP listener on the observatory command port and a
// TCP listener on the observatory data port. Both are independently
// configurable, and each rebinds on its own when its port changes
// while listening.
type Observatory struct {
	Command *comm.TCPListener
	Data    *comm.TCPListener

	commandPort uint16
	dataPort    uint16
}

var _ Connection = (*Observatory)(nil)

// NewObservatory builds an Observatory with no ports set yet.
func NewObservatory() *Observatory {
	return &Observatory{
		Command: comm.NewTCPListener(),
		Data:    comm.NewTCPListener(),
	}
}

// SetPorts updates the command/data ports. A listener already bound on
// a port that changed is rebound immediately; one that is not yet
// listening simply picks up the new port on the next Initialize.
func (o *Observatory) SetPorts(commandPort, dataPort uint16) error {
	var err error
	if commandPort != o.commandPort {
		o.commandPort = commandPort
		o.Command.SetPort(commandPort)
		if o.Command.Listening() {
			if derr := o.Command.Disconnect(); derr != nil {
				err = derr
			}
			if ierr := o.Command.Initialize(); ierr != nil {
				err = ierr
			}
		}
	}
	if dataPort != o.dataPort {
		o.dataPort = dataPort
		o.Data.SetPort(dataPort)
		if o.Data.Listening() {
			if derr := o.Data.Disconnect(); derr != nil {
				err = derr
			}
			if ierr := o.Data.Initialize(); ierr != nil {
				err = ierr
			}
		}
	}
	return err
}

// DataConnected reports whether an observatory client holds the data port.
func (o *Observatory) DataConnected() bool { return o.Data.Connected() }

// CommandConnected reports whether an observatory client holds the
// command port.
func (o *Observatory) CommandConnected() bool { return o.Command.Connected() }

// DataConfigured reports whether the data port has been set.
func (o *Observatory) DataConfigured() bool { return o.Data.Configured() }

// DataInitialized reports whether the data listener is up (listening
// or already holding a client).
func (o *Observatory) DataInitialized() bool {
	return o.Data.Listening() || o.Data.Connected()
}

// Initialize binds both listeners.
func (o *Observatory) Initialize() error {
	if err := o.Command.Initialize(); err != nil {
		return err
	}
	return o.Data.Initialize()
}

// Disconnect tears down both listeners and any accepted clients.
func (o *Observatory) Disconnect() error {
	err := o.Command.Disconnect()
	if derr := o.Data.Disconnect(); derr != nil {
		err = derr
	}
	return err
}
