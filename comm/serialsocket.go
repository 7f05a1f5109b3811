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
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// ErrFlowUnsupported is returned when the configured flow-control mode
// has no equivalent in go.bug.st/serial's Mode.
var ErrFlowUnsupported = fmt.Errorf("comm: xon/xoff flow control is not supported by the serial backend")

// SerialSettings mirrors the subset of config.PortAgentConfig the
// serial endpoint needs, kept decoupled from the config package so
// comm has no import-cycle back to it.
type SerialSettings struct {
	DevicePath string
	Baud       uint32
	Databits   uint16
	Stopbits   uint16
	Parity     uint16
	Flow       uint16
}

// SerialSocket is the instrument-side endpoint for Instrument Serial
// connections, grounded on sa53fw/mac.Mac's go.bug.st/serial usage.
type SerialSocket struct {
	mu sync.Mutex

	settings SerialSettings
	port     serial.Port

	// settingsChanged/pathChanged are the two independent dirty flags
	// from the serial connection composition: a settings change
	// re-applies the mode without reopening, a path change reopens.
	settingsChanged bool
	pathChanged     bool
}

var _ Endpoint = (*SerialSocket)(nil)

// NewSerialSocket builds a socket with no device path until
// ApplySettings is called with one.
func NewSerialSocket() *SerialSocket {
	return &SerialSocket{}
}

// ApplySettings records new settings and marks the appropriate dirty
// flag: a device path change requires a reopen, anything else can be
// re-applied to the already-open port.
func (s *SerialSocket) ApplySettings(next SerialSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next.DevicePath != s.settings.DevicePath {
		s.pathChanged = true
	} else if next != s.settings {
		s.settingsChanged = true
	}
	s.settings = next
}

// Configured reports whether a device path and baud rate are set.
func (s *SerialSocket) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.DevicePath != "" && s.settings.Baud != 0
}

// Listening is always false: a serial device never accepts.
func (s *SerialSocket) Listening() bool { return false }

// Connected reports whether the device is open.
func (s *SerialSocket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

func serialMode(s SerialSettings) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: int(s.Baud),
		DataBits: int(s.Databits),
	}
	switch s.Parity {
	case 1:
		mode.Parity = serial.OddParity
	case 2:
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}
	if s.Stopbits == 2 {
		mode.StopBits = serial.TwoStopBits
	} else {
		mode.StopBits = serial.OneStopBit
	}
	return mode
}

// Initialize opens the serial device if not already open, or
// re-applies settings/reopens per the dirty flags set by ApplySettings.
func (s *SerialSocket) Initialize() error {
	s.mu.Lock()
	settings := s.settings
	pathChanged := s.pathChanged
	settingsChanged := s.settingsChanged
	alreadyOpen := s.port != nil
	s.mu.Unlock()

	if settings.DevicePath == "" {
		return ErrNotConfigured
	}

	if alreadyOpen && !pathChanged {
		if settingsChanged {
			if err := s.applyMode(settings); err != nil {
				return err
			}
			s.mu.Lock()
			s.settingsChanged = false
			s.mu.Unlock()
		}
		return nil
	}

	if alreadyOpen {
		s.Disconnect()
	}

	if settings.Flow == 1 {
		return ErrFlowUnsupported
	}
	port, err := serial.Open(settings.DevicePath, serialMode(settings))
	if err != nil {
		return fmt.Errorf("comm: open %s: %w", settings.DevicePath, err)
	}
	if settings.Flow == 2 {
		if rerr := port.SetRTS(true); rerr != nil {
			log.Warnf("comm: failed to assert RTS on %s: %v", settings.DevicePath, rerr)
		}
	}

	s.mu.Lock()
	s.port = port
	s.pathChanged = false
	s.settingsChanged = false
	s.mu.Unlock()
	log.Infof("comm: opened serial device %s", settings.DevicePath)
	return nil
}

func (s *SerialSocket) applyMode(settings SerialSettings) error {
	if settings.Flow == 1 {
		return ErrFlowUnsupported
	}
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return ErrNotConnected
	}
	return port.SetMode(serialMode(settings))
}

// Disconnect closes the open device, if any.
func (s *SerialSocket) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Read reads from the open device.
func (s *SerialSocket) Read(dst []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, ErrNotConnected
	}
	n, err := port.Read(dst)
	if err == nil && n == 0 {
		s.Disconnect()
	}
	return n, err
}

// Write pushes src to the open device, looping until exhausted.
func (s *SerialSocket) Write(src []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, ErrNotConnected
	}
	return writeAll(port, src)
}

// Fd returns -1: go.bug.st/serial does not expose a raw descriptor.
func (s *SerialSocket) Fd() int { return -1 }
