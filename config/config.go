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
	"fmt"
	"strconv"
	"strings"
)

// Defaults and hard limits, carried from the source's configuration object.
const (
	DefaultPacketSize       = 1024
	MaxPacketSize           = 65472
	DefaultHeartbeatInterval = 0
)

// InstrumentType identifies the shape of the instrument-side connection.
type InstrumentType int

// Instrument connection types.
const (
	InstrumentUnknown InstrumentType = iota
	InstrumentSerial
	InstrumentTCP
	InstrumentRSN
	InstrumentBOTPT
)

var instrumentTypeNames = map[string]InstrumentType{
	"serial": InstrumentSerial,
	"tcp":    InstrumentTCP,
	"rsn":    InstrumentRSN,
	"botpt":  InstrumentBOTPT,
}

func (t InstrumentType) String() string {
	for name, v := range instrumentTypeNames {
		if v == t {
			return name
		}
	}
	return "unknown"
}

// RotationInterval selects when the rotating data log's filename rolls.
type RotationInterval int

// Rotation intervals. The source's date-derived filename ("{base}.{YYYYMMDD}")
// only ever implies a daily roll, so that is the one non-trivial value this
// module supports.
const (
	RotationNone RotationInterval = iota
	RotationDaily
)

// PortAgentConfig holds every setting the control-port protocol can mutate,
// plus the command-line-only identity fields. It is owned by the agent run
// loop and must only be mutated from there.
type PortAgentConfig struct {
	Commands CommandQueue

	// Command-line-only identity and process fields.
	ProgramName    string
	Help           bool
	Kill           bool
	Version        bool
	PPID           uint32
	NoDetach       bool
	Verbosity      int
	MonitoringPort uint16

	LogDir  string
	PIDDir  string
	ConfDir string
	DataDir string
	ConfFile string

	// Observatory ports: ObservatoryCommandPort also doubles as this
	// instance's identity, used to derive its PID-file and data-log names.
	ObservatoryCommandPort uint16
	ObservatoryDataPort    uint16

	InstrumentType InstrumentType

	SentinelSequence string
	OutputThrottle   uint32
	HeartbeatInterval uint32
	MaxPacketSizeVal  uint32
	RotationInterval  RotationInterval

	DevicePathChanged      bool
	SerialSettingsChanged  bool
	DevicePath             string
	Baud                   uint32
	Stopbits               uint16
	Databits               uint16
	Parity                 uint16
	Flow                   uint16

	InstrumentAddr        string
	InstrumentDataPort    uint16
	InstrumentCommandPort uint16
	InstrumentDataTxPort  uint16
	InstrumentDataRxPort  uint16

	TelnetSnifferPort   uint16
	TelnetSnifferPrefix string
	TelnetSnifferSuffix string

	LogLevel string
}

// New returns a config with the source's documented defaults.
func New() *PortAgentConfig {
	return &PortAgentConfig{
		MaxPacketSizeVal:  DefaultPacketSize,
		HeartbeatInterval: DefaultHeartbeatInterval,
		Stopbits:          1,
		Databits:          8,
		LogDir:            "/tmp",
		PIDDir:            "/tmp",
		ConfDir:           "/tmp",
		DataDir:           "/tmp",
	}
}

// InstanceID is the observatory command port, the port agent's unique
// identity used to name its PID file and data log.
func (c *PortAgentConfig) InstanceID() uint16 { return c.ObservatoryCommandPort }

// IncrementVerbosity bumps the verbosity counter by one, mirroring
// incrementVerbosity/the repeated --verbose flag.
func (c *PortAgentConfig) IncrementVerbosity() { c.Verbosity++ }

// IsConfigured reports whether enough settings are present to leave
// UNCONFIGURED, per §4.9's completeness rule.
func (c *PortAgentConfig) IsConfigured() bool {
	if c.ObservatoryCommandPort == 0 || c.ObservatoryDataPort == 0 {
		return false
	}
	switch c.InstrumentType {
	case InstrumentTCP:
		return c.InstrumentAddr != "" && c.InstrumentDataPort != 0
	case InstrumentRSN:
		return c.InstrumentAddr != "" && c.InstrumentDataPort != 0 && c.InstrumentCommandPort != 0
	case InstrumentSerial:
		return c.DevicePath != "" && c.Baud != 0
	case InstrumentBOTPT:
		return c.InstrumentAddr != "" && c.InstrumentDataTxPort != 0 && c.InstrumentDataRxPort != 0
	default:
		return false
	}
}

// --- setters: each validates its string argument and reports whether the
// value was accepted, mirroring the source's bool-returning setters.

func parsePort(param string) (uint16, error) {
	v, err := strconv.Atoi(param)
	if err != nil || v <= 0 || v > 65535 {
		return 0, fmt.Errorf("%w: port %q", ErrInvalidValue, param)
	}
	return uint16(v), nil
}

// SetObservatoryDataPort sets the observatory data port; 1..=65535.
func (c *PortAgentConfig) SetObservatoryDataPort(param string) error {
	v, err := parsePort(param)
	if err != nil {
		return err
	}
	c.ObservatoryDataPort = v
	return nil
}

// SetObservatoryCommandPort sets the observatory command port; 1..=65535.
func (c *PortAgentConfig) SetObservatoryCommandPort(param string) error {
	v, err := parsePort(param)
	if err != nil {
		return err
	}
	c.ObservatoryCommandPort = v
	return nil
}

// SetInstrumentDataPort sets the instrument data port; 1..=65535.
func (c *PortAgentConfig) SetInstrumentDataPort(param string) error {
	v, err := parsePort(param)
	if err != nil {
		return err
	}
	c.InstrumentDataPort = v
	return nil
}

// SetInstrumentCommandPort sets the instrument command port; 1..=65535.
func (c *PortAgentConfig) SetInstrumentCommandPort(param string) error {
	v, err := parsePort(param)
	if err != nil {
		return err
	}
	c.InstrumentCommandPort = v
	return nil
}

// SetInstrumentDataTxPort sets the BOTPT Tx port; 1..=65535.
func (c *PortAgentConfig) SetInstrumentDataTxPort(param string) error {
	v, err := parsePort(param)
	if err != nil {
		return err
	}
	c.InstrumentDataTxPort = v
	return nil
}

// SetInstrumentDataRxPort sets the BOTPT Rx port; 1..=65535.
func (c *PortAgentConfig) SetInstrumentDataRxPort(param string) error {
	v, err := parsePort(param)
	if err != nil {
		return err
	}
	c.InstrumentDataRxPort = v
	return nil
}

// SetTelnetSnifferPort sets the telnet-sniffer listener port; 1..=65535.
func (c *PortAgentConfig) SetTelnetSnifferPort(param string) error {
	v, err := parsePort(param)
	if err != nil {
		return err
	}
	c.TelnetSnifferPort = v
	return nil
}

// SetInstrumentConnectionType accepts one of tcp, rsn, serial, botpt.
func (c *PortAgentConfig) SetInstrumentConnectionType(param string) error {
	t, ok := instrumentTypeNames[param]
	if !ok {
		c.InstrumentType = InstrumentUnknown
		return fmt.Errorf("%w: instrument type %q", ErrInvalidValue, param)
	}
	c.InstrumentType = t
	return nil
}

// SetSentinelSequence stores a sentinel string with \n and \r escapes
// literalised, as the single-quoted "sentinel '...'" syntax requires.
func (c *PortAgentConfig) SetSentinelSequence(raw string) error {
	start := indexByte(raw, '\'')
	if start < 0 {
		return fmt.Errorf("%w: missing opening quote in sentinel command", ErrInvalidValue)
	}
	end := lastIndexByte(raw, '\'')
	if end <= start {
		return fmt.Errorf("%w: missing closing quote in sentinel command", ErrInvalidValue)
	}

	body := raw[start+1 : end]
	var out []byte
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == 'n' || body[i+1] == 'r') {
			if body[i+1] == 'n' {
				out = append(out, '\n')
			} else {
				out = append(out, '\r')
			}
			i++
			continue
		}
		out = append(out, body[i])
	}
	c.SentinelSequence = string(out)
	return nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// SetOutputThrottle sets the output throttle in milliseconds; must be >= 0.
func (c *PortAgentConfig) SetOutputThrottle(param string) error {
	v, err := strconv.Atoi(param)
	if err != nil || v < 0 {
		return fmt.Errorf("%w: output throttle %q", ErrInvalidValue, param)
	}
	c.OutputThrottle = uint32(v)
	return nil
}

// SetHeartbeatInterval sets the heartbeat interval in seconds; must be >= 0.
func (c *PortAgentConfig) SetHeartbeatInterval(param string) error {
	v, err := strconv.Atoi(param)
	if err != nil || v < 0 {
		return fmt.Errorf("%w: heartbeat interval %q", ErrInvalidValue, param)
	}
	c.HeartbeatInterval = uint32(v)
	return nil
}

// SetMaxPacketSize sets the max packet size; 1..=MaxPacketSize.
func (c *PortAgentConfig) SetMaxPacketSize(param string) error {
	v, err := strconv.Atoi(param)
	if err != nil || v <= 0 || v > MaxPacketSize {
		c.MaxPacketSizeVal = DefaultPacketSize
		return fmt.Errorf("%w: max packet size %q", ErrInvalidValue, param)
	}
	c.MaxPacketSizeVal = uint32(v)
	return nil
}

// SetBaud accepts one of the eight standard baud rates.
func (c *PortAgentConfig) SetBaud(param string) error {
	v, err := strconv.Atoi(param)
	valid := err == nil
	if valid {
		switch v {
		case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		default:
			valid = false
		}
	}
	if !valid {
		c.Baud = 0
		return fmt.Errorf("%w: baud %q", ErrInvalidValue, param)
	}
	c.Baud = uint32(v)
	c.SerialSettingsChanged = true
	return nil
}

// SetStopbits accepts 1 or 2.
func (c *PortAgentConfig) SetStopbits(param string) error {
	v, err := strconv.Atoi(param)
	if err != nil || (v != 1 && v != 2) {
		c.Stopbits = 1
		return fmt.Errorf("%w: stopbits %q", ErrInvalidValue, param)
	}
	c.Stopbits = uint16(v)
	c.SerialSettingsChanged = true
	return nil
}

// SetDatabits accepts 5, 6, 7, or 8.
func (c *PortAgentConfig) SetDatabits(param string) error {
	v, err := strconv.Atoi(param)
	if err != nil || (v != 5 && v != 6 && v != 7 && v != 8) {
		c.Databits = 8
		return fmt.Errorf("%w: databits %q", ErrInvalidValue, param)
	}
	c.Databits = uint16(v)
	c.SerialSettingsChanged = true
	return nil
}

// SetParity accepts 0 (none), 1 (odd), or 2 (even).
func (c *PortAgentConfig) SetParity(param string) error {
	v, err := strconv.Atoi(param)
	if err != nil || v < 0 || v > 2 {
		c.Parity = 0
		return fmt.Errorf("%w: parity %q", ErrInvalidValue, param)
	}
	c.Parity = uint16(v)
	c.SerialSettingsChanged = true
	return nil
}

// SetFlow accepts 0 (none), 1 (xon/xoff), or 2 (RTS/CTS).
func (c *PortAgentConfig) SetFlow(param string) error {
	v, err := strconv.Atoi(param)
	if err != nil || v < 0 || v > 2 {
		c.Flow = 0
		return fmt.Errorf("%w: flow %q", ErrInvalidValue, param)
	}
	c.Flow = uint16(v)
	c.SerialSettingsChanged = true
	return nil
}

// SetDevicePath sets the serial device path and marks it dirty for reopen.
func (c *PortAgentConfig) SetDevicePath(param string) {
	if c.DevicePath != param {
		c.DevicePathChanged = true
	}
	c.DevicePath = param
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warning": true, "error": true,
}

// SetLogLevel accepts debug/info/warning/error (case-insensitive; "warn" is
// accepted as an alias for "warning", matching the source).
func (c *PortAgentConfig) SetLogLevel(param string) error {
	level := strings.ToLower(param)
	if level == "warn" {
		level = "warning"
	}
	if !validLogLevels[level] {
		return fmt.Errorf("%w: log level %q", ErrInvalidValue, param)
	}
	c.LogLevel = level
	return nil
}

// SetRotationInterval accepts "none" or "daily".
func (c *PortAgentConfig) SetRotationInterval(param string) error {
	switch param {
	case "none":
		c.RotationInterval = RotationNone
	case "daily":
		c.RotationInterval = RotationDaily
	default:
		return fmt.Errorf("%w: rotation interval %q", ErrInvalidValue, param)
	}
	return nil
}
