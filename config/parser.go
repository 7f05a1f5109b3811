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
	"strings"
)

// Parse consumes one line of the observatory command port's text protocol.
// On success it returns the Command queued as a result (CmdUnknown for
// setters that only mutate settings, such as log_level). On failure it
// returns an error without affecting any other queued command or setting —
// a bad line never poisons the ones around it.
func (c *PortAgentConfig) Parse(line string) (Command, error) {
	trimmed := strings.TrimRight(line, "\r\n")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return CmdUnknown, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	verb := fields[0]

	// Pure verbs.
	switch verb {
	case "help":
		c.Commands.Push(CmdHelp)
		return CmdHelp, nil
	case "verbose":
		c.IncrementVerbosity()
		return CmdUnknown, nil
	case "save_config":
		c.Commands.Push(CmdSaveConfig)
		return CmdSaveConfig, nil
	case "get_config":
		c.Commands.Push(CmdGetConfig)
		return CmdGetConfig, nil
	case "get_state":
		c.Commands.Push(CmdGetState)
		return CmdGetState, nil
	case "ping":
		c.Commands.Push(CmdPing)
		return CmdPing, nil
	case "break":
		if len(fields) > 2 {
			return CmdUnknown, fmt.Errorf("%w: %q", ErrTrailingTokens, trimmed)
		}
		c.Commands.Push(CmdBreak)
		return CmdBreak, nil
	case "shutdown":
		c.Commands.Push(CmdShutdown)
		return CmdShutdown, nil
	}

	// sentinel takes the raw line (it may contain embedded \n/\r escapes),
	// so it is handled before the generic two-token check below.
	if verb == "sentinel" {
		if err := c.SetSentinelSequence(trimmed); err != nil {
			return CmdUnknown, err
		}
		c.Commands.Push(CmdPublisherConfigUpdate)
		return CmdPublisherConfigUpdate, nil
	}

	if len(fields) < 2 {
		return CmdUnknown, fmt.Errorf("%w: %q", ErrUnknownCommand, verb)
	}
	if len(fields) > 2 {
		return CmdUnknown, fmt.Errorf("%w: %q", ErrTrailingTokens, trimmed)
	}
	param := fields[1]

	setter, family, ok := c.setterFor(verb)
	if !ok {
		return CmdUnknown, fmt.Errorf("%w: %q", ErrUnknownCommand, verb)
	}
	if err := setter(param); err != nil {
		return CmdUnknown, err
	}
	if family != CmdUnknown {
		c.Commands.Push(family)
	}
	return family, nil
}

// setterFor resolves a KEY VALUE verb to its validating setter and the
// update family it belongs to (CmdUnknown for settings with no
// state-machine or subsystem side effect, such as log_level).
func (c *PortAgentConfig) setterFor(verb string) (setter func(string) error, family Command, ok bool) {
	switch verb {
	case "instrument_type":
		return c.SetInstrumentConnectionType, CmdCommConfigUpdate, true
	case "output_throttle":
		return c.SetOutputThrottle, CmdCommConfigUpdate, true
	case "heartbeat_interval":
		return c.SetHeartbeatInterval, CmdCommConfigUpdate, true
	case "max_packet_size":
		return c.SetMaxPacketSize, CmdPublisherConfigUpdate, true
	case "data_port":
		return c.SetObservatoryDataPort, CmdCommConfigUpdate, true
	case "command_port":
		return c.SetObservatoryCommandPort, CmdCommConfigUpdate, true
	case "instrument_addr":
		return func(v string) error { c.InstrumentAddr = v; return nil }, CmdCommConfigUpdate, true
	case "instrument_data_port":
		return c.SetInstrumentDataPort, CmdCommConfigUpdate, true
	case "instrument_command_port":
		return c.SetInstrumentCommandPort, CmdCommConfigUpdate, true
	case "instrument_data_tx_port":
		return c.SetInstrumentDataTxPort, CmdCommConfigUpdate, true
	case "instrument_data_rx_port":
		return c.SetInstrumentDataRxPort, CmdCommConfigUpdate, true
	case "telnet_sniffer_port":
		return c.SetTelnetSnifferPort, CmdPublisherConfigUpdate, true
	case "telnet_sniffer_prefix":
		return func(v string) error { c.TelnetSnifferPrefix = v; return nil }, CmdPublisherConfigUpdate, true
	case "telnet_sniffer_suffix":
		return func(v string) error { c.TelnetSnifferSuffix = v; return nil }, CmdPublisherConfigUpdate, true
	case "rotation_interval":
		return c.SetRotationInterval, CmdPublisherConfigUpdate, true
	case "log_level":
		return c.SetLogLevel, CmdUnknown, true
	case "log_dir":
		return func(v string) error { c.LogDir = v; return nil }, CmdPathConfigUpdate, true
	case "pid_dir":
		return func(v string) error { c.PIDDir = v; return nil }, CmdPathConfigUpdate, true
	case "data_dir":
		return func(v string) error { c.DataDir = v; return nil }, CmdPathConfigUpdate, true
	case "conf_dir":
		return func(v string) error { c.ConfDir = v; return nil }, CmdPathConfigUpdate, true
	case "baud":
		return c.SetBaud, CmdCommConfigUpdate, true
	case "stopbits":
		return c.SetStopbits, CmdCommConfigUpdate, true
	case "databits":
		return c.SetDatabits, CmdCommConfigUpdate, true
	case "parity":
		return c.SetParity, CmdCommConfigUpdate, true
	case "flow":
		return c.SetFlow, CmdCommConfigUpdate, true
	default:
		return nil, CmdUnknown, false
	}
}
