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

import yaml "gopkg.in/yaml.v2"

// Snapshot is the YAML-serializable view of a PortAgentConfig, used for the
// get_config/save_config control-port responses, marshaled the same way
// ptp4u's DynamicConfig is. save_config replies with this YAML; no config
// file is written.
type Snapshot struct {
	InstanceID uint16 `yaml:"instance_id"`
	Verbosity  int    `yaml:"verbosity"`

	ObservatoryCommandPort uint16 `yaml:"command_port"`
	ObservatoryDataPort    uint16 `yaml:"data_port"`

	InstrumentType string `yaml:"instrument_type"`

	SentinelSequence  string `yaml:"sentinel,omitempty"`
	OutputThrottle    uint32 `yaml:"output_throttle"`
	HeartbeatInterval uint32 `yaml:"heartbeat_interval"`
	MaxPacketSize     uint32 `yaml:"max_packet_size"`
	RotationInterval  string `yaml:"rotation_interval"`

	DevicePath string `yaml:"device_path,omitempty"`
	Baud       uint32 `yaml:"baud,omitempty"`
	Stopbits   uint16 `yaml:"stopbits,omitempty"`
	Databits   uint16 `yaml:"databits,omitempty"`
	Parity     uint16 `yaml:"parity,omitempty"`
	Flow       uint16 `yaml:"flow,omitempty"`

	InstrumentAddr        string `yaml:"instrument_addr,omitempty"`
	InstrumentDataPort    uint16 `yaml:"instrument_data_port,omitempty"`
	InstrumentCommandPort uint16 `yaml:"instrument_command_port,omitempty"`
	InstrumentDataTxPort  uint16 `yaml:"instrument_data_tx_port,omitempty"`
	InstrumentDataRxPort  uint16 `yaml:"instrument_data_rx_port,omitempty"`

	TelnetSnifferPort   uint16 `yaml:"telnet_sniffer_port,omitempty"`
	TelnetSnifferPrefix string `yaml:"telnet_sniffer_prefix,omitempty"`
	TelnetSnifferSuffix string `yaml:"telnet_sniffer_suffix,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`
	LogDir   string `yaml:"log_dir"`
	PIDDir   string `yaml:"pid_dir"`
	DataDir  string `yaml:"data_dir"`
	ConfDir  string `yaml:"conf_dir"`
}

func rotationIntervalName(r RotationInterval) string {
	if r == RotationDaily {
		return "daily"
	}
	return "none"
}

// Snapshot renders the current settings as a Snapshot.
func (c *PortAgentConfig) Snapshot() Snapshot {
	return Snapshot{
		InstanceID:             c.InstanceID(),
		Verbosity:              c.Verbosity,
		ObservatoryCommandPort: c.ObservatoryCommandPort,
		ObservatoryDataPort:    c.ObservatoryDataPort,
		InstrumentType:         c.InstrumentType.String(),
		SentinelSequence:       c.SentinelSequence,
		OutputThrottle:         c.OutputThrottle,
		HeartbeatInterval:      c.HeartbeatInterval,
		MaxPacketSize:          c.MaxPacketSizeVal,
		RotationInterval:       rotationIntervalName(c.RotationInterval),
		DevicePath:             c.DevicePath,
		Baud:                   c.Baud,
		Stopbits:               c.Stopbits,
		Databits:               c.Databits,
		Parity:                 c.Parity,
		Flow:                   c.Flow,
		InstrumentAddr:         c.InstrumentAddr,
		InstrumentDataPort:     c.InstrumentDataPort,
		InstrumentCommandPort:  c.InstrumentCommandPort,
		InstrumentDataTxPort:   c.InstrumentDataTxPort,
		InstrumentDataRxPort:   c.InstrumentDataRxPort,
		TelnetSnifferPort:      c.TelnetSnifferPort,
		TelnetSnifferPrefix:    c.TelnetSnifferPrefix,
		TelnetSnifferSuffix:    c.TelnetSnifferSuffix,
		LogLevel:               c.LogLevel,
		LogDir:                 c.LogDir,
		PIDDir:                 c.PIDDir,
		DataDir:                c.DataDir,
		ConfDir:                c.ConfDir,
	}
}

// MarshalYAML renders the current settings as YAML text, the payload of a
// get_config or save_config response.
func (c *PortAgentConfig) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(c.Snapshot())
}
