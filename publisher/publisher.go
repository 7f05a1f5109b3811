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

// Package publisher implements the fan-out side of a port agent: a
// Publisher is typed by what it IS (driver command channel, driver
// data channel, a log file, a raw TCP/UDP sink, ...) rather than by
// how it writes, and a PublisherList fans one packet out to all of
// them while isolating per-publisher failures.
package publisher

import "github.com/tapanagupta/port-agent/packet"

// Kind identifies what a publisher IS, independent of its endpoint.
type Kind int

// Publisher kinds, from spec.md §4.8's fan-out table.
const (
	KindDriverCommand Kind = iota
	KindDriverData
	KindInstrumentCommand
	KindInstrumentData
	KindFile
	KindTelnetSniffer
	KindTCP
	KindUDP
)

// String renders a Kind for logging and metric labels.
func (k Kind) String() string {
	switch k {
	case KindDriverCommand:
		return "driver_command"
	case KindDriverData:
		return "driver_data"
	case KindInstrumentCommand:
		return "instrument_command"
	case KindInstrumentData:
		return "instrument_data"
	case KindFile:
		return "file"
	case KindTelnetSniffer:
		return "telnet_sniffer"
	case KindTCP:
		return "tcp"
	case KindUDP:
		return "udp"
	default:
		return "unknown"
	}
}

// uniqueByKind reports whether a Kind may have at most one live
// instance in a PublisherList, with a new add replacing the old one
// rather than appending.
func uniqueByKind(k Kind) bool {
	switch k {
	case KindDriverCommand, KindDriverData, KindInstrumentCommand, KindInstrumentData:
		return true
	default:
		return false
	}
}

// Publisher is one fan-out destination for published packets.
type Publisher interface {
	// Kind identifies what this publisher is.
	Kind() Kind
	// EndpointKey identifies where this publisher writes
	// (host:port, filename, or a fixed sentinel for singleton kinds),
	// used to detect duplicate adds.
	EndpointKey() string
	// Accepts reports whether this publisher handles packets of type t.
	Accepts(t packet.Type) bool
	// WritePacket writes p, or returns an error that PublisherList.Publish
	// collects without aborting the remaining publishers.
	WritePacket(p *packet.Packet) error
}

// sameEndpoint reports whether two publishers would be considered
// duplicates by PublisherList.Add's "same kind and same endpoint"
// silent-drop rule.
func sameEndpoint(a, b Publisher) bool {
	return a.Kind() == b.Kind() && a.EndpointKey() == b.EndpointKey()
}
