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

package publisher

import "github.com/tapanagupta/port-agent/packet"

// TelnetSnifferPublisher is a TCP-listener-backed sink that mirrors
// raw instrument data (always) and driver data (only when a prefix or
// suffix is configured) to any telnet client watching the connection,
// optionally wrapping each payload with a configured prefix/suffix.
type TelnetSnifferPublisher struct {
	conn           Writer
	connected      func() bool
	Prefix, Suffix string
}

var _ Publisher = (*TelnetSnifferPublisher)(nil)

// NewTelnetSnifferPublisher builds a telnet-sniffer publisher writing
// to conn, only while connected() reports a client attached.
func NewTelnetSnifferPublisher(conn Writer, connected func() bool) *TelnetSnifferPublisher {
	return &TelnetSnifferPublisher{conn: conn, connected: connected}
}

// Kind is KindTelnetSniffer.
func (t *TelnetSnifferPublisher) Kind() Kind { return KindTelnetSniffer }

// EndpointKey is fixed: a port agent has at most one telnet sniffer.
func (t *TelnetSnifferPublisher) EndpointKey() string { return "telnet-sniffer" }

// Accepts reports instrument data always, driver data only once a
// prefix or suffix framing has been configured.
func (t *TelnetSnifferPublisher) Accepts(pt packet.Type) bool {
	if pt == packet.DataFromInstrument {
		return true
	}
	if pt == packet.DataFromDriver {
		return t.Prefix != "" || t.Suffix != ""
	}
	return false
}

// WritePacket writes p's raw payload, framed with the configured
// prefix/suffix if either is set.
func (t *TelnetSnifferPublisher) WritePacket(p *packet.Packet) error {
	if t.connected != nil && !t.connected() {
		return nil
	}
	var out []byte
	out = append(out, t.Prefix...)
	out = append(out, p.Payload()...)
	out = append(out, t.Suffix...)
	_, err := t.conn.Write(out)
	return err
}
