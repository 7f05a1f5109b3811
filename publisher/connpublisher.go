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

import (
	"fmt"

	"github.com/tapanagupta/port-agent/packet"
)

// Writer is the subset of comm.Endpoint (or a plain net.Conn) a
// connection-backed publisher needs: somewhere to push bytes.
type Writer interface {
	Write([]byte) (int, error)
}

// connPublisher is the shared implementation behind every publisher
// kind that writes to a live connection rather than a file:
// DriverCommand, DriverData, InstrumentCommand, InstrumentData, TCP,
// and UDP.
type connPublisher struct {
	kind        Kind
	endpointKey string
	conn        Writer
	ascii       bool
	rawPayload  bool
	connected   func() bool
	accepts     func(packet.Type) bool
}

var _ Publisher = (*connPublisher)(nil)

func (c *connPublisher) Kind() Kind            { return c.kind }
func (c *connPublisher) EndpointKey() string   { return c.endpointKey }
func (c *connPublisher) Accepts(t packet.Type) bool { return c.accepts(t) }

// WritePacket renders p per this publisher's mode and writes it, or
// silently no-ops if the backing connection is not currently up.
func (c *connPublisher) WritePacket(p *packet.Packet) error {
	if c.connected != nil && !c.connected() {
		return nil
	}
	var b []byte
	switch {
	case c.rawPayload:
		b = p.Payload()
	case c.ascii:
		b = []byte(p.ASCII())
	default:
		b = p.Bytes()
	}
	_, err := c.conn.Write(b)
	return err
}

func isDataLike(t packet.Type) bool {
	return t == packet.DataFromInstrument || t == packet.DataFromDriver
}

// NewDriverCommandPublisher builds the KindDriverCommand publisher:
// accepts Status, Fault, and every data-like packet; writes only when
// connected() reports the observatory command client is present.
func NewDriverCommandPublisher(conn Writer, ascii bool, connected func() bool) Publisher {
	return &connPublisher{
		kind:        KindDriverCommand,
		endpointKey: "driver-command",
		conn:        conn,
		ascii:       ascii,
		connected:   connected,
		accepts: func(t packet.Type) bool {
			return t == packet.PortAgentStatus || t == packet.PortAgentFault || isDataLike(t)
		},
	}
}

// NewDriverDataPublisher builds the KindDriverData publisher: routes
// instrument data, Status, and Fault to the observatory data client.
func NewDriverDataPublisher(conn Writer, ascii bool, connected func() bool) Publisher {
	return &connPublisher{
		kind:        KindDriverData,
		endpointKey: "driver-data",
		conn:        conn,
		ascii:       ascii,
		connected:   connected,
		accepts: func(t packet.Type) bool {
			return t == packet.DataFromInstrument || t == packet.PortAgentStatus || t == packet.PortAgentFault
		},
	}
}

// NewInstrumentCommandPublisher builds the KindInstrumentCommand
// publisher: only INSTRUMENT_COMMAND, raw payload bytes with no framing.
func NewInstrumentCommandPublisher(conn Writer, connected func() bool) Publisher {
	return &connPublisher{
		kind:        KindInstrumentCommand,
		endpointKey: "instrument-command",
		conn:        conn,
		rawPayload:  true,
		connected:   connected,
		accepts:     func(t packet.Type) bool { return t == packet.InstrumentCommand },
	}
}

// NewInstrumentDataPublisher builds the KindInstrumentData publisher:
// only DATA_FROM_DRIVER, raw payload bytes with no framing.
func NewInstrumentDataPublisher(conn Writer, connected func() bool) Publisher {
	return &connPublisher{
		kind:        KindInstrumentData,
		endpointKey: "instrument-data",
		conn:        conn,
		rawPayload:  true,
		connected:   connected,
		accepts:     func(t packet.Type) bool { return t == packet.DataFromDriver },
	}
}

// NewTCPPublisher builds a KindTCP publisher: accepts every packet
// type, unique by (kind, host, port).
func NewTCPPublisher(conn Writer, host string, port uint16, ascii bool) Publisher {
	return &connPublisher{
		kind:        KindTCP,
		endpointKey: fmt.Sprintf("tcp:%s:%d", host, port),
		conn:        conn,
		ascii:       ascii,
		accepts:     func(packet.Type) bool { return true },
	}
}

// NewUDPPublisher builds a KindUDP publisher: accepts every packet
// type, unique by (kind, host, port).
func NewUDPPublisher(conn Writer, host string, port uint16, ascii bool) Publisher {
	return &connPublisher{
		kind:        KindUDP,
		endpointKey: fmt.Sprintf("udp:%s:%d", host, port),
		conn:        conn,
		ascii:       ascii,
		accepts:     func(packet.Type) bool { return true },
	}
}
