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

/*
Package packet implements the port agent wire packet: a 16-byte header
(sync, type, size, checksum, timestamp) followed by a variable payload,
the circular byte buffer it is built from, and the two framers that turn
a raw byte stream into a sequence of Packets.
*/
package packet

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Sync is the 24-bit frame-start constant, stored here as if it were the
// low 3 bytes of a 32-bit big-endian value.
const Sync uint32 = 0xA39D7A

// HeaderSize is the fixed header length in bytes.
const HeaderSize = 16

// MaxPacketSize is the largest legal total frame size (16-bit size field).
const MaxPacketSize = 65535

// Type enumerates the port agent frame types.
type Type uint8

// Frame types, matching the wire values in §3.
const (
	Unknown            Type = 0
	DataFromInstrument Type = 1
	DataFromDriver     Type = 2
	PortAgentCommand   Type = 3
	PortAgentStatus    Type = 4
	PortAgentFault     Type = 5
	InstrumentCommand  Type = 6
	PortAgentHeartbeat Type = 7
)

var typeNames = map[Type]string{
	DataFromInstrument: "DATA_FROM_INSTRUMENT",
	DataFromDriver:     "DATA_FROM_DRIVER",
	PortAgentCommand:   "PORT_AGENT_COMMAND",
	PortAgentStatus:    "PORT_AGENT_STATUS",
	PortAgentFault:     "PORT_AGENT_FAULT",
	InstrumentCommand:  "INSTRUMENT_COMMAND",
	PortAgentHeartbeat: "PORT_AGENT_HEARTBEAT",
}

// String renders the canonical type name used in the ASCII form, or
// "UNKNOWN" for anything outside 1..=7.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether t is one of the seven legal wire types.
func (t Type) Valid() bool {
	return t >= DataFromInstrument && t <= PortAgentHeartbeat
}

// Packet is the immutable framed unit passed between every subsystem in
// this module. Once constructed it is never mutated.
type Packet struct {
	ptype     Type
	timestamp Timestamp
	payload   []byte
	checksum  uint16
}

// New builds a Packet, computing its checksum over the composed frame.
// It fails with ErrParamOutOfRange if ptype is not one of the seven legal
// types or the resulting frame would exceed the wire size field.
func New(ptype Type, ts Timestamp, payload []byte) (*Packet, error) {
	if !ptype.Valid() {
		return nil, fmt.Errorf("%w: packet type %d", ErrParamOutOfRange, ptype)
	}
	if HeaderSize+len(payload) > MaxPacketSize {
		return nil, fmt.Errorf("%w: payload too large for a single frame", ErrParamOutOfRange)
	}
	p := &Packet{
		ptype:     ptype,
		timestamp: ts,
		payload:   append([]byte(nil), payload...),
	}
	p.checksum = p.computeChecksum()
	return p, nil
}

// Type returns the packet's frame type.
func (p *Packet) Type() Type { return p.ptype }

// Timestamp returns the packet's header timestamp.
func (p *Packet) Timestamp() Timestamp { return p.timestamp }

// Payload returns the packet's payload bytes. Callers must not mutate the
// returned slice.
func (p *Packet) Payload() []byte { return p.payload }

// Size returns the total frame size, header included.
func (p *Packet) Size() int { return HeaderSize + len(p.payload) }

// Checksum returns the packet's stored checksum.
func (p *Packet) Checksum() uint16 { return p.checksum }

// Bytes renders the full wire frame: sync, type, size, checksum,
// timestamp, payload.
func (p *Packet) Bytes() []byte {
	buf := make([]byte, p.Size())
	p.fillHeader(buf, p.checksum)
	copy(buf[HeaderSize:], p.payload)
	return buf
}

// fillHeader writes every header field except leaving the checksum
// slot set to the provided value (zero, when computing the checksum).
func (p *Packet) fillHeader(buf []byte, checksum uint16) {
	buf[0] = byte(Sync >> 16)
	buf[1] = byte(Sync >> 8)
	buf[2] = byte(Sync)
	buf[3] = byte(p.ptype)
	binary.BigEndian.PutUint16(buf[4:6], uint16(p.Size()))
	binary.BigEndian.PutUint16(buf[6:8], checksum)
	ts := p.timestamp.AsBinary()
	copy(buf[8:16], ts[:])
}

// computeChecksum XORs every byte of the composed frame except the two
// checksum bytes themselves (indices 6 and 7) — the "i < 6 || i > 7" rule
// this specification takes as normative.
func (p *Packet) computeChecksum() uint16 {
	buf := make([]byte, p.Size())
	p.fillHeader(buf, 0)
	copy(buf[HeaderSize:], p.payload)
	var sum uint16
	for i, b := range buf {
		if i < 6 || i > 7 {
			sum ^= uint16(b)
		}
	}
	return sum
}

// FromBytes parses a complete wire frame (as produced by Bytes) back into
// a Packet, without re-validating it. Use ValidateHeaderBytes/
// ValidateChecksumBytes first if the bytes come from an untrusted source.
func FromBytes(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrTruncated)
	}
	size := int(binary.BigEndian.Uint16(buf[4:6]))
	if len(buf) < size {
		return nil, fmt.Errorf("%w: short frame", ErrTruncated)
	}
	ptype := Type(buf[3])
	checksum := binary.BigEndian.Uint16(buf[6:8])
	var tsBin [8]byte
	copy(tsBin[:], buf[8:16])
	ts := TimestampFromBinary(tsBin)
	payload := append([]byte(nil), buf[HeaderSize:size]...)

	p := &Packet{ptype: ptype, timestamp: ts, payload: payload, checksum: checksum}
	return p, nil
}

// ValidateHeaderBytes applies the §4.3 validate_header rule directly to a
// 16-byte header buffer: sync matches the constant, type is in 1..=7, and
// 16 <= size <= maxPacketSize.
func ValidateHeaderBytes(header []byte, maxPacketSize int) bool {
	if len(header) < HeaderSize {
		return false
	}
	sync := uint32(header[0])<<16 | uint32(header[1])<<8 | uint32(header[2])
	if sync != Sync {
		return false
	}
	ptype := Type(header[3])
	if !ptype.Valid() {
		return false
	}
	size := int(binary.BigEndian.Uint16(header[4:6]))
	return size >= HeaderSize && size <= maxPacketSize
}

// ValidateChecksumBytes recomputes the parity-XOR over a complete frame
// buffer and compares it against the checksum stored at bytes [6:8].
func ValidateChecksumBytes(frame []byte) bool {
	if len(frame) < HeaderSize {
		return false
	}
	stored := binary.BigEndian.Uint16(frame[6:8])
	var sum uint16
	for i, b := range frame {
		if i < 6 || i > 7 {
			sum ^= uint16(b)
		}
	}
	return sum == stored
}

// ValidateHeader re-applies ValidateHeaderBytes to this packet's own
// rendering, useful for round-trip tests.
func (p *Packet) ValidateHeader(maxPacketSize int) bool {
	return ValidateHeaderBytes(p.Bytes()[:HeaderSize], maxPacketSize)
}

// ValidateChecksum re-applies ValidateChecksumBytes to this packet's own
// rendering.
func (p *Packet) ValidateChecksum() bool {
	return ValidateChecksumBytes(p.Bytes())
}

// ASCII renders the packet as
// <port_agent_packet type="NAME" time="S.ffff">PAYLOAD</port_agent_packet>\n\r
// with the payload emitted unescaped.
func (p *Packet) ASCII() string {
	var b strings.Builder
	b.WriteString(`<port_agent_packet type="`)
	b.WriteString(p.ptype.String())
	b.WriteString(`" time="`)
	b.WriteString(p.timestamp.String())
	b.WriteString(`">`)
	b.Write(p.payload)
	b.WriteString(`</port_agent_packet>`)
	b.WriteString("\n\r")
	return b.String()
}
