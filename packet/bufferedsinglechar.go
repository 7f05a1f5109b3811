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

package packet

import "fmt"

// maxSentinelPayload mirrors the C++ source's 0xFFEF cap: the largest
// max payload size a BufferedSingleCharPacket will accept, leaving room
// for the 16-byte header within the 16-bit wire size field.
const maxSentinelPayload = 0xFFEF

// BufferedSingleCharPacket is a Packet under construction one byte at a
// time, becoming ready to send when any one of three triggers fires:
// the payload reaches its configured max size, a quiescent period has
// elapsed since the last byte, or a configured sentinel sequence has
// been matched as a suffix of the buffered payload.
type BufferedSingleCharPacket struct {
	ptype      Type
	maxPayload int

	hasQuiet   bool
	quietSecs  float64
	lastAdd    Timestamp

	sentinel    []byte
	sentinelIdx int

	payload   []byte
	timestamp Timestamp
	started   bool
}

// NewBufferedSingleCharPacket constructs a framer. It fails with
// ErrParamOutOfRange when: ptype is Unknown; maxPayload is zero or
// greater than maxSentinelPayload; quietSeconds is negative; or
// sentinel is empty but non-nil (a zero-length sentinel makes no sense
// as a trigger).
func NewBufferedSingleCharPacket(ptype Type, maxPayload int, quietSeconds float64, hasQuiet bool, sentinel []byte) (*BufferedSingleCharPacket, error) {
	if ptype == Unknown {
		return nil, fmt.Errorf("%w: packet type must not be UNKNOWN", ErrParamOutOfRange)
	}
	if maxPayload <= 0 || maxPayload > maxSentinelPayload {
		return nil, fmt.Errorf("%w: max payload %d out of range", ErrParamOutOfRange, maxPayload)
	}
	if hasQuiet && quietSeconds < 0 {
		return nil, fmt.Errorf("%w: quiescent time must not be negative", ErrParamOutOfRange)
	}
	if sentinel != nil && len(sentinel) == 0 {
		return nil, fmt.Errorf("%w: sentinel must not be zero-length when set", ErrParamOutOfRange)
	}

	b := &BufferedSingleCharPacket{
		ptype:      ptype,
		maxPayload: maxPayload,
		hasQuiet:   hasQuiet,
		quietSecs:  quietSeconds,
	}
	if sentinel != nil {
		b.sentinel = append([]byte(nil), sentinel...)
	}
	return b, nil
}

// Add appends one byte at the given timestamp. The first byte added
// becomes the packet's header timestamp. It fails with ErrPacketOverflow
// if the payload is already at its configured max size — callers must
// check ReadyToSend before every Add in the hot path, per §4.4.
func (b *BufferedSingleCharPacket) Add(c byte, ts Timestamp) error {
	if len(b.payload) == b.maxPayload {
		return ErrPacketOverflow
	}
	if !b.started {
		b.timestamp = ts
		b.started = true
	}
	b.payload = append(b.payload, c)
	if b.hasQuiet {
		b.lastAdd = ts
	}
	if b.sentinel != nil {
		if c == b.sentinel[b.sentinelIdx] {
			b.sentinelIdx++
		} else {
			b.sentinelIdx = 0
		}
	}
	return nil
}

// ReadyToSend reports whether any configured trigger has fired. An
// empty buffered packet is never ready.
func (b *BufferedSingleCharPacket) ReadyToSend(now Timestamp) bool {
	if len(b.payload) == 0 {
		return false
	}
	if len(b.payload) == b.maxPayload {
		return true
	}
	if b.hasQuiet && now.AsDouble()-b.lastAdd.AsDouble() >= b.quietSecs {
		return true
	}
	if b.sentinel != nil && b.sentinelIdx == len(b.sentinel) {
		return true
	}
	return false
}

// Len returns the number of buffered payload bytes.
func (b *BufferedSingleCharPacket) Len() int { return len(b.payload) }

// ToPacket finalizes the buffered bytes into an immutable Packet. It
// does not reset the framer — callers construct a fresh
// BufferedSingleCharPacket for the next frame.
func (b *BufferedSingleCharPacket) ToPacket() (*Packet, error) {
	return New(b.ptype, b.timestamp, b.payload)
}
