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

import "encoding/binary"

// syncSize is the width in bytes of the frame-start constant.
const syncSize = 3

var syncPattern = [syncSize]byte{byte(Sync >> 16), byte(Sync >> 8), byte(Sync)}

// RawPacketDataBuffer reassembles Packets from an upstream byte stream that
// is already port-agent-framed (the RSN digi case): arbitrary chunks go in
// via WriteRawData, and GetNextPacket yields one completed Packet (valid or
// PORT_AGENT_FAULT) per call, or nil when there is not yet enough data.
type RawPacketDataBuffer struct {
	buf                *CircularBuffer
	maxPacketSize      int
	maxInvalidDataSize int
}

// NewRawPacketDataBuffer constructs a reassembly buffer. maxInvalidDataSize
// is clamped down to maxPacketSize when it is larger. It fails with
// ErrParamOutOfRange if maxPacketSize exceeds the buffer's capacity.
func NewRawPacketDataBuffer(capacity, maxPacketSize, maxInvalidDataSize int) (*RawPacketDataBuffer, error) {
	if maxPacketSize > capacity {
		return nil, ErrParamOutOfRange
	}
	if maxInvalidDataSize > maxPacketSize {
		maxInvalidDataSize = maxPacketSize
	}
	return &RawPacketDataBuffer{
		buf:                NewCircularBuffer(capacity),
		maxPacketSize:      maxPacketSize,
		maxInvalidDataSize: maxInvalidDataSize,
	}, nil
}

// MaxPacketSize returns the configured maximum frame size.
func (r *RawPacketDataBuffer) MaxPacketSize() int { return r.maxPacketSize }

// MaxInvalidDataSize returns the configured cap on a single run of garbage.
func (r *RawPacketDataBuffer) MaxInvalidDataSize() int { return r.maxInvalidDataSize }

// Size returns the number of bytes currently buffered and unconsumed.
func (r *RawPacketDataBuffer) Size() int { return r.buf.Size() }

// WriteRawData buffers data read from the upstream endpoint. It fails with
// ErrBufferOverflow if the buffer does not have room for all of it.
func (r *RawPacketDataBuffer) WriteRawData(data []byte) error {
	n := r.buf.Write(data)
	if n < len(data) {
		return ErrBufferOverflow
	}
	return nil
}

// GetNextPacket returns the next completed Packet, or (nil, nil) when the
// buffer holds no complete frame yet. A returned Packet may be a
// PORT_AGENT_FAULT carrying discarded garbage instead of a valid frame.
func (r *RawPacketDataBuffer) GetNextPacket() (*Packet, error) {
	if r.buf.Size() == 0 {
		return nil, nil
	}

	p, err := r.checkForInvalidPacket(false)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	return r.checkForPacket()
}

// checkForPacket assumes the buffer begins at a sync candidate (any leading
// garbage has already been stripped by checkForInvalidPacket) and tries to
// produce a validated frame.
func (r *RawPacketDataBuffer) checkForPacket() (*Packet, error) {
	if r.buf.Size() < HeaderSize {
		return nil, nil
	}

	header := make([]byte, HeaderSize)
	r.buf.Peek(header)
	r.buf.ResetPeek()

	if !ValidateHeaderBytes(header, r.maxPacketSize) {
		return r.checkForInvalidPacket(true)
	}

	size := int(binary.BigEndian.Uint16(header[4:6]))
	if size > r.buf.Size() {
		return nil, nil
	}

	frame := make([]byte, size)
	r.buf.Peek(frame)
	r.buf.ResetPeek()

	if !ValidateChecksumBytes(frame) {
		return r.checkForInvalidPacket(true)
	}

	p, err := FromBytes(frame)
	if err != nil {
		return nil, err
	}
	r.buf.Discard(size)
	return p, nil
}

// checkForInvalidPacket scans for leading garbage and, if any is found,
// packages it as a PORT_AGENT_FAULT. invalidSync marks that the buffer's
// first syncSize bytes are already known to be a corrupt sync (a failed
// header or checksum validation) and should be folded into the garbage run
// rather than re-examined as a candidate sync.
func (r *RawPacketDataBuffer) checkForInvalidPacket(invalidSync bool) (*Packet, error) {
	data := r.leadingInvalidData(invalidSync)
	if len(data) == 0 {
		return nil, nil
	}
	return New(PortAgentFault, Now(), data)
}

// leadingInvalidData implements the exact scan order of the source
// algorithm: walk the peek cursor byte by byte matching against the 3-byte
// sync pattern; a mismatch folds any partially-matched sync bytes back into
// the invalid run and resets the match index to zero (same non-backtracking
// rule as BufferedSingleCharPacket's sentinel matcher). The scan stops on a
// full sync match, on exhausting the buffer, or on exceeding
// maxInvalidDataSize. A partial sync match still in progress when the
// buffer runs out is left unconsumed so a sync split across writes still
// resyncs on the next call.
func (r *RawPacketDataBuffer) leadingInvalidData(invalidSync bool) []byte {
	consumed := 0
	if invalidSync && r.buf.Size() >= syncSize {
		scratch := make([]byte, syncSize)
		r.buf.Peek(scratch)
		consumed = syncSize
	}

	syncIdx := 0
	for {
		b, ok := r.buf.PeekNextByte()
		if !ok {
			break
		}
		if b == syncPattern[syncIdx] {
			syncIdx++
			if syncIdx == syncSize {
				break
			}
		} else {
			consumed += 1 + syncIdx
			syncIdx = 0
			if consumed > r.maxInvalidDataSize {
				break
			}
		}
	}
	r.buf.ResetPeek()

	if consumed == 0 {
		return nil
	}
	data := make([]byte, consumed)
	r.buf.Read(data)
	return data
}
