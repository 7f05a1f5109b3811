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

import (
	"encoding/binary"
	"fmt"
	"time"
)

// posixToNTPOffset is the number of seconds between the POSIX epoch
// (1970-01-01) and the NTPv4 epoch (1900-01-01).
const posixToNTPOffset = 2208988800

// Timestamp is an NTPv4 (seconds, fraction) pair. It is immutable once
// constructed: every method returns a derived value rather than mutating
// the receiver.
type Timestamp struct {
	seconds  uint32
	fraction uint32
}

// NewTimestamp builds a Timestamp from explicit NTP seconds/fraction.
func NewTimestamp(seconds, fraction uint32) Timestamp {
	return Timestamp{seconds: seconds, fraction: fraction}
}

// Now converts the current wall clock time into NTPv4 representation.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts an arbitrary time.Time into NTPv4 representation.
func FromTime(t time.Time) Timestamp {
	micros := t.UnixMicro()
	wholeSeconds := micros / 1_000_000
	remainderMicros := micros - wholeSeconds*1_000_000
	seconds := uint32(wholeSeconds + posixToNTPOffset)
	fraction := uint32((remainderMicros << 32) / 1_000_000)
	return Timestamp{seconds: seconds, fraction: fraction}
}

// Seconds returns the raw NTP seconds field.
func (t Timestamp) Seconds() uint32 { return t.seconds }

// Fraction returns the raw NTP fraction field.
func (t Timestamp) Fraction() uint32 { return t.fraction }

// AsBinary renders the 8-byte on-wire form: fraction then seconds, each
// big-endian, matching the wire layout in §3 of the port agent frame.
func (t Timestamp) AsBinary() [8]byte {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], t.fraction)
	binary.BigEndian.PutUint32(buf[4:8], t.seconds)
	return buf
}

// TimestampFromBinary parses the 8-byte on-wire form produced by AsBinary.
func TimestampFromBinary(buf [8]byte) Timestamp {
	fraction := binary.BigEndian.Uint32(buf[0:4])
	seconds := binary.BigEndian.Uint32(buf[4:8])
	return Timestamp{seconds: seconds, fraction: fraction}
}

// AsDouble yields seconds + fraction/2^32. This is used for elapsed-time
// comparisons and log formatting only, never as a wire representation.
func (t Timestamp) AsDouble() float64 {
	return float64(t.seconds) + float64(t.fraction)/4294967296.0
}

// Elapsed returns now().AsDouble() - t.AsDouble(), in seconds.
func (t Timestamp) Elapsed() float64 {
	return Now().AsDouble() - t.AsDouble()
}

// String renders the timestamp as "seconds.fraction" the way the ASCII
// packet form in §3 does ("time=\"S.ffff\"").
func (t Timestamp) String() string {
	return fmt.Sprintf("%.4f", t.AsDouble())
}
