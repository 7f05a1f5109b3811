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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferedSingleCharConstructionValidation(t *testing.T) {
	_, err := NewBufferedSingleCharPacket(Unknown, 10, 0, false, nil)
	require.ErrorIs(t, err, ErrParamOutOfRange)

	_, err = NewBufferedSingleCharPacket(DataFromInstrument, 0, 0, false, nil)
	require.ErrorIs(t, err, ErrParamOutOfRange)

	_, err = NewBufferedSingleCharPacket(DataFromInstrument, maxSentinelPayload+1, 0, false, nil)
	require.ErrorIs(t, err, ErrParamOutOfRange)

	_, err = NewBufferedSingleCharPacket(DataFromInstrument, maxSentinelPayload, 0, false, nil)
	require.NoError(t, err)

	_, err = NewBufferedSingleCharPacket(DataFromInstrument, 10, -1, true, nil)
	require.ErrorIs(t, err, ErrParamOutOfRange)

	_, err = NewBufferedSingleCharPacket(DataFromInstrument, 10, 0, false, []byte{})
	require.ErrorIs(t, err, ErrParamOutOfRange)
}

func TestBufferedSingleCharEmptyNeverReady(t *testing.T) {
	b, err := NewBufferedSingleCharPacket(DataFromInstrument, 10, 0, false, nil)
	require.NoError(t, err)
	require.False(t, b.ReadyToSend(Now()))
}

func TestBufferedSingleCharSizeTrigger(t *testing.T) {
	b, err := NewBufferedSingleCharPacket(DataFromInstrument, 3, 0, false, nil)
	require.NoError(t, err)
	now := Now()
	require.NoError(t, b.Add('a', now))
	require.False(t, b.ReadyToSend(now))
	require.NoError(t, b.Add('b', now))
	require.NoError(t, b.Add('c', now))
	require.True(t, b.ReadyToSend(now))

	err = b.Add('d', now)
	require.ErrorIs(t, err, ErrPacketOverflow)
}

func TestBufferedSingleCharQuiescentTrigger(t *testing.T) {
	b, err := NewBufferedSingleCharPacket(DataFromInstrument, 100, 1.0, true, nil)
	require.NoError(t, err)
	t0 := NewTimestamp(1000, 0)
	require.NoError(t, b.Add('a', t0))
	require.False(t, b.ReadyToSend(NewTimestamp(1000, 0)))

	later := NewTimestamp(1001, 0)
	require.True(t, b.ReadyToSend(later))
}

func TestBufferedSingleCharSentinelPrefixAnchored(t *testing.T) {
	b, err := NewBufferedSingleCharPacket(InstrumentCommand, 11, 0, false, []byte("ab"))
	require.NoError(t, err)
	now := Now()

	require.NoError(t, b.Add('a', now))
	require.NoError(t, b.Add('z', now))
	require.NoError(t, b.Add('b', now))
	require.False(t, b.ReadyToSend(now))

	require.NoError(t, b.Add('a', now))
	require.NoError(t, b.Add('b', now))
	require.True(t, b.ReadyToSend(now))
}

// The matcher resets its index to zero on mismatch without re-testing the
// current byte against the sentinel's first byte (no KMP backtracking).
// "aab" appears as a substring of "aaab" starting at offset 1, but this
// non-backtracking matcher misses it because the index was already 2 when
// the third 'a' broke the match.
func TestBufferedSingleCharSentinelNoBacktrackMissesOverlap(t *testing.T) {
	b, err := NewBufferedSingleCharPacket(InstrumentCommand, 11, 0, false, []byte("aab"))
	require.NoError(t, err)
	now := Now()

	for _, c := range []byte("aaab") {
		require.NoError(t, b.Add(c, now))
	}
	require.False(t, b.ReadyToSend(now))
}

func TestBufferedSingleCharFirstByteSetsTimestamp(t *testing.T) {
	b, err := NewBufferedSingleCharPacket(DataFromInstrument, 10, 0, false, nil)
	require.NoError(t, err)
	first := NewTimestamp(42, 0)
	require.NoError(t, b.Add('x', first))
	require.NoError(t, b.Add('y', NewTimestamp(99, 0)))

	p, err := b.ToPacket()
	require.NoError(t, err)
	require.Equal(t, first, p.Timestamp())
}
