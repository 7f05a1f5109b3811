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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tapanagupta/port-agent/packet"
)

func TestFilePublisherAcceptsEverything(t *testing.T) {
	f := NewExplicitFilePublisher(filepath.Join(t.TempDir(), "x.data"), false)
	require.True(t, f.Accepts(packet.DataFromInstrument))
	require.True(t, f.Accepts(packet.PortAgentHeartbeat))
}

func TestFilePublisherWritesASCIIWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.data")
	f := NewExplicitFilePublisher(path, true)
	p := mustPacket(t, packet.DataFromInstrument, "hello")
	require.NoError(t, f.WritePacket(p))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, p.ASCII(), string(contents))
}

func TestFilePublisherWritesBinaryByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.data")
	f := NewExplicitFilePublisher(path, false)
	p := mustPacket(t, packet.DataFromInstrument, "hello")
	require.NoError(t, f.WritePacket(p))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, p.Bytes(), contents)
}
