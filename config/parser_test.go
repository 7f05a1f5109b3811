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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePureVerbs(t *testing.T) {
	cases := map[string]Command{
		"help":        CmdHelp,
		"save_config": CmdSaveConfig,
		"get_config":  CmdGetConfig,
		"get_state":   CmdGetState,
		"ping":        CmdPing,
		"break":       CmdBreak,
		"shutdown":    CmdShutdown,
	}
	for line, want := range cases {
		c := New()
		got, err := c.Parse(line)
		require.NoError(t, err, line)
		require.Equal(t, want, got, line)
		require.True(t, c.Commands.Contains(want), line)
	}
}

func TestParseVerboseIncrementsVerbosityWithoutQueuing(t *testing.T) {
	c := New()
	_, err := c.Parse("verbose")
	require.NoError(t, err)
	require.Equal(t, 1, c.Verbosity)
	require.Equal(t, 0, c.Commands.Len())

	c.Parse("verbose")
	require.Equal(t, 2, c.Verbosity)
}

func TestParseCommConfigSetterQueuesCommConfigUpdate(t *testing.T) {
	c := New()
	got, err := c.Parse("command_port 4000")
	require.NoError(t, err)
	require.Equal(t, CmdCommConfigUpdate, got)
	require.EqualValues(t, 4000, c.ObservatoryCommandPort)
	require.True(t, c.Commands.Contains(CmdCommConfigUpdate))
}

func TestParsePublisherConfigSetterQueuesPublisherConfigUpdate(t *testing.T) {
	c := New()
	got, err := c.Parse("max_packet_size 4096")
	require.NoError(t, err)
	require.Equal(t, CmdPublisherConfigUpdate, got)
	require.EqualValues(t, 4096, c.MaxPacketSizeVal)
}

func TestParsePathConfigSetterQueuesPathConfigUpdate(t *testing.T) {
	c := New()
	got, err := c.Parse("pid_dir /var/run")
	require.NoError(t, err)
	require.Equal(t, CmdPathConfigUpdate, got)
	require.Equal(t, "/var/run", c.PIDDir)
}

func TestParseSentinelCommand(t *testing.T) {
	c := New()
	got, err := c.Parse(`sentinel 'ab\n'`)
	require.NoError(t, err)
	require.Equal(t, CmdPublisherConfigUpdate, got)
	require.Equal(t, "ab\n", c.SentinelSequence)
}

func TestParseUnknownCommand(t *testing.T) {
	c := New()
	_, err := c.Parse("frobnicate 1")
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestParseTrailingGarbage(t *testing.T) {
	c := New()
	_, err := c.Parse("command_port 4000 extra")
	require.ErrorIs(t, err, ErrTrailingTokens)
}

func TestParseInvalidValueDoesNotQueueCommand(t *testing.T) {
	c := New()
	_, err := c.Parse("baud 300")
	require.ErrorIs(t, err, ErrInvalidValue)
	require.Equal(t, 0, c.Commands.Len())
}

func TestParseBadLineDoesNotAffectSubsequentLines(t *testing.T) {
	c := New()
	_, err := c.Parse("bogus_setting value")
	require.Error(t, err)

	got, err := c.Parse("ping")
	require.NoError(t, err)
	require.Equal(t, CmdPing, got)
}

func TestParseRotationIntervalSetterQueuesPublisherConfigUpdate(t *testing.T) {
	c := New()
	got, err := c.Parse("rotation_interval daily")
	require.NoError(t, err)
	require.Equal(t, CmdPublisherConfigUpdate, got)
	require.Equal(t, RotationDaily, c.RotationInterval)
}

func TestParseRotationIntervalRejectsBadValue(t *testing.T) {
	c := New()
	_, err := c.Parse("rotation_interval weekly")
	require.ErrorIs(t, err, ErrInvalidValue)
	require.Equal(t, 0, c.Commands.Len())
}

func TestParseLogLevelQueuesNothing(t *testing.T) {
	c := New()
	got, err := c.Parse("log_level debug")
	require.NoError(t, err)
	require.Equal(t, CmdUnknown, got)
	require.Equal(t, "debug", c.LogLevel)
	require.Equal(t, 0, c.Commands.Len())
}
