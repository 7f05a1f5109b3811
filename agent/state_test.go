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

package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateUnknown, "UNKNOWN"},
		{StateStartup, "STARTUP"},
		{StateUnconfigured, "UNCONFIGURED"},
		{StateConfigured, "CONFIGURED"},
		{StateConnected, "CONNECTED"},
		{StateDisconnected, "DISCONNECTED"},
		{State(99), "UNKNOWN"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.state.String())
	}
}
