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

// Package agent implements the port agent state machine: the single
// run loop that owns a connection.Connection, a publisher.PublisherList,
// and the observatory command port's control protocol, and drives every
// state transition in response to accepted clients, instrument reads,
// and parsed commands.
package agent

// State is one node of the port agent state machine.
type State int

// States, in construction order.
const (
	StateUnknown State = iota
	StateStartup
	StateUnconfigured
	StateConfigured
	StateConnected
	StateDisconnected
)

var stateNames = map[State]string{
	StateUnknown:      "UNKNOWN",
	StateStartup:      "STARTUP",
	StateUnconfigured: "UNCONFIGURED",
	StateConfigured:   "CONFIGURED",
	StateConnected:    "CONNECTED",
	StateDisconnected: "DISCONNECTED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
