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

// Package connection composes comm.Endpoint pairs into the five
// observatory/instrument connection shapes a port agent can run:
// Observatory, Instrument TCP, Instrument RSN, Instrument BOTPT, and
// Instrument Serial.
package connection

// Connection is the aggregation every composition exposes to the
// PortAgent state machine, so it can drive the state machine without
// knowing which concrete instrument shape is in play.
type Connection interface {
	DataConnected() bool
	CommandConnected() bool
	DataConfigured() bool
	DataInitialized() bool

	// Initialize brings up every endpoint the composition owns.
	Initialize() error
	// Disconnect tears down every endpoint the composition owns.
	Disconnect() error
}
