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

// Package comm provides the endpoint abstractions (TCP listener, TCP
// client socket, serial device) that front every byte stream a port
// agent reads or writes.
package comm

import "errors"

// ErrNotConfigured is returned from Initialize when the endpoint has no
// address/device to bind or dial yet.
var ErrNotConfigured = errors.New("comm: not configured")

// ErrNotConnected is returned from Read/Write when the endpoint has no
// live connection.
var ErrNotConnected = errors.New("comm: not connected")

// ErrNotListening is returned from AcceptClient when called on a
// TCPListener that is not currently listening (e.g. already holding a
// client, or not yet initialized).
var ErrNotListening = errors.New("comm: not listening")

// ErrBindTimeout is returned by TCPListener.Initialize when the bind
// retry window elapses while the port is still EADDRINUSE.
var ErrBindTimeout = errors.New("comm: bind retry window exceeded")
