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

import "errors"

var (
	// ErrMissingCommandPort is returned by Run when the observatory
	// command port, the agent's instance identity, is unset.
	ErrMissingCommandPort = errors.New("agent: observatory command port is not configured")

	// ErrDuplicateInstance is returned by PidFile.Acquire when the PID
	// recorded in an existing PID file is still alive.
	ErrDuplicateInstance = errors.New("agent: another instance already holds this command port")

	// ErrMissingPID is returned when a PID file exists but is empty or
	// does not contain a usable PID.
	ErrMissingPID = errors.New("agent: pid file exists but contains no usable pid")

	// ErrUnknownInstrumentType is returned when the configured
	// instrument type has no corresponding connection composition.
	ErrUnknownInstrumentType = errors.New("agent: unknown instrument type")
)
