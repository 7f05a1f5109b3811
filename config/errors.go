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

import "errors"

// ErrUnknownCommand signals a control-port line whose leading token matches
// no known verb or setter.
var ErrUnknownCommand = errors.New("config: unknown command")

// ErrTrailingTokens signals extra whitespace-separated tokens after a
// complete KEY VALUE pair.
var ErrTrailingTokens = errors.New("config: trailing tokens in command")

// ErrInvalidValue signals a setter whose value is out of its enumerated or
// numeric range.
var ErrInvalidValue = errors.New("config: invalid value")

// ErrParamOutOfRange signals a constructor-time invariant violation.
var ErrParamOutOfRange = errors.New("config: parameter out of range")
