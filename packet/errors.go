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

import "errors"

// ErrParamOutOfRange signals a construction-time invariant violation
// (e.g. an unsupported packet type, a payload cap outside the legal range).
var ErrParamOutOfRange = errors.New("packet: parameter out of range")

// ErrPacketOverflow signals a write beyond a framer's configured max payload.
var ErrPacketOverflow = errors.New("packet: overflow")

// ErrUnknownPacketType signals a type byte outside 1..=7.
var ErrUnknownPacketType = errors.New("packet: unknown packet type")

// ErrTruncated signals a buffer read that could not produce the requested bytes.
var ErrTruncated = errors.New("packet: truncated read")

// ErrBufferOverflow signals a raw data write that did not fully fit the
// destination circular buffer.
var ErrBufferOverflow = errors.New("packet: buffer overflow")
