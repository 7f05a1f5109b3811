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
	"fmt"

	"github.com/tapanagupta/port-agent/packet"
)

// FilePublisher accepts every packet type and appends it, ASCII- or
// binary-rendered, to a rotating DataLog.
type FilePublisher struct {
	Log       *DataLog
	ASCIIMode bool

	filename, base, ext string
}

var _ Publisher = (*FilePublisher)(nil)

// NewExplicitFilePublisher wraps a fixed-name, never-rotating log.
func NewExplicitFilePublisher(filename string, ascii bool) *FilePublisher {
	return &FilePublisher{Log: NewExplicitDataLog(filename), ASCIIMode: ascii, filename: filename}
}

// NewRotatingFilePublisher wraps a daily-rotating log derived from
// base/ext.
func NewRotatingFilePublisher(base, ext string, ascii bool) *FilePublisher {
	return &FilePublisher{Log: NewRotatingDataLog(base, ext), ASCIIMode: ascii, base: base, ext: ext}
}

// Kind is KindFile.
func (f *FilePublisher) Kind() Kind { return KindFile }

// EndpointKey uniquely identifies this file publisher by
// (filename, base, ext), per spec.md §4.8.
func (f *FilePublisher) EndpointKey() string {
	return fmt.Sprintf("file:%s:%s:%s", f.filename, f.base, f.ext)
}

// Accepts is always true: a file publisher logs every packet type.
func (f *FilePublisher) Accepts(packet.Type) bool { return true }

// WritePacket appends p's rendering to the log.
func (f *FilePublisher) WritePacket(p *packet.Packet) error {
	if f.ASCIIMode {
		_, err := f.Log.Write([]byte(p.ASCII()))
		return err
	}
	_, err := f.Log.Write(p.Bytes())
	return err
}
