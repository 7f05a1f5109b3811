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
	"os"
	"sync"
	"time"
)

// DataLog is a strict-append file stream that reopens itself whenever
// its target filename changes or its current handle stops being
// valid, per spec.md §4.11. With an explicit name it never rotates;
// with a base (and optional extension) it derives
// "{base}.{YYYYMMDD}[.{ext}]" from the current date on every write.
type DataLog struct {
	explicit string
	base     string
	ext      string
	clock    func() time.Time

	mu          sync.Mutex
	f           *os.File
	currentName string
	badBit      bool
}

// NewExplicitDataLog builds a DataLog with a fixed, never-rotating name.
func NewExplicitDataLog(path string) *DataLog {
	return &DataLog{explicit: path, clock: time.Now}
}

// NewRotatingDataLog builds a DataLog that derives a new filename from
// base/ext every time the date changes. ext may be empty.
func NewRotatingDataLog(base, ext string) *DataLog {
	return &DataLog{base: base, ext: ext, clock: time.Now}
}

// expectedFilename computes today's filename without touching the filesystem.
func (d *DataLog) expectedFilename() string {
	if d.explicit != "" {
		return d.explicit
	}
	date := d.clock().Format("20060102")
	if d.ext != "" {
		return fmt.Sprintf("%s.%s.%s", d.base, date, d.ext)
	}
	return fmt.Sprintf("%s.%s", d.base, date)
}

// needsReopen reports whether the current handle is unusable for the
// expected filename: never opened, marked bad by a prior write error,
// removed out from under us, or superseded by a date rollover.
func (d *DataLog) needsReopen(expected string) bool {
	if d.f == nil || d.badBit || expected != d.currentName {
		return true
	}
	if _, err := os.Stat(expected); err != nil {
		return true
	}
	return false
}

func (d *DataLog) reopen(name string) error {
	if d.f != nil {
		d.f.Close()
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		d.f = nil
		return err
	}
	d.f = f
	d.currentName = name
	d.badBit = false
	return nil
}

// Write appends b to the log, reopening first if needed.
func (d *DataLog) Write(b []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	expected := d.expectedFilename()
	if d.needsReopen(expected) {
		if err := d.reopen(expected); err != nil {
			return 0, err
		}
	}

	n, err := d.f.Write(b)
	if err != nil {
		d.badBit = true
	}
	return n, err
}

// Close closes the current handle, if any.
func (d *DataLog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
