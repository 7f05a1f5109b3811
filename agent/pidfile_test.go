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
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPidFileAcquireWritesOwnPid(t *testing.T) {
	dir := t.TempDir()
	p := NewPidFile(dir, 4000)
	require.NoError(t, p.Acquire())

	content, err := os.ReadFile(p.Path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(unix.Getpid())+"\n", string(content))
}

func TestPidFileAcquireFailsWhenLiveProcessHoldsIt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "port_agent_4000.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(unix.Getpid())+"\n"), 0644))

	p := &PidFile{Path: path}
	err := p.Acquire()
	require.ErrorIs(t, err, ErrDuplicateInstance)
}

func TestPidFileAcquireReplacesStalePid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "port_agent_4000.pid")
	// A pid extremely unlikely to be alive in any test environment.
	require.NoError(t, os.WriteFile(path, []byte("999999\n"), 0644))

	p := &PidFile{Path: path}
	require.NoError(t, p.Acquire())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(unix.Getpid())+"\n", string(content))
}

func TestPidFileReleaseRemovesFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPidFile(dir, 4000)
	require.NoError(t, p.Acquire())
	require.NoError(t, p.Release())

	_, err := os.Stat(p.Path)
	require.True(t, os.IsNotExist(err))
}

func TestPidFileReleaseNoopWhenAbsent(t *testing.T) {
	p := NewPidFile(t.TempDir(), 4000)
	require.NoError(t, p.Release())
}
