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
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// PidFile guards against a second instance of the agent claiming the
// same command port, the way DaemonProcess::is_running/kill_process
// does in the original implementation via a zero-signal kill(2) probe.
type PidFile struct {
	Path string
}

// NewPidFile builds a PidFile at the conventional
// {pidDir}/port_agent_{commandPort}.pid location.
func NewPidFile(pidDir string, commandPort uint16) *PidFile {
	return &PidFile{Path: fmt.Sprintf("%s/port_agent_%d.pid", pidDir, commandPort)}
}

// Acquire checks for a live process recorded in the PID file. If one
// is found, it returns ErrDuplicateInstance. Otherwise it (re)writes
// the PID file with this process's PID, replacing any stale content.
func (p *PidFile) Acquire() error {
	if pid, err := readPid(p.Path); err == nil {
		if processAlive(pid) {
			return fmt.Errorf("%w: pid %d in %s", ErrDuplicateInstance, pid, p.Path)
		}
		log.Infof("agent: removing stale pid file %s (pid %d is gone)", p.Path, pid)
	}
	return os.WriteFile(p.Path, []byte(strconv.Itoa(unix.Getpid())+"\n"), 0644)
}

// Release removes the PID file on clean shutdown.
func (p *PidFile) Release() error {
	err := os.Remove(p.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func readPid(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, ErrMissingPID
	}
	return pid, nil
}

// processAlive probes pid with a zero signal: ESRCH means gone, EPERM
// means alive but owned by another user, nil means alive and ours.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
