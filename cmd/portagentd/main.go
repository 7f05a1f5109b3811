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

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/tapanagupta/port-agent/agent"
	"github.com/tapanagupta/port-agent/config"
)

const programVersion = "1.0.0"

// parentPollInterval is how often --ppid checks that its parent is still
// alive, the Go equivalent of the source's poison-pill parent monitor
// thread (PortAgent::checkParentProcess).
const parentPollInterval = 5 * time.Second

// verboseCount implements flag.Value so repeated -verbose flags each bump
// the counter by one, generalizing the repeated-value flag.Var idiom used
// for -ip/-msgtype elsewhere in the pack to a payload-less counter.
type verboseCount int

func (v *verboseCount) String() string { return strconv.Itoa(int(*v)) }
func (v *verboseCount) Set(string) error {
	*v++
	return nil
}
func (v *verboseCount) IsBoolFlag() bool { return true }

func main() {
	cfg := config.New()

	var (
		verbose     verboseCount
		ppid        int
		commandPort int
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "port_agent: a serial/TCP/RSN/BOTPT instrument relay\n\nFlags:\n")
		flag.PrintDefaults()
	}

	flag.BoolVar(&cfg.Help, "help", false, "print usage and exit")
	flag.BoolVar(&cfg.Version, "version", false, "print version and exit")
	flag.BoolVar(&cfg.Kill, "kill", false, "stop the instance holding --command_port's pid file")
	flag.BoolVar(&cfg.NoDetach, "single", false, "run in the foreground, do not daemonize")
	flag.Var(&verbose, "verbose", "increase log verbosity, repeatable")
	flag.IntVar(&ppid, "ppid", 0, "exit if this parent pid disappears")
	flag.IntVar(&commandPort, "command_port", 0, "observatory command port; doubles as this instance's identity")
	flag.StringVar(&cfg.ConfFile, "conffile", "", "path to a configuration file of control-port commands")
	var monitoringPort int
	flag.IntVar(&monitoringPort, "monitoringport", 0, "port to serve Prometheus /metrics on, 0 to disable")
	flag.Parse()

	if cfg.Help {
		flag.Usage()
		return
	}
	if cfg.Version {
		fmt.Println(programVersion)
		return
	}

	if commandPort < 0 || commandPort > 65535 {
		log.Fatalf("port_agent: command_port %d out of range", commandPort)
	}
	cfg.ObservatoryCommandPort = uint16(commandPort)
	if ppid > 0 {
		cfg.PPID = uint32(ppid)
	}
	if monitoringPort < 0 || monitoringPort > 65535 {
		log.Fatalf("port_agent: monitoringport %d out of range", monitoringPort)
	}
	cfg.MonitoringPort = uint16(monitoringPort)

	cfg.Verbosity = int(verbose)
	switch {
	case cfg.Verbosity >= 2:
		log.SetLevel(log.DebugLevel)
	case cfg.Verbosity == 1:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}

	if cfg.ObservatoryCommandPort == 0 {
		log.Fatalf("port_agent: %v", agent.ErrMissingCommandPort)
	}

	pidFile := agent.NewPidFile(cfg.PIDDir, cfg.ObservatoryCommandPort)

	if cfg.Kill {
		if err := killInstance(pidFile); err != nil {
			log.Fatalf("port_agent: %v", err)
		}
		return
	}

	if err := pidFile.Acquire(); err != nil {
		log.Fatalf("port_agent: %v", err)
	}
	defer pidFile.Release()

	a := agent.New(cfg)

	if cfg.MonitoringPort != 0 {
		go a.Metrics.Start(int(cfg.MonitoringPort))
	}

	if cfg.ConfFile != "" {
		if err := a.LoadConfigFile(cfg.ConfFile); err != nil {
			log.Fatalf("port_agent: loading %s: %v", cfg.ConfFile, err)
		}
	}

	if ppid != 0 {
		go watchParent(a, ppid)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("port_agent: %v", err)
	}
}

// killInstance signals the pid recorded in pidFile, the CLI-level
// counterpart of DaemonProcess::kill_process.
func killInstance(pidFile *agent.PidFile) error {
	content, err := os.ReadFile(pidFile.Path)
	if err != nil {
		return fmt.Errorf("no running instance found: %w", err)
	}
	pid, err := strconv.Atoi(string(trimNewline(content)))
	if err != nil {
		return agent.ErrMissingPID
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("signaling pid %d: %w", pid, err)
	}
	log.Infof("port_agent: sent SIGTERM to pid %d", pid)
	return nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

// watchParent exits the process once ppid is no longer alive, the Go
// equivalent of the source's --ppid poison-pill: the port agent is meant
// to die with the process that spawned it rather than become an orphan.
func watchParent(a *agent.PortAgent, ppid int) {
	ticker := time.NewTicker(parentPollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if unix.Kill(ppid, 0) != nil {
			log.Warnf("port_agent: parent pid %d gone, shutting down", ppid)
			a.Shutdown()
			return
		}
	}
}
