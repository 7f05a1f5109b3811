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
	"bufio"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tapanagupta/port-agent/config"
	"github.com/tapanagupta/port-agent/packet"
)

const helpText = `port agent control commands:
  help
  get_config
  get_state
  save_config
  ping
  break [seconds]
  shutdown
  rotation_interval <none|daily>
  instrument_type <tcp|rsn|serial|botpt>
  command_port/data_port/instrument_addr/instrument_data_port/... <value>
`

// handleCommandLine parses one observatory-command-port line, drains
// every command it queues (Parse already pushed the family onto
// a.Config.Commands with coalescing), and writes the §4.13 response
// back to the accepted command client. Restored from the original
// implementation's command dispatch, which the distilled line-parser
// alone does not cover.
func (a *PortAgent) handleCommandLine(line string) {
	cmd, err := a.Config.Parse(line)
	if err != nil {
		a.respondFault(line, err)
		return
	}
	if cmd == config.CmdUnknown {
		return
	}

	for {
		next, ok := a.Config.Commands.Pop()
		if !ok {
			return
		}
		a.dispatch(next)
	}
}

func (a *PortAgent) dispatch(cmd config.Command) {
	switch cmd {
	case config.CmdCommConfigUpdate:
		a.applyConfigCommand(cmd)
		if a.State() == StateConfigured {
			a.tryConnectInstrument()
		}
	case config.CmdPublisherConfigUpdate, config.CmdPathConfigUpdate:
		a.applyConfigCommand(cmd)
	case config.CmdHelp:
		a.respondStatus(helpText)
	case config.CmdGetConfig:
		a.respondConfig()
	case config.CmdGetState:
		a.respondStatus(a.State().String())
	case config.CmdPing:
		a.respondStatus("PONG")
	case config.CmdSaveConfig:
		a.respondConfig()
	case config.CmdBreak:
		a.publishBreak()
		a.respondStatus("OK")
	case config.CmdShutdown:
		a.respondStatus("OK")
		a.Shutdown()
	}
}

// applyConfigCommand runs the subsystem-rebuild side of dispatch for the
// three update families, shared between interactive command handling and
// LoadConfigFile, which has no command client to write a response to.
func (a *PortAgent) applyConfigCommand(cmd config.Command) {
	switch cmd {
	case config.CmdCommConfigUpdate:
		if err := a.applyCommConfig(); err != nil {
			log.Errorf("agent: comm config update: %v", err)
		}
	case config.CmdPublisherConfigUpdate:
		if err := a.applyPublisherConfig(); err != nil {
			log.Errorf("agent: publisher config update: %v", err)
		}
	case config.CmdPathConfigUpdate:
		a.applyPathConfig()
	}
}

// LoadConfigFile reads path line by line through the control-port parser,
// the Go counterpart of PortAgentConfig::readConfig in the original
// implementation. Response-only commands (ping, help, get_config, ...) are
// accepted but produce no output, since no command client is attached at
// load time; only the three update families have any effect.
func (a *PortAgent) LoadConfigFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var failed bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := a.Config.Parse(line); err != nil {
			log.Warnf("agent: config file %s: %v", path, err)
			failed = true
			continue
		}
		for {
			next, ok := a.Config.Commands.Pop()
			if !ok {
				break
			}
			a.applyConfigCommand(next)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed {
		return fmt.Errorf("agent: one or more lines in %s failed to parse", path)
	}
	return nil
}

// publishBreak fans out an INSTRUMENT_COMMAND packet carrying a break
// request, mirroring publishBreak in the original implementation
// (which sends the break through the publisher list rather than
// writing to the instrument connection directly).
func (a *PortAgent) publishBreak() {
	p, err := packet.New(packet.InstrumentCommand, packet.Now(), []byte("break\n"))
	if err != nil {
		log.Errorf("agent: building break command: %v", err)
		return
	}
	if err := a.Publishers.Publish(p); err != nil {
		log.Errorf("agent: publishing break command: %v", err)
	}
}

func (a *PortAgent) respondConfig() {
	body, err := a.Config.MarshalYAML()
	if err != nil {
		log.Errorf("agent: marshal config: %v", err)
		return
	}
	a.respondStatus(string(body))
}

func (a *PortAgent) respondStatus(body string) {
	a.writeResponse(packet.PortAgentStatus, body)
}

func (a *PortAgent) respondFault(line string, err error) {
	log.Warnf("agent: command parse: %v", err)
	a.writeResponse(packet.PortAgentFault, line+": "+err.Error())
}

func (a *PortAgent) writeResponse(ptype packet.Type, body string) {
	p, err := packet.New(ptype, packet.Now(), []byte(body))
	if err != nil {
		log.Errorf("agent: building response packet: %v", err)
		return
	}
	if _, err := a.Observatory.Command.Write([]byte(p.ASCII())); err != nil {
		log.Errorf("agent: writing command response: %v", err)
	}
}
