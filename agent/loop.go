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
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rs/xid"

	"github.com/tapanagupta/port-agent/comm"
	"github.com/tapanagupta/port-agent/packet"
)

// reconnectBackoff paces instrument reconnect attempts from
// DISCONNECTED, the Go-channel equivalent of the source's
// sleep(SELECT_SLEEP_TIME) after a failed connect (§5).
const reconnectBackoff = 1 * time.Second

// eventKind tags what kind of completion an endpoint goroutine is
// forwarding to the run loop's select.
type eventKind int

const (
	eventInstrumentPacket eventKind = iota
	eventInstrumentDisconnected
	eventObservatoryCommandLine
	eventObservatoryDataBytes
)

// event is one readiness completion forwarded to the run loop. Only
// the field(s) relevant to kind are populated.
type event struct {
	kind    eventKind
	packets []*packet.Packet
	line    string
	bytes   []byte
}

// Run is the PortAgent's single event loop: the only goroutine that
// mutates state, Config, or Publishers. It spawns one goroutine per
// endpoint (§5's "one goroutine per endpoint blocks on non-blocking-
// with-backoff reads"), each forwarding completions over the
// unbuffered a.events channel, and services that channel alongside a
// heartbeat ticker until Shutdown is called.
func (a *PortAgent) Run() error {
	if a.Config.ObservatoryCommandPort == 0 {
		return ErrMissingCommandPort
	}

	if err := a.Observatory.SetPorts(a.Config.ObservatoryCommandPort, a.Config.ObservatoryDataPort); err != nil {
		return err
	}
	if err := a.Observatory.Initialize(); err != nil {
		return err
	}
	a.setState(StateUnconfigured)
	if err := a.applyPublisherConfig(); err != nil {
		log.Errorf("agent: initial publisher configuration: %v", err)
	}
	if a.Config.IsConfigured() {
		if err := a.applyCommConfig(); err != nil {
			log.Errorf("agent: initial configuration: %v", err)
		} else {
			a.tryConnectInstrument()
		}
	}

	go a.observatoryCommandLoop()
	go a.observatoryDataLoop()
	go a.instrumentLoop()

	heartbeat := time.NewTicker(a.heartbeatInterval())
	defer heartbeat.Stop()

	for {
		select {
		case <-a.done:
			return a.shutdownLocked()
		case ev := <-a.events:
			a.handleEvent(ev)
		case <-heartbeat.C:
			a.sendHeartbeat()
			a.pollInstrument()
		}
	}
}

// Shutdown latches the stop flag the next loop iteration observes,
// mirroring the source's SIGTERM/SIGINT/`shutdown` command handling.
func (a *PortAgent) Shutdown() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

func (a *PortAgent) shutdownLocked() error {
	log.Infof("agent: shutting down")
	if inst, _, _ := a.currentInstrument(); inst != nil {
		inst.Disconnect()
	}
	if a.telnetSniffer != nil {
		a.telnetSniffer.Disconnect()
	}
	return a.Observatory.Disconnect()
}

func (a *PortAgent) heartbeatInterval() time.Duration {
	if a.Config.HeartbeatInterval == 0 {
		return time.Second
	}
	return time.Duration(a.Config.HeartbeatInterval) * time.Second
}

// sendHeartbeat publishes a PORT_AGENT_HEARTBEAT packet when the
// configured heartbeat interval has elapsed, per §4.9's per-state
// handler description.
func (a *PortAgent) sendHeartbeat() {
	if a.Config.HeartbeatInterval == 0 {
		return
	}
	if time.Since(a.lastHeartbeat) < time.Duration(a.Config.HeartbeatInterval)*time.Second {
		return
	}
	a.lastHeartbeat = time.Now()
	p, err := packet.New(packet.PortAgentHeartbeat, packet.Now(), nil)
	if err != nil {
		log.Errorf("agent: building heartbeat: %v", err)
		return
	}
	if err := a.Publishers.Publish(p); err != nil {
		log.Errorf("agent: publishing heartbeat: %v", err)
	}
}

// pollInstrument attempts a reconnect once per heartbeat tick, and only
// from DISCONNECTED. instrumentLoop never dials: it waits while the
// instrument is not connected, so this is the only retry path after a
// failed connect or a lost connection.
func (a *PortAgent) pollInstrument() {
	inst, _, _ := a.currentInstrument()
	if a.state != StateDisconnected || inst == nil {
		return
	}
	a.tryConnectInstrument()
}

func (a *PortAgent) tryConnectInstrument() {
	inst, _, _ := a.currentInstrument()
	if inst == nil {
		return
	}
	connID := xid.New().String()
	if err := inst.Initialize(); err != nil {
		log.WithField("conn", connID).Warnf("agent: instrument connect: %v", err)
		a.setState(StateDisconnected)
		return
	}
	log.WithField("conn", connID).Infof("agent: instrument connected")
	a.setState(StateConnected)
}

// handleEvent applies one event forwarded by an endpoint goroutine. It
// runs on the run loop, so it handles exactly one readiness event per
// loop iteration, preserving the ordering from §5.
func (a *PortAgent) handleEvent(ev event) {
	switch ev.kind {
	case eventInstrumentPacket:
		for _, p := range ev.packets {
			if err := a.Publishers.Publish(p); err != nil {
				log.Errorf("agent: publish instrument packet: %v", err)
			}
		}
	case eventInstrumentDisconnected:
		a.setState(StateDisconnected)
	case eventObservatoryCommandLine:
		a.handleCommandLine(ev.line)
	case eventObservatoryDataBytes:
		a.handleObservatoryData(ev.bytes)
	}
}

// handleObservatoryData frames inbound observatory-data-port bytes as
// a single DATA_FROM_DRIVER packet, fans it out (the InstrumentData
// publisher forwards the raw payload to the instrument), per §6.
func (a *PortAgent) handleObservatoryData(b []byte) {
	p, err := packet.New(packet.DataFromDriver, packet.Now(), b)
	if err != nil {
		log.Errorf("agent: framing observatory data: %v", err)
		return
	}
	if err := a.Publishers.Publish(p); err != nil {
		log.Errorf("agent: publish driver data: %v", err)
	}
}

// observatoryCommandLoop accepts observatory command clients and
// forwards each newline-delimited line as an event, re-accepting after
// every disconnect: comm.TCPListener.Read already re-initializes the
// listener internally on peer close, so the only job here is to
// notice the broken scan and start over.
func (a *PortAgent) observatoryCommandLoop() {
	a.serveLines(a.Observatory.Command, eventObservatoryCommandLine)
}

// observatoryDataLoop is the same accept/re-accept shape as the
// command loop, but forwards raw byte chunks instead of lines: the
// observatory data port carries an opaque stream, not text commands.
func (a *PortAgent) observatoryDataLoop() {
	for {
		select {
		case <-a.done:
			return
		default:
		}
		if !a.Observatory.Data.Connected() {
			if !a.Observatory.Data.Listening() {
				if err := a.Observatory.Data.Initialize(); err != nil {
					log.Errorf("agent: observatory data listen: %v", err)
					time.Sleep(reconnectBackoff)
					continue
				}
			}
			if err := a.Observatory.Data.AcceptClient(); err != nil {
				if a.isShuttingDown() {
					return
				}
				log.Errorf("agent: observatory data accept: %v", err)
				continue
			}
			log.WithField("conn", xid.New().String()).Infof("agent: observatory data client accepted")
		}

		scratch := make([]byte, a.Config.MaxPacketSizeVal)
		n, err := a.Observatory.Data.Read(scratch)
		if err != nil {
			if !errors.Is(err, comm.ErrNotConnected) {
				log.Errorf("agent: observatory data read: %v", err)
			}
			continue
		}
		if n == 0 {
			continue
		}
		a.send(event{kind: eventObservatoryDataBytes, bytes: append([]byte(nil), scratch[:n]...)})
	}
}

// serveLines is shared by every line-delimited observatory listener:
// it accepts one client at a time and scans newline-delimited input,
// restarting the scan whenever the listener's own disconnect/re-accept
// cycle breaks it.
func (a *PortAgent) serveLines(ln *comm.TCPListener, kind eventKind) {
	for {
		select {
		case <-a.done:
			return
		default:
		}
		if !ln.Connected() {
			if !ln.Listening() {
				if err := ln.Initialize(); err != nil {
					log.Errorf("agent: listen: %v", err)
					time.Sleep(reconnectBackoff)
					continue
				}
			}
			if err := ln.AcceptClient(); err != nil {
				if a.isShuttingDown() {
					return
				}
				log.Errorf("agent: accept: %v", err)
				continue
			}
			log.WithField("conn", xid.New().String()).Infof("agent: observatory command client accepted")
		}

		scanner := bufio.NewScanner(ln)
		for scanner.Scan() {
			a.send(event{kind: kind, line: scanner.Text()})
		}
	}
}

// instrumentLoop reads the instrument connection until disconnected,
// framing bytes locally (TCP/BOTPT/Serial, via a.framer) or pumping
// already-framed packets (RSN, via InstrumentRSN.PumpData).
func (a *PortAgent) instrumentLoop() {
	scratch := make([]byte, 4096)
	for {
		select {
		case <-a.done:
			return
		default:
		}
		inst, rsn, reader := a.currentInstrument()
		if inst == nil || !inst.DataConnected() {
			time.Sleep(reconnectBackoff)
			continue
		}

		if rsn != nil {
			packets, err := rsn.PumpData(scratch)
			if err != nil {
				log.Errorf("agent: rsn pump: %v", err)
				a.send(event{kind: eventInstrumentDisconnected})
				continue
			}
			if len(packets) > 0 {
				a.send(event{kind: eventInstrumentPacket, packets: packets})
			}
			if !rsn.DataConnected() {
				a.send(event{kind: eventInstrumentDisconnected})
			}
			continue
		}

		n, err := reader.Read(scratch)
		if err != nil {
			log.Errorf("agent: instrument read: %v", err)
			a.send(event{kind: eventInstrumentDisconnected})
			continue
		}
		if n == 0 {
			a.send(event{kind: eventInstrumentDisconnected})
			continue
		}

		var ready []*packet.Packet
		now := packet.Now()
		for _, c := range scratch[:n] {
			framer := a.currentFramer()
			if framer.ReadyToSend(now) {
				if p, perr := framer.ToPacket(); perr == nil {
					ready = append(ready, p)
				}
				a.rebuildFramer()
				framer = a.currentFramer()
			}
			if err := framer.Add(c, now); err != nil {
				if p, perr := framer.ToPacket(); perr == nil {
					ready = append(ready, p)
				}
				a.rebuildFramer()
				a.currentFramer().Add(c, now)
			}
		}
		if len(ready) > 0 {
			a.send(event{kind: eventInstrumentPacket, packets: ready})
		}
	}
}

func (a *PortAgent) send(ev event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}

func (a *PortAgent) isShuttingDown() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}
