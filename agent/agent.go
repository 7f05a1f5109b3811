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
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tapanagupta/port-agent/agentstats"
	"github.com/tapanagupta/port-agent/comm"
	"github.com/tapanagupta/port-agent/config"
	"github.com/tapanagupta/port-agent/connection"
	"github.com/tapanagupta/port-agent/packet"
	"github.com/tapanagupta/port-agent/publisher"
)

// byteReader/byteWriter let the run loop treat every instrument
// composition's data path uniformly, regardless of which concrete
// comm.Endpoint (or Connection wrapper, for BOTPT) backs it.
type byteReader interface {
	Read(dst []byte) (int, error)
}

type byteWriter interface {
	Write(src []byte) (int, error)
}

// PortAgent is the state machine described in §4.9: it owns the
// observatory connection, the instrument connection, the publisher
// fan-out, and the control-port command queue. Its run loop is the only
// goroutine that mutates the state, the configuration, or the publisher
// list; the endpoint goroutines accept, re-listen, and disconnect their
// own endpoints, and instrumentLoop replaces the framer after each
// completed packet.
type PortAgent struct {
	Config      *config.PortAgentConfig
	Observatory *connection.Observatory
	Publishers  *publisher.PublisherList
	Metrics     *agentstats.Metrics

	telnetSniffer          *comm.TCPListener
	telnetSnifferPublisher *publisher.TelnetSnifferPublisher
	dataLogPublisher       *publisher.FilePublisher

	// instrumentMu guards the instrument composition and the
	// byte-stream framer: both are replaced by the run loop in
	// response to commands, and the framer is also replaced by
	// instrumentLoop's goroutine after each completed packet, while
	// that goroutine reads them concurrently.
	instrumentMu     sync.Mutex
	instrument       connection.Connection
	instrumentRSN    *connection.InstrumentRSN
	instrumentReader byteReader
	instrumentWriter byteWriter
	framer           *packet.BufferedSingleCharPacket

	state State

	lastHeartbeat time.Time

	events chan event
	done   chan struct{}
}

// New builds a PortAgent in state STARTUP, wired to cfg. New itself
// does not fail on an incomplete configuration: Run is what rejects a
// zero cfg.ObservatoryCommandPort with ErrMissingCommandPort, and
// STARTUP -> UNCONFIGURED is a no-op transition, not a validation gate.
func New(cfg *config.PortAgentConfig) *PortAgent {
	a := &PortAgent{
		Config:      cfg,
		Observatory: connection.NewObservatory(),
		Publishers:  &publisher.PublisherList{},
		Metrics:     agentstats.New(),
		state:       StateStartup,
		events:      make(chan event),
		done:        make(chan struct{}),
	}
	a.Publishers.Metrics = a.Metrics
	return a
}

// State reports the current state machine node.
func (a *PortAgent) State() State { return a.state }

// setState transitions to next, logging and recording the metric
// transition described in §4.9a.
func (a *PortAgent) setState(next State) {
	if next == a.state {
		return
	}
	log.Infof("agent: %s -> %s", a.state, next)
	if a.Metrics != nil {
		a.Metrics.IncStateTransition(a.state.String(), next.String())
	}
	a.state = next
}

// applyCommConfig rebuilds the observatory listeners and the
// instrument connection composition from the current configuration,
// the handler for a COMM_CONFIG_UPDATE command (§4.10) or for the
// initial transition out of UNCONFIGURED.
func (a *PortAgent) applyCommConfig() error {
	if err := a.Observatory.SetPorts(a.Config.ObservatoryCommandPort, a.Config.ObservatoryDataPort); err != nil {
		return fmt.Errorf("agent: observatory ports: %w", err)
	}

	var inst connection.Connection
	var rsn *connection.InstrumentRSN
	var reader byteReader
	var writer byteWriter

	switch a.Config.InstrumentType {
	case config.InstrumentTCP:
		tcp := connection.NewInstrumentTCP()
		tcp.SetTarget(a.Config.InstrumentAddr, a.Config.InstrumentDataPort)
		inst, reader, writer = tcp, tcp.Data, tcp.Data
	case config.InstrumentRSN:
		r, err := connection.NewInstrumentRSN()
		if err != nil {
			return fmt.Errorf("agent: rsn buffer: %w", err)
		}
		r.SetTargets(a.Config.InstrumentAddr, a.Config.InstrumentDataPort, a.Config.InstrumentCommandPort)
		inst, rsn, writer = r, r, r.Data
	case config.InstrumentBOTPT:
		botpt := connection.NewInstrumentBOTPT()
		botpt.SetTargets(a.Config.InstrumentAddr, a.Config.InstrumentDataTxPort, a.Config.InstrumentDataRxPort)
		inst, reader, writer = botpt, botpt, botpt
	case config.InstrumentSerial:
		serial := connection.NewInstrumentSerial()
		serial.ApplySettings(comm.SerialSettings{
			DevicePath: a.Config.DevicePath,
			Baud:       a.Config.Baud,
			Databits:   a.Config.Databits,
			Stopbits:   a.Config.Stopbits,
			Parity:     a.Config.Parity,
			Flow:       a.Config.Flow,
		})
		inst, reader, writer = serial, serial.Device, serial.Device
	default:
		return fmt.Errorf("%w: %v", ErrUnknownInstrumentType, a.Config.InstrumentType)
	}

	a.instrumentMu.Lock()
	a.instrument, a.instrumentRSN, a.instrumentReader, a.instrumentWriter = inst, rsn, reader, writer
	a.instrumentMu.Unlock()

	a.rebuildFramer()
	curInst, _, _ := a.currentInstrument()
	a.wirePublishers(curInst, a.currentWriter())

	if a.Config.IsConfigured() {
		a.setState(StateConfigured)
	} else {
		a.setState(StateUnconfigured)
	}
	return nil
}

// wirePublishers (re)builds the four connection-backed publishers
// (DriverCommand/DriverData off the observatory listeners,
// InstrumentCommand/InstrumentData off the live instrument writer),
// per §4.8's fan-out table. All four are unique-by-kind, so Add
// replaces whatever was there before.
func (a *PortAgent) wirePublishers(inst connection.Connection, writer byteWriter) {
	const ascii = false // binary by default, matching setAsciiMode(false) in the source.

	a.Publishers.Add(publisher.NewDriverCommandPublisher(a.Observatory.Command, ascii, a.Observatory.Command.Connected))
	a.Publishers.Add(publisher.NewDriverDataPublisher(a.Observatory.Data, ascii, a.Observatory.Data.Connected))

	if writer == nil || inst == nil {
		return
	}
	a.Publishers.Add(publisher.NewInstrumentCommandPublisher(writer, inst.DataConnected))
	a.Publishers.Add(publisher.NewInstrumentDataPublisher(writer, inst.DataConnected))
}

// currentInstrument returns the instrument composition fields
// instrumentLoop needs, snapshotted under instrumentMu.
func (a *PortAgent) currentInstrument() (connection.Connection, *connection.InstrumentRSN, byteReader) {
	a.instrumentMu.Lock()
	defer a.instrumentMu.Unlock()
	return a.instrument, a.instrumentRSN, a.instrumentReader
}

// currentFramer returns the live byte-stream framer, snapshotted under
// instrumentMu.
func (a *PortAgent) currentFramer() *packet.BufferedSingleCharPacket {
	a.instrumentMu.Lock()
	defer a.instrumentMu.Unlock()
	return a.framer
}

// currentWriter returns the instrument composition's write side,
// snapshotted under instrumentMu: the destination the InstrumentCommand
// and InstrumentData publishers write to.
func (a *PortAgent) currentWriter() byteWriter {
	a.instrumentMu.Lock()
	defer a.instrumentMu.Unlock()
	return a.instrumentWriter
}

// applyPublisherConfig rebuilds the data log, the telnet sniffer
// listener, and the byte-stream framer from the current configuration,
// the handler for a PUBLISHER_CONFIG_UPDATE command.
func (a *PortAgent) applyPublisherConfig() error {
	a.rebuildFramer()
	a.rebuildDataLog()

	if a.Config.TelnetSnifferPort == 0 {
		if a.telnetSniffer != nil {
			a.telnetSniffer.Disconnect()
			a.telnetSniffer = nil
		}
		a.telnetSnifferPublisher = nil
		a.Publishers.RemoveKind(publisher.KindTelnetSniffer)
		return nil
	}
	if a.telnetSniffer == nil {
		a.telnetSniffer = comm.NewTCPListener()
	}
	a.telnetSniffer.SetPort(a.Config.TelnetSnifferPort)
	if a.telnetSnifferPublisher == nil {
		a.telnetSnifferPublisher = publisher.NewTelnetSnifferPublisher(a.telnetSniffer, a.telnetSniffer.Connected)
		a.Publishers.Add(a.telnetSnifferPublisher)
	}
	a.telnetSnifferPublisher.Prefix = a.Config.TelnetSnifferPrefix
	a.telnetSnifferPublisher.Suffix = a.Config.TelnetSnifferSuffix
	if !a.telnetSniffer.Listening() {
		return a.telnetSniffer.Initialize()
	}
	return nil
}

// rebuildDataLog replaces the File publisher wholesale. File is not
// one of the four unique-by-kind kinds, so a DataDir or
// RotationInterval change must drop the old instance explicitly
// instead of relying on Add's replace rule, matching
// initializePublisherFile's always-reinitialize behavior.
func (a *PortAgent) rebuildDataLog() {
	a.Publishers.RemoveKind(publisher.KindFile)

	const ascii = false
	const ext = "data"
	base := fmt.Sprintf("%s/port_agent_%d", a.Config.DataDir, a.Config.InstanceID())

	var fp *publisher.FilePublisher
	if a.Config.RotationInterval == config.RotationDaily {
		fp = publisher.NewRotatingFilePublisher(base, ext, ascii)
	} else {
		fp = publisher.NewExplicitFilePublisher(base+"."+ext, ascii)
	}
	a.dataLogPublisher = fp
	a.Publishers.Add(fp)
}

// rebuildFramer constructs a fresh BufferedSingleCharPacket from the
// current max packet size, output throttle (quiescent time), and
// sentinel sequence settings. Called on PUBLISHER_CONFIG_UPDATE and
// whenever the instrument connection is (re)built.
func (a *PortAgent) rebuildFramer() {
	var sentinel []byte
	if a.Config.SentinelSequence != "" {
		sentinel = []byte(a.Config.SentinelSequence)
	}
	quietSecs := float64(a.Config.OutputThrottle) / 1000.0
	f, err := packet.NewBufferedSingleCharPacket(packet.DataFromInstrument, int(a.Config.MaxPacketSizeVal), quietSecs, a.Config.OutputThrottle > 0, sentinel)
	if err != nil {
		log.Errorf("agent: rebuilding framer: %v", err)
		return
	}
	a.instrumentMu.Lock()
	a.framer = f
	a.instrumentMu.Unlock()
}

// applyPathConfig has no subsystem side effect beyond the
// already-mutated LogDir/PIDDir/DataDir/ConfDir fields themselves;
// PATH_CONFIG_UPDATE exists so the control protocol has a name for
// this update family, matching §4.10.
func (a *PortAgent) applyPathConfig() {}
