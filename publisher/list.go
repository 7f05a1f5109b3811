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

// Metrics receives per-publish-attempt counts, mirroring the
// per-worker send counters in ptp4u/server/worker.go
// (stats.IncTX/stats.IncTXTSMissing) but keyed by publisher kind
// instead of by PTP client. Implemented by agentstats; declared here
// so publisher has no import-cycle back to it.
type Metrics interface {
	IncPublishBytes(kind Kind, n int)
	IncPublishError(kind Kind)
}

// PublisherList holds every fan-out destination for one port agent,
// in publish order: file publishers first, everything else after, in
// the order added.
type PublisherList struct {
	items   []Publisher
	Metrics Metrics
}

// Add inserts p per spec.md §4.8's rules: a "unique-by-kind" publisher
// replaces any existing one of the same kind (their endpoint keys are
// fixed, so this check runs before the duplicate check); otherwise an
// exact (kind, endpoint) duplicate is dropped silently; file publishers
// go to the head, everything else to the tail.
func (l *PublisherList) Add(p Publisher) {
	if uniqueByKind(p.Kind()) {
		for i, existing := range l.items {
			if existing.Kind() == p.Kind() {
				l.items[i] = p
				return
			}
		}
	}

	for _, existing := range l.items {
		if sameEndpoint(existing, p) {
			return
		}
	}

	if p.Kind() == KindFile {
		l.items = append([]Publisher{p}, l.items...)
		return
	}
	l.items = append(l.items, p)
}

// RemoveKind drops every publisher of kind k, for subsystems (File,
// TelnetSniffer) that must be torn down and rebuilt wholesale rather
// than replaced in place by Add's unique-by-kind rule.
func (l *PublisherList) RemoveKind(k Kind) {
	kept := l.items[:0]
	for _, existing := range l.items {
		if existing.Kind() != k {
			kept = append(kept, existing)
		}
	}
	l.items = kept
}

// Len returns the number of publishers currently held.
func (l *PublisherList) Len() int { return len(l.items) }

// Publishers returns the publish-order snapshot of held publishers.
func (l *PublisherList) Publishers() []Publisher {
	out := make([]Publisher, len(l.items))
	copy(out, l.items)
	return out
}

// Publish fans p out to every publisher that accepts its type, in
// order. A per-publisher write failure is collected and does not stop
// the remaining publishers; if any failed, a single aggregated
// PacketPublishFailure is returned once every publisher has been
// attempted.
func (l *PublisherList) Publish(p *packet.Packet) error {
	var failures []string
	for _, dest := range l.items {
		if !dest.Accepts(p.Type()) {
			continue
		}
		if err := dest.WritePacket(p); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", dest.EndpointKey(), err))
			if l.Metrics != nil {
				l.Metrics.IncPublishError(dest.Kind())
			}
			continue
		}
		if l.Metrics != nil {
			l.Metrics.IncPublishBytes(dest.Kind(), p.Size())
		}
	}
	if len(failures) > 0 {
		return &PacketPublishFailure{Failures: failures}
	}
	return nil
}
