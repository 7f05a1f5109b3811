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

package agentstats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tapanagupta/port-agent/publisher"
)

func TestIncStateTransitionRecordsCounterAndGauges(t *testing.T) {
	m := New()
	m.IncStateTransition("UNCONFIGURED", "CONFIGURED")

	require.Equal(t, float64(1), testutil.ToFloat64(m.stateTransitions.WithLabelValues("UNCONFIGURED", "CONFIGURED")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.state.WithLabelValues("CONFIGURED")))
	require.Equal(t, float64(0), testutil.ToFloat64(m.state.WithLabelValues("UNCONFIGURED")))

	m.IncStateTransition("CONFIGURED", "CONNECTED")
	require.Equal(t, float64(0), testutil.ToFloat64(m.state.WithLabelValues("CONFIGURED")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.state.WithLabelValues("CONNECTED")))
}

func TestIncPublishBytesAndErrorsLabelByKind(t *testing.T) {
	m := New()
	m.IncPublishBytes(publisher.KindTCP, 10)
	m.IncPublishBytes(publisher.KindTCP, 5)
	m.IncPublishError(publisher.KindFile)

	require.Equal(t, float64(15), testutil.ToFloat64(m.publisherBytes.WithLabelValues("tcp")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.publisherErrors.WithLabelValues("file")))
	require.Equal(t, float64(0), testutil.ToFloat64(m.publisherErrors.WithLabelValues("tcp")))
}

func TestMetricsImplementsPublisherMetrics(t *testing.T) {
	var _ publisher.Metrics = New()
}
