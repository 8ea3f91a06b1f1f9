// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package safety

import "github.com/backstopfi/backstop/metrics"

var (
	metricOpCounter        = metrics.LazyLoadCounterVec("operation_count", []string{"op"})
	metricOpFailureCounter = metrics.LazyLoadCounterVec("operation_failure_count", []string{"op"})
	metricQueuedGauge      = metrics.LazyLoadGauge("queued_withdrawals_gauge")
	metricStateGauge       = metrics.LazyLoadGauge("gate_state_gauge")
)
