/*
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

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricNamespace    = "fleetprint"
	schedulerSubsystem = "scheduler"

	resultLabel  = "result"
	printerLabel = "printer"
)

var (
	schedulingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: schedulerSubsystem,
			Name:      "scheduling_duration_seconds",
			Help:      "Duration of Schedule calls in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: schedulerSubsystem,
			Name:      "orders_total",
			Help:      "Number of Schedule calls partitioned by terminal result.",
		},
		[]string{resultLabel},
	)
	schedulingRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: schedulerSubsystem,
			Name:      "retries_total",
			Help:      "Number of scheduling attempts restarted after a version conflict.",
		},
	)
	cacheResultTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: schedulerSubsystem,
			Name:      "cache_result_total",
			Help:      "Assignment cache lookups partitioned by hit or miss.",
		},
		[]string{resultLabel},
	)
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: schedulerSubsystem,
			Name:      "queue_depth",
			Help:      "The number of reserved jobs currently queued per printer.",
		},
		[]string{printerLabel},
	)
)

func init() {
	prometheus.MustRegister(
		schedulingDurationSeconds,
		ordersTotal,
		schedulingRetriesTotal,
		cacheResultTotal,
		queueDepth,
	)
}
