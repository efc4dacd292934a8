/*
 * metrics.go, part of goconf.
 *
 *
 * Copyright 2021 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 *
 */

package batch

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsPrefix = "goconf_"

var rowDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 300}

//Metrics are the Prometheus metrics of the batch layer. A nil *Metrics records nothing.
type Metrics struct {
	rows         *prometheus.CounterVec
	batches      prometheus.Counter
	rowDuration  prometheus.Histogram
	cacheLookups *prometheus.CounterVec
}

//NewMetrics creates the metrics and registers them with registerer, or with the
//default registerer if it is nil.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	M := &Metrics{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "rows_total",
			Help: "Rows processed, by outcome (ok, error, panic).",
		}, []string{"outcome"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "batches_total",
			Help: "Batches completed.",
		}),
		rowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricsPrefix + "row_duration_seconds",
			Help:    "Time spent processing one row.",
			Buckets: rowDurationBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "fragment_cache_lookups_total",
			Help: "Lookups in the ring system cache, by result (hit, miss).",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{M.rows, M.batches, M.rowDuration, M.cacheLookups} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return M, nil
}

//ObserveRow records the outcome of one row.
func (M *Metrics) ObserveRow(o Outcome) {
	if M == nil {
		return
	}
	label := "ok"
	if o.Panicked {
		label = "panic"
	} else if o.Err != nil {
		label = "error"
	}
	M.rows.WithLabelValues(label).Inc()
	M.rowDuration.Observe(o.Duration.Seconds())
}

func (M *Metrics) observeBatch() {
	if M == nil {
		return
	}
	M.batches.Inc()
}

//CacheObserver returns a function that records cache lookups, suitable for
//fragcache.Cache.SetObserver. It returns nil for a nil *Metrics.
func (M *Metrics) CacheObserver() func(hit bool) {
	if M == nil {
		return nil
	}
	hits := M.cacheLookups.WithLabelValues("hit")
	misses := M.cacheLookups.WithLabelValues("miss")
	return func(hit bool) {
		if hit {
			hits.Inc()
		} else {
			misses.Inc()
		}
	}
}
