// Package metrics exposes prometheus collectors for the read model, the transaction
// lifecycle and the analysis endpoints.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bountyboard/bounty-backend/types"
)

const namespace = "bounty"

type Provider struct {
	registry *prometheus.Registry

	refreshTime    prometheus.Histogram
	bounties       prometheus.Gauge
	readErrors     *prometheus.CounterVec
	skippedRecords *prometheus.CounterVec
	txTransitions  *prometheus.CounterVec
	analyses       *prometheus.CounterVec
	analysisTime   *prometheus.HistogramVec
}

// New registers every collector on a fresh registry. Pass the registry to the
// http handler with Registry().
func New() *Provider {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Provider{
		registry: reg,
		refreshTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "refresh_seconds",
			Help:      "Time spent rebuilding the bounty list from the contract.",
			Buckets:   prometheus.DefBuckets,
		}),
		bounties: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "bounties",
			Help:      "Bounties in the latest snapshot.",
		}),
		readErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "read_errors_total",
			Help:      "Contract reads that failed, by operation.",
		}, []string{"operation"}),
		skippedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "skipped_records_total",
			Help:      "Records left out of a bulk read because they could not be fetched.",
		}, []string{"kind"}),
		txTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "transitions_total",
			Help:      "Transaction lifecycle transitions, by operation and state.",
		}, []string{"operation", "state"}),
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Analysis requests, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		analysisTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Language model round trip time.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"kind"}),
	}
}

func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Provider) RecordRefreshTime(d time.Duration, bounties int) {
	p.refreshTime.Observe(d.Seconds())
	p.bounties.Set(float64(bounties))
}

func (p *Provider) ReadError(op string) {
	p.readErrors.WithLabelValues(op).Inc()
}

func (p *Provider) SkippedRecord(kind string) {
	p.skippedRecords.WithLabelValues(kind).Inc()
}

func (p *Provider) TxTransition(operation string, state types.TxState) {
	p.txTransitions.WithLabelValues(operation, string(state)).Inc()
}

func (p *Provider) RecordAnalysis(kind string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.analyses.WithLabelValues(kind, outcome).Inc()
	p.analysisTime.WithLabelValues(kind).Observe(d.Seconds())
}
