// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitledger"

// ─── RPC ────────────────────────────────────────────────────────────────────

// RPCRequests counts handled RPCs by procedure and Connect code ("ok" on success).
var RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "rpc",
	Name:      "requests_total",
	Help:      "Total RPCs handled, by procedure and result code.",
}, []string{"procedure", "code"})

// RPCDuration tracks RPC latency.
var RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "rpc",
	Name:      "duration_seconds",
	Help:      "RPC handling latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"procedure"})

// ─── Reconciliation ─────────────────────────────────────────────────────────

// ReconcileOutcomes counts reconciliation attempts by the status the record
// had before the fix and whether anything changed.
var ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reconcile",
	Name:      "outcomes_total",
	Help:      "Reconciliation attempts by prior status and result.",
}, []string{"status", "result"})

// ─── Settlement ─────────────────────────────────────────────────────────────

// SettlementTransfers tracks how many transfers each computed plan needs.
var SettlementTransfers = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "settlement",
	Name:      "transfers",
	Help:      "Number of transfers in each computed settlement plan.",
	Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
})

// SettlementInexact counts plans whose balances did not sum to zero.
var SettlementInexact = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "settlement",
	Name:      "inexact_total",
	Help:      "Settlement plans computed from balances with a nonzero imbalance.",
})

// BalanceWarnings counts per-record diagnostics raised during balance calculation.
var BalanceWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "balance",
	Name:      "warnings_total",
	Help:      "Balance calculation warnings by kind.",
}, []string{"kind"})
