package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Control plane counters. Labelled by node so multi-router processes (tests,
// simulations) share one registry.
var (
	lsuAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osdrp_lsu_accepted_total",
		Help: "LSUs accepted into the LSDB.",
	}, []string{"node"})
	lsuRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osdrp_lsu_rejected_total",
		Help: "LSUs rejected by the security module, by reason.",
	}, []string{"node", "reason"})
	lsuOriginated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osdrp_lsu_originated_total",
		Help: "LSUs originated locally.",
	}, []string{"node"})
	lsuForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osdrp_lsu_forwarded_total",
		Help: "Accepted LSUs re-flooded to neighbours.",
	}, []string{"node"})
	routeRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osdrp_route_recomputes_total",
		Help: "Full shortest-path recomputations.",
	}, []string{"node"})
	backupFailovers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osdrp_backup_failovers_total",
		Help: "Destinations swapped to their precomputed backup next hop.",
	}, []string{"node"})
	lsdbEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "osdrp_lsdb_entries",
		Help: "Current LSDB entry count.",
	}, []string{"node"})
)

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrStaleSeqno):
		return "stale_seqno"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnknownOriginator):
		return "unknown_originator"
	}
	return "malformed"
}
