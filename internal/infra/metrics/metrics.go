// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "File uploads by outcome (stored/rejected/failed).",
		},
		[]string{"outcome"},
	)

	deletesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deletes_total",
			Help: "File deletions by outcome (deleted/not_found/failed).",
		},
		[]string{"outcome"},
	)

	broadcastDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Broadcast fan-out deliveries by status (sent/failed/skipped).",
		},
		[]string{"status"},
	)

	bannedGateHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "banned_gate_hits_total",
			Help: "User-facing operations short-circuited by the ban set.",
		},
	)

	adminCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_commands_total",
			Help: "Admin console actions by authorization result.",
		},
		[]string{"action", "result"},
	)

	referralsAttributed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "referrals_attributed_total",
			Help: "Successful referral attributions.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			uploadsTotal, deletesTotal,
			broadcastDeliveries, bannedGateHits,
			adminCommands, referralsAttributed,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Upload/delete helpers --------

func IncUpload(outcome string) { uploadsTotal.WithLabelValues(norm(outcome)).Inc() }
func IncDelete(outcome string) { deletesTotal.WithLabelValues(norm(outcome)).Inc() }

// -------- Broadcast helpers --------

func IncBroadcast(status string) { broadcastDeliveries.WithLabelValues(norm(status)).Inc() }

// -------- Gate/admin helpers --------

func IncBannedGate() { bannedGateHits.Inc() }

func IncAdminCommand(action, result string) {
	adminCommands.WithLabelValues(norm(action), norm(result)).Inc()
}

func IncReferral() { referralsAttributed.Inc() }
