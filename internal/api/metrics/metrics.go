// Package metrics defines and registers all custom Prometheus metrics for the
// user and role API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SignupsTotal counts signup attempts.
// Label:
//   - result: "success", "rejected" or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts access guard outcomes on protected routes.
// Label:
//   - decision: "authenticated" or "unauthenticated" from the token check,
//     "allowed" or "forbidden" from the role check
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of access guard decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── Bootstrap metrics ─────────────────────────────────────────────────────────

// SeedRowsCreatedTotal counts rows inserted by the startup seed.
// Label:
//   - kind: "role" or "user"
var SeedRowsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seed_rows_created_total",
		Help:      "Total number of roles and users created by the startup seed.",
	},
	[]string{"kind"},
)

// Label values shared by handlers and middleware.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultRejected           = "rejected"
	ResultError              = "error"

	DecisionAuthenticated   = "authenticated"
	DecisionAllowed         = "allowed"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
)
