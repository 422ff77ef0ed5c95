// Package health serves liveness and readiness probes.
//
// Liveness answers as long as the process runs. Readiness runs named
// dependency checks concurrently under a timeout and reports each result;
// any failure turns the probe into 503.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log, 2*time.Second,
//		health.Check{Name: "session_slot", Fn: slot.Ping},
//		health.Check{Name: "records", Fn: sqlite.Healthcheck(db)},
//	))
package health
