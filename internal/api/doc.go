// Package api serves the worker pool over HTTP.
//
// Routes:
//
//	GET  /api/status     active run, per-worker state, dispatched/collected counts
//	GET  /api/runs       every run started by this server
//	POST /api/runs       start a run: {"jobs": 20, "workers": 4, "delay": "100ms"}
//	GET  /api/runs/{id}  status and report of one run
//	GET  /metrics        Prometheus exposition
//	/ws                  websocket stream of pool lifecycle events
//
// Only one run executes at a time; a second POST while one is active gets
// 409 Conflict.
package api
