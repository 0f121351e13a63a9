/*
Package api exposes the engine over HTTP.

# Endpoints

	POST /v1/events   ingest one notification (network source adapter)
	GET  /v1/events   query history: ?type=&limit=&since=RFC3339
	GET  /v1/stats    current statistics summary
	GET  /v1/export   full JSON snapshot (config + history + statistics)
	GET  /health      liveness check
	GET  /metrics     Prometheus metrics

Ingestion responses carry the assigned event ID and whether the event was
admitted; a rate-limited event answers 429 so a well-behaved producer can
back off, matching the engine's hard-drop admission policy.

The query surface is read-only and safe to expose to dashboards: it derives
everything from the engine's history buffer and registry at call time.
*/
package api
