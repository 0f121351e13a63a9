/*
Package metrics provides Prometheus instrumentation for the event pipeline.

Exposed metrics:

	cellwatch_events_ingested_total{type}     admitted events by type
	cellwatch_events_dropped_total{reason}    drops before dispatch
	cellwatch_deliveries_total                successful handler invocations
	cellwatch_delivery_failures_total         handler errors and panics
	cellwatch_dispatch_queue_depth            events waiting to be drained
	cellwatch_dispatch_duration_seconds       match-and-schedule latency
	cellwatch_subscriptions_active            live subscriptions
	cellwatch_debounce_pending                armed debounce timers
	cellwatch_history_size                    in-memory history entries
	cellwatch_archive_writes_total            durable archive appends
	cellwatch_archive_errors_total            archive append failures

All collectors are registered at package init; Handler() serves them on
the API's /metrics endpoint.
*/
package metrics
