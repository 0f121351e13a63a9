/*
Package dispatch drains admitted events and schedules subscriber deliveries.

The dispatcher keeps a FIFO queue of admitted events. Enqueue appends and,
unless a drain is already running, drains the queue in the calling
goroutine; a re-entrant Enqueue from a subscription filter or handler only
appends. For each event it asks the registry for matching subscriptions,
already ordered by priority with registration order breaking ties, and arms
one debounce timer per match.

Delivery failures are isolated per subscription: a handler error or panic
is logged and counted, and neither the remaining matches for the event nor
the remaining queued events are affected.
*/
package dispatch
