/*
Package debounce implements per-key trailing-edge coalescing for subscriber
deliveries.

A burst of same-key events collapses into exactly one delivery carrying the
most recent event, fired once the key has been quiet for the configured
delay:

	events:    a────b──c           (same key, within the delay)
	timers:    [a]  [b][c.........fire(c)]
	delivered:                     c

Keys combine subscription ID and event type. The coordinator owns every
timer handle, so cancellation on unsubscribe or engine cleanup is an
explicit traversal rather than an orphaned callback: once a subscription's
timers are cancelled its handler is never invoked again.

Timers come from an injected clock, which lets tests drive burst and
quiet-period behavior deterministically.
*/
package debounce
