/*
Package log provides structured logging for all Cellwatch components.

Built on zerolog for zero-allocation JSON logging with a console mode for
interactive use. Components create child loggers with bound fields:

	logger := log.WithComponent("dispatcher")
	logger.Warn().Str("event_id", id).Msg("event dropped by rate limit")

The "none" level disables output entirely, matching the engine's logLevel
configuration option.
*/
package log
