/*
Package storage provides the durable event archive backed by BoltDB.

The in-memory history buffer is bounded and evicts oldest-first; the
archive, enabled by setting archive_path in the configuration, keeps every
admitted event across restarts.

# Layout

	bucket "events"   key: big-endian uint64 sequence, value: JSON event
	bucket "meta"     key "sequence": last issued sequence number

Sequence keys make cursor iteration ingestion-ordered, so List can walk
backwards from the newest entry and stop early once a limit or timestamp
bound is satisfied.

Archive writes happen on the ingestion path but are fail-soft: an append
error is logged and counted, never dropping the event from the in-memory
pipeline.
*/
package storage
