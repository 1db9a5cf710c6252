/*
Package logcask provides a simple, durable, embedded key/value store backed
by an append-only command log.

Every mutation is appended to a newline-delimited log of JSON records; an
in-memory keydir maps each key to the offset of its latest live record and
is rebuilt by replaying the log when the store opens. Superseded records
and tombstones are reclaimed by rewriting the log and atomically renaming
the rewrite over the old file.

# Usage

	store, err := logcask.Open(dir, nil)
	if err != nil {
		// ...
	}
	defer store.Close()

	if err := store.Set("greeting", "hello"); err != nil {
		// ...
	}
	value, err := store.Get("greeting")

# Concurrency

A Store instance is NOT safe for concurrent use. The design assumes one
logical caller at a time: callers that share a store across goroutines must
serialize access themselves. Opening the same directory from two processes
is rejected by an exclusive lock file rather than silently tolerated.

# Durability

The unit of durability is the log append. With Options.SyncWrites the log
is fsynced after every mutation; without it, durability follows the
operating system's writeback. Compaction never puts existing data at risk:
the rewrite goes to a temporary file and only replaces the log via an
atomic rename once fully written and synced.
*/
package logcask
