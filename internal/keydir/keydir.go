// Package keydir holds the in-memory index of the log: a map from key to
// the position of that key's most recent live record.
//
// The name follows the bitcask convention for this structure. The keydir is
// owned by exactly one store instance and is not safe for concurrent use.
package keydir

// Entry locates one live record in the log.
type Entry struct {
	// Offset is the byte position where the record begins.
	Offset int64
	// Len is the record length in bytes, including the trailing newline.
	// It feeds the stale-byte accounting that drives compaction.
	Len int64
}

// Dir maps each live key to its latest record.
type Dir struct {
	entries   map[string]Entry
	liveBytes int64
}

// New returns an empty keydir.
func New() *Dir {
	return &Dir{entries: make(map[string]Entry)}
}

// Get returns the entry for key, if present.
func (d *Dir) Get(key string) (Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}

// Put inserts or overwrites the entry for key.
func (d *Dir) Put(key string, e Entry) {
	if old, ok := d.entries[key]; ok {
		d.liveBytes -= old.Len
	}
	d.entries[key] = e
	d.liveBytes += e.Len
}

// Delete erases the entry for key; no-op if absent.
func (d *Dir) Delete(key string) {
	if old, ok := d.entries[key]; ok {
		d.liveBytes -= old.Len
		delete(d.entries, key)
	}
}

// Len returns the number of live keys.
func (d *Dir) Len() int {
	return len(d.entries)
}

// LiveBytes returns the total size of all live records.
func (d *Dir) LiveBytes() int64 {
	return d.liveBytes
}

// Range calls fn for every entry until fn returns false.
// Iteration order is unspecified.
func (d *Dir) Range(fn func(key string, e Entry) bool) {
	for k, e := range d.entries {
		if !fn(k, e) {
			return
		}
	}
}

// Reset clears the keydir. Used before a rebuild.
func (d *Dir) Reset() {
	clear(d.entries)
	d.liveBytes = 0
}
