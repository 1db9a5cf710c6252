// Package vfs provides a virtual filesystem abstraction layer.
//
// This allows logcask to:
// - Use the real OS filesystem in production
// - Use a fault-injection filesystem for compaction crash testing
package vfs

import (
	"io"
	"os"
)

// FS is the main filesystem interface.
type FS interface {
	// Create creates a new writable file.
	// If the file already exists, it is truncated.
	Create(name string) (WritableFile, error)

	// OpenAppend opens a file for appending and random-access reads,
	// creating it if absent. This is the access mode of the command log:
	// writes always land at end-of-file, reads address stable offsets.
	OpenAppend(name string) (LogFile, error)

	// Rename atomically renames a file.
	Rename(oldname, newname string) error

	// Remove deletes a file.
	Remove(name string) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info.
	Stat(name string) (os.FileInfo, error)

	// Exists returns true if the file exists.
	Exists(name string) bool

	// Lock acquires an exclusive lock on a file.
	// Returns a Locker that must be closed to release the lock.
	Lock(name string) (io.Closer, error)

	// SyncDir syncs a directory to ensure metadata changes are durable.
	// This is required after file rename to ensure the rename is durable.
	SyncDir(path string) error
}

// WritableFile is a file that can be written to.
type WritableFile interface {
	io.Writer
	io.Closer

	// Sync flushes the file contents to stable storage.
	Sync() error
}

// LogFile is an append-only file that also supports reads at arbitrary
// offsets. Writes are appended at end-of-file regardless of read position.
type LogFile interface {
	io.Writer
	io.ReaderAt
	io.Closer

	// Sync flushes the file contents to stable storage.
	Sync() error

	// Size returns the current file size.
	Size() (int64, error)
}

// osFS implements FS using the OS filesystem.
type osFS struct{}

// Default returns the default OS filesystem.
func Default() FS {
	return &osFS{}
}

func (fs *osFS) Create(name string) (WritableFile, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &osWritableFile{f: f}, nil
}

func (fs *osFS) OpenAppend(name string) (LogFile, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &osLogFile{f: f}, nil
}

func (fs *osFS) Rename(oldname, newname string) error {
	return os.Rename(oldname, newname)
}

func (fs *osFS) Remove(name string) error {
	return os.Remove(name)
}

func (fs *osFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *osFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFS) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (fs *osFS) Lock(name string) (io.Closer, error) {
	return lockFile(name)
}

func (fs *osFS) SyncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	syncErr := dir.Sync()
	closeErr := dir.Close()
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

// osWritableFile wraps os.File for the WritableFile interface.
type osWritableFile struct {
	f *os.File
}

func (wf *osWritableFile) Write(p []byte) (int, error) {
	return wf.f.Write(p)
}

func (wf *osWritableFile) Close() error {
	return wf.f.Close()
}

func (wf *osWritableFile) Sync() error {
	return wf.f.Sync()
}

// osLogFile wraps os.File for the LogFile interface.
// The file is opened O_APPEND, so Write always lands at end-of-file and
// ReadAt (pread) never disturbs the append position.
type osLogFile struct {
	f *os.File
}

func (lf *osLogFile) Write(p []byte) (int, error) {
	return lf.f.Write(p)
}

func (lf *osLogFile) ReadAt(p []byte, off int64) (int, error) {
	return lf.f.ReadAt(p, off)
}

func (lf *osLogFile) Close() error {
	return lf.f.Close()
}

func (lf *osLogFile) Sync() error {
	return lf.f.Sync()
}

func (lf *osLogFile) Size() (int64, error) {
	info, err := lf.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
