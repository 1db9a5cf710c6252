// fault_injection.go wraps an FS and allows injecting errors on specific
// paths. Used by compaction crash-safety tests to verify that a failed
// rewrite never disturbs the current log.
package vfs

import (
	"errors"
	"io"
	"os"
)

var (
	// ErrInjectedCreateError is returned when a create error is injected.
	ErrInjectedCreateError = errors.New("vfs: injected create error")

	// ErrInjectedWriteError is returned when a write error is injected.
	ErrInjectedWriteError = errors.New("vfs: injected write error")

	// ErrInjectedRenameError is returned when a rename error is injected.
	ErrInjectedRenameError = errors.New("vfs: injected rename error")
)

// FaultInjectionFS wraps an FS and fails selected operations on selected
// paths. Zero-value fields mean no injection for that operation.
type FaultInjectionFS struct {
	base FS

	createErrorPath string
	writeErrorPath  string
	renameErrorPath string
}

// NewFaultInjectionFS creates a new fault-injecting filesystem wrapper.
func NewFaultInjectionFS(base FS) *FaultInjectionFS {
	return &FaultInjectionFS{base: base}
}

// InjectCreateError makes Create fail for the given path.
func (fs *FaultInjectionFS) InjectCreateError(path string) {
	fs.createErrorPath = path
}

// InjectWriteError makes writes fail on files created at the given path.
func (fs *FaultInjectionFS) InjectWriteError(path string) {
	fs.writeErrorPath = path
}

// InjectRenameError makes Rename fail when the given path is the source.
func (fs *FaultInjectionFS) InjectRenameError(path string) {
	fs.renameErrorPath = path
}

// ClearErrors clears all error injection.
func (fs *FaultInjectionFS) ClearErrors() {
	fs.createErrorPath = ""
	fs.writeErrorPath = ""
	fs.renameErrorPath = ""
}

func (fs *FaultInjectionFS) Create(name string) (WritableFile, error) {
	if fs.createErrorPath == name {
		return nil, ErrInjectedCreateError
	}
	f, err := fs.base.Create(name)
	if err != nil {
		return nil, err
	}
	if fs.writeErrorPath == name {
		return &faultWritableFile{base: f}, nil
	}
	return f, nil
}

func (fs *FaultInjectionFS) OpenAppend(name string) (LogFile, error) {
	return fs.base.OpenAppend(name)
}

func (fs *FaultInjectionFS) Rename(oldname, newname string) error {
	if fs.renameErrorPath == oldname {
		return ErrInjectedRenameError
	}
	return fs.base.Rename(oldname, newname)
}

func (fs *FaultInjectionFS) Remove(name string) error {
	return fs.base.Remove(name)
}

func (fs *FaultInjectionFS) MkdirAll(path string, perm os.FileMode) error {
	return fs.base.MkdirAll(path, perm)
}

func (fs *FaultInjectionFS) Stat(name string) (os.FileInfo, error) {
	return fs.base.Stat(name)
}

func (fs *FaultInjectionFS) Exists(name string) bool {
	return fs.base.Exists(name)
}

func (fs *FaultInjectionFS) Lock(name string) (io.Closer, error) {
	return fs.base.Lock(name)
}

func (fs *FaultInjectionFS) SyncDir(path string) error {
	return fs.base.SyncDir(path)
}

// faultWritableFile fails every Write.
type faultWritableFile struct {
	base WritableFile
}

func (wf *faultWritableFile) Write(p []byte) (int, error) {
	return 0, ErrInjectedWriteError
}

func (wf *faultWritableFile) Sync() error {
	return wf.base.Sync()
}

func (wf *faultWritableFile) Close() error {
	return wf.base.Close()
}
