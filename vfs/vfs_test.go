package vfs

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
)

func TestOpenAppendCreatesAndAppends(t *testing.T) {
	fs := Default()
	path := filepath.Join(t.TempDir(), "log")

	f, err := fs.OpenAppend(path)
	if err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	if _, err := f.Write([]byte("one\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := f.Write([]byte("two\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	size, err := f.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 8 {
		t.Errorf("Size() = %d, want 8", size)
	}

	// ReadAt must not disturb the append position.
	buf := make([]byte, 4)
	if _, err := f.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "one\n" {
		t.Errorf("ReadAt(0) = %q, want %q", buf, "one\n")
	}
	if _, err := f.Write([]byte("three\n")); err != nil {
		t.Fatalf("Write after ReadAt: %v", err)
	}
	buf = make([]byte, 6)
	if _, err := f.ReadAt(buf, 8); err != nil {
		t.Fatalf("ReadAt(8): %v", err)
	}
	if string(buf) != "three\n" {
		t.Errorf("ReadAt(8) = %q, want %q", buf, "three\n")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestReadAtPastEOF(t *testing.T) {
	fs := Default()
	path := filepath.Join(t.TempDir(), "log")

	f, err := fs.OpenAppend(path)
	if err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, 100); !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt past EOF: err = %v, want io.EOF", err)
	}
}

func TestRenameReplacesExisting(t *testing.T) {
	fs := Default()
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "new")
	curPath := filepath.Join(dir, "current")

	for path, content := range map[string]string{oldPath: "new", curPath: "old"} {
		f, err := fs.Create(path)
		if err != nil {
			t.Fatalf("Create(%s): %v", path, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	if err := fs.Rename(oldPath, curPath); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if fs.Exists(oldPath) {
		t.Error("source still exists after rename")
	}

	f, err := fs.OpenAppend(curPath)
	if err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	defer f.Close()
	buf := make([]byte, 3)
	if _, err := f.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "new" {
		t.Errorf("content after rename = %q, want %q", buf, "new")
	}
}

func TestLockIsExclusive(t *testing.T) {
	fs := Default()
	path := filepath.Join(t.TempDir(), "LOCK")

	l1, err := fs.Lock(path)
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}

	if _, err := fs.Lock(path); err == nil {
		t.Error("second Lock succeeded, want error")
	}

	if err := l1.Close(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	l2, err := fs.Lock(path)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	_ = l2.Close()
}

func TestFaultInjection(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultInjectionFS(Default())

	target := filepath.Join(dir, "victim")
	ffs.InjectCreateError(target)
	if _, err := ffs.Create(target); !errors.Is(err, ErrInjectedCreateError) {
		t.Errorf("Create: err = %v, want ErrInjectedCreateError", err)
	}
	ffs.ClearErrors()

	ffs.InjectWriteError(target)
	f, err := ffs.Create(target)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("x")); !errors.Is(err, ErrInjectedWriteError) {
		t.Errorf("Write: err = %v, want ErrInjectedWriteError", err)
	}
	_ = f.Close()
	ffs.ClearErrors()

	ffs.InjectRenameError(target)
	if err := ffs.Rename(target, target+".moved"); !errors.Is(err, ErrInjectedRenameError) {
		t.Errorf("Rename: err = %v, want ErrInjectedRenameError", err)
	}
}
