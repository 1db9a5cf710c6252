package logcask

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aalhour/logcask/vfs"
)

// countRecords returns the number of newline-terminated lines in the log.
func countRecords(t *testing.T, dir string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return bytes.Count(data, []byte{'\n'})
}

// noAutoCompact disables the automatic trigger so tests control compaction.
func noAutoCompact() *Options {
	return &Options{CompactionThreshold: 2, CompactionMinBytes: 1}
}

func TestCompactShrinksLog(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir, noAutoCompact())

	for i := 0; i < 50; i++ {
		if err := s.Set("hot", fmt.Sprintf("value-%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Set("cold", "stays"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("hot"); err != nil {
		t.Fatal(err)
	}

	before := s.LogSize()
	if err := s.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	after := s.LogSize()
	if after > before {
		t.Errorf("log grew during compaction: %d -> %d", before, after)
	}
	if n := countRecords(t, dir); n != 1 {
		t.Errorf("log holds %d records after compaction, want 1", n)
	}
	got, err := s.Get("cold")
	if err != nil || got != "stays" {
		t.Errorf("Get(cold) = %q, %v after compaction", got, err)
	}
}

func TestCompactPreservesVisibleState(t *testing.T) {
	s := openStore(t, t.TempDir(), noAutoCompact())

	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := s.Set(key, fmt.Sprintf("v%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 20; i += 3 {
		if err := s.Remove(fmt.Sprintf("key-%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 1; i < 20; i += 4 {
		if err := s.Set(fmt.Sprintf("key-%d", i), "rewritten"); err != nil {
			t.Fatal(err)
		}
	}

	before := make(map[string]string)
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("key-%d", i)
		if v, err := s.Get(key); err == nil {
			before[key] = v
		} else if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get(%s): %v", key, err)
		}
	}

	if err := s.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("key-%d", i)
		v, err := s.Get(key)
		want, existed := before[key]
		switch {
		case existed && (err != nil || v != want):
			t.Errorf("Get(%s) = %q, %v after compaction, want %q", key, v, err, want)
		case !existed && !errors.Is(err, ErrNotFound):
			t.Errorf("Get(%s) err = %v after compaction, want ErrNotFound", key, err)
		}
	}
	if s.Len() != len(before) {
		t.Errorf("Len() = %d after compaction, want %d", s.Len(), len(before))
	}
}

func TestCompactIsIdempotent(t *testing.T) {
	s := openStore(t, t.TempDir(), noAutoCompact())
	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Compact(); err != nil {
		t.Fatal(err)
	}
	sizeAfterFirst := s.LogSize()
	if err := s.Compact(); err != nil {
		t.Fatal(err)
	}
	if s.LogSize() != sizeAfterFirst {
		t.Errorf("second compaction changed size: %d -> %d", sizeAfterFirst, s.LogSize())
	}
	got, err := s.Get("a")
	if err != nil || got != "1" {
		t.Errorf("Get(a) = %q, %v", got, err)
	}
}

func TestBaselinePolicyCompactsEveryMutation(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir, &Options{}) // zero value: compact on every mutation

	for i := 0; i < 10; i++ {
		if err := s.Set("a", fmt.Sprintf("v%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if n := countRecords(t, dir); n != 1 {
		t.Errorf("log holds %d records, want 1 (baseline compacts each write)", n)
	}

	if err := s.Set("b", "2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if n := countRecords(t, dir); n != 1 {
		t.Errorf("log holds %d records after remove, want 1", n)
	}
	got, err := s.Get("b")
	if err != nil || got != "2" {
		t.Errorf("Get(b) = %q, %v", got, err)
	}
}

func TestThresholdPolicy(t *testing.T) {
	dir := t.TempDir()
	// Half the log stale triggers a compaction; records are equal-sized
	// so one overwrite reaches the threshold exactly.
	s := openStore(t, dir, &Options{CompactionThreshold: 0.5, CompactionMinBytes: 1})

	if err := s.Set("k", "aaaa"); err != nil {
		t.Fatal(err)
	}
	if n := countRecords(t, dir); n != 1 {
		t.Fatalf("log holds %d records, want 1", n)
	}
	if err := s.Set("k", "bbbb"); err != nil {
		t.Fatal(err)
	}
	if n := countRecords(t, dir); n != 1 {
		t.Errorf("log holds %d records after overwrite, want 1 (threshold crossed)", n)
	}

	got, err := s.Get("k")
	if err != nil || got != "bbbb" {
		t.Errorf("Get(k) = %q, %v", got, err)
	}
}

func TestThresholdPolicyRespectsMinBytes(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir, &Options{CompactionThreshold: 0.5, CompactionMinBytes: 1 << 20})

	if err := s.Set("k", "aaaa"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("k", "bbbb"); err != nil {
		t.Fatal(err)
	}
	// Log far below the minimum: both records remain.
	if n := countRecords(t, dir); n != 2 {
		t.Errorf("log holds %d records, want 2 (below CompactionMinBytes)", n)
	}
}

func TestFailedRewriteLeavesLogAuthoritative(t *testing.T) {
	dir := t.TempDir()
	ffs := vfs.NewFaultInjectionFS(vfs.Default())
	s := openStore(t, dir, &Options{FS: ffs, CompactionThreshold: 2, CompactionMinBytes: 1})

	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("b", "2"); err != nil {
		t.Fatal(err)
	}
	sizeBefore := s.LogSize()
	tmpPath := filepath.Join(dir, compactFileName)

	for name, inject := range map[string]func(){
		"create": func() { ffs.InjectCreateError(tmpPath) },
		"write":  func() { ffs.InjectWriteError(tmpPath) },
	} {
		ffs.ClearErrors()
		inject()
		if err := s.Compact(); err == nil {
			t.Fatalf("%s fault: Compact succeeded, want error", name)
		}
		if s.LogSize() != sizeBefore {
			t.Errorf("%s fault: log size changed: %d -> %d", name, sizeBefore, s.LogSize())
		}
		for key, want := range map[string]string{"a": "1", "b": "2"} {
			got, err := s.Get(key)
			if err != nil || got != want {
				t.Errorf("%s fault: Get(%s) = %q, %v, want %q", name, key, got, err, want)
			}
		}
		if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
			t.Errorf("%s fault: rewrite file left behind", name)
		}
	}

	// After clearing faults the same store compacts normally.
	ffs.ClearErrors()
	if err := s.Compact(); err != nil {
		t.Fatalf("Compact after clearing faults: %v", err)
	}
	if n := countRecords(t, dir); n != 2 {
		t.Errorf("log holds %d records after recovery compaction, want 2", n)
	}
}

func TestFailedSwapLeavesLogAuthoritative(t *testing.T) {
	dir := t.TempDir()
	ffs := vfs.NewFaultInjectionFS(vfs.Default())
	s := openStore(t, dir, &Options{FS: ffs, CompactionThreshold: 2, CompactionMinBytes: 1})

	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("a", "2"); err != nil {
		t.Fatal(err)
	}

	tmpPath := filepath.Join(dir, compactFileName)
	ffs.InjectRenameError(tmpPath)
	if err := s.Compact(); err == nil {
		t.Fatal("Compact succeeded despite rename fault, want error")
	}
	if n := countRecords(t, dir); n != 2 {
		t.Errorf("log holds %d records, want 2 (swap never happened)", n)
	}
	got, err := s.Get("a")
	if err != nil || got != "2" {
		t.Errorf("Get(a) = %q, %v after failed swap", got, err)
	}

	ffs.ClearErrors()
	if err := s.Compact(); err != nil {
		t.Fatalf("Compact after clearing fault: %v", err)
	}
	if n := countRecords(t, dir); n != 1 {
		t.Errorf("log holds %d records after successful compaction, want 1", n)
	}
}

func TestCompactionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s := openStore(t, dir, noAutoCompact())
	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("b", "2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Compact(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2 := openStore(t, dir, noAutoCompact())
	if _, err := s2.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(a) = %v, want ErrNotFound", err)
	}
	got, err := s2.Get("b")
	if err != nil || got != "2" {
		t.Errorf("Get(b) = %q, %v, want %q", got, err, "2")
	}
}
