package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/orizon-lang/orizon-ir/internal/ir"
)

func TestResolverPersistedFile(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root)
	src := filepath.Join(t.TempDir(), "lib", "util.rb")

	path, err := r.PersistedFile("file:" + src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, root) {
		t.Errorf("%s is outside the root %s", path, root)
	}
	if filepath.Base(path) != "util.ir" {
		t.Errorf("expected util.ir, got %s", filepath.Base(path))
	}
	if !strings.HasSuffix(filepath.Dir(path), "lib") {
		t.Errorf("source directory not mirrored: %s", path)
	}
	if st, err := os.Stat(filepath.Dir(path)); err != nil || !st.IsDir() {
		t.Errorf("directory was not created: %v", err)
	}

	again, err := r.PersistedFile(src)
	if err != nil || again != path {
		t.Errorf("resolution is not stable: %s vs %s (%v)", again, path, err)
	}
}

func TestResolverKeepsDotfileNames(t *testing.T) {
	r := NewResolver(t.TempDir())
	path, err := r.PersistedFile(filepath.Join(t.TempDir(), ".irbrc"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != ".irbrc.ir" {
		t.Errorf("expected .irbrc.ir, got %s", filepath.Base(path))
	}
}

func TestResolverClassFile(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root)
	path, err := r.ClassFile("org.example.Widget")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "org", "example", "Widget.class")
	if path != want {
		t.Errorf("got %s, want %s", path, want)
	}

	top, err := r.ClassFile("Main")
	if err != nil || top != filepath.Join(root, "Main.class") {
		t.Errorf("top-level class resolved to %s (%v)", top, err)
	}
}

func TestDefaultRootUnderHome(t *testing.T) {
	if os.Getenv("ORIZON_IR_HOME") != "" {
		t.Skip("ORIZON_IR_HOME is set")
	}
	want := ".ir"
	if runtime.GOOS == "windows" {
		want = "ir"
	}
	if got := filepath.Base(DefaultRoot()); got != want {
		t.Errorf("expected the root folder %s, got %s", want, got)
	}
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("def m(x); x + 1; end\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStoreSaveLoad(t *testing.T) {
	st, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	src := writeSource(t, t.TempDir(), "m.rb")

	if _, ok, err := st.Load(src, ir.NewManager()); ok || err != nil {
		t.Fatalf("expected a miss before saving, got ok=%t err=%v", ok, err)
	}
	path, err := st.Save(src, sampleScope())
	if err != nil {
		t.Fatal(err)
	}
	if !st.Exists(src) {
		t.Fatalf("artifact %s missing after save", path)
	}
	if matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp")); len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}

	s, ok, err := st.Load(src, ir.NewManager())
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%t err=%v", ok, err)
	}
	if s.Name() != "sample" || len(s.CFG().Blocks()) != 2 {
		t.Errorf("unexpected scope:\n%s", s)
	}

	stats := st.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Writes != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestStoreDiscardsInvalidArtifact(t *testing.T) {
	st, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	src := writeSource(t, t.TempDir(), "m.rb")
	path, err := st.Save(src, sampleScope())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)/2] ^= 0x55
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := st.Load(src, ir.NewManager())
	if ok || !errors.Is(err, ErrInvalidArtifact) {
		t.Fatalf("expected ErrInvalidArtifact, got ok=%t err=%v", ok, err)
	}
	if st.Exists(src) {
		t.Error("invalid artifact was not discarded")
	}
	if _, ok, err := st.Load(src, ir.NewManager()); ok || err != nil {
		t.Errorf("after discarding, expected a plain miss, got ok=%t err=%v", ok, err)
	}
	if st.Stats().Discarded != 1 {
		t.Errorf("expected one discarded artifact, got %+v", st.Stats())
	}
}

func TestStoreTreatsStaleArtifactAsMiss(t *testing.T) {
	st, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	src := writeSource(t, t.TempDir(), "m.rb")
	path, err := st.Save(src, sampleScope())
	if err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := st.Load(src, ir.NewManager()); ok || err != nil {
		t.Fatalf("expected a miss for a stale artifact, got ok=%t err=%v", ok, err)
	}
	if st.Exists(src) {
		t.Error("stale artifact was kept")
	}
}

func TestStoreLoadWaitsForWriterLock(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "plan9" || runtime.GOOS == "js" || runtime.GOOS == "wasip1" {
		t.Skip("artifact locks are advisory flocks on unix only")
	}
	st, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	src := writeSource(t, t.TempDir(), "m.rb")
	path, err := st.Save(src, sampleScope())
	if err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	// Another writer holds the lock and replaces the stale artifact.
	unlock, err := acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, ok, err := st.Load(src, ir.NewManager())
		done <- result{ok, err}
	}()

	select {
	case r := <-done:
		unlock()
		t.Fatalf("Load finished while the artifact was locked: ok=%t err=%v", r.ok, r.err)
	case <-time.After(100 * time.Millisecond):
	}
	if err := WriteArtifact(path, sampleScope()); err != nil {
		unlock()
		t.Fatal(err)
	}
	fresh := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, fresh, fresh); err != nil {
		unlock()
		t.Fatal(err)
	}
	unlock()

	select {
	case r := <-done:
		if r.err != nil || !r.ok {
			t.Errorf("expected the fresh artifact to load, got ok=%t err=%v", r.ok, r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not resume after the lock was released")
	}
	if !st.Exists(src) {
		t.Error("the writer's artifact was removed")
	}
}

func TestStoreInvalidate(t *testing.T) {
	st, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	src := writeSource(t, t.TempDir(), "m.rb")
	if _, err := st.Save(src, sampleScope()); err != nil {
		t.Fatal(err)
	}
	if err := st.Invalidate(src); err != nil {
		t.Fatal(err)
	}
	if st.Exists(src) {
		t.Error("artifact survived invalidation")
	}
	if err := st.Invalidate(src); err != nil {
		t.Errorf("invalidating a missing artifact should succeed: %v", err)
	}
	if st.Stats().Invalidated != 1 {
		t.Errorf("expected one invalidation, got %+v", st.Stats())
	}
}

func TestReadWriteArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.ir")
	if err := WriteArtifact(path, sampleScope()); err != nil {
		t.Fatal(err)
	}
	s, err := ReadArtifact(path, ir.NewManager())
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "sample" {
		t.Errorf("unexpected scope %s", s.Name())
	}

	if err := os.WriteFile(path, []byte("ORIR garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadArtifact(path, ir.NewManager()); !errors.Is(err, ErrInvalidArtifact) {
		t.Errorf("expected ErrInvalidArtifact, got %v", err)
	}
}
