package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/orizon-lang/orizon-ir/internal/cli"
	irerrors "github.com/orizon-lang/orizon-ir/internal/errors"
	"github.com/orizon-lang/orizon-ir/internal/ir"
	"github.com/orizon-lang/orizon-ir/internal/scope"
)

// StoreStats exposes basic metrics.
type StoreStats struct {
	Hits        int64
	Misses      int64
	Writes      int64
	Invalidated int64
	Discarded   int64
}

// Store keeps one artifact per source file under a Resolver root.
// Writes are atomic and serialized across processes by a lock file.
type Store struct {
	paths  *Resolver
	logger *cli.Logger

	mu    sync.Mutex
	stats StoreStats
}

// NewStore ensures the root directory exists. An empty root means DefaultRoot.
func NewStore(root string, logger *cli.Logger) (*Store, error) {
	r := NewResolver(root)
	if err := os.MkdirAll(r.Root, 0o755); err != nil {
		return nil, err
	}
	return &Store{paths: r, logger: logger}, nil
}

// Root is the directory artifacts are stored under.
func (st *Store) Root() string { return st.paths.Root }

// Path returns the artifact path for source.
func (st *Store) Path(source string) (string, error) { return st.paths.PersistedFile(source) }

// Save writes the artifact of s for source.
func (st *Store) Save(source string, s *scope.Scope) (string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	path, err := st.paths.PersistedFile(source)
	if err != nil {
		return "", err
	}
	unlock, err := acquire(path)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := WriteArtifact(path, s); err != nil {
		return "", err
	}
	st.stats.Writes++
	st.logger.Debug("saved %s to %s", s.Name(), path)
	return path, nil
}

// Load returns the persisted scope for source. A missing artifact, or one
// older than its source, is a miss. An artifact that fails validation is
// deleted and reported with an error wrapping ErrInvalidArtifact; the caller
// recompiles. The artifact lock is held throughout, so a discard never
// removes an artifact another process has just written.
func (st *Store) Load(source string, m *ir.Manager) (*scope.Scope, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	path, err := st.paths.PersistedFile(source)
	if err != nil {
		return nil, false, err
	}
	unlock, err := acquire(path)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			st.stats.Misses++
			return nil, false, nil
		}
		return nil, false, err
	}
	if stale(source, info) {
		st.logger.Debug("artifact %s is older than its source", path)
		if err := removeIfExists(path); err != nil {
			return nil, false, err
		}
		st.stats.Misses++
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	s, err := decodeArtifact(data, m)
	if err != nil {
		st.stats.Discarded++
		st.logger.Warn("discarding %s: %v", path, err)
		if rmErr := removeIfExists(path); rmErr != nil {
			st.logger.Error("failed to remove %s: %v", path, rmErr)
		}
		return nil, false, irerrors.InvalidArtifact(path, err)
	}
	st.stats.Hits++
	return s, true, nil
}

// ReadArtifact decodes the artifact file at path.
func ReadArtifact(path string, m *ir.Manager) (*scope.Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := decodeArtifact(data, m)
	if err != nil {
		return nil, irerrors.InvalidArtifact(path, err)
	}
	return s, nil
}

// WriteArtifact atomically replaces the artifact file at path with s.
func WriteArtifact(path string, s *scope.Scope) error {
	return writeAtomic(path, Seal(EncodeScope(s)))
}

func decodeArtifact(data []byte, m *ir.Manager) (*scope.Scope, error) {
	payload, err := Open(data)
	if err != nil {
		return nil, err
	}
	return DecodeScope(payload, m)
}

// stale reports whether the source file was modified after the artifact was
// written. Sources that cannot be stat'ed are not compared.
func stale(source string, artifact os.FileInfo) bool {
	src, err := os.Stat(stripScheme(source))
	if err != nil {
		return false
	}
	return src.ModTime().After(artifact.ModTime())
}

// Exists reports whether an artifact is stored for source.
func (st *Store) Exists(source string) bool {
	path, err := st.paths.PersistedFile(source)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Invalidate removes the artifact for source. Removing a missing artifact
// is not an error.
func (st *Store) Invalidate(source string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	path, err := st.paths.PersistedFile(source)
	if err != nil {
		return err
	}
	unlock, err := acquire(path)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := removeIfExists(path); err != nil {
		return err
	}
	st.stats.Invalidated++
	st.logger.Debug("invalidated %s", path)
	return nil
}

// Stats returns a snapshot of the counters.
func (st *Store) Stats() StoreStats { st.mu.Lock(); defer st.mu.Unlock(); return st.stats }

// acquire locks path+".lock" and returns the release function.
func acquire(path string) (func(), error) {
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		_ = unlockFile(f)
		f.Close()
	}, nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
