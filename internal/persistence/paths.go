package persistence

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/orizon-lang/orizon-ir/internal/cli"
)

const (
	IRFileExtension    = ".ir"
	IRClassExtension   = ".class"
	sourceSchemePrefix = "file:"
)

// DefaultRoot is the directory artifacts live under: $ORIZON_IR_HOME when set,
// otherwise ~/.ir (ir on Windows).
func DefaultRoot() string {
	folder := ".ir"
	if runtime.GOOS == "windows" {
		folder = "ir"
	}
	return env.Str(cli.EnvIRHome, filepath.Join(env.HomeDir(), folder))
}

// Resolver maps compilation units and class names to artifact paths under Root.
// Resolving a path creates its directory; repeated calls return the same path.
type Resolver struct {
	Root string
}

// NewResolver roots artifact paths at root, or DefaultRoot when root is empty.
func NewResolver(root string) *Resolver {
	if root == "" {
		root = DefaultRoot()
	}
	return &Resolver{Root: root}
}

// PersistedFile returns the artifact path of a source file. The source's
// absolute directory is mirrored under Root and its extension replaced by .ir.
func (r *Resolver) PersistedFile(fileName string) (string, error) {
	path, err := filepath.Abs(stripScheme(fileName))
	if err != nil {
		return "", err
	}
	dir, base := filepath.Split(path)
	dir = strings.TrimPrefix(dir, filepath.VolumeName(dir))
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return r.place(dir, base+IRFileExtension)
}

// ClassFile returns the artifact path of a dotted class name, one directory
// per package segment.
func (r *Resolver) ClassFile(className string) (string, error) {
	path := filepath.FromSlash(strings.ReplaceAll(className, ".", "/"))
	dir, base := filepath.Split(path)
	return r.place(dir, base+IRClassExtension)
}

func stripScheme(fileName string) string {
	return strings.ReplaceAll(fileName, sourceSchemePrefix, "")
}

func (r *Resolver) place(dir, file string) (string, error) {
	folder := filepath.Join(r.Root, dir)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(folder, file), nil
}

// IRPersistedFile resolves fileName under DefaultRoot.
func IRPersistedFile(fileName string) (string, error) {
	return NewResolver("").PersistedFile(fileName)
}

// IRClassFile resolves className under DefaultRoot.
func IRClassFile(className string) (string, error) {
	return NewResolver("").ClassFile(className)
}
