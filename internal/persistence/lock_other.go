//go:build !unix

package persistence

import "os"

// Only the in-process mutex serializes writers on this platform.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
