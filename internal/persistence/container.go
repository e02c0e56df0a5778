// Package persistence stores compiled IR scopes on disk so later runs can
// skip recompilation. An artifact that cannot be trusted is never partially
// used: readers get ErrInvalidArtifact and recompile from source.
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/Masterminds/semver/v3"
)

const (
	// Magic opens every artifact.
	Magic = "ORIR"
	// FormatVersion is written into new artifacts.
	FormatVersion = "1.0.0"
	// compatibleFormats lists the versions this reader accepts.
	compatibleFormats = ">= 1.0.0, < 2.0.0"

	trailerSize = 4
)

// ErrInvalidArtifact is wrapped by every error caused by a corrupt, truncated
// or incompatible artifact.
var ErrInvalidArtifact = errors.New("invalid IR artifact")

var formatConstraint = mustConstraint(compatibleFormats)

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, fmt.Sprintf(format, args...))
}

// Seal wraps payload in an artifact container:
//
//	magic | uvarint len, version | uvarint len, payload | crc32 (big endian)
//
// The checksum covers every byte before it.
func Seal(payload []byte) []byte {
	return sealVersion(FormatVersion, payload)
}

func sealVersion(version string, payload []byte) []byte {
	buf := make([]byte, 0, len(Magic)+len(version)+len(payload)+2*binary.MaxVarintLen64+trailerSize)
	buf = append(buf, Magic...)
	buf = binary.AppendUvarint(buf, uint64(len(version)))
	buf = append(buf, version...)
	buf = binary.AppendUvarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	return binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

// Open validates an artifact container and returns its payload.
func Open(data []byte) ([]byte, error) {
	if len(data) < len(Magic)+trailerSize {
		return nil, invalid("artifact too short (%d bytes)", len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, invalid("bad magic %q", data[:len(Magic)])
	}
	body := data[:len(data)-trailerSize]
	want := binary.BigEndian.Uint32(data[len(data)-trailerSize:])
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, invalid("checksum mismatch: got %08x, want %08x", got, want)
	}

	rest := body[len(Magic):]
	version, rest, err := readChunk(rest, "version")
	if err != nil {
		return nil, err
	}
	v, err := semver.NewVersion(string(version))
	if err != nil {
		return nil, invalid("bad format version %q: %v", version, err)
	}
	if !formatConstraint.Check(v) {
		return nil, invalid("format version %s does not satisfy %s", v, formatConstraint)
	}
	payload, rest, err := readChunk(rest, "payload")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, invalid("%d bytes after payload", len(rest))
	}
	return payload, nil
}

func readChunk(data []byte, what string) (chunk, rest []byte, err error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return nil, nil, invalid("bad %s length", what)
	}
	data = data[k:]
	if n > uint64(len(data)) {
		return nil, nil, invalid("%s length %d exceeds %d remaining bytes", what, n, len(data))
	}
	return data[:n], data[n:], nil
}
