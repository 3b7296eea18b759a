// Package persist stores figure snapshots between sessions. A stored
// snapshot is consumed by Take: restoring a session removes it.
package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"

	"github.com/gekko3d/ragdoll"
)

var (
	ErrNotFound   = errors.New("session not found")
	ErrInvalidKey = errors.New("invalid session key")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Store interface {
	Save(ctx context.Context, key string, snap ragdoll.FigureSnapshot) error
	// Take returns the snapshot for key and deletes it.
	Take(ctx context.Context, key string) (ragdoll.FigureSnapshot, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// encode writes snap as zstd-compressed JSON.
func encode(snap ragdoll.FigureSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (ragdoll.FigureSnapshot, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return ragdoll.FigureSnapshot{}, err
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		return ragdoll.FigureSnapshot{}, fmt.Errorf("zstd decode: %w", err)
	}
	return ragdoll.ParseSnapshot(raw)
}

// Open returns the store named by kind: "file" (a directory) or "sqlite"
// (a database path).
func Open(kind, path string) (Store, error) {
	switch kind {
	case "file":
		return NewFileStore(path)
	case "sqlite":
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unknown store kind %q", kind)
}
