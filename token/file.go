package token

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileStore persists the token pair as plaintext JSON at a fixed path.
// Writes are atomic (temp file + rename) and guarded by a cross-process
// lock file. It is the usual fallback tier under a [SealedFileStore].
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path. The file is created
// with 0600 permissions on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) SetTokens(ctx context.Context, pair Pair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode token pair: %w", err)
	}
	return writeFileLocked(ctx, s.path, data)
}

func (s *FileStore) Tokens(_ context.Context) (Pair, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Pair{}, nil
		}
		return Pair{}, fmt.Errorf("read token file: %w", err)
	}

	var pair Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return Pair{}, fmt.Errorf("decode token file: %w", err)
	}
	return pair, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	return removeFileLocked(ctx, s.path)
}

// writeFileLocked writes data to path atomically under the file lock.
func writeFileLocked(ctx context.Context, path string, data []byte) error {
	lock, err := acquireFileLock(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.release() }()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename token temp file: %w", err)
	}
	return nil
}

func removeFileLocked(ctx context.Context, path string) error {
	lock, err := acquireFileLock(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.release() }()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
