package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// ErrPassphraseRequired is returned when a sealed store is constructed
// without a passphrase. There is no derived-key fallback: storage without
// an explicit key is plaintext and must use [FileStore] so the operator
// knows what they are running.
var ErrPassphraseRequired = errors.New("sealed token store requires a passphrase")

// SealedFileStore persists the token pair encrypted at rest using age
// scrypt passphrase encryption. It shares the lock-file and atomic-rename
// write path with [FileStore] and is intended as the primary tier of a
// [Tiered] store.
type SealedFileStore struct {
	path       string
	passphrase string
}

// NewSealedFileStore creates an age-encrypted file store at path.
func NewSealedFileStore(path, passphrase string) (*SealedFileStore, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	return &SealedFileStore{path: path, passphrase: passphrase}, nil
}

func (s *SealedFileStore) SetTokens(ctx context.Context, pair Pair) error {
	plaintext, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode token pair: %w", err)
	}

	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return fmt.Errorf("sealed store recipient: %w", err)
	}

	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, recipient)
	if err != nil {
		return fmt.Errorf("sealed store encrypt: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("sealed store encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("sealed store encrypt: %w", err)
	}

	return writeFileLocked(ctx, s.path, sealed.Bytes())
}

func (s *SealedFileStore) Tokens(_ context.Context) (Pair, error) {
	sealed, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Pair{}, nil
		}
		return Pair{}, fmt.Errorf("read sealed token file: %w", err)
	}

	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return Pair{}, fmt.Errorf("sealed store identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(sealed), identity)
	if err != nil {
		return Pair{}, fmt.Errorf("sealed store decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return Pair{}, fmt.Errorf("sealed store decrypt: %w", err)
	}

	var pair Pair
	if err := json.Unmarshal(plaintext, &pair); err != nil {
		return Pair{}, fmt.Errorf("decode sealed token file: %w", err)
	}
	return pair, nil
}

func (s *SealedFileStore) Clear(ctx context.Context) error {
	return removeFileLocked(ctx, s.path)
}
