package keymgmt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// scrypt parameters for the passphrase-derived key. The salt is fixed: the
// local provider exists for development deployments where the passphrase is
// the only secret and ciphertexts never leave the developer's database.
const (
	localScryptN = 1 << 15
	localScryptR = 8
	localScryptP = 1
	localKeyLen  = 32
)

var localKeySalt = []byte("salesdesk/keymgmt/local/v1")

var _ Encryptor = (*LocalEncryptor)(nil)

// LocalEncryptor seals payloads with AES-GCM under a scrypt-derived key.
type LocalEncryptor struct {
	aead cipher.AEAD
}

// NewLocalEncryptor derives the key from the passphrase and prepares the AEAD
func NewLocalEncryptor(passphrase string) (*LocalEncryptor, error) {
	if passphrase == "" {
		return nil, errors.New("keymgmt local passphrase is required")
	}

	key, err := scrypt.Key([]byte(passphrase), localKeySalt, localScryptN, localScryptR, localScryptP, localKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}

	return &LocalEncryptor{aead: aead}, nil
}

// Encrypt seals the payload. The random nonce is prepended to the ciphertext
// so Decrypt needs no state beyond the derived key.
func (e *LocalEncryptor) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, shared.Wrap(shared.KindApplication, "failed to generate nonce", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a payload previously produced by Encrypt
func (e *LocalEncryptor) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, shared.NewApplication("ciphertext is too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, shared.Wrap(shared.KindApplication, "failed to decrypt payload", err)
	}
	return plaintext, nil
}
