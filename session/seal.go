package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealVersion  byte   = 1
	sealSaltLen         = 16
	sealKDFTime  uint32 = 2
	sealKDFMemKB uint32 = 19 * 1024
	sealKDFLanes uint8  = 1
)

var (
	// ErrSealedRecord is returned when a sealed record cannot be opened.
	ErrSealedRecord = errors.New("sealed token record invalid")
)

// Sealer encrypts token records at rest with XChaCha20-Poly1305. Each record
// carries its own random salt; the key is derived from the passphrase with
// Argon2id.
//
// Sealed layout: version(1) | salt(16) | nonce(24) | ciphertext.
type Sealer struct {
	passphrase []byte
}

// NewSealer returns a Sealer for passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("sealer passphrase required")
	}
	return &Sealer{passphrase: []byte(passphrase)}, nil
}

func (s *Sealer) key(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, sealKDFTime, sealKDFMemKB, sealKDFLanes, chacha20poly1305.KeySize)
}

// Seal encrypts plaintext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, sealSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, sealVersion)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte{sealVersion}), nil
}

// Open decrypts a record produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	header := 1 + sealSaltLen + chacha20poly1305.NonceSizeX
	if len(sealed) < header+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: short record", ErrSealedRecord)
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrSealedRecord, sealed[0])
	}

	salt := sealed[1 : 1+sealSaltLen]
	nonce := sealed[1+sealSaltLen : header]
	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, sealed[header:], []byte{sealVersion})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedRecord, err)
	}
	return plain, nil
}
