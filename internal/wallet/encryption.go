package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed blob layout:
//
//	version(1) | memory(4) | time(4) | threads(1) | salt(16) | nonce(24) | ciphertext
const (
	sealVersion = 1
	saltSize    = 16
	sealHeader  = 1 + 4 + 4 + 1 + saltSize
)

var (
	ErrBadPassword  = errors.New("wrong password or corrupted keystore")
	ErrSealTooShort  = errors.New("sealed data too short")
	ErrSealVersion  = errors.New("unsupported seal version")
)

// KDFParams are the Argon2id cost settings stored with every sealed blob.
type KDFParams struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
}

// DefaultKDF is used for new wallets.
func DefaultKDF() KDFParams {
	return KDFParams{Memory: 64 * 1024, Time: 3, Threads: 4}
}

func (p KDFParams) key(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Seal encrypts plaintext under password with Argon2id and
// XChaCha20-Poly1305. The header is authenticated as associated data.
func Seal(plaintext, password []byte, p KDFParams) ([]byte, error) {
	header := make([]byte, 0, sealHeader)
	header = append(header, sealVersion)
	header = binary.BigEndian.AppendUint32(header, p.Memory)
	header = binary.BigEndian.AppendUint32(header, p.Time)
	header = append(header, p.Threads)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	header = append(header, salt...)

	key := p.key(password, salt)
	defer wipe(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	out := append(header, nonce...)
	return aead.Seal(out, nonce, plaintext, header), nil
}

// Open reverses Seal.
func Open(sealed, password []byte) ([]byte, error) {
	if len(sealed) < sealHeader+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, ErrSealTooShort
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("%w: %d", ErrSealVersion, sealed[0])
	}
	p := KDFParams{
		Memory:  binary.BigEndian.Uint32(sealed[1:5]),
		Time:    binary.BigEndian.Uint32(sealed[5:9]),
		Threads: sealed[9],
	}
	header := sealed[:sealHeader]
	salt := header[sealHeader-saltSize:]
	nonce := sealed[sealHeader : sealHeader+chacha20poly1305.NonceSizeX]
	ct := sealed[sealHeader+chacha20poly1305.NonceSizeX:]

	key := p.key(password, salt)
	defer wipe(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	plain, err := aead.Open(nil, nonce, ct, header)
	if err != nil {
		return nil, ErrBadPassword
	}
	return plain, nil
}
