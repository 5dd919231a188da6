// Package cryptox holds the password-based primitives used by the vault:
// PBKDF2 key derivation, AES-GCM sealing of binary blobs and the one-way
// PIN hash.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/lifevault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	NonceSize  = 12
	KeySize    = 32
	Iterations = 100_000
)

// DeriveKey stretches password with salt into a 256-bit AES key using
// PBKDF2-HMAC-SHA256.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, Iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptBlob seals blob with a key derived from password.
//
// Every call draws a fresh random salt and nonce, so sealing the same blob
// twice yields different output. The result is laid out as:
//
//	salt (16) | nonce (12) | ciphertext + GCM tag
//
// Parameters:
//   - blob: plaintext bytes, may be empty.
//   - password: the secret the key is derived from.
//
// Returns:
//   - the sealed blob.
//   - err: non-nil if the cipher could not be constructed.
//
// Example:
//
//	sealed, err := cryptox.EncryptBlob(photo, []byte(pin))
//	if err != nil {
//	    return err
//	}
//	plain, err := cryptox.DecryptBlob(sealed, []byte(pin), "image/jpeg")
func EncryptBlob(blob, password []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(SaltSize)
	nonce := common.GenerateRandByteArray(NonceSize)

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, SaltSize+NonceSize+len(blob)+aesgcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, blob, nil), nil
}

// DecryptBlob opens a blob produced by EncryptBlob. mimeType only labels
// the error. Any failure, including truncated input, is reported as
// common.ErrDecryption.
func DecryptBlob(sealed, password []byte, mimeType string) ([]byte, error) {
	if len(sealed) < SaltSize+NonceSize {
		return nil, fmt.Errorf("%s payload too short: %w", mimeType, common.ErrDecryption)
	}

	salt := sealed[:SaltSize]
	nonce := sealed[SaltSize : SaltSize+NonceSize]
	ciphertext := sealed[SaltSize+NonceSize:]

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%s payload: %w", mimeType, common.ErrDecryption)
	}
	return plaintext, nil
}

// HashPassword returns the hex-encoded SHA-256 digest of password.
// It is unsalted and only meant for PIN equality checks.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func VerifyPassword(password, storedHash string) bool {
	computed := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
