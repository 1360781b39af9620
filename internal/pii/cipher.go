// Package pii encrypts, decrypts and masks personally identifiable data.
package pii

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedCiphertext is returned when a value is not in ivHex:cipherHex form.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Protector is the capability the service layer needs for PII fields.
type Protector interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Cipher is an AES-256-CBC Protector with a random IV per call.
type Cipher struct {
	block cipher.Block
	rand  io.Reader
}

var _ Protector = (*Cipher)(nil)

// NewCipher derives a 32-byte key from secret with SHA-256.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("pii: empty encryption secret")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("pii: init cipher: %w", err)
	}
	return &Cipher{block: block, rand: rand.Reader}, nil
}

// Encrypt returns ivHex:cipherHex. Empty input is returned unchanged.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("pii: generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Empty input is returned unchanged.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	ivHex, dataHex, ok := strings.Cut(ciphertext, ":")
	if !ok {
		return "", ErrMalformedCiphertext
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedCiphertext
	}
	data, err := hex.DecodeString(dataHex)
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", ErrMalformedCiphertext
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, data)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// IsCiphertext reports whether v already looks like Encrypt output.
func IsCiphertext(v string) bool {
	ivHex, dataHex, ok := strings.Cut(v, ":")
	if !ok || len(ivHex) != aes.BlockSize*2 || dataHex == "" {
		return false
	}
	_, err := hex.DecodeString(ivHex)
	return err == nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrMalformedCiphertext
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrMalformedCiphertext
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrMalformedCiphertext
		}
	}
	return b[:len(b)-n], nil
}
