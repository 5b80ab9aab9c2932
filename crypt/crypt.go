// Package crypt encrypts short texts, such as saved game data, with AES-CBC
// and encodes the result in base64.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrInvalidKey is returned when the salt is not a valid AES key.
	ErrInvalidKey = errors.New("invalid key: salt must be 16, 24 or 32 bytes")

	// ErrInvalidIV is returned when the IV is not one AES block long.
	ErrInvalidIV = errors.New("invalid iv: must be 16 bytes")

	// ErrInvalidCiphertext is returned when decrypting malformed input.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrKeyDerivationFailed is returned when HKDF cannot produce the key.
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)

// DerivedKeySize is the size of the keys produced by WithKeyDerivation.
const DerivedKeySize = 32

// Option configures an Encryptor.
type Option func(*options)

type options struct {
	derive bool
	info   string
}

// WithKeyDerivation derives the key and the IV from the salt and IV strings
// with HKDF-SHA-256, so that they can have any length. The info string
// separates the keys of different uses.
func WithKeyDerivation(info string) Option {
	return func(o *options) {
		o.derive = true
		o.info = info
	}
}

// An Encryptor encrypts and decrypts with a fixed key and IV.
type Encryptor struct {
	block cipher.Block
	iv    []byte
}

// New creates an Encryptor. By default, the bytes of salt are the AES key and
// the bytes of iv are the initialization vector.
func New(salt, iv string, opts ...Option) (*Encryptor, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	key := []byte(salt)
	vector := []byte(iv)

	if o.derive {
		var err error

		key, vector, err = derive(key, vector, o.info)
		if err != nil {
			return nil, err
		}
	}

	if len(vector) != aes.BlockSize {
		return nil, ErrInvalidIV
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &Encryptor{block: block, iv: vector}, nil
}

func derive(secret, salt []byte, info string) ([]byte, []byte, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte(info))

	out := make([]byte, DerivedKeySize+aes.BlockSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, nil, errors.Join(ErrKeyDerivationFailed, err)
	}

	return out[:DerivedKeySize], out[DerivedKeySize:], nil
}

// Encrypt encrypts a text and returns it in base64.
func (e *Encryptor) Encrypt(plain string) string {
	return base64.StdEncoding.EncodeToString(e.EncryptBytes([]byte(plain)))
}

// Decrypt decrypts a base64 text produced by Encrypt.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	plain, err := e.DecryptBytes(data)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}

// EncryptBytes pads data with PKCS#7 and encrypts it.
func (e *Encryptor) EncryptBytes(data []byte) []byte {
	padded := pad(data)
	out := make([]byte, len(padded))

	cipher.NewCBCEncrypter(e.block, e.iv).CryptBlocks(out, padded)

	return out
}

// DecryptBytes decrypts data and removes the PKCS#7 padding.
func (e *Encryptor) DecryptBytes(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidCiphertext, len(data))
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(e.block, e.iv).CryptBlocks(out, data)

	return unpad(out)
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize

	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ErrInvalidCiphertext)
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrInvalidCiphertext)
		}
	}

	return data[:len(data)-n], nil
}
