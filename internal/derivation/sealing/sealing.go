// Package sealing encrypts complaint payloads for one destination authority.
//
// Every destination gets its own AES-256-GCM key, derived from the payload
// master key with HKDF-SHA256. The tracking ID and destination code are bound
// as additional data, so a sealed payload replayed to another destination or
// attached to another complaint fails to open.
//
// Wire format: version(1) || nonce(12) || ciphertext+tag.
package sealing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	id "vozsegura/pkg/domain"
)

const (
	formatVersion byte = 1
	keySize            = 32
	hkdfInfoPrefix     = "vozsegura/derivation/v1/"
)

var (
	ErrInvalidKey = errors.New("sealing key must be 32 bytes")
	ErrMalformed  = errors.New("malformed sealed payload")
)

// Sealed is the output handed to the delivery client.
type Sealed struct {
	KeyID      string
	Ciphertext []byte
}

type Sealer struct {
	random io.Reader
}

type Option func(*Sealer)

// WithRandom replaces the nonce source.
func WithRandom(r io.Reader) Option {
	return func(s *Sealer) {
		s.random = r
	}
}

func New(opts ...Option) *Sealer {
	s := &Sealer{random: rand.Reader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seal encrypts plain for destinationCode under a key derived from masterKey.
// keyName identifies the master key in KeyID; the key bytes never leave.
func (s *Sealer) Seal(masterKey []byte, keyName string, trackingID id.TrackingID, destinationCode string, plain []byte) (*Sealed, error) {
	gcm, err := destinationCipher(masterKey, destinationCode)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(s.random, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, 0, 1+len(nonce)+len(plain)+gcm.Overhead())
	out = append(out, formatVersion)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plain, additionalData(trackingID, destinationCode))
	return &Sealed{KeyID: KeyID(keyName, masterKey), Ciphertext: out}, nil
}

// Open reverses Seal. Destinations run the same derivation on their side.
func (s *Sealer) Open(masterKey []byte, trackingID id.TrackingID, destinationCode string, sealed []byte) ([]byte, error) {
	gcm, err := destinationCipher(masterKey, destinationCode)
	if err != nil {
		return nil, err
	}
	if len(sealed) < 1+gcm.NonceSize()+gcm.Overhead() || sealed[0] != formatVersion {
		return nil, ErrMalformed
	}
	nonce := sealed[1 : 1+gcm.NonceSize()]
	plain, err := gcm.Open(nil, nonce, sealed[1+gcm.NonceSize():], additionalData(trackingID, destinationCode))
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	return plain, nil
}

// KeyID names the master key without revealing it: the key name plus a short
// SHA-256 fingerprint, so receivers can tell rotated keys apart.
func KeyID(keyName string, masterKey []byte) string {
	sum := sha256.Sum256(masterKey)
	return keyName + ":" + hex.EncodeToString(sum[:8])
}

func destinationCipher(masterKey []byte, destinationCode string) (cipher.AEAD, error) {
	if len(masterKey) != keySize {
		return nil, ErrInvalidKey
	}
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfoPrefix+destinationCode))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive destination key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func additionalData(trackingID id.TrackingID, destinationCode string) []byte {
	return []byte(trackingID.String() + "|" + destinationCode)
}
