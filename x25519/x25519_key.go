// Package x25519 implements Curve25519 keypairs for use as wrapping
// keys in key-encrypted private-key records. The "compressed point" of
// an X25519 key is its 32-byte u-coordinate.
package x25519

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/dovecot/dcrypt-go/internal/zero"
)

// KeyLength is the size of both scalars and points on Curve25519.
const KeyLength = 32

type PublicKey struct {
	key *[KeyLength]byte
}

type PrivateKey struct {
	key *[KeyLength]byte
	pub *PublicKey
}

// GenerateKey creates a fresh keypair.
func GenerateKey() (*PublicKey, *PrivateKey, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	public := &PublicKey{key: pub}
	return public, &PrivateKey{key: priv, pub: public}, nil
}

// NewPublicKey wraps a 32-byte point.
func NewPublicKey(data []byte) (*PublicKey, error) {
	if len(data) != KeyLength {
		return nil, fmt.Errorf("X25519 public key must be %d bytes, got %d", KeyLength, len(data))
	}
	var key [KeyLength]byte
	copy(key[:], data)
	return &PublicKey{key: &key}, nil
}

// NewPrivateKey wraps a 32-byte scalar and derives its public key.
func NewPrivateKey(data []byte) (*PrivateKey, error) {
	if len(data) != KeyLength {
		return nil, fmt.Errorf("X25519 private key must be %d bytes, got %d", KeyLength, len(data))
	}
	var key [KeyLength]byte
	copy(key[:], data)
	priv := &PrivateKey{key: &key}
	pub, err := priv.derivePublic()
	if err != nil {
		return nil, err
	}
	priv.pub = pub
	return priv, nil
}

func (k *PublicKey) Bytes() []byte {
	return append([]byte(nil), k.key[:]...)
}

// Equal reports whether two public keys hold the same point.
func (k *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && bytes.Equal(k.key[:], other.key[:])
}

// EncryptAnonymous seals plaintext to the key with an ephemeral sender
// key, so only the private-key holder can open it.
func (k *PublicKey) EncryptAnonymous(plaintext []byte) ([]byte, error) {
	return box.SealAnonymous(nil, plaintext, k.key, rand.Reader)
}

func (k *PrivateKey) derivePublic() (*PublicKey, error) {
	point, err := curve25519.X25519(k.key[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	return NewPublicKey(point)
}

func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.key[:]...)
}

// Public returns the matching public key.
func (k *PrivateKey) Public() *PublicKey {
	return k.pub
}

// DecryptAnonymous opens a sealed box produced by EncryptAnonymous.
func (k *PrivateKey) DecryptAnonymous(ciphertext []byte) ([]byte, error) {
	plaintext, ok := box.OpenAnonymous(nil, ciphertext, k.pub.key, k.key)
	if !ok {
		return nil, fmt.Errorf("X25519 sealed box did not open")
	}
	return plaintext, nil
}

// SharedSecret performs the Diffie-Hellman operation against a peer
// point.
func (k *PrivateKey) SharedSecret(peer *PublicKey) ([]byte, error) {
	return curve25519.X25519(k.key[:], peer.key[:])
}

// Destroy zeroizes the private scalar.
func (k *PrivateKey) Destroy() {
	zero.Bytes(k.key[:])
}
