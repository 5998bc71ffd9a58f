// Package kdf exposes the key-derivation functions behind a small
// named-type registry, plus the PBKDF2 entry point the key-record
// codecs call directly.
package kdf

import (
	"errors"
	"fmt"

	"github.com/dovecot/dcrypt-go/hashtype"
	"github.com/dovecot/dcrypt-go/kdf/argon2"
	"github.com/dovecot/dcrypt-go/kdf/pbkdf2"
)

// ErrUnknownHash marks a PBKDF2 call naming a digest the backend does
// not provide. Match with errors.Is.
var ErrUnknownHash = errors.New("unknown KDF hash")

// Kdf is one configured key-derivation function.
type Kdf interface {
	DeriveKey(password, salt []byte, outLen int) ([]byte, error)
}

// KdfType names a registered KDF constructor.
type KdfType struct {
	Name string
	New  func() Kdf
}

var typeMap = make(map[string]*KdfType)

var (
	Type_Pbkdf2 = newKdfType("pbkdf2", func() Kdf {
		return &pbkdf2.Pbkdf2{HashType: hashtype.TypeSha256, Rounds: 100000}
	})
	Type_Argon2 = newKdfType("argon2id", func() Kdf {
		return &argon2.Argon2{Time: argon2.DefaultTime, Memory: argon2.DefaultMemory, Threads: argon2.DefaultThreads}
	})
)

func newKdfType(name string, constructor func() Kdf) *KdfType {
	kdfType := &KdfType{Name: name, New: constructor}
	typeMap[name] = kdfType
	return kdfType
}

// ByName looks up a KdfType by its registered name.
func ByName(name string) (*KdfType, error) {
	kdfType, exists := typeMap[name]
	if !exists {
		return nil, fmt.Errorf("cannot find KDF type: %v", name)
	}
	return kdfType, nil
}

// PBKDF2 derives outLen bytes from password and salt with
// PBKDF2-HMAC-<hashName> at the given round count.
func PBKDF2(password, salt []byte, hashName string, rounds, outLen int) ([]byte, error) {
	ht, err := hashtype.ByName(hashName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHash, hashName)
	}
	p := &pbkdf2.Pbkdf2{HashType: ht, Rounds: rounds}
	return p.DeriveKey(password, salt, outLen)
}
