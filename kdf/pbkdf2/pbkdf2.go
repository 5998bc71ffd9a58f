// Package pbkdf2 derives symmetric key material from low-entropy
// secrets. Both textual key-record versions depend on it: v1 with its
// fixed sha256/16-round parameters, v2 with the hash and round count
// carried in the record itself.
package pbkdf2

import (
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dovecot/dcrypt-go/hashtype"
)

type Pbkdf2 struct {
	HashType *hashtype.HashType
	Rounds   int
}

// DeriveKey stretches password and salt into outLen bytes.
func (k *Pbkdf2) DeriveKey(password, salt []byte, outLen int) ([]byte, error) {
	if k.Rounds <= 0 {
		return nil, fmt.Errorf("pbkdf2 rounds must be positive, got %d", k.Rounds)
	}
	if outLen <= 0 {
		return nil, fmt.Errorf("pbkdf2 output length must be positive, got %d", outLen)
	}
	return pbkdf2.Key(password, salt, k.Rounds, outLen, k.HashType.HashFunc), nil
}
