// Package argon2 is the memory-hard alternative in the KDF registry.
// The key-record formats never use it on disk; it is reachable only by
// explicit selection through kdf.ByName.
package argon2

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	DefaultTime   = 1
	DefaultMemory = 64 * 1024
	// libsodium interoperability requires a single lane.
	DefaultThreads = 1
)

type Argon2 struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DeriveKey stretches password and salt into outLen bytes with
// Argon2id.
func (k *Argon2) DeriveKey(password, salt []byte, outLen int) ([]byte, error) {
	if outLen <= 0 {
		return nil, fmt.Errorf("argon2 output length must be positive, got %d", outLen)
	}
	return argon2.IDKey(password, salt, k.Time, k.Memory, k.Threads, uint32(outLen)), nil
}
