package hashtype

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
)

// HashType names a digest algorithm the backend can construct. It backs
// the HMAC context's hash selection, PBKDF2's hash-name parameter and
// the v2 key record's KDF-hash field.
type HashType struct {
	Name     string
	Size     int
	HashFunc func() hash.Hash
}

var (
	hashTypeMap = make(map[string]*HashType)

	TypeSha1   = newHashType("sha1", sha1.Size, sha1.New)
	TypeSha256 = newHashType("sha256", sha256.Size, sha256.New)
	TypeSha384 = newHashType("sha384", sha512.Size384, sha512.New384)
	TypeSha512 = newHashType("sha512", sha512.Size, sha512.New)
)

func newHashType(name string, size int, hashFunc func() hash.Hash) *HashType {
	hashType := &HashType{Name: name, Size: size, HashFunc: hashFunc}
	hashTypeMap[name] = hashType
	return hashType
}

// ByName looks up a HashType by its on-disk/wire name (e.g. "sha256").
func ByName(name string) (*HashType, error) {
	hashType, exists := hashTypeMap[name]
	if !exists {
		return nil, fmt.Errorf("cannot find hash type: %v", name)
	}
	return hashType, nil
}
