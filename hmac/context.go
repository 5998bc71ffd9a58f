// Package hmac implements a streaming HMAC context with the same
// SetKey/Init/Update/Final/Destroy lifecycle as symmetric.Context.
package hmac

import (
	"crypto/hmac"
	"crypto/rand"
	"fmt"
	"hash"

	"github.com/dovecot/dcrypt-go/hashtype"
	"github.com/dovecot/dcrypt-go/internal/zero"
)

// Context is a single-use streaming HMAC session.
type Context struct {
	hashType *hashtype.HashType
	key      []byte

	initialized bool
	finalized   bool
	mac         hash.Hash
}

// NewContext creates a Context for the named digest algorithm (e.g.
// "sha256").
func NewContext(hashName string) (*Context, error) {
	ht, err := hashtype.ByName(hashName)
	if err != nil {
		return nil, fmt.Errorf("invalid hash %q: %w", hashName, err)
	}
	return &Context{hashType: ht}, nil
}

// SetKey copies the HMAC key.
func (c *Context) SetKey(key []byte) {
	c.key = append([]byte(nil), key...)
}

// SetKeyRandom fills the key with random bytes sized to the hash's
// block size.
func (c *Context) SetKeyRandom() error {
	key := make([]byte, blockSize(c.hashType))
	if _, err := rand.Read(key); err != nil {
		return err
	}
	c.key = key
	return nil
}

func blockSize(ht *hashtype.HashType) int {
	return ht.HashFunc().BlockSize()
}

// DigestLength returns the number of bytes Final will append.
func (c *Context) DigestLength() int {
	return c.hashType.Size
}

func (c *Context) GetKey() []byte { return c.key }

// Init prepares the underlying HMAC state. A context is single-use per
// Init: after Final it must be re-initialized before further Updates.
func (c *Context) Init() error {
	if c.initialized && !c.finalized {
		return fmt.Errorf("context already initialized")
	}
	if c.key == nil {
		return fmt.Errorf("key must be set before Init")
	}
	c.mac = hmac.New(c.hashType.HashFunc, c.key)
	c.initialized = true
	c.finalized = false
	return nil
}

// Update feeds data into the running digest.
func (c *Context) Update(data []byte) error {
	if !c.initialized || c.finalized {
		return fmt.Errorf("context not initialized")
	}
	_, err := c.mac.Write(data)
	return err
}

// Final appends exactly DigestLength bytes to out.
func (c *Context) Final(out *[]byte) error {
	if !c.initialized || c.finalized {
		return fmt.Errorf("context not initialized")
	}
	*out = c.mac.Sum(*out)
	c.finalized = true
	return nil
}

// Verify recomputes the digest over everything written so far and
// reports whether it matches tag in constant time.
func (c *Context) Verify(tag []byte) (bool, error) {
	if !c.initialized {
		return false, fmt.Errorf("context not initialized")
	}
	sum := c.mac.Sum(nil)
	return hmac.Equal(sum, tag), nil
}

// Destroy zeroizes the key and releases the underlying hash state. It
// is idempotent on a partially initialized context.
func (c *Context) Destroy() {
	zero.Bytes(c.key)
	c.key = nil
	c.mac = nil
}
