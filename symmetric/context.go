// Package symmetric implements a streaming symmetric-cipher context: a
// stateful object with a strict Create, SetKey/SetIV, Init, Update,
// Final lifecycle, a named-cipher registry, and AEAD tag/AAD handling.
package symmetric

import (
	"bytes"
	"crypto/cipher"
	"fmt"

	"github.com/dovecot/dcrypt-go/internal/zero"
)

// Mode is the direction a Context was created for.
type Mode int

const (
	Encrypt Mode = iota
	Decrypt
)

// Context is a single-use streaming cipher session. Its zero value is
// not usable; construct one with NewContext.
type Context struct {
	def  *cipherDef
	mode Mode

	key []byte
	iv  []byte
	aad []byte
	tag []byte

	padding bool

	initialized bool
	finalized   bool

	// live engine, populated by Init and cleared by Final/Destroy.
	stream cipher.Stream
	block  cipher.Block
	aead   cipher.AEAD

	buffered []byte // accumulated input for kindCBC/kindAEAD
}

// NewContext creates a Context for the named cipher (e.g. "aes-256-gcm")
// and direction. Padding defaults to true (PKCS#7).
func NewContext(cipherName string, mode Mode) (*Context, error) {
	def, err := lookup(cipherName)
	if err != nil {
		return nil, &invalidCipherError{cipherName}
	}
	return &Context{def: def, mode: mode, padding: true}, nil
}

type invalidCipherError struct{ name string }

func (e *invalidCipherError) Error() string { return fmt.Sprintf("invalid cipher %q", e.name) }

// SetKey copies the first KeyLength bytes of key into the context; a
// key shorter than KeyLength is rejected, never padded.
func (c *Context) SetKey(key []byte) error {
	if len(key) < c.def.keySize {
		return fmt.Errorf("key too short: need %d bytes, got %d", c.def.keySize, len(key))
	}
	c.key = append([]byte(nil), key[:c.def.keySize]...)
	return nil
}

// SetIV copies bytes into the context's IV/nonce.
func (c *Context) SetIV(iv []byte) error {
	if len(iv) < c.def.ivSize {
		return fmt.Errorf("iv too short: need %d bytes, got %d", c.def.ivSize, len(iv))
	}
	c.iv = append([]byte(nil), iv[:c.def.ivSize]...)
	return nil
}

// SetKeyIVRandom fills both key and IV with fresh random bytes sized to
// the chosen cipher.
func (c *Context) SetKeyIVRandom() error {
	key, err := RandomBytes(c.def.keySize)
	if err != nil {
		return err
	}
	iv, err := RandomBytes(c.def.ivSize)
	if err != nil {
		return err
	}
	c.key, c.iv = key, iv
	return nil
}

func (c *Context) SetPadding(padding bool) { c.padding = padding }

func (c *Context) GetKey() []byte { return c.key }
func (c *Context) GetIV() []byte  { return c.iv }
func (c *Context) GetAAD() []byte { return c.aad }
func (c *Context) GetTag() []byte { return c.tag }

// SetAAD attaches associated data; only meaningful for AEAD ciphers.
func (c *Context) SetAAD(aad []byte) { c.aad = append([]byte(nil), aad...) }

// SetTag attaches the tag to verify against during a decrypting Final;
// only meaningful for AEAD ciphers.
func (c *Context) SetTag(tag []byte) { c.tag = append([]byte(nil), tag...) }

func (c *Context) KeyLength() int     { return c.def.keySize }
func (c *Context) IVLength() int      { return c.def.ivSize }
func (c *Context) BlockSize() int     { return c.def.block }
func (c *Context) CipherName() string { return c.def.name }

// IsAEAD reports whether the chosen cipher authenticates its output.
func (c *Context) IsAEAD() bool { return c.def.kind == kindAEAD }

// TagSize returns the size of the authentication tag Final produces or
// verifies, 0 for unauthenticated ciphers.
func (c *Context) TagSize() int {
	if c.def.kind == kindAEAD {
		return 16
	}
	return 0
}

// Init prepares the underlying cryptographic engine. It must precede
// Update/Final. A context is single-use per Init: after Final it must
// be re-initialized before it can process data again.
func (c *Context) Init() error {
	if c.initialized && !c.finalized {
		return fmt.Errorf("context already initialized")
	}
	if c.key == nil || c.iv == nil {
		return fmt.Errorf("key and iv must be set before Init")
	}
	if c.finalized {
		c.finalized = false
		if c.mode == Encrypt {
			c.tag = nil
		}
	}
	if c.def.kind != kindAEAD && len(c.aad) > 0 {
		return fmt.Errorf("cipher %q does not support associated data", c.def.name)
	}

	switch c.def.kind {
	case kindStream:
		s, err := c.def.newStream(c.key, c.iv)
		if err != nil {
			return err
		}
		c.stream = s
	case kindCBC:
		b, err := c.def.newBlock(c.key)
		if err != nil {
			return err
		}
		c.block = b
	case kindAEAD:
		a, err := c.def.newAEAD(c.key)
		if err != nil {
			return err
		}
		c.aead = a
	}
	c.initialized = true
	return nil
}

// Update feeds data through the cipher. For streaming ciphers the
// transformed bytes are appended to out immediately; for block/AEAD
// ciphers the bytes are buffered until Final. A single call appends
// anywhere between 0 and len(in)+BlockSize() bytes.
func (c *Context) Update(in []byte, out *bytes.Buffer) error {
	if !c.initialized || c.finalized {
		return fmt.Errorf("context not initialized")
	}
	switch c.def.kind {
	case kindStream:
		buf := make([]byte, len(in))
		c.stream.XORKeyStream(buf, in)
		out.Write(buf)
	case kindCBC, kindAEAD:
		c.buffered = append(c.buffered, in...)
	}
	return nil
}

// Final completes the operation, appending any remaining output to out.
// The underlying cryptographic state is released whether or not Final
// succeeds; only Init brings the context back to a usable state.
func (c *Context) Final(out *bytes.Buffer) error {
	if !c.initialized || c.finalized {
		return fmt.Errorf("context not initialized")
	}
	defer func() {
		c.finalized = true
		c.release()
	}()

	switch c.def.kind {
	case kindStream:
		// nothing buffered; stream ciphers have no tail block.
	case kindCBC:
		if err := c.finalCBC(out); err != nil {
			return err
		}
	case kindAEAD:
		if err := c.finalAEAD(out); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) finalCBC(out *bytes.Buffer) error {
	bs := c.def.block
	if c.mode == Encrypt {
		data := c.buffered
		if c.padding {
			data = pkcs7Pad(data, bs)
		} else if len(data)%bs != 0 {
			return fmt.Errorf("data is not a multiple of the block size")
		}
		enc := cipher.NewCBCEncrypter(c.block, c.iv)
		dst := make([]byte, len(data))
		enc.CryptBlocks(dst, data)
		out.Write(dst)
		zero.Bytes(data)
	} else {
		data := c.buffered
		if len(data)%bs != 0 || len(data) == 0 {
			return fmt.Errorf("ciphertext is not a multiple of the block size")
		}
		dec := cipher.NewCBCDecrypter(c.block, c.iv)
		dst := make([]byte, len(data))
		dec.CryptBlocks(dst, data)
		if c.padding {
			unpadded, err := pkcs7Unpad(dst, bs)
			if err != nil {
				zero.Bytes(dst)
				return err
			}
			out.Write(unpadded)
		} else {
			out.Write(dst)
		}
	}
	return nil
}

func (c *Context) finalAEAD(out *bytes.Buffer) error {
	if c.mode == Encrypt {
		if len(c.tag) != 0 {
			return fmt.Errorf("tag must not be set before encrypting Final")
		}
		sealed := c.aead.Seal(nil, c.iv, c.buffered, c.aad)
		tagStart := len(sealed) - c.aead.Overhead()
		out.Write(sealed[:tagStart])
		c.tag = append([]byte(nil), sealed[tagStart:]...)
		return nil
	}
	if len(c.tag) != c.aead.Overhead() {
		return &authFailedError{}
	}
	full := append(append([]byte(nil), c.buffered...), c.tag...)
	plaintext, err := c.aead.Open(nil, c.iv, full, c.aad)
	zero.Bytes(full)
	if err != nil {
		return &authFailedError{}
	}
	out.Write(plaintext)
	return nil
}

type authFailedError struct{}

func (e *authFailedError) Error() string { return "authentication failed" }

// IsAuthenticationFailed reports whether err came from a failed AEAD
// verification in Final.
func IsAuthenticationFailed(err error) bool {
	_, ok := err.(*authFailedError)
	return ok
}

// Destroy releases the underlying cryptographic state and zeroizes any
// buffers that held raw key material, IVs, or intermediate plaintext. It
// is idempotent on a partially initialized context.
func (c *Context) Destroy() {
	zero.Bytes(c.key)
	zero.Bytes(c.iv)
	zero.Bytes(c.buffered)
	c.release()
	c.key, c.iv, c.aad, c.tag, c.buffered = nil, nil, nil, nil, nil
}

func (c *Context) release() {
	c.stream = nil
	c.block = nil
	c.aead = nil
	zero.Bytes(c.buffered)
	c.buffered = nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded data length")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}
