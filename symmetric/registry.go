package symmetric

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/nacl/secretbox"
)

// kind selects which half of Context's Update/Final machinery a cipher
// uses: streaming ciphers (CTR, XChaCha20) transform bytes as they
// arrive; buffered ciphers (CBC, the AEAD family) need the whole message
// before they can produce output, so Update just accumulates it.
type kind int

const (
	kindStream kind = iota
	kindCBC
	kindAEAD
)

// cipherDef describes one registered cipher, keyed by the name the
// textual key records carry on the wire.
type cipherDef struct {
	name      string
	keySize   int
	ivSize    int
	block     int
	kind      kind
	newStream func(key, iv []byte) (cipher.Stream, error)
	newAEAD   func(key []byte) (cipher.AEAD, error)
	newBlock  func(key []byte) (cipher.Block, error)
}

var registry = make(map[string]*cipherDef)

func register(d *cipherDef) {
	registry[d.name] = d
}

func lookup(name string) (*cipherDef, error) {
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown cipher %q", name)
	}
	return d, nil
}

func init() {
	register(&cipherDef{
		name: "aes-128-ctr", keySize: 16, ivSize: aes.BlockSize, block: aes.BlockSize, kind: kindStream,
		newStream: aesCTRStream,
	})
	register(&cipherDef{
		name: "aes-256-ctr", keySize: 32, ivSize: aes.BlockSize, block: aes.BlockSize, kind: kindStream,
		newStream: aesCTRStream,
	})
	register(&cipherDef{
		name: "aes-128-cbc", keySize: 16, ivSize: aes.BlockSize, block: aes.BlockSize, kind: kindCBC,
		newBlock: aes.NewCipher,
	})
	register(&cipherDef{
		name: "aes-256-cbc", keySize: 32, ivSize: aes.BlockSize, block: aes.BlockSize, kind: kindCBC,
		newBlock: aes.NewCipher,
	})
	register(&cipherDef{
		name: "aes-128-gcm", keySize: 16, ivSize: 12, block: aes.BlockSize, kind: kindAEAD,
		newAEAD: aesGCM,
	})
	register(&cipherDef{
		name: "aes-256-gcm", keySize: 32, ivSize: 12, block: aes.BlockSize, kind: kindAEAD,
		newAEAD: aesGCM,
	})
	// xchacha20 and secretbox round out the registry: a second stream
	// cipher and a second AEAD alongside the AES family above.
	register(&cipherDef{
		name: "xchacha20", keySize: chacha20.KeySize, ivSize: chacha20.NonceSizeX, block: 64, kind: kindStream,
		newStream: xchacha20Stream,
	})
	register(&cipherDef{
		name: "secretbox", keySize: 32, ivSize: 24, block: 1, kind: kindAEAD,
		newAEAD: secretboxAEAD,
	})
}

func aesCTRStream(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv), nil
}

func xchacha20Stream(key, iv []byte) (cipher.Stream, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key, iv)
	if err != nil {
		return nil, err
	}
	return chacha20Stream{c}, nil
}

// chacha20Stream adapts *chacha20.Cipher to cipher.Stream (it already
// implements XORKeyStream; this just satisfies the interface name).
type chacha20Stream struct {
	c *chacha20.Cipher
}

func (s chacha20Stream) XORKeyStream(dst, src []byte) {
	s.c.XORKeyStream(dst, src)
}

func aesGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// secretboxAEAD adapts golang.org/x/crypto/nacl/secretbox's fixed-nonce
// Seal/Open to the stdlib cipher.AEAD interface so Context can treat it
// like any other AEAD cipher. secretbox has no AAD concept, so Seal/Open
// reject a non-empty additionalData.
type secretboxAdapter struct {
	key [32]byte
}

func secretboxAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("secretbox key must be 32 bytes")
	}
	var a secretboxAdapter
	copy(a.key[:], key)
	return &a, nil
}

func (a *secretboxAdapter) NonceSize() int { return 24 }
func (a *secretboxAdapter) Overhead() int  { return secretbox.Overhead }

func (a *secretboxAdapter) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	if len(additionalData) != 0 {
		panic("secretbox does not support associated data")
	}
	var n [24]byte
	copy(n[:], nonce)
	// secretbox puts the Poly1305 tag first; move it to the end, where
	// Context splits the tag off
	sealed := secretbox.Seal(nil, plaintext, &n, &a.key)
	dst = append(dst, sealed[secretbox.Overhead:]...)
	return append(dst, sealed[:secretbox.Overhead]...)
}

func (a *secretboxAdapter) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(additionalData) != 0 {
		return nil, fmt.Errorf("secretbox does not support associated data")
	}
	if len(ciphertext) < secretbox.Overhead {
		return nil, fmt.Errorf("secretbox authentication failed")
	}
	var n [24]byte
	copy(n[:], nonce)
	split := len(ciphertext) - secretbox.Overhead
	box := append(append([]byte(nil), ciphertext[split:]...), ciphertext[:split]...)
	out, ok := secretbox.Open(dst, box, &n, &a.key)
	if !ok {
		return nil, fmt.Errorf("secretbox authentication failed")
	}
	return out, nil
}

// RandomBytes fills a cryptographically strong random buffer, the
// symmetric primitive's SetKeyIVRandom backing call.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
