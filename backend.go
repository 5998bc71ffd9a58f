package dcrypt

import (
	"errors"

	"github.com/dovecot/dcrypt-go/hmac"
	"github.com/dovecot/dcrypt-go/kdf"
	"github.com/dovecot/dcrypt-go/symmetric"
)

// Backend is the process-wide dispatch table callers go through for
// every operation, so the whole primitive set can be swapped at
// initialization. It is installed once at startup and read-only
// thereafter; the key-format entry points are filled in by the format
// package when it is linked in.
type Backend struct {
	Name string

	SymmetricContext func(cipherName string, mode symmetric.Mode) (*symmetric.Context, error)
	HMACContext      func(hashName string) (*hmac.Context, error)
	RandomBytes      func(n int) ([]byte, error)
	PBKDF2           func(password, salt []byte, hashName string, rounds, outLen int) ([]byte, error)

	GenerateKeypair       func(kind KeyKind, bits int, curveName string) (*Keypair, error)
	ECDHDeriveSecretLocal func(priv *PrivateKey, peerPoint []byte) ([]byte, error)
	ECDHDeriveSecretPeer  func(pub *PublicKey) (ephemeralPoint, secret []byte, err error)
	RSAEncrypt            func(pub *PublicKey, data []byte) ([]byte, error)
	RSADecrypt            func(priv *PrivateKey, data []byte) ([]byte, error)

	PublicKeyID    func(pub *PublicKey) ([]byte, error)
	PublicKeyIDOld func(pub *PublicKey) ([]byte, error)

	// Key-format entry points, registered by the format package.
	LoadPrivateKey  func(data, password string, decKey *PrivateKey) (*PrivateKey, error)
	LoadPublicKey   func(data string) (*PublicKey, error)
	StorePrivateKey func(key *PrivateKey, cipherName, password string, encKey *PublicKey) (string, error)
	StorePublicKey  func(key *PublicKey) (string, error)
	KeyStringInfo   func(data string) (*KeyInfo, error)
}

var backend *Backend

// InstallBackend replaces the process-wide dispatch table. Call it once
// during startup, before any other use of the library.
func InstallBackend(b *Backend) {
	backend = b
}

// GetBackend returns the installed dispatch table.
func GetBackend() *Backend {
	return backend
}

func pbkdf2Op(password, salt []byte, hashName string, rounds, outLen int) ([]byte, error) {
	out, err := kdf.PBKDF2(password, salt, hashName, rounds, outLen)
	if err != nil {
		if errors.Is(err, kdf.ErrUnknownHash) {
			return nil, Newf(InvalidCipher, "unknown KDF hash %s", hashName)
		}
		return nil, Wrap(BackendError, err)
	}
	return out, nil
}

// DefaultBackend returns the built-in implementation backed by the Go
// cryptography packages.
func DefaultBackend() *Backend {
	return &Backend{
		Name:                  "go",
		SymmetricContext:      symmetric.NewContext,
		HMACContext:           hmac.NewContext,
		RandomBytes:           symmetric.RandomBytes,
		PBKDF2:                pbkdf2Op,
		GenerateKeypair:       GenerateKeypair,
		ECDHDeriveSecretLocal: ECDHDeriveSecretLocal,
		ECDHDeriveSecretPeer:  ECDHDeriveSecretPeer,
		RSAEncrypt:            RSAEncrypt,
		RSADecrypt:            RSADecrypt,
		PublicKeyID:           PublicKeyID,
		PublicKeyIDOld:        PublicKeyIDOld,
	}
}

func init() {
	InstallBackend(DefaultBackend())
}
