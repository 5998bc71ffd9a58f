package dcrypt

import (
	"crypto/ecdh"
	"crypto/rsa"
	"math/big"

	"github.com/dovecot/dcrypt-go/internal/ecutil"
	"github.com/dovecot/dcrypt-go/x25519"
)

// KeyKind tags the algorithm family a key handle holds.
type KeyKind int

const (
	KindRSA KeyKind = iota
	KindEC
	KindX25519
)

func (k KeyKind) String() string {
	switch k {
	case KindRSA:
		return "RSA"
	case KindEC:
		return "EC"
	case KindX25519:
		return "X25519"
	default:
		return "unknown"
	}
}

// PublicKey is a handle for an RSA, EC or X25519 public key. EC points
// are kept as affine coordinates and always encode compressed
// externally.
type PublicKey struct {
	kind  KeyKind
	rsa   *rsa.PublicKey
	curve *ecutil.Curve
	ecX   *big.Int
	ecY   *big.Int
	x     *x25519.PublicKey
}

// PrivateKey is a handle for an RSA, EC or X25519 private key. The
// public half is always derivable via Public.
type PrivateKey struct {
	kind  KeyKind
	rsa   *rsa.PrivateKey
	curve *ecutil.Curve
	ec    *ecdh.PrivateKey
	x     *x25519.PrivateKey
}

// Keypair owns both halves of a generated key; Destroy frees both.
type Keypair struct {
	Public  *PublicKey
	Private *PrivateKey
}

func NewRSAPublicKey(key *rsa.PublicKey) *PublicKey {
	return &PublicKey{kind: KindRSA, rsa: key}
}

func NewRSAPrivateKey(key *rsa.PrivateKey) *PrivateKey {
	return &PrivateKey{kind: KindRSA, rsa: key}
}

// NewECPublicKey wraps a validated point on the named curve.
func NewECPublicKey(curve *ecutil.Curve, x, y *big.Int) *PublicKey {
	return &PublicKey{kind: KindEC, curve: curve, ecX: x, ecY: y}
}

// NewECPrivateKey builds an EC private key from a big-endian scalar,
// rejecting scalars outside the curve order. The public point is
// recomputed by scalar multiplication, the textual loaders' way of
// reconstructing a key from its stored scalar.
func NewECPrivateKey(curve *ecutil.Curve, scalar *big.Int) (*PrivateKey, error) {
	priv, err := curve.ECDHPrivateKey(scalar)
	if err != nil {
		return nil, New(InvalidKey, err.Error())
	}
	return &PrivateKey{kind: KindEC, curve: curve, ec: priv}, nil
}

func NewX25519PublicKey(key *x25519.PublicKey) *PublicKey {
	return &PublicKey{kind: KindX25519, x: key}
}

func NewX25519PrivateKey(key *x25519.PrivateKey) *PrivateKey {
	return &PrivateKey{kind: KindX25519, x: key}
}

func (k *PublicKey) Kind() KeyKind  { return k.kind }
func (k *PrivateKey) Kind() KeyKind { return k.kind }

// Curve returns the named curve of an EC key, nil otherwise.
func (k *PublicKey) Curve() *ecutil.Curve  { return k.curve }
func (k *PrivateKey) Curve() *ecutil.Curve { return k.curve }

// RSA exposes the underlying RSA key for PEM I/O; nil for other kinds.
func (k *PublicKey) RSA() *rsa.PublicKey   { return k.rsa }
func (k *PrivateKey) RSA() *rsa.PrivateKey { return k.rsa }

// CompressedPoint returns the external encoding of an EC or X25519
// public key.
func (k *PublicKey) CompressedPoint() ([]byte, error) {
	switch k.kind {
	case KindEC:
		return k.curve.CompressPoint(k.ecX, k.ecY), nil
	case KindX25519:
		return k.x.Bytes(), nil
	default:
		return nil, New(UnsupportedOperation, "RSA keys have no point encoding")
	}
}

// ECPoint returns the affine coordinates of an EC public key.
func (k *PublicKey) ECPoint() (x, y *big.Int, err error) {
	if k.kind != KindEC {
		return nil, nil, New(UnsupportedOperation, "not an EC key")
	}
	return k.ecX, k.ecY, nil
}

// X25519Public returns the wrapped X25519 key.
func (k *PublicKey) X25519Public() (*x25519.PublicKey, error) {
	if k.kind != KindX25519 {
		return nil, New(UnsupportedOperation, "not an X25519 key")
	}
	return k.x, nil
}

// Scalar returns the private scalar of an EC key as a big-endian
// integer.
func (k *PrivateKey) Scalar() (*big.Int, error) {
	if k.kind != KindEC {
		return nil, New(UnsupportedOperation, "not an EC key")
	}
	return new(big.Int).SetBytes(k.ec.Bytes()), nil
}

// X25519Bytes returns the 32-byte scalar of an X25519 key.
func (k *PrivateKey) X25519Bytes() ([]byte, error) {
	if k.kind != KindX25519 {
		return nil, New(UnsupportedOperation, "not an X25519 key")
	}
	return k.x.Bytes(), nil
}

// Public derives the public half. This is always defined; the reverse
// direction does not exist.
func (k *PrivateKey) Public() (*PublicKey, error) {
	switch k.kind {
	case KindRSA:
		return NewRSAPublicKey(&k.rsa.PublicKey), nil
	case KindEC:
		x, y, err := k.curve.DecodePoint(k.ec.PublicKey().Bytes())
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return NewECPublicKey(k.curve, x, y), nil
	case KindX25519:
		return NewX25519PublicKey(k.x.Public()), nil
	default:
		return nil, New(UnsupportedOperation, "unknown key kind")
	}
}

// Destroy zeroizes what private material can be reached and drops the
// handle's references.
func (k *PrivateKey) Destroy() {
	if k == nil {
		return
	}
	if k.x != nil {
		k.x.Destroy()
	}
	k.rsa, k.ec, k.x = nil, nil, nil
}

// Destroy releases both halves of the pair.
func (kp *Keypair) Destroy() {
	if kp == nil {
		return
	}
	kp.Private.Destroy()
	kp.Public = nil
	kp.Private = nil
}
