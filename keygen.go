package dcrypt

import (
	"crypto/rand"
	"crypto/rsa"

	"github.com/dovecot/dcrypt-go/internal/ecutil"
	"github.com/dovecot/dcrypt-go/x25519"
)

// GenerateKeypair creates a fresh keypair. For RSA, bits selects the
// modulus size and curveName is ignored; for EC, curveName is the curve
// short name and bits is ignored; X25519 has a single parameter set.
func GenerateKeypair(kind KeyKind, bits int, curveName string) (*Keypair, error) {
	switch kind {
	case KindRSA:
		key, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return &Keypair{
			Public:  NewRSAPublicKey(&key.PublicKey),
			Private: NewRSAPrivateKey(key),
		}, nil
	case KindEC:
		curve, err := ecutil.BySN(curveName)
		if err != nil {
			return nil, Newf(UnknownCurve, "unknown EC curve %s", curveName)
		}
		priv, err := curve.ECDH.GenerateKey(rand.Reader)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		x, y, err := curve.DecodePoint(priv.PublicKey().Bytes())
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return &Keypair{
			Public:  NewECPublicKey(curve, x, y),
			Private: &PrivateKey{kind: KindEC, curve: curve, ec: priv},
		}, nil
	case KindX25519:
		pub, priv, err := x25519.GenerateKey()
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return &Keypair{
			Public:  NewX25519PublicKey(pub),
			Private: NewX25519PrivateKey(priv),
		}, nil
	default:
		return nil, New(UnsupportedOperation, "unknown key kind")
	}
}
