package dcrypt

import (
	"crypto/rand"

	"github.com/dovecot/dcrypt-go/x25519"
)

// ECDHDeriveSecretLocal decodes a peer-supplied ephemeral point on the
// local key's curve, validates it and performs the Diffie-Hellman
// operation. The returned secret is the raw X coordinate.
func ECDHDeriveSecretLocal(priv *PrivateKey, peerPoint []byte) ([]byte, error) {
	switch priv.kind {
	case KindEC:
		x, y, err := priv.curve.DecodePoint(peerPoint)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		peer, err := priv.curve.ECDHPublicKey(x, y)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		secret, err := priv.ec.ECDH(peer)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return secret, nil
	case KindX25519:
		peer, err := x25519.NewPublicKey(peerPoint)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		secret, err := priv.x.SharedSecret(peer)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return secret, nil
	default:
		return nil, New(UnsupportedOperation, "key agreement needs an EC or X25519 key")
	}
}

// ECDHDeriveSecretPeer generates a fresh keypair on the public key's
// curve, derives the shared secret against it and returns the
// compressed ephemeral public point alongside the secret.
func ECDHDeriveSecretPeer(pub *PublicKey) (ephemeralPoint, secret []byte, err error) {
	switch pub.kind {
	case KindEC:
		eph, err := pub.curve.ECDH.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, Wrap(BackendError, err)
		}
		peer, err := pub.curve.ECDHPublicKey(pub.ecX, pub.ecY)
		if err != nil {
			return nil, nil, Wrap(BackendError, err)
		}
		secret, err := eph.ECDH(peer)
		if err != nil {
			return nil, nil, Wrap(BackendError, err)
		}
		x, y, err := pub.curve.DecodePoint(eph.PublicKey().Bytes())
		if err != nil {
			return nil, nil, Wrap(BackendError, err)
		}
		return pub.curve.CompressPoint(x, y), secret, nil
	case KindX25519:
		ephPub, ephPriv, err := x25519.GenerateKey()
		if err != nil {
			return nil, nil, Wrap(BackendError, err)
		}
		defer ephPriv.Destroy()
		secret, err := ephPriv.SharedSecret(pub.x)
		if err != nil {
			return nil, nil, Wrap(BackendError, err)
		}
		return ephPub.Bytes(), secret, nil
	default:
		return nil, nil, New(UnsupportedOperation, "key agreement needs an EC or X25519 key")
	}
}
