package dcrypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
)

// RSAEncrypt wraps a short secret with RSA-OAEP. SHA-1 is the OAEP
// hash; stored key-wrapped records depend on it staying that way.
func RSAEncrypt(pub *PublicKey, data []byte) ([]byte, error) {
	if pub.kind != KindRSA {
		return nil, New(UnsupportedOperation, "not an RSA key")
	}
	out, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub.rsa, data, nil)
	if err != nil {
		return nil, Wrap(BackendError, err)
	}
	return out, nil
}

// RSADecrypt reverses RSAEncrypt.
func RSADecrypt(priv *PrivateKey, data []byte) ([]byte, error) {
	if priv.kind != KindRSA {
		return nil, New(UnsupportedOperation, "not an RSA key")
	}
	out, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, priv.rsa, data, nil)
	if err != nil {
		return nil, Wrap(BackendError, err)
	}
	return out, nil
}
