package format

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"

	dcrypt "github.com/dovecot/dcrypt-go"
	"github.com/dovecot/dcrypt-go/internal/ecutil"
	"github.com/dovecot/dcrypt-go/x25519"
)

func isPEM(data string) bool {
	// tolerate the historical spaced marker alongside real PEM armor
	return strings.Contains(data, "-----BEGIN ") || strings.Contains(data, "----- BEGIN ")
}

func loadPublicKeyPEM(data string) (*dcrypt.PublicKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, dcrypt.New(dcrypt.CorruptedData, "invalid PEM data")
	}
	// a PUBLIC KEY block is SubjectPublicKeyInfo
	return dcrypt.ParseSPKI(block.Bytes)
}

func privateKeyFromParsed(parsed interface{}) (*dcrypt.PrivateKey, error) {
	switch key := parsed.(type) {
	case *rsa.PrivateKey:
		if err := key.Validate(); err != nil {
			return nil, dcrypt.Wrap(dcrypt.InvalidKey, err)
		}
		return dcrypt.NewRSAPrivateKey(key), nil
	case *ecdsa.PrivateKey:
		curve, err := ecutil.ByElliptic(key.Curve)
		if err != nil {
			return nil, dcrypt.Newf(dcrypt.UnknownCurve, "%v", err)
		}
		return dcrypt.NewECPrivateKey(curve, key.D)
	case *ecdh.PrivateKey:
		if key.Curve() != ecdh.X25519() {
			return nil, dcrypt.New(dcrypt.UnsupportedOperation, "unsupported PKCS#8 key type")
		}
		xkey, err := x25519.NewPrivateKey(key.Bytes())
		if err != nil {
			return nil, dcrypt.Wrap(dcrypt.InvalidKey, err)
		}
		return dcrypt.NewX25519PrivateKey(xkey), nil
	default:
		return nil, dcrypt.New(dcrypt.UnsupportedOperation, "unsupported PEM key type")
	}
}

func loadPrivateKeyPEM(data, password string) (*dcrypt.PrivateKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, dcrypt.New(dcrypt.CorruptedData, "invalid PEM data")
	}
	switch block.Type {
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, dcrypt.Wrap(dcrypt.BackendError, err)
		}
		return privateKeyFromParsed(parsed)
	case "EC PRIVATE KEY":
		parsed, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, dcrypt.Wrap(dcrypt.BackendError, err)
		}
		return privateKeyFromParsed(parsed)
	case "RSA PRIVATE KEY":
		parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, dcrypt.Wrap(dcrypt.BackendError, err)
		}
		return privateKeyFromParsed(parsed)
	case "ENCRYPTED PRIVATE KEY":
		return nil, dcrypt.New(dcrypt.UnsupportedOperation, "encrypted PKCS#8 keys are not supported")
	default:
		return nil, dcrypt.Newf(dcrypt.CorruptedData, "unknown PEM block %q", block.Type)
	}
}

// StorePublicKeyPEM writes a PUBLIC KEY (SubjectPublicKeyInfo) block.
func StorePublicKeyPEM(key *dcrypt.PublicKey) (string, error) {
	der, err := key.SPKI()
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// StorePrivateKeyPEM writes an unencrypted PKCS#8 PRIVATE KEY block.
func StorePrivateKeyPEM(key *dcrypt.PrivateKey) (string, error) {
	var der []byte
	var err error
	switch key.Kind() {
	case dcrypt.KindRSA:
		der, err = x509.MarshalPKCS8PrivateKey(key.RSA())
	case dcrypt.KindEC:
		var ecKey *ecdsa.PrivateKey
		ecKey, err = ecdsaFromKey(key)
		if err == nil {
			der, err = x509.MarshalPKCS8PrivateKey(ecKey)
		}
	case dcrypt.KindX25519:
		var raw []byte
		raw, err = key.X25519Bytes()
		if err == nil {
			var xk *ecdh.PrivateKey
			xk, err = ecdh.X25519().NewPrivateKey(raw)
			if err == nil {
				der, err = x509.MarshalPKCS8PrivateKey(xk)
			}
		}
	default:
		return "", dcrypt.New(dcrypt.UnsupportedOperation, "unsupported key type")
	}
	if err != nil {
		return "", dcrypt.Wrap(dcrypt.BackendError, err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

func ecdsaFromKey(key *dcrypt.PrivateKey) (*ecdsa.PrivateKey, error) {
	scalar, err := key.Scalar()
	if err != nil {
		return nil, err
	}
	pub, err := key.Public()
	if err != nil {
		return nil, err
	}
	x, y, err := pub.ECPoint()
	if err != nil {
		return nil, err
	}
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: key.Curve().Elliptic, X: x, Y: y},
		D:         scalar,
	}, nil
}
