package dcrypt

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/dovecot/dcrypt-go/internal/ecutil"
	"github.com/dovecot/dcrypt-go/x25519"
)

var (
	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidECPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidX25519        = asn1.ObjectIdentifier{1, 3, 101, 110}
)

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

type subjectPublicKeyInfo struct {
	Algorithm algorithmIdentifier
	PublicKey asn1.BitString
}

// spkiNoParams covers algorithms whose AlgorithmIdentifier carries no
// parameters field at all (X25519, RFC 8410).
type spkiNoParams struct {
	Algorithm struct {
		Algorithm asn1.ObjectIdentifier
	}
	PublicKey asn1.BitString
}

// SPKI returns the DER SubjectPublicKeyInfo encoding of the key. EC
// points are embedded in compressed form, which is what the v2 key
// identifier is defined over.
func (k *PublicKey) SPKI() ([]byte, error) {
	switch k.kind {
	case KindRSA:
		der, err := x509.MarshalPKIXPublicKey(k.rsa)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return der, nil
	case KindEC:
		params, err := asn1.Marshal(k.curve.OID)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		point := k.curve.CompressPoint(k.ecX, k.ecY)
		der, err := asn1.Marshal(subjectPublicKeyInfo{
			Algorithm: algorithmIdentifier{
				Algorithm:  oidECPublicKey,
				Parameters: asn1.RawValue{FullBytes: params},
			},
			PublicKey: asn1.BitString{Bytes: point, BitLength: len(point) * 8},
		})
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return der, nil
	case KindX25519:
		var spki spkiNoParams
		spki.Algorithm.Algorithm = oidX25519
		point := k.x.Bytes()
		spki.PublicKey = asn1.BitString{Bytes: point, BitLength: len(point) * 8}
		der, err := asn1.Marshal(spki)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		return der, nil
	default:
		return nil, New(UnsupportedOperation, "unknown key kind")
	}
}

// ParseSPKI decodes a DER SubjectPublicKeyInfo into a key handle.
func ParseSPKI(der []byte) (*PublicKey, error) {
	var spki subjectPublicKeyInfo
	if rest, err := asn1.Unmarshal(der, &spki); err != nil || len(rest) != 0 {
		return nil, New(CorruptedData, "invalid SubjectPublicKeyInfo")
	}
	switch {
	case spki.Algorithm.Algorithm.Equal(oidRSAEncryption):
		parsed, err := x509.ParsePKIXPublicKey(der)
		if err != nil {
			return nil, Wrap(BackendError, err)
		}
		rsaPub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, New(CorruptedData, "not an RSA public key")
		}
		return NewRSAPublicKey(rsaPub), nil
	case spki.Algorithm.Algorithm.Equal(oidECPublicKey):
		var curveOID asn1.ObjectIdentifier
		if _, err := asn1.Unmarshal(spki.Algorithm.Parameters.FullBytes, &curveOID); err != nil {
			return nil, New(CorruptedData, "invalid EC parameters")
		}
		curve, err := ecutil.ByOID(curveOID)
		if err != nil {
			return nil, Newf(UnknownCurve, "unknown EC curve oid %v", curveOID)
		}
		x, y, err := curve.DecodePoint(spki.PublicKey.RightAlign())
		if err != nil {
			return nil, Wrap(InvalidKey, err)
		}
		return NewECPublicKey(curve, x, y), nil
	case spki.Algorithm.Algorithm.Equal(oidX25519):
		pub, err := x25519.NewPublicKey(spki.PublicKey.RightAlign())
		if err != nil {
			return nil, Wrap(InvalidKey, err)
		}
		return NewX25519PublicKey(pub), nil
	default:
		return nil, Newf(UnknownAlgorithm, "unknown key algorithm %v", spki.Algorithm.Algorithm)
	}
}

// AlgorithmOID returns the identifier a v2 private record carries in
// its second field: the curve OID for EC keys, the key algorithm OID
// otherwise.
func (k *PublicKey) AlgorithmOID() (asn1.ObjectIdentifier, error) {
	switch k.kind {
	case KindRSA:
		return oidRSAEncryption, nil
	case KindEC:
		return k.curve.OID, nil
	case KindX25519:
		return oidX25519, nil
	default:
		return nil, New(UnsupportedOperation, "unknown key kind")
	}
}

// PublicKeyID computes the current (v2) key identifier: SHA-256 over
// the DER SubjectPublicKeyInfo encoding.
func PublicKeyID(pub *PublicKey) ([]byte, error) {
	der, err := pub.SPKI()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(der)
	return sum[:], nil
}

// PublicKeyIDOld computes the legacy (v1) identifier: SHA-256 over the
// lowercase ASCII hex of the compressed public point, not over the raw
// point bytes. Stored v1 keys depend on this exact construction.
func PublicKeyIDOld(pub *PublicKey) ([]byte, error) {
	if pub.kind != KindEC {
		return nil, New(UnsupportedOperation, "legacy key id needs an EC key")
	}
	point := pub.curve.CompressPoint(pub.ecX, pub.ecY)
	sum := sha256.Sum256([]byte(hex.EncodeToString(point)))
	return sum[:], nil
}

// KindForOID resolves the algorithm identifier of a v2 private record:
// the RSA or X25519 key algorithm, or an EC curve.
func KindForOID(oid asn1.ObjectIdentifier) (KeyKind, *ecutil.Curve, error) {
	switch {
	case oid.Equal(oidRSAEncryption):
		return KindRSA, nil, nil
	case oid.Equal(oidX25519):
		return KindX25519, nil, nil
	default:
		curve, err := ecutil.ByOID(oid)
		if err != nil {
			return 0, nil, Newf(UnknownAlgorithm, "unknown key algorithm oid %s", oid.String())
		}
		return KindEC, curve, nil
	}
}

// OIDText renders an object identifier as dotted decimal text.
func OIDText(oid asn1.ObjectIdentifier) string {
	return oid.String()
}

// ParseOIDText parses dotted decimal text into an object identifier.
func ParseOIDText(text string) (asn1.ObjectIdentifier, error) {
	parts := strings.Split(text, ".")
	if len(parts) < 2 {
		return nil, Newf(UnknownAlgorithm, "invalid oid %q", text)
	}
	oid := make(asn1.ObjectIdentifier, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, Newf(UnknownAlgorithm, "invalid oid %q", text)
		}
		oid[i] = n
	}
	return oid, nil
}
