// Package ecutil holds the named-curve registry plus the point and
// integer encodings the textual key records use: compressed EC points,
// and OpenSSL-compatible MPI integers.
package ecutil

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"encoding/asn1"
	"fmt"
	"math/big"
)

// Curve describes one supported named curve. NID is the legacy numeric
// identifier v1 records carry in field 2; OID is the ASN.1 identifier
// v2 records carry as dotted text.
type Curve struct {
	SN       string
	NID      int
	OID      asn1.ObjectIdentifier
	Elliptic elliptic.Curve
	ECDH     ecdh.Curve
}

var (
	curveBySN  = make(map[string]*Curve)
	curveByNID = make(map[int]*Curve)

	Prime256v1 = newCurve("prime256v1", 415, asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}, elliptic.P256(), ecdh.P256())
	Secp384r1  = newCurve("secp384r1", 715, asn1.ObjectIdentifier{1, 3, 132, 0, 34}, elliptic.P384(), ecdh.P384())
	Secp521r1  = newCurve("secp521r1", 716, asn1.ObjectIdentifier{1, 3, 132, 0, 35}, elliptic.P521(), ecdh.P521())
)

func newCurve(sn string, nid int, oid asn1.ObjectIdentifier, ell elliptic.Curve, ecdhCurve ecdh.Curve) *Curve {
	c := &Curve{SN: sn, NID: nid, OID: oid, Elliptic: ell, ECDH: ecdhCurve}
	curveBySN[sn] = c
	curveByNID[nid] = c
	return c
}

func init() {
	// secp256r1 is the SECG alias OpenSSL resolves to prime256v1.
	curveBySN["secp256r1"] = Prime256v1
}

// BySN resolves a curve short name ("prime256v1", "secp521r1", ...).
func BySN(sn string) (*Curve, error) {
	c, ok := curveBySN[sn]
	if !ok {
		return nil, fmt.Errorf("unknown EC curve %s", sn)
	}
	return c, nil
}

// ByNID resolves the numeric curve identifier used by v1 records.
func ByNID(nid int) (*Curve, error) {
	c, ok := curveByNID[nid]
	if !ok {
		return nil, fmt.Errorf("unknown EC curve nid %d", nid)
	}
	return c, nil
}

// ByElliptic resolves the registry entry backing a crypto/elliptic
// curve instance.
func ByElliptic(curve elliptic.Curve) (*Curve, error) {
	for _, c := range curveByNID {
		if c.Elliptic == curve {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unsupported curve %s", curve.Params().Name)
}

// ByOID resolves the dotted-text ASN.1 identifier used by v2 records.
func ByOID(oid asn1.ObjectIdentifier) (*Curve, error) {
	for _, c := range curveByNID {
		if c.OID.Equal(oid) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown EC curve oid %v", oid)
}

// ByteLen returns the size of a field element on the curve.
func (c *Curve) ByteLen() int {
	return (c.Elliptic.Params().BitSize + 7) / 8
}

// CompressPoint encodes (x, y) in compressed form: a sign byte followed
// by the X coordinate.
func (c *Curve) CompressPoint(x, y *big.Int) []byte {
	return elliptic.MarshalCompressed(c.Elliptic, x, y)
}

// DecodePoint accepts a point in compressed or uncompressed encoding
// and validates that it lies on the curve.
func (c *Curve) DecodePoint(data []byte) (x, y *big.Int, err error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("empty EC point")
	}
	switch data[0] {
	case 2, 3:
		x, y = elliptic.UnmarshalCompressed(c.Elliptic, data)
	case 4:
		x, y = elliptic.Unmarshal(c.Elliptic, data)
	default:
		return nil, nil, fmt.Errorf("invalid EC point encoding 0x%02x", data[0])
	}
	if x == nil {
		return nil, nil, fmt.Errorf("EC point not on curve %s", c.SN)
	}
	return x, y, nil
}

// ECDHPublicKey converts a curve point to its crypto/ecdh form.
func (c *Curve) ECDHPublicKey(x, y *big.Int) (*ecdh.PublicKey, error) {
	return c.ECDH.NewPublicKey(elliptic.Marshal(c.Elliptic, x, y))
}

// ECDHPrivateKey converts a big-endian scalar to its crypto/ecdh form,
// rejecting scalars outside [1, order-1].
func (c *Curve) ECDHPrivateKey(scalar *big.Int) (*ecdh.PrivateKey, error) {
	if scalar.Sign() <= 0 {
		return nil, fmt.Errorf("EC scalar out of range")
	}
	buf := make([]byte, c.ByteLen())
	if scalar.BitLen() > len(buf)*8 {
		return nil, fmt.Errorf("EC scalar out of range")
	}
	scalar.FillBytes(buf)
	return c.ECDH.NewPrivateKey(buf)
}
