package dcrypt

import (
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeypairKinds(t *testing.T) {
	rsaPair, err := GenerateKeypair(KindRSA, 2048, "")
	require.NoError(t, err)
	assert.Equal(t, KindRSA, rsaPair.Private.Kind())
	assert.Equal(t, 2048, rsaPair.Public.RSA().N.BitLen())

	ecPair, err := GenerateKeypair(KindEC, 0, "secp521r1")
	require.NoError(t, err)
	assert.Equal(t, KindEC, ecPair.Private.Kind())
	assert.Equal(t, "secp521r1", ecPair.Private.Curve().SN)

	xPair, err := GenerateKeypair(KindX25519, 0, "")
	require.NoError(t, err)
	assert.Equal(t, KindX25519, xPair.Private.Kind())

	_, err = GenerateKeypair(KindEC, 0, "brainpoolP256r1")
	assert.True(t, Is(err, UnknownCurve), "unexpected error: %v", err)
}

func TestECDHAgreement(t *testing.T) {
	for _, curve := range []string{"prime256v1", "secp384r1", "secp521r1"} {
		curve := curve
		t.Run(curve, func(t *testing.T) {
			local, err := GenerateKeypair(KindEC, 0, curve)
			require.NoError(t, err)

			eph, peerSecret, err := ECDHDeriveSecretPeer(local.Public)
			require.NoError(t, err)

			localSecret, err := ECDHDeriveSecretLocal(local.Private, eph)
			require.NoError(t, err)
			assert.Equal(t, peerSecret, localSecret)
		})
	}
}

func TestECDHAgreementX25519(t *testing.T) {
	local, err := GenerateKeypair(KindX25519, 0, "")
	require.NoError(t, err)

	eph, peerSecret, err := ECDHDeriveSecretPeer(local.Public)
	require.NoError(t, err)
	assert.Len(t, eph, 32)

	localSecret, err := ECDHDeriveSecretLocal(local.Private, eph)
	require.NoError(t, err)
	assert.Equal(t, peerSecret, localSecret)
}

func TestECDHRejectsRSA(t *testing.T) {
	pair, err := GenerateKeypair(KindRSA, 2048, "")
	require.NoError(t, err)

	_, _, err = ECDHDeriveSecretPeer(pair.Public)
	assert.True(t, Is(err, UnsupportedOperation), "unexpected error: %v", err)
	_, err = ECDHDeriveSecretLocal(pair.Private, []byte{4})
	assert.True(t, Is(err, UnsupportedOperation), "unexpected error: %v", err)
}

func TestRSAOAEPRoundTrip(t *testing.T) {
	pair, err := GenerateKeypair(KindRSA, 2048, "")
	require.NoError(t, err)

	secret := []byte("0123456789abcdef")
	wrapped, err := RSAEncrypt(pair.Public, secret)
	require.NoError(t, err)
	assert.Len(t, wrapped, 2048/8)

	unwrapped, err := RSADecrypt(pair.Private, wrapped)
	require.NoError(t, err)
	assert.Equal(t, secret, unwrapped)

	ecPair, err := GenerateKeypair(KindEC, 0, "prime256v1")
	require.NoError(t, err)
	_, err = RSAEncrypt(ecPair.Public, secret)
	assert.True(t, Is(err, UnsupportedOperation), "unexpected error: %v", err)
}

func TestSPKIRoundTripAndIDStability(t *testing.T) {
	for _, c := range []struct {
		name  string
		kind  KeyKind
		bits  int
		curve string
	}{
		{"rsa", KindRSA, 2048, ""},
		{"ec", KindEC, 0, "secp384r1"},
		{"x25519", KindX25519, 0, ""},
	} {
		c := c
		t.Run(c.name, func(t *testing.T) {
			pair, err := GenerateKeypair(c.kind, c.bits, c.curve)
			require.NoError(t, err)

			der, err := pair.Public.SPKI()
			require.NoError(t, err)
			parsed, err := ParseSPKI(der)
			require.NoError(t, err)

			idA, err := PublicKeyID(pair.Public)
			require.NoError(t, err)
			idB, err := PublicKeyID(parsed)
			require.NoError(t, err)
			assert.Equal(t, idA, idB)
			assert.Len(t, idA, 32)
		})
	}
}

func TestLegacyIDNeedsEC(t *testing.T) {
	ecPair, err := GenerateKeypair(KindEC, 0, "prime256v1")
	require.NoError(t, err)
	id, err := PublicKeyIDOld(ecPair.Public)
	require.NoError(t, err)
	assert.Len(t, id, 32)

	rsaPair, err := GenerateKeypair(KindRSA, 2048, "")
	require.NoError(t, err)
	_, err = PublicKeyIDOld(rsaPair.Public)
	assert.True(t, Is(err, UnsupportedOperation), "unexpected error: %v", err)
}

func TestPrivateToPublic(t *testing.T) {
	pair, err := GenerateKeypair(KindEC, 0, "prime256v1")
	require.NoError(t, err)

	derived, err := pair.Private.Public()
	require.NoError(t, err)

	idA, err := PublicKeyID(pair.Public)
	require.NoError(t, err)
	idB, err := PublicKeyID(derived)
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
}

func TestOIDText(t *testing.T) {
	oid := asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	text := OIDText(oid)
	assert.Equal(t, "1.2.840.10045.3.1.7", text)

	parsed, err := ParseOIDText(text)
	require.NoError(t, err)
	assert.True(t, oid.Equal(parsed))

	_, err = ParseOIDText("not-an-oid")
	assert.Error(t, err)

	kind, curve, err := KindForOID(oid)
	require.NoError(t, err)
	assert.Equal(t, KindEC, kind)
	assert.Equal(t, "prime256v1", curve.SN)

	kind, _, err = KindForOID(asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, KindRSA, kind)

	_, _, err = KindForOID(asn1.ObjectIdentifier{1, 2, 3, 4})
	assert.True(t, Is(err, UnknownAlgorithm), "unexpected error: %v", err)
}

func TestBackendInstalled(t *testing.T) {
	b := GetBackend()
	require.NotNil(t, b)
	assert.Equal(t, "go", b.Name)

	out, err := b.PBKDF2([]byte("pw"), []byte("salt"), "sha256", 16, 48)
	require.NoError(t, err)
	assert.Len(t, out, 48)

	_, err = b.PBKDF2([]byte("pw"), []byte("salt"), "whirlpool", 16, 48)
	assert.True(t, Is(err, InvalidCipher), "unexpected error: %v", err)

	rnd, err := b.RandomBytes(16)
	require.NoError(t, err)
	assert.Len(t, rnd, 16)
}
