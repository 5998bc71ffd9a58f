package format

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dcrypt "github.com/dovecot/dcrypt-go"
	"github.com/dovecot/dcrypt-go/symmetric"
)

func sha256Sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func keyID(t *testing.T, priv *dcrypt.PrivateKey) string {
	t.Helper()
	pub, err := priv.Public()
	require.NoError(t, err)
	id, err := dcrypt.PublicKeyID(pub)
	require.NoError(t, err)
	return hex.EncodeToString(id)
}

func TestStoreLoadUnencrypted(t *testing.T) {
	cases := []struct {
		name  string
		kind  dcrypt.KeyKind
		bits  int
		curve string
	}{
		{"ec-secp521r1", dcrypt.KindEC, 0, "secp521r1"},
		{"ec-prime256v1", dcrypt.KindEC, 0, "prime256v1"},
		{"rsa-2048", dcrypt.KindRSA, 2048, ""},
		{"x25519", dcrypt.KindX25519, 0, ""},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			kp, err := dcrypt.GenerateKeypair(c.kind, c.bits, c.curve)
			require.NoError(t, err)

			stored, err := StorePrivateKey(kp.Private, "", "", nil)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(stored, "2\t"))

			loaded, err := LoadPrivateKey(stored, "", nil)
			require.NoError(t, err)
			assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))
		})
	}
}

func TestStoreLoadPassword(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindRSA, 2048, "")
	require.NoError(t, err)

	for _, cipher := range []string{"aes-256-ctr", "aes-256-gcm"} {
		cipher := cipher
		t.Run(cipher, func(t *testing.T) {
			stored, err := StorePrivateKey(kp.Private, cipher, "correct horse", nil)
			require.NoError(t, err)

			loaded, err := LoadPrivateKey(stored, "correct horse", nil)
			require.NoError(t, err)
			assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))

			_, err = LoadPrivateKey(stored, "battery staple", nil)
			require.Error(t, err)
			assert.True(t,
				dcrypt.Is(err, dcrypt.KeyIdMismatch) ||
					dcrypt.Is(err, dcrypt.BackendError) ||
					dcrypt.Is(err, dcrypt.AuthenticationFailed),
				"unexpected error: %v", err)
		})
	}
}

func TestStoreLoadECDHWrapped(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)
	wrap, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "secp384r1")
	require.NoError(t, err)
	other, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "secp384r1")
	require.NoError(t, err)

	stored, err := StorePrivateKey(kp.Private, "ecdh-aes-256-ctr", "", wrap.Public)
	require.NoError(t, err)

	loaded, err := LoadPrivateKey(stored, "", wrap.Private)
	require.NoError(t, err)
	assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))

	_, err = LoadPrivateKey(stored, "", other.Private)
	assert.True(t, dcrypt.Is(err, dcrypt.WrongDecryptionKey), "unexpected error: %v", err)

	_, err = LoadPrivateKey(stored, "", nil)
	assert.True(t, dcrypt.Is(err, dcrypt.WrongDecryptionKey), "unexpected error: %v", err)
}

func TestStoreLoadRSAWrapped(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "secp521r1")
	require.NoError(t, err)
	wrap, err := dcrypt.GenerateKeypair(dcrypt.KindRSA, 2048, "")
	require.NoError(t, err)
	other, err := dcrypt.GenerateKeypair(dcrypt.KindRSA, 2048, "")
	require.NoError(t, err)

	stored, err := StorePrivateKey(kp.Private, "ecdh-aes-256-gcm", "", wrap.Public)
	require.NoError(t, err)

	loaded, err := LoadPrivateKey(stored, "", wrap.Private)
	require.NoError(t, err)
	assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))

	_, err = LoadPrivateKey(stored, "", other.Private)
	assert.True(t, dcrypt.Is(err, dcrypt.WrongDecryptionKey), "unexpected error: %v", err)
}

func TestStoreLoadX25519Wrapped(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)
	wrap, err := dcrypt.GenerateKeypair(dcrypt.KindX25519, 0, "")
	require.NoError(t, err)

	stored, err := StorePrivateKey(kp.Private, "ecdh-xchacha20", "", wrap.Public)
	require.NoError(t, err)

	loaded, err := LoadPrivateKey(stored, "", wrap.Private)
	require.NoError(t, err)
	assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))
}

func TestAEADTamperDetection(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)

	stored, err := StorePrivateKey(kp.Private, "aes-256-gcm", "hunter2", nil)
	require.NoError(t, err)

	fields := strings.Split(stored, "\t")
	require.Len(t, fields, 9)

	// change the first hex digit of the ciphertext
	ct := []byte(fields[7])
	if ct[0] == '0' {
		ct[0] = '1'
	} else {
		ct[0] = '0'
	}
	fields[7] = string(ct)
	tampered := strings.Join(fields, "\t")

	_, err = LoadPrivateKey(tampered, "hunter2", nil)
	assert.True(t, dcrypt.Is(err, dcrypt.AuthenticationFailed), "unexpected error: %v", err)
}

func TestLoadV1Unencrypted(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)

	scalar, err := kp.Private.Scalar()
	require.NoError(t, err)
	idOld, err := dcrypt.PublicKeyIDOld(kp.Public)
	require.NoError(t, err)

	record := fmt.Sprintf("1\t%d\t0\t%x\t%s",
		kp.Private.Curve().NID, scalar, hex.EncodeToString(idOld))

	loaded, err := LoadPrivateKey(record, "", nil)
	require.NoError(t, err)
	assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))

	// corrupt the trailing identifier
	bad := record[:len(record)-1] + "0"
	if strings.HasSuffix(record, "0") {
		bad = record[:len(record)-1] + "1"
	}
	_, err = LoadPrivateKey(bad, "", nil)
	assert.True(t, dcrypt.Is(err, dcrypt.KeyIdMismatch), "unexpected error: %v", err)
}

// encryptV1 replicates the fixed v1 scheme: AES-256-CTR, all-zero IV.
func encryptV1(t *testing.T, plaintext, key []byte) []byte {
	t.Helper()
	ctx, err := symmetric.NewContext("aes-256-ctr", symmetric.Encrypt)
	require.NoError(t, err)
	defer ctx.Destroy()
	require.NoError(t, ctx.SetKey(key))
	require.NoError(t, ctx.SetIV(make([]byte, ctx.IVLength())))
	require.NoError(t, ctx.Init())
	var out bytes.Buffer
	require.NoError(t, ctx.Update(plaintext, &out))
	require.NoError(t, ctx.Final(&out))
	return out.Bytes()
}

func TestLoadV1Password(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "secp384r1")
	require.NoError(t, err)

	scalar, err := kp.Private.Scalar()
	require.NoError(t, err)
	idOld, err := dcrypt.PublicKeyIDOld(kp.Public)
	require.NoError(t, err)

	password := hex.EncodeToString([]byte("quite secret"))
	salt := []byte("NaCl8byt")
	pw, err := hex.DecodeString(password)
	require.NoError(t, err)
	key, err := dcrypt.GetBackend().PBKDF2(pw, salt, "sha256", 16, 32)
	require.NoError(t, err)
	ct := encryptV1(t, scalar.Bytes(), key)

	record := fmt.Sprintf("1\t%d\t2\t%s\t%s\t%s",
		kp.Private.Curve().NID,
		hex.EncodeToString(ct), hex.EncodeToString(salt), hex.EncodeToString(idOld))

	loaded, err := LoadPrivateKey(record, password, nil)
	require.NoError(t, err)
	assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))
}

func TestLoadV1KeyWrapped(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)
	wrap, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)

	scalar, err := kp.Private.Scalar()
	require.NoError(t, err)
	idOld, err := dcrypt.PublicKeyIDOld(kp.Public)
	require.NoError(t, err)
	wrapIDOld, err := dcrypt.PublicKeyIDOld(wrap.Public)
	require.NoError(t, err)

	eph, secret, err := dcrypt.ECDHDeriveSecretPeer(wrap.Public)
	require.NoError(t, err)
	digest := sha256Sum(secret)
	ct := encryptV1(t, scalar.Bytes(), digest)

	record := fmt.Sprintf("1\t%d\t1\t%s\t%s\t%s\t%s",
		kp.Private.Curve().NID,
		hex.EncodeToString(ct), hex.EncodeToString(eph),
		hex.EncodeToString(wrapIDOld), hex.EncodeToString(idOld))

	loaded, err := LoadPrivateKey(record, "", wrap.Private)
	require.NoError(t, err)
	assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))
}

func TestPublicKeyRoundTrip(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "secp521r1")
	require.NoError(t, err)

	stored, err := StorePublicKey(kp.Public)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "2\t"))

	loaded, err := LoadPublicKey(stored)
	require.NoError(t, err)

	idA, err := dcrypt.PublicKeyID(kp.Public)
	require.NoError(t, err)
	idB, err := dcrypt.PublicKeyID(loaded)
	require.NoError(t, err)
	assert.Equal(t, idA, idB)

	// the same string parsed twice yields byte-equal identifiers
	again, err := LoadPublicKey(stored)
	require.NoError(t, err)
	idC, err := dcrypt.PublicKeyID(again)
	require.NoError(t, err)
	assert.Equal(t, idB, idC)
}

func TestLoadV1PublicKey(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)
	point, err := kp.Public.CompressedPoint()
	require.NoError(t, err)

	record := fmt.Sprintf("1\t%d\t%s", kp.Private.Curve().NID, hex.EncodeToString(point))
	loaded, err := LoadPublicKey(record)
	require.NoError(t, err)

	idA, err := dcrypt.PublicKeyID(kp.Public)
	require.NoError(t, err)
	idB, err := dcrypt.PublicKeyID(loaded)
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
}

func TestPEMRoundTrip(t *testing.T) {
	for _, c := range []struct {
		name  string
		kind  dcrypt.KeyKind
		bits  int
		curve string
	}{
		{"rsa", dcrypt.KindRSA, 2048, ""},
		{"ec", dcrypt.KindEC, 0, "prime256v1"},
		{"x25519", dcrypt.KindX25519, 0, ""},
	} {
		c := c
		t.Run(c.name, func(t *testing.T) {
			kp, err := dcrypt.GenerateKeypair(c.kind, c.bits, c.curve)
			require.NoError(t, err)

			pubPEM, err := StorePublicKeyPEM(kp.Public)
			require.NoError(t, err)
			loadedPub, err := LoadPublicKey(pubPEM)
			require.NoError(t, err)
			idA, err := dcrypt.PublicKeyID(kp.Public)
			require.NoError(t, err)
			idB, err := dcrypt.PublicKeyID(loadedPub)
			require.NoError(t, err)
			assert.Equal(t, idA, idB)

			privPEM, err := StorePrivateKeyPEM(kp.Private)
			require.NoError(t, err)
			loadedPriv, err := LoadPrivateKey(privPEM, "", nil)
			require.NoError(t, err)
			assert.Equal(t, keyID(t, kp.Private), keyID(t, loadedPriv))
		})
	}
}

func TestCorruptedRecords(t *testing.T) {
	cases := []string{
		"",
		"3\tdeadbeef",
		"2\t1.2.840.10045.3.1.7\t0\tzz\tdeadbeef",
		"2\t1.2.840.10045.3.1.7\t5\taa\tbb",
		"1\t415\t0\tff",
		"2\tnot.an.oid\t0\taa\tbb",
	}
	for _, data := range cases {
		_, err := LoadPrivateKey(data, "", nil)
		assert.Error(t, err, "record %q", data)
	}

	_, err := LoadPrivateKey("2\t9.9.999.9\t0\taabb\tcc", "", nil)
	assert.True(t, dcrypt.Is(err, dcrypt.UnknownAlgorithm), "unexpected error: %v", err)
}

func TestInspector(t *testing.T) {
	kp, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)

	stored, err := StorePrivateKey(kp.Private, "aes-256-ctr", "hunter2", nil)
	require.NoError(t, err)
	info, err := KeyStringInfo(stored)
	require.NoError(t, err)
	assert.Equal(t, dcrypt.FormatDovecot, info.Format)
	assert.Equal(t, 2, info.Version)
	assert.Equal(t, dcrypt.ClassPrivate, info.Kind)
	assert.Equal(t, dcrypt.EncryptionPassword, info.EncryptionType)
	assert.Equal(t, keyID(t, kp.Private), info.KeyHash)

	wrap, err := dcrypt.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)
	wrapped, err := StorePrivateKey(kp.Private, "ecdh-aes-256-ctr", "", wrap.Public)
	require.NoError(t, err)
	info, err = KeyStringInfo(wrapped)
	require.NoError(t, err)
	assert.Equal(t, dcrypt.EncryptionKey, info.EncryptionType)
	wrapID, err := dcrypt.PublicKeyID(wrap.Public)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(wrapID), info.EncryptionKeyHash)

	pubStored, err := StorePublicKey(kp.Public)
	require.NoError(t, err)
	info, err = KeyStringInfo(pubStored)
	require.NoError(t, err)
	assert.Equal(t, dcrypt.ClassPublic, info.Kind)
	assert.Equal(t, dcrypt.EncryptionNone, info.EncryptionType)

	pem, err := StorePrivateKeyPEM(kp.Private)
	require.NoError(t, err)
	info, err = KeyStringInfo(pem)
	require.NoError(t, err)
	assert.Equal(t, dcrypt.FormatPEM, info.Format)
	assert.Equal(t, dcrypt.ClassPrivate, info.Kind)

	_, err = KeyStringInfo("junk")
	assert.True(t, dcrypt.Is(err, dcrypt.CorruptedData), "unexpected error: %v", err)
}

func TestBackendDispatch(t *testing.T) {
	b := dcrypt.GetBackend()
	require.NotNil(t, b.LoadPrivateKey)
	require.NotNil(t, b.StorePrivateKey)

	kp, err := b.GenerateKeypair(dcrypt.KindEC, 0, "prime256v1")
	require.NoError(t, err)
	stored, err := b.StorePrivateKey(kp.Private, "", "", nil)
	require.NoError(t, err)
	loaded, err := b.LoadPrivateKey(stored, "", nil)
	require.NoError(t, err)
	assert.Equal(t, keyID(t, kp.Private), keyID(t, loaded))

	info, err := b.KeyStringInfo(stored)
	require.NoError(t, err)
	assert.Equal(t, dcrypt.EncryptionNone, info.EncryptionType)
}
