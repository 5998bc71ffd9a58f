package format

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	dcrypt "github.com/dovecot/dcrypt-go"
	"github.com/dovecot/dcrypt-go/internal/ecutil"
	"github.com/dovecot/dcrypt-go/internal/zero"
	"github.com/dovecot/dcrypt-go/symmetric"
)

// v1 records carry EC keys only. The symmetric scheme is fixed:
// AES-256-CTR with an all-zero IV. The key identifier is SHA-256 over
// the ASCII hex of the compressed public point.

// decryptScalarV1 decrypts an encrypted private scalar with the fixed
// v1 cipher and returns it as a big-endian integer.
func decryptScalarV1(data, key []byte) (*big.Int, error) {
	b := dcrypt.GetBackend()
	ctx, err := b.SymmetricContext(v1Cipher, symmetric.Decrypt)
	if err != nil {
		return nil, dcrypt.Wrap(dcrypt.BackendError, err)
	}
	defer ctx.Destroy()

	iv := make([]byte, ctx.IVLength())
	plain, err := runCipher(ctx, key, iv, data)
	if err != nil {
		return nil, err
	}
	scalar := new(big.Int).SetBytes(plain)
	zero.Bytes(plain)
	return scalar, nil
}

func loadPrivateKeyV1(fields []string, password string, decKey *dcrypt.PrivateKey) (*dcrypt.PrivateKey, error) {
	nid, err := intField(fields[1])
	if err != nil {
		return nil, err
	}
	curve, err := ecutil.ByNID(nid)
	if err != nil {
		return nil, dcrypt.Newf(dcrypt.UnknownCurve, "unknown EC curve nid %d", nid)
	}
	enctype, err := intField(fields[2])
	if err != nil {
		return nil, err
	}

	var scalar *big.Int
	switch dcrypt.EncryptionType(enctype) {
	case dcrypt.EncryptionNone:
		if len(fields) != 5 {
			return nil, dcrypt.New(dcrypt.CorruptedData, "wrong field count")
		}
		s, ok := new(big.Int).SetString(fields[3], 16)
		if !ok || s.Sign() < 0 {
			return nil, dcrypt.New(dcrypt.CorruptedData, "invalid private scalar")
		}
		scalar = s
	case dcrypt.EncryptionPassword:
		if len(fields) != 6 {
			return nil, dcrypt.New(dcrypt.CorruptedData, "wrong field count")
		}
		data, err := hexField(fields[3])
		if err != nil {
			return nil, err
		}
		salt, err := hexField(fields[4])
		if err != nil {
			return nil, err
		}
		// the v1 password is itself hex-encoded
		pw, err := hex.DecodeString(password)
		if err != nil {
			return nil, dcrypt.New(dcrypt.CorruptedData, "v1 password must be hex encoded")
		}
		key, err := dcrypt.GetBackend().PBKDF2(pw, salt, "sha256", v1PasswordRounds, 32)
		zero.Bytes(pw)
		if err != nil {
			return nil, err
		}
		scalar, err = decryptScalarV1(data, key)
		zero.Bytes(key)
		if err != nil {
			return nil, err
		}
	case dcrypt.EncryptionKey:
		if len(fields) != 7 {
			return nil, dcrypt.New(dcrypt.CorruptedData, "wrong field count")
		}
		if decKey == nil {
			return nil, dcrypt.New(dcrypt.WrongDecryptionKey, "no decryption key provided")
		}
		data, err := hexField(fields[3])
		if err != nil {
			return nil, err
		}
		peer, err := hexField(fields[4])
		if err != nil {
			return nil, err
		}
		secret, err := dcrypt.GetBackend().ECDHDeriveSecretLocal(decKey, peer)
		if err != nil {
			return nil, err
		}
		// run the shared secret through SHA-256 once; the digest is
		// the cipher key
		digest := sha256.Sum256(secret)
		zero.Bytes(secret)
		scalar, err = decryptScalarV1(data, digest[:])
		zero.Bytes(digest[:])
		if err != nil {
			return nil, err
		}
	default:
		return nil, dcrypt.New(dcrypt.CorruptedData, "invalid encryption type")
	}

	priv, err := dcrypt.NewECPrivateKey(curve, scalar)
	if err != nil {
		return nil, err
	}
	pub, err := priv.Public()
	if err != nil {
		return nil, err
	}
	id, err := dcrypt.GetBackend().PublicKeyIDOld(pub)
	if err != nil {
		return nil, err
	}
	if hex.EncodeToString(id) != fields[len(fields)-1] {
		priv.Destroy()
		return nil, dcrypt.New(dcrypt.KeyIdMismatch, "key id mismatch after load")
	}
	return priv, nil
}

func loadPublicKeyV1(fields []string) (*dcrypt.PublicKey, error) {
	if len(fields) != 3 {
		return nil, dcrypt.New(dcrypt.CorruptedData, "wrong field count")
	}
	nid, err := intField(fields[1])
	if err != nil {
		return nil, err
	}
	curve, err := ecutil.ByNID(nid)
	if err != nil {
		return nil, dcrypt.Newf(dcrypt.UnknownCurve, "unknown EC curve nid %d", nid)
	}
	point, err := hexField(fields[2])
	if err != nil {
		return nil, err
	}
	x, y, err := curve.DecodePoint(point)
	if err != nil {
		return nil, dcrypt.Wrap(dcrypt.InvalidKey, err)
	}
	return dcrypt.NewECPublicKey(curve, x, y), nil
}
