package format

import (
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"

	dcrypt "github.com/dovecot/dcrypt-go"
	"github.com/dovecot/dcrypt-go/internal/ecutil"
	"github.com/dovecot/dcrypt-go/internal/zero"
	"github.com/dovecot/dcrypt-go/symmetric"
	"github.com/dovecot/dcrypt-go/x25519"
)

// marshalPrivateMaterial serializes the raw private key value a v2
// record carries: DER RSAPrivateKey for RSA, the MPI-encoded scalar for
// EC, the raw 32-byte scalar for X25519.
func marshalPrivateMaterial(key *dcrypt.PrivateKey) ([]byte, error) {
	switch key.Kind() {
	case dcrypt.KindRSA:
		return x509.MarshalPKCS1PrivateKey(key.RSA()), nil
	case dcrypt.KindEC:
		scalar, err := key.Scalar()
		if err != nil {
			return nil, err
		}
		return ecutil.EncodeMPI(scalar), nil
	case dcrypt.KindX25519:
		return key.X25519Bytes()
	default:
		return nil, dcrypt.New(dcrypt.UnsupportedOperation, "unsupported key type")
	}
}

// unmarshalPrivateMaterial is the inverse: it rebuilds and checks the
// private key, recomputing the EC public point by scalar
// multiplication.
func unmarshalPrivateMaterial(kind dcrypt.KeyKind, curve *ecutil.Curve, material []byte) (*dcrypt.PrivateKey, error) {
	switch kind {
	case dcrypt.KindRSA:
		rsaKey, err := x509.ParsePKCS1PrivateKey(material)
		if err != nil {
			return nil, dcrypt.Wrap(dcrypt.BackendError, err)
		}
		if err := rsaKey.Validate(); err != nil {
			return nil, dcrypt.Wrap(dcrypt.InvalidKey, err)
		}
		return dcrypt.NewRSAPrivateKey(rsaKey), nil
	case dcrypt.KindEC:
		scalar, err := ecutil.DecodeMPI(material)
		if err != nil {
			return nil, dcrypt.Wrap(dcrypt.BackendError, err)
		}
		return dcrypt.NewECPrivateKey(curve, scalar)
	case dcrypt.KindX25519:
		key, err := x25519.NewPrivateKey(material)
		if err != nil {
			return nil, dcrypt.Wrap(dcrypt.InvalidKey, err)
		}
		return dcrypt.NewX25519PrivateKey(key), nil
	default:
		return nil, dcrypt.New(dcrypt.UnsupportedOperation, "unsupported key type")
	}
}

func loadPrivateKeyV2(fields []string, password string, decKey *dcrypt.PrivateKey) (*dcrypt.PrivateKey, error) {
	b := dcrypt.GetBackend()

	enctype, err := intField(fields[2])
	if err != nil {
		return nil, err
	}
	switch {
	case dcrypt.EncryptionType(enctype) == dcrypt.EncryptionNone && len(fields) == 5:
	case dcrypt.EncryptionType(enctype) == dcrypt.EncryptionPassword && len(fields) == 9:
	case dcrypt.EncryptionType(enctype) == dcrypt.EncryptionKey && len(fields) == 11:
	default:
		return nil, dcrypt.New(dcrypt.CorruptedData, "wrong field count")
	}

	oid, err := dcrypt.ParseOIDText(fields[1])
	if err != nil {
		return nil, err
	}
	kind, curve, err := dcrypt.KindForOID(oid)
	if err != nil {
		return nil, err
	}

	var material []byte
	switch dcrypt.EncryptionType(enctype) {
	case dcrypt.EncryptionNone:
		material, err = hexField(fields[3])
		if err != nil {
			return nil, err
		}
	case dcrypt.EncryptionKey:
		if decKey == nil {
			return nil, dcrypt.New(dcrypt.WrongDecryptionKey, "no decryption key provided")
		}
		rounds, err := intField(fields[6])
		if err != nil {
			return nil, err
		}
		// verify we hold the matching decryption key before touching
		// the ciphertext
		decPub, err := decKey.Public()
		if err != nil {
			return nil, err
		}
		decID, err := b.PublicKeyID(decPub)
		if err != nil {
			return nil, err
		}
		if hex.EncodeToString(decID) != fields[9] {
			return nil, dcrypt.New(dcrypt.WrongDecryptionKey, "no private key available")
		}
		salt, err := hexField(fields[4])
		if err != nil {
			return nil, err
		}
		data, err := hexField(fields[7])
		if err != nil {
			return nil, err
		}
		peer, err := hexField(fields[8])
		if err != nil {
			return nil, err
		}
		var secret []byte
		if decKey.Kind() == dcrypt.KindRSA {
			secret, err = b.RSADecrypt(decKey, peer)
		} else {
			secret, err = b.ECDHDeriveSecretLocal(decKey, peer)
		}
		if err != nil {
			return nil, err
		}
		material, err = cipherKeyV2(fields[3], symmetric.Decrypt, data, secret, salt, fields[5], rounds)
		zero.Bytes(secret)
		if err != nil {
			return nil, err
		}
	case dcrypt.EncryptionPassword:
		rounds, err := intField(fields[6])
		if err != nil {
			return nil, err
		}
		salt, err := hexField(fields[4])
		if err != nil {
			return nil, err
		}
		data, err := hexField(fields[7])
		if err != nil {
			return nil, err
		}
		material, err = cipherKeyV2(fields[3], symmetric.Decrypt, data, []byte(password), salt, fields[5], rounds)
		if err != nil {
			return nil, err
		}
	}

	priv, err := unmarshalPrivateMaterial(kind, curve, material)
	zero.Bytes(material)
	if err != nil {
		return nil, err
	}

	pub, err := priv.Public()
	if err != nil {
		return nil, err
	}
	id, err := b.PublicKeyID(pub)
	if err != nil {
		return nil, err
	}
	if hex.EncodeToString(id) != fields[len(fields)-1] {
		priv.Destroy()
		return nil, dcrypt.New(dcrypt.KeyIdMismatch, "key id mismatch after load")
	}
	return priv, nil
}

// encryptPrivateKeyV2 appends the encrypted-mode fields of a record:
// cipher, salt, KDF hash, rounds, ciphertext, and for key-wrapped mode
// the peer material and wrapping-key identifier.
func encryptPrivateKeyV2(dst *strings.Builder, material []byte, enctype dcrypt.EncryptionType, cipherName, password string, encKey *dcrypt.PublicKey) error {
	b := dcrypt.GetBackend()
	cipherName = strings.ToLower(cipherName)

	salt, err := b.RandomBytes(8)
	if err != nil {
		return dcrypt.Wrap(dcrypt.BackendError, err)
	}

	var secret, peerMaterial []byte
	defer func() { zero.Bytes(secret) }()
	if enctype == dcrypt.EncryptionKey {
		if encKey.Kind() == dcrypt.KindRSA {
			// the peer material is the OAEP-wrapped 16-byte secret
			secret, err = b.RandomBytes(16)
			if err != nil {
				return dcrypt.Wrap(dcrypt.BackendError, err)
			}
			peerMaterial, err = b.RSAEncrypt(encKey, secret)
			if err != nil {
				return err
			}
		} else {
			peerMaterial, secret, err = b.ECDHDeriveSecretPeer(encKey)
			if err != nil {
				return err
			}
		}
	} else {
		secret = []byte(password)
	}

	ciphertext, err := cipherKeyV2(cipherName, symmetric.Encrypt, material, secret, salt, keyEncryptHash, keyEncryptRounds)
	if err != nil {
		return err
	}

	fmt.Fprintf(dst, "%s\t%s\t%s\t%d\t%s", cipherName, hex.EncodeToString(salt),
		keyEncryptHash, keyEncryptRounds, hex.EncodeToString(ciphertext))

	if enctype == dcrypt.EncryptionKey {
		encID, err := b.PublicKeyID(encKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(dst, "\t%s\t%s", hex.EncodeToString(peerMaterial), hex.EncodeToString(encID))
	}
	return nil
}

// StorePrivateKey serializes a private key as a v2 record. An empty
// cipherName stores it unencrypted; an "ecdh-" prefixed cipher selects
// key-wrapped mode under encKey; any other cipher selects password
// mode.
func StorePrivateKey(key *dcrypt.PrivateKey, cipherName, password string, encKey *dcrypt.PublicKey) (string, error) {
	pub, err := key.Public()
	if err != nil {
		return "", err
	}
	oid, err := pub.AlgorithmOID()
	if err != nil {
		return "", err
	}
	material, err := marshalPrivateMaterial(key)
	if err != nil {
		return "", err
	}
	defer zero.Bytes(material)

	enctype := dcrypt.EncryptionNone
	switch {
	case strings.HasPrefix(strings.ToLower(cipherName), "ecdh-"):
		if encKey == nil {
			return "", dcrypt.New(dcrypt.UnsupportedOperation, "key-wrapped mode needs an encryption key")
		}
		enctype = dcrypt.EncryptionKey
		cipherName = cipherName[5:]
	case cipherName != "":
		if password == "" {
			return "", dcrypt.New(dcrypt.UnsupportedOperation, "password mode needs a password")
		}
		enctype = dcrypt.EncryptionPassword
	}

	var dst strings.Builder
	fmt.Fprintf(&dst, "2\t%s\t%d\t", dcrypt.OIDText(oid), enctype)

	if enctype == dcrypt.EncryptionNone {
		dst.WriteString(hex.EncodeToString(material))
	} else if err := encryptPrivateKeyV2(&dst, material, enctype, cipherName, password, encKey); err != nil {
		return "", err
	}

	id, err := dcrypt.GetBackend().PublicKeyID(pub)
	if err != nil {
		return "", err
	}
	dst.WriteByte('\t')
	dst.WriteString(hex.EncodeToString(id))
	return dst.String(), nil
}

// StorePublicKey serializes a public key as a v2 record: the hex of its
// DER SubjectPublicKeyInfo encoding.
func StorePublicKey(key *dcrypt.PublicKey) (string, error) {
	der, err := key.SPKI()
	if err != nil {
		return "", err
	}
	return "2\t" + hex.EncodeToString(der), nil
}

func loadPublicKeyV2(fields []string) (*dcrypt.PublicKey, error) {
	if len(fields) != 2 || len(fields[1]) < 2 {
		return nil, dcrypt.New(dcrypt.CorruptedData, "wrong field count")
	}
	der, err := hexField(fields[1])
	if err != nil {
		return nil, err
	}
	return dcrypt.ParseSPKI(der)
}
