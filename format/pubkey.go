package format

import (
	"strings"

	dcrypt "github.com/dovecot/dcrypt-go"
	"github.com/dovecot/dcrypt-go/internal/recordversion"
)

// LoadPrivateKey parses a private key in either PEM or Dovecot form.
// password unlocks password-encrypted records, decKey key-wrapped ones;
// both may be empty for unencrypted keys.
func LoadPrivateKey(data, password string, decKey *dcrypt.PrivateKey) (*dcrypt.PrivateKey, error) {
	if isPEM(data) {
		return loadPrivateKeyPEM(data, password)
	}
	fields := strings.Split(data, "\t")
	if len(fields) < 4 {
		return nil, dcrypt.New(dcrypt.CorruptedData, "too few fields")
	}
	version, ok := recordversion.Parse(fields[0])
	if !ok {
		return nil, dcrypt.New(dcrypt.CorruptedData, "unsupported key version")
	}
	if version == recordversion.V1 {
		return loadPrivateKeyV1(fields, password, decKey)
	}
	return loadPrivateKeyV2(fields, password, decKey)
}

// LoadPublicKey parses a public key in either PEM or Dovecot form.
func LoadPublicKey(data string) (*dcrypt.PublicKey, error) {
	if isPEM(data) {
		return loadPublicKeyPEM(data)
	}
	fields := strings.Split(data, "\t")
	if len(fields) < 2 {
		return nil, dcrypt.New(dcrypt.CorruptedData, "too few fields")
	}
	version, ok := recordversion.Parse(fields[0])
	if !ok {
		return nil, dcrypt.New(dcrypt.CorruptedData, "unsupported key version")
	}
	if version == recordversion.V1 {
		return loadPublicKeyV1(fields)
	}
	return loadPublicKeyV2(fields)
}
