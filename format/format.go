// Package format implements the textual key-record codecs: the
// read-only v1 format (EC keys only) and the read-write v2 format (RSA,
// EC and X25519), plus PEM passthrough and the key-string inspector.
//
// Records are single lines of TAB-separated fields. Hex is lowercase
// without separators, integers unsigned decimal. Callers frame lines
// externally; there is no trailing newline inside a record.
package format

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"

	dcrypt "github.com/dovecot/dcrypt-go"
	"github.com/dovecot/dcrypt-go/internal/zero"
	"github.com/dovecot/dcrypt-go/symmetric"
)

const (
	// Parameters newly written password- and key-encrypted records
	// use. Loading honors whatever hash and round count the record
	// itself carries, so these can change without a format bump.
	keyEncryptHash   = "sha256"
	keyEncryptRounds = 2048

	// v1 records fix the whole scheme: AES-256-CTR with an all-zero
	// IV, and 16 PBKDF2 rounds for the password mode.
	v1Cipher         = "aes-256-ctr"
	v1PasswordRounds = 16
)

func hexField(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, dcrypt.New(dcrypt.CorruptedData, "invalid hex field")
	}
	return b, nil
}

func intField(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, dcrypt.New(dcrypt.CorruptedData, "invalid integer field")
	}
	return n, nil
}

// runCipher drives one complete pass through a symmetric context.
func runCipher(ctx *symmetric.Context, key, iv, input []byte) ([]byte, error) {
	if err := ctx.SetKey(key); err != nil {
		return nil, dcrypt.Wrap(dcrypt.BackendError, err)
	}
	if err := ctx.SetIV(iv); err != nil {
		return nil, dcrypt.Wrap(dcrypt.BackendError, err)
	}
	if err := ctx.Init(); err != nil {
		return nil, dcrypt.Wrap(dcrypt.BackendError, err)
	}
	var out bytes.Buffer
	if err := ctx.Update(input, &out); err != nil {
		return nil, dcrypt.Wrap(dcrypt.BackendError, err)
	}
	if err := ctx.Final(&out); err != nil {
		zero.Bytes(out.Bytes())
		if symmetric.IsAuthenticationFailed(err) {
			return nil, dcrypt.New(dcrypt.AuthenticationFailed, "key decryption failed")
		}
		return nil, dcrypt.Wrap(dcrypt.BackendError, err)
	}
	return out.Bytes(), nil
}

// cipherKeyV2 encrypts or decrypts v2 private-key material. Key and IV
// come from stretching the secret and salt; for AEAD ciphers the tag
// travels appended to the ciphertext.
func cipherKeyV2(cipherName string, mode symmetric.Mode, input, secret, salt []byte, digAlgo string, rounds int) ([]byte, error) {
	b := dcrypt.GetBackend()
	ctx, err := b.SymmetricContext(strings.ToLower(cipherName), mode)
	if err != nil {
		return nil, dcrypt.Newf(dcrypt.InvalidCipher, "invalid cipher %s", cipherName)
	}
	defer ctx.Destroy()

	kd, err := b.PBKDF2(secret, salt, digAlgo, rounds, ctx.KeyLength()+ctx.IVLength())
	if err != nil {
		return nil, err
	}
	defer zero.Bytes(kd)
	key, iv := kd[:ctx.KeyLength()], kd[ctx.KeyLength():]

	data := input
	if ctx.IsAEAD() && mode == symmetric.Decrypt {
		ts := ctx.TagSize()
		if len(data) < ts {
			return nil, dcrypt.New(dcrypt.CorruptedData, "ciphertext shorter than authentication tag")
		}
		ctx.SetTag(data[len(data)-ts:])
		data = data[:len(data)-ts]
	}

	out, err := runCipher(ctx, key, iv, data)
	if err != nil {
		return nil, err
	}
	if ctx.IsAEAD() && mode == symmetric.Encrypt {
		out = append(out, ctx.GetTag()...)
	}
	return out, nil
}
