package format

import (
	"strings"

	dcrypt "github.com/dovecot/dcrypt-go"
)

// KeyStringInfo reports what a key string is without performing any
// cryptography: format, record version, public or private, encryption
// type, and for private Dovecot records the trailing key identifier
// (plus the wrapping-key identifier in key-wrapped mode).
func KeyStringInfo(data string) (*dcrypt.KeyInfo, error) {
	if data == "" {
		return nil, dcrypt.New(dcrypt.CorruptedData, "empty key string")
	}
	if isPEM(data) {
		info := &dcrypt.KeyInfo{Format: dcrypt.FormatPEM}
		if strings.Contains(data, "ENCRYPTED") {
			info.EncryptionType = dcrypt.EncryptionPassword
		}
		switch {
		case strings.Contains(data, "PRIVATE KEY"):
			info.Kind = dcrypt.ClassPrivate
		case strings.Contains(data, "PUBLIC KEY"):
			info.Kind = dcrypt.ClassPublic
		default:
			return nil, dcrypt.New(dcrypt.CorruptedData, "unknown PEM key type")
		}
		return info, nil
	}

	fields := strings.Split(data, "\t")
	if len(fields) < 2 {
		return nil, dcrypt.New(dcrypt.CorruptedData, "unknown key format")
	}

	info := &dcrypt.KeyInfo{Format: dcrypt.FormatDovecot}
	switch fields[0] {
	case "1":
		info.Version = 1
		switch {
		case len(fields) == 3:
			info.Kind = dcrypt.ClassPublic
		case len(fields) == 5 && fields[2] == "0":
			info.Kind = dcrypt.ClassPrivate
			info.EncryptionType = dcrypt.EncryptionNone
		case len(fields) == 6 && fields[2] == "2":
			info.Kind = dcrypt.ClassPrivate
			info.EncryptionType = dcrypt.EncryptionPassword
		case len(fields) == 7 && fields[2] == "1":
			info.Kind = dcrypt.ClassPrivate
			info.EncryptionType = dcrypt.EncryptionKey
			info.EncryptionKeyHash = fields[len(fields)-2]
		default:
			return nil, dcrypt.New(dcrypt.CorruptedData, "invalid dovecot v1 encoding")
		}
	case "2":
		info.Version = 2
		switch {
		case len(fields) == 2:
			info.Kind = dcrypt.ClassPublic
		case len(fields) == 5 && fields[2] == "0":
			info.Kind = dcrypt.ClassPrivate
			info.EncryptionType = dcrypt.EncryptionNone
		case len(fields) == 9 && fields[2] == "2":
			info.Kind = dcrypt.ClassPrivate
			info.EncryptionType = dcrypt.EncryptionPassword
		case len(fields) == 11 && fields[2] == "1":
			info.Kind = dcrypt.ClassPrivate
			info.EncryptionType = dcrypt.EncryptionKey
			info.EncryptionKeyHash = fields[len(fields)-2]
		default:
			return nil, dcrypt.New(dcrypt.CorruptedData, "invalid dovecot v2 encoding")
		}
	default:
		return nil, dcrypt.New(dcrypt.CorruptedData, "unknown key format")
	}

	if info.Kind == dcrypt.ClassPrivate {
		info.KeyHash = fields[len(fields)-1]
	}
	return info, nil
}
