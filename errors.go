package dcrypt

import "fmt"

// Kind identifies the class of failure returned by every fallible
// operation in this module, per the error taxonomy every caller is
// expected to switch on.
type Kind int

const (
	// InvalidCipher means a cipher or KDF hash name was not recognized
	// by the backend.
	InvalidCipher Kind = iota
	// UnknownAlgorithm means an ASN.1 OID did not resolve to a known
	// key algorithm.
	UnknownAlgorithm
	// UnknownCurve means an EC curve short name was not recognized.
	UnknownCurve
	// CorruptedData means a textual key record's field count or field
	// contents were inconsistent with its declared format.
	CorruptedData
	// KeyIdMismatch means a record's trailing key identifier did not
	// match the identifier recomputed from the loaded key.
	KeyIdMismatch
	// WrongDecryptionKey means a key-wrapped record's enc-key-id did
	// not match the supplied decryption key.
	WrongDecryptionKey
	// AuthenticationFailed means AEAD tag verification failed.
	AuthenticationFailed
	// InvalidKey means the reconstructed key failed a consistency
	// check (RSA_check_key/EC_KEY_check_key equivalent).
	InvalidKey
	// BackendError wraps an underlying toolkit failure.
	BackendError
	// UnsupportedOperation means the requested operation does not
	// apply to the given key or context (e.g. storing an unsupported
	// key kind, or calling an EC-only operation on an RSA key).
	UnsupportedOperation
)

func (k Kind) String() string {
	switch k {
	case InvalidCipher:
		return "InvalidCipher"
	case UnknownAlgorithm:
		return "UnknownAlgorithm"
	case UnknownCurve:
		return "UnknownCurve"
	case CorruptedData:
		return "CorruptedData"
	case KeyIdMismatch:
		return "KeyIdMismatch"
	case WrongDecryptionKey:
		return "WrongDecryptionKey"
	case AuthenticationFailed:
		return "AuthenticationFailed"
	case InvalidKey:
		return "InvalidKey"
	case BackendError:
		return "BackendError"
	case UnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by this module. Callers match
// on Kind with errors.As, not on the message text.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an *Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind around cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
