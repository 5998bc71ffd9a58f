// Package zero implements the "clear before free" buffer discipline:
// every sensitive byte slice (key material, IVs, derived secrets,
// intermediate plaintext) is wiped on the error paths and Destroy calls
// that would otherwise leak it through GC-delayed memory.
package zero

// Bytes overwrites b in place with zeroes. It is safe to call on a nil
// or empty slice.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BytesMulti zeroizes every slice given.
func BytesMulti(bs ...[]byte) {
	for _, b := range bs {
		Bytes(b)
	}
}
