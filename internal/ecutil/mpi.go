package ecutil

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// EncodeMPI serializes a non-negative integer in OpenSSL's BN MPI form:
// a 4-byte big-endian byte count followed by the big-endian magnitude,
// with one leading zero byte whenever the top bit of the first
// magnitude byte is set.
func EncodeMPI(n *big.Int) []byte {
	mag := n.Bytes()
	pad := 0
	if len(mag) > 0 && mag[0]&0x80 != 0 {
		pad = 1
	}
	out := make([]byte, 4+pad+len(mag))
	binary.BigEndian.PutUint32(out, uint32(pad+len(mag)))
	copy(out[4+pad:], mag)
	return out
}

// DecodeMPI parses an MPI-encoded integer. Negative values (sign bit in
// the leading byte) are rejected; the key records never contain them.
func DecodeMPI(data []byte) (*big.Int, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("MPI too short")
	}
	n := binary.BigEndian.Uint32(data)
	if uint32(len(data)-4) != n {
		return nil, fmt.Errorf("MPI length mismatch: header %d, payload %d", n, len(data)-4)
	}
	if n > 0 && data[4]&0x80 != 0 {
		return nil, fmt.Errorf("negative MPI")
	}
	return new(big.Int).SetBytes(data[4:]), nil
}
