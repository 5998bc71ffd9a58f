// Package recordversion tracks which textual key-record version ("1" or
// "2", per the Dovecot key-string format) a loader or writer is dealing
// with.
package recordversion

import "fmt"

// Version is a record format version number as it appears in field 0 of
// a Dovecot key-string ("1" or "2").
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "1"
	case V2:
		return "2"
	default:
		return fmt.Sprintf("%d", int(v))
	}
}

// Parse maps the first tab-separated field of a key-string to a known
// Version, or reports ok=false for anything else.
func Parse(field string) (Version, bool) {
	switch field {
	case "1":
		return V1, true
	case "2":
		return V2, true
	default:
		return 0, false
	}
}
