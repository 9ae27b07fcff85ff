package cryptoutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the lowercase hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortLen is the digest prefix length used to fingerprint URLs.
const ShortLen = 12

// Short returns the first ShortLen characters of a hex digest.
func Short(h string) string {
	if len(h) > ShortLen {
		return h[:ShortLen]
	}
	return h
}

// HashEqual compares two hex digests in constant time. Case is ignored.
func HashEqual(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// IsSHA256Hex reports whether s looks like a hex-encoded SHA-256 digest.
func IsSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
