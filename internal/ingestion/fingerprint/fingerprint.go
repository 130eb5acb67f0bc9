// Package fingerprint derives the content address of an upload.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Of returns the lowercase hex SHA-256 digest of data.
func Of(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
