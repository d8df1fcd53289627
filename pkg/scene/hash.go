package scene

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the canonical content hash recorded in asset
// reference descriptors and used by the external script store to detect
// concurrent edits: hex-encoded SHA-256 over the raw payload bytes.
func HashContent(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
