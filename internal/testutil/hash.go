package testutil

import (
	"crypto/sha1"
	"encoding/hex"
)

// SHA1Hex returns the SHA-1 of seed as a lowercase hex string, for use as a
// stable commit id in ledger fixtures.
func SHA1Hex(seed string) string {
	h := sha1.Sum([]byte(seed))
	return hex.EncodeToString(h[:])
}
