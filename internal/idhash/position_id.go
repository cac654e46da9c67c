package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePositionID computes a deterministic position id using SHA256.
// Formula: SHA256(mint|entry_time_ms|amount_sol)
// Returns hex-encoded hash (64 characters).
func ComputePositionID(mint string, entryTimeMs int64, amountSOL float64) string {
	data := fmt.Sprintf("%s|%d|%.9f", mint, entryTimeMs, amountSOL)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
