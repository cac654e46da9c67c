package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEventID computes a deterministic trade-event id using SHA256.
// Formula: SHA256(position_id|event_type|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(positionID, eventType string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", positionID, eventType, timestampMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
