// Package util holds small helpers shared by the item and referral flows.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChecksumBytes is the hex SHA-256 of data, stored next to each uploaded image.
func ChecksumBytes(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// FormatBytes renders a size in binary units for upload error messages, e.g. "10.0 MB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	value, suffix := float64(n), 0
	for value >= unit && suffix < len("KMGTPE") {
		value /= unit
		suffix++
	}

	return fmt.Sprintf("%.1f %cB", value, "KMGTPE"[suffix-1])
}
