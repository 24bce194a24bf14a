package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Outcome is the result of an integrity check.
type Outcome int

const (
	// Verified: digest computed and equal to the published one.
	Verified Outcome = iota
	// SkippedNoDigestPublished: nothing to check against. Not a failure.
	SkippedNoDigestPublished
	// Mismatch: digests differ. Always fatal for the current run.
	Mismatch
)

// Result carries the outcome plus both digests for diagnostics.
type Result struct {
	Outcome  Outcome
	Expected string
	Actual   string
}

// SHA256Hex returns the hex digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Check computes the digest of the exact downloaded bytes and compares it
// against the published one, when there is one.
func Check(data []byte, expected string) Result {
	actual := SHA256Hex(data)
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" {
		return Result{Outcome: SkippedNoDigestPublished, Actual: actual}
	}
	if actual != expected {
		return Result{Outcome: Mismatch, Expected: expected, Actual: actual}
	}
	return Result{Outcome: Verified, Expected: expected, Actual: actual}
}
