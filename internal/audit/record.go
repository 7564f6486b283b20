package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenesisHash is the canonical well-known hash of the genesis record. It
// anchors the chain; all subsequent record hashes chain from this constant
// rather than from a computed value.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Record is a single evaluation entry in the audit log. It carries the
// evaluation's headline outcome plus a digest of the full result payload; the
// payload itself is not retained.
type Record struct {
	Index          int       `json:"index"`
	Timestamp      time.Time `json:"timestamp"`
	EvalID         string    `json:"eval_id"` // empty only on the genesis record
	RiskLevel      string    `json:"risk_level"`
	TotalThreats   int       `json:"total_threats"`
	HasUncertainty bool      `json:"has_uncertainty"`
	DataHash       string    `json:"data_hash"` // SHA-256 of the serialized result
	PrevHash       string    `json:"prev_hash"`
	Hash           string    `json:"hash"`
}

// recordTime returns the current UTC time truncated to microseconds, the
// resolution of the timestamptz column in the postgres backend. Hashing finer
// precision than the store can round-trip would make Verify reject records it
// reads back.
func recordTime() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// hashRecord computes a deterministic SHA-256 hash over a record's fields.
// Never called on the genesis record (index 0).
func hashRecord(r *Record) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%d|%t|%s|%s",
		r.Index, r.Timestamp.Format(time.RFC3339Nano),
		r.EvalID, r.RiskLevel, r.TotalThreats, r.HasUncertainty,
		r.DataHash, r.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// sha256Sum returns the hex-encoded SHA-256 digest of data.
func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
