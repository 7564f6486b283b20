// Package audit implements a hash-chained audit log of governance
// evaluations.
//
// The chain begins with a well-known genesis record whose Hash equals
// GenesisHash (64 hex zeros). Every subsequent record stores the hash of its
// predecessor, making any tampering detectable via Verify.
//
// Two implementations of the Log interface are provided:
//   - MemoryLog: in-process, for testing and single-node deployments.
//   - PostgresLog: durable, for production use.
package audit
