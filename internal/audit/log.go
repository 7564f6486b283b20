package audit

import "context"

// Log is the interface for the append-only evaluation audit chain. Both
// MemoryLog and PostgresLog implement it.
type Log interface {
	// Append adds a record for one evaluation, chained to the previous
	// record. payload is the full serializable result; its JSON SHA-256 is
	// stored as DataHash. A fresh evaluation ID is assigned and returned on
	// the record.
	Append(ctx context.Context, riskLevel string, totalThreats int, hasUncertainty bool, payload any) (*Record, error)

	// Get returns the record at the given zero-based index.
	Get(ctx context.Context, index int) (*Record, error)

	// Len returns the total number of records (including genesis).
	Len(ctx context.Context) (int, error)

	// Verify walks the entire chain and checks hash consistency. Returns nil
	// if the chain is intact.
	Verify(ctx context.Context) error

	// Root returns the hash of the most recent record (the chain tip).
	Root(ctx context.Context) (string, error)
}
