package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryLog is an in-memory, thread-safe Log implementation. It is primarily
// useful for testing and for single-process deployments that do not require
// durable persistence across restarts.
type MemoryLog struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryLog creates a MemoryLog initialized with the canonical genesis
// record. The genesis record is at index 0 and its hash is GenesisHash.
func NewMemoryLog() *MemoryLog {
	l := &MemoryLog{}
	genesis := &Record{
		Index:     0,
		Timestamp: recordTime(),
		RiskLevel: "genesis",
		DataHash:  GenesisHash,
		PrevHash:  GenesisHash,
		Hash:      GenesisHash, // genesis hash is the well-known constant, not computed
	}
	l.records = append(l.records, genesis)
	return l
}

// Append implements Log.
func (l *MemoryLog) Append(_ context.Context, riskLevel string, totalThreats int, hasUncertainty bool, payload any) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	prev := l.records[len(l.records)-1]
	record := &Record{
		Index:          len(l.records),
		Timestamp:      recordTime(),
		EvalID:         uuid.NewString(),
		RiskLevel:      riskLevel,
		TotalThreats:   totalThreats,
		HasUncertainty: hasUncertainty,
		DataHash:       sha256Sum(payloadJSON),
		PrevHash:       prev.Hash,
	}
	record.Hash = hashRecord(record)
	l.records = append(l.records, record)
	return record, nil
}

// Get implements Log.
func (l *MemoryLog) Get(_ context.Context, index int) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.records) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	return l.records[index], nil
}

// Len implements Log.
func (l *MemoryLog) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records), nil
}

// Verify implements Log. It walks the chain and checks that all hashes are
// consistent. The genesis record (index 0) is validated against GenesisHash.
func (l *MemoryLog) Verify(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i, curr := range l.records {
		if i == 0 {
			if curr.Hash != GenesisHash {
				return fmt.Errorf("genesis record has wrong hash: got %q", curr.Hash)
			}
			continue
		}

		prev := l.records[i-1]
		if curr.PrevHash != prev.Hash {
			return fmt.Errorf("hash chain broken at index %d", curr.Index)
		}
		if curr.Hash != hashRecord(curr) {
			return fmt.Errorf("record %d has invalid hash", curr.Index)
		}
	}
	return nil
}

// Root implements Log.
func (l *MemoryLog) Root(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return "", nil
	}
	return l.records[len(l.records)-1].Hash, nil
}
