package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey is a stable PostgreSQL advisory lock key used to serialize
// concurrent Append calls. The value is arbitrary but must be consistent
// across all service instances.
const advisoryLockKey = int64(1_726_410_883)

// PostgresLog persists the evaluation audit chain to a PostgreSQL database.
// It implements the Log interface.
type PostgresLog struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLog creates a PostgresLog backed by the given connection pool.
func NewPostgresLog(pool *pgxpool.Pool, logger *zap.Logger) *PostgresLog {
	return &PostgresLog{pool: pool, logger: logger}
}

// Append implements Log. It acquires a PostgreSQL advisory lock, reads the
// chain tail, computes the new record hash, and inserts it, all within a
// single transaction.
func (l *PostgresLog) Append(ctx context.Context, riskLevel string, totalThreats int, hasUncertainty bool, payload any) (*Record, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	dataHash := sha256Sum(payloadJSON)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialize concurrent appends with a transaction-scoped advisory lock.
	// The lock is released when the transaction commits or rolls back.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var prevIdx int
	var prevHash string
	if err := tx.QueryRow(ctx,
		"SELECT idx, hash FROM audit_log ORDER BY idx DESC LIMIT 1",
	).Scan(&prevIdx, &prevHash); err != nil {
		return nil, fmt.Errorf("read audit tail: %w", err)
	}

	record := &Record{
		Index:          prevIdx + 1,
		Timestamp:      recordTime(),
		EvalID:         uuid.NewString(),
		RiskLevel:      riskLevel,
		TotalThreats:   totalThreats,
		HasUncertainty: hasUncertainty,
		DataHash:       dataHash,
		PrevHash:       prevHash,
	}
	record.Hash = hashRecord(record)

	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_log (idx, timestamp, eval_id, risk_level, total_threats, has_uncertainty, data_hash, prev_hash, hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.Index, record.Timestamp, record.EvalID,
		record.RiskLevel, record.TotalThreats, record.HasUncertainty,
		record.DataHash, record.PrevHash, record.Hash,
	); err != nil {
		return nil, fmt.Errorf("insert audit record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit audit tx: %w", err)
	}

	l.logger.Debug("audit record appended",
		zap.Int("idx", record.Index),
		zap.String("eval_id", record.EvalID),
		zap.String("risk_level", record.RiskLevel),
	)
	return record, nil
}

// Get implements Log.
func (l *PostgresLog) Get(ctx context.Context, index int) (*Record, error) {
	record := &Record{}
	if err := l.pool.QueryRow(ctx,
		`SELECT idx, timestamp, eval_id, risk_level, total_threats, has_uncertainty, data_hash, prev_hash, hash
		 FROM audit_log WHERE idx = $1`, index,
	).Scan(
		&record.Index, &record.Timestamp, &record.EvalID,
		&record.RiskLevel, &record.TotalThreats, &record.HasUncertainty,
		&record.DataHash, &record.PrevHash, &record.Hash,
	); err != nil {
		return nil, fmt.Errorf("get audit record %d: %w", index, err)
	}
	return record, nil
}

// Len implements Log.
func (l *PostgresLog) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

// Verify implements Log. It streams all rows ordered by idx and validates
// the hash chain. O(n) in chain length; may be slow for very large logs.
func (l *PostgresLog) Verify(ctx context.Context) error {
	rows, err := l.pool.Query(ctx,
		`SELECT idx, timestamp, eval_id, risk_level, total_threats, has_uncertainty, data_hash, prev_hash, hash
		 FROM audit_log ORDER BY idx ASC`,
	)
	if err != nil {
		return fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var prev *Record
	for rows.Next() {
		curr := &Record{}
		if err := rows.Scan(
			&curr.Index, &curr.Timestamp, &curr.EvalID,
			&curr.RiskLevel, &curr.TotalThreats, &curr.HasUncertainty,
			&curr.DataHash, &curr.PrevHash, &curr.Hash,
		); err != nil {
			return fmt.Errorf("scan audit row: %w", err)
		}

		if prev == nil {
			if curr.Hash != GenesisHash {
				return fmt.Errorf("genesis record has wrong hash: got %q", curr.Hash)
			}
			prev = curr
			continue
		}

		if curr.PrevHash != prev.Hash {
			return fmt.Errorf("hash chain broken at index %d", curr.Index)
		}
		if curr.Hash != hashRecord(curr) {
			return fmt.Errorf("record %d has invalid hash", curr.Index)
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Log.
func (l *PostgresLog) Root(ctx context.Context) (string, error) {
	var hash string
	if err := l.pool.QueryRow(ctx,
		"SELECT hash FROM audit_log ORDER BY idx DESC LIMIT 1",
	).Scan(&hash); err != nil {
		return "", fmt.Errorf("get audit root: %w", err)
	}
	return hash, nil
}
