package store

import (
	"context"
	"fmt"
	"time"
)

// AppendTried durably records a tried outcome and returns its sequence
// number. Duplicate phrases (re-probed across runs within the bounded
// staleness window) are idempotent: the existing record wins and its seq is
// returned.
func (s *Store) AppendTried(ctx context.Context, rec TriedRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tried (phrase, address, lamports, run_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(phrase) DO NOTHING
	`,
		rec.Phrase,
		rec.Address,
		int64(rec.Lamports),
		rec.RunID,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("append tried: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("append tried: rows affected: %w", err)
	}
	if affected > 0 {
		seq, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("append tried: last insert id: %w", err)
		}
		return seq, nil
	}

	// Conflict: already tried in a previous run. Return the existing seq.
	var seq int64
	err = s.db.QueryRowContext(ctx,
		`SELECT seq FROM tried WHERE phrase = ?`, rec.Phrase).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append tried: select existing: %w", err)
	}
	return seq, nil
}

// AppendFound durably records a found outcome. Returns only after the write
// is committed; the supervisor relies on that ordering before it halts the
// pool.
func (s *Store) AppendFound(ctx context.Context, rec FoundRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO found (address, phrase, lamports, run_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		rec.Address,
		rec.Phrase,
		int64(rec.Lamports),
		rec.RunID,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append found: %w", err)
	}
	return nil
}
