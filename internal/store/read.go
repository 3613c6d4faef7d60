package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nirvanameow/seedsweep/internal/candidate"
)

// Load reads the full tried ledger into an immutable snapshot and returns
// the next sequence number the store will assign. Called once at startup;
// the snapshot is what workers deduplicate against.
func (s *Store) Load(ctx context.Context) (candidate.TriedSet, int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phrase FROM tried ORDER BY seq`)
	if err != nil {
		return candidate.TriedSet{}, 0, fmt.Errorf("load tried set: %w", err)
	}
	defer rows.Close()

	var phrases []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return candidate.TriedSet{}, 0, fmt.Errorf("load tried set: scan: %w", err)
		}
		phrases = append(phrases, p)
	}
	if err := rows.Err(); err != nil {
		return candidate.TriedSet{}, 0, fmt.Errorf("load tried set: %w", err)
	}

	var lastSeq int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM tried`).Scan(&lastSeq)
	if err != nil {
		return candidate.TriedSet{}, 0, fmt.Errorf("load last seq: %w", err)
	}

	return candidate.NewTriedSet(phrases), lastSeq + 1, nil
}

// Counts returns ledger totals for the stats command.
func (s *Store) Counts(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tried),
			(SELECT COUNT(*) FROM found),
			(SELECT COALESCE(MAX(seq), 0) FROM tried)
	`).Scan(&st.Tried, &st.Found, &st.LastSeq)
	if err != nil {
		return Stats{}, fmt.Errorf("count ledgers: %w", err)
	}
	return st, nil
}

// FoundRecords returns all found outcomes in insertion order.
func (s *Store) FoundRecords(ctx context.Context) ([]FoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, phrase, lamports, run_id, created_at
		FROM found ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("read found records: %w", err)
	}
	defer rows.Close()

	var out []FoundRecord
	for rows.Next() {
		var rec FoundRecord
		var lamports int64
		var created string
		if err := rows.Scan(&rec.Address, &rec.Phrase, &lamports, &rec.RunID, &created); err != nil {
			return nil, fmt.Errorf("read found records: scan: %w", err)
		}
		rec.Lamports = uint64(lamports)
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read found records: %w", err)
	}
	return out, nil
}

// TriedRecords returns all tried outcomes in sequence order.
// Used by tests and the stats command's verbose path.
func (s *Store) TriedRecords(ctx context.Context) ([]TriedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, phrase, address, lamports, run_id, created_at
		FROM tried ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("read tried records: %w", err)
	}
	defer rows.Close()

	var out []TriedRecord
	for rows.Next() {
		var rec TriedRecord
		var lamports int64
		var created string
		if err := rows.Scan(&rec.Seq, &rec.Phrase, &rec.Address, &lamports, &rec.RunID, &created); err != nil {
			return nil, fmt.Errorf("read tried records: scan: %w", err)
		}
		rec.Lamports = uint64(lamports)
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tried records: %w", err)
	}
	return out, nil
}
