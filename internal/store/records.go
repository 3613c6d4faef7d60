package store

import "time"

// TriedRecord is one definitive probe outcome. Seq is assigned by the store
// at write time, strictly increasing, never reused.
type TriedRecord struct {
	Seq       int64
	Phrase    string
	Address   string
	Lamports  uint64
	RunID     string
	CreatedAt time.Time
}

// FoundRecord is a probe outcome with a positive balance. Append-only,
// never deleted, never mutated.
type FoundRecord struct {
	Address   string
	Phrase    string
	Lamports  uint64
	RunID     string
	CreatedAt time.Time
}

// Stats summarizes ledger contents for reporting.
type Stats struct {
	Tried   int64
	Found   int64
	LastSeq int64
}
