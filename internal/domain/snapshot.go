package domain

import "time"

// Snapshot is a cached copy of a remote read, keyed by query.
type Snapshot struct {
	Key         string
	Records     []Transaction
	FetchedAt   time.Time
	Invalidated bool
}

// Age returns how long ago the snapshot was fetched.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Clone returns a deep copy so callers cannot mutate cached records.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Records != nil {
		out.Records = make([]Transaction, len(s.Records))
		copy(out.Records, s.Records)
	}
	return &out
}
