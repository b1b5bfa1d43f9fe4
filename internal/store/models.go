package store

import "time"

// DateFormat is the layout of the YYYY-MM-DD grouping key.
const DateFormat = "2006-01-02"

// PunchRecord is one logged work interval. A record without a PunchOut is an
// open session; the session state machine guarantees at most one exists, the
// store itself persists whatever shape it is given.
type PunchRecord struct {
	ID         string
	Date       string // YYYY-MM-DD grouping key, not necessarily the day of PunchIn
	PunchIn    *time.Time
	PunchOut   *time.Time
	Notes      string
	TotalHours *float64 // derived from the timestamp pair, never caller-settable
	CreatedAt  time.Time
}

// Open reports whether the record is an open session.
func (r *PunchRecord) Open() bool {
	return r.PunchIn != nil && r.PunchOut == nil
}

// NewRecord carries the caller-settable fields for Create. TotalHours is
// intentionally absent: the store derives it.
type NewRecord struct {
	Date     string
	PunchIn  *time.Time
	PunchOut *time.Time
	Notes    string
}

// RecordUpdate is an explicit field mask for Update. Only fields whose Set
// flag is true are merged, so a zero value can never clobber a stored one,
// and setting a pointer field to nil is an explicit erase.
type RecordUpdate struct {
	SetDate bool
	Date    string

	SetPunchIn bool
	PunchIn    *time.Time

	SetPunchOut bool
	PunchOut    *time.Time

	SetNotes bool
	Notes    string
}

// Empty reports whether the mask selects no fields at all.
func (u RecordUpdate) Empty() bool {
	return !u.SetDate && !u.SetPunchIn && !u.SetPunchOut && !u.SetNotes
}

type Setting struct {
	Key   string
	Value string
}
