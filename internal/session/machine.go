// Package session tracks whether a work session is currently open. The
// machine holds no truth of its own: every transition is a store write
// first, and the state only advances once the write has landed.
package session

import (
	"errors"
	"time"

	"github.com/mahimrahman/monheure/internal/store"
)

type State int

const (
	Idle State = iota
	Working
)

func (s State) String() string {
	if s == Working {
		return "working"
	}
	return "idle"
}

var (
	// ErrInvalidTransition is returned for punch-in while working or
	// punch-out while idle. State is unchanged.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNoActiveSession means the machine tracked a record the store no
	// longer has. State is unchanged so the caller can re-initialize.
	ErrNoActiveSession = errors.New("no active session record")
)

// Machine is the session state machine. Not safe for concurrent use; the
// coordinator serializes access.
type Machine struct {
	store *store.Store
	now   func() time.Time

	state     State
	recordID  string
	punchInAt time.Time
}

func New(st *store.Store) *Machine {
	return &Machine{store: st, now: time.Now}
}

// SetClock replaces the wall clock, for deterministic transitions.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Machine) State() State         { return m.state }
func (m *Machine) IsWorking() bool      { return m.state == Working }
func (m *Machine) RecordID() string     { return m.recordID }
func (m *Machine) PunchInAt() time.Time { return m.punchInAt }

// Today is the local wall-clock date at call time. It is re-evaluated on
// every call, so a timezone or DST change simply moves the window.
func (m *Machine) Today() string {
	return m.now().Format(store.DateFormat)
}

// Initialize scans today's records and enters Working iff exactly one open
// record exists among them. An open record left over from a previous day is
// out of scan range and stays untouched; queries and edits are the repair
// path for those.
func (m *Machine) Initialize() error {
	records, err := m.store.ByDate(m.Today())
	if err != nil {
		return err
	}

	var open []store.PunchRecord
	for _, r := range records {
		if r.Open() {
			open = append(open, r)
		}
	}

	if len(open) == 1 {
		m.state = Working
		m.recordID = open[0].ID
		m.punchInAt = *open[0].PunchIn
	} else {
		m.Reset()
	}
	return nil
}

// PunchIn opens a new record for today. If the store write fails the machine
// stays Idle.
func (m *Machine) PunchIn(notes string) (*store.PunchRecord, error) {
	if m.state == Working {
		return nil, ErrInvalidTransition
	}

	now := m.now()
	id, err := m.store.Create(store.NewRecord{
		Date:    now.Format(store.DateFormat),
		PunchIn: &now,
		Notes:   notes,
	})
	if err != nil {
		return nil, err
	}

	m.state = Working
	m.recordID = id
	m.punchInAt = now
	return m.store.GetByID(id)
}

// PunchOut closes the open record; the store derives its total hours. If the
// tracked record vanished from the store the machine reports
// ErrNoActiveSession and keeps its state for the caller to resolve.
func (m *Machine) PunchOut(notes string) (*store.PunchRecord, error) {
	if m.state != Working {
		return nil, ErrInvalidTransition
	}

	cur, err := m.store.GetByID(m.recordID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNoActiveSession
	}

	now := m.now()
	upd := store.RecordUpdate{SetPunchOut: true, PunchOut: &now}
	if notes != "" {
		upd.SetNotes = true
		upd.Notes = notes
	}
	if err := m.store.Update(m.recordID, upd); err != nil {
		return nil, err
	}

	id := m.recordID
	m.Reset()
	return m.store.GetByID(id)
}

// Elapsed is the monotonic time since punch-in, zero while idle. Callers
// showing a live timer recompute this on a periodic tick rather than
// incrementing a counter.
func (m *Machine) Elapsed() time.Duration {
	if m.state != Working {
		return 0
	}
	return m.now().Sub(m.punchInAt)
}

// Reset forces the machine to Idle without touching the store.
func (m *Machine) Reset() {
	m.state = Idle
	m.recordID = ""
	m.punchInAt = time.Time{}
}
