// Package punch is the facade external callers drive. It owns an explicitly
// constructed store, the session state machine and the persisted recovery
// snapshot, and funnels every mutation through one lock so a transition and
// its store write form a single unit.
package punch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mahimrahman/monheure/internal/export"
	"github.com/mahimrahman/monheure/internal/session"
	"github.com/mahimrahman/monheure/internal/stats"
	"github.com/mahimrahman/monheure/internal/store"
)

// Status is the externally visible session state.
type Status struct {
	Working    bool
	RecordID   string
	PunchInAt  time.Time
	TodayDate  string
	TodayHours float64
	GoalHours  float64
}

// DaySummary is the result of a forced re-query of one day.
type DaySummary struct {
	Date       string
	Records    []store.PunchRecord
	TotalHours float64
}

type Coordinator struct {
	store   *store.Store
	machine *session.Machine
	now     func() time.Time
	mu      sync.Mutex
}

// New wires a coordinator around an already-opened store.
func New(st *store.Store) *Coordinator {
	return &Coordinator{
		store:   st,
		machine: session.New(st),
		now:     time.Now,
	}
}

// SetClock pins the wall clock for the coordinator and its machine.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
	c.machine.SetClock(now)
}

// Initialize reads the persisted snapshot once as a warm-start hint, then
// runs the authoritative store scan and persists fresh truth. The snapshot
// never wins: any disagreement is resolved by overwriting it.
func (c *Coordinator) Initialize() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hint, err := c.loadSnapshot()
	if err != nil {
		slog.Warn("session snapshot unreadable, ignoring", "error", err)
	}

	if err := c.machine.Initialize(); err != nil {
		return Status{}, fmt.Errorf("initialize session: %w", err)
	}

	if hint != nil && hint.IsWorking != c.machine.IsWorking() {
		slog.Debug("session snapshot disagreed with store scan",
			"snapshot_working", hint.IsWorking,
			"store_working", c.machine.IsWorking())
	}

	c.saveSnapshot()
	return c.statusLocked()
}

// PunchIn opens a session. The store write, the state transition and the
// snapshot update happen under one lock; today's records are re-queried so
// the returned status reflects durable truth.
func (c *Coordinator) PunchIn(notes string) (*store.PunchRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.machine.PunchIn(notes)
	if err != nil {
		return nil, err
	}
	c.saveSnapshot()
	return rec, nil
}

// PunchOut closes the open session.
func (c *Coordinator) PunchOut(notes string) (*store.PunchRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.machine.PunchOut(notes)
	if err != nil {
		return nil, err
	}
	c.saveSnapshot()
	return rec, nil
}

// RefreshToday re-queries today's records and recomputes the total from
// them. Idempotent: no mutation in between means identical results.
func (c *Coordinator) RefreshToday() (DaySummary, error) {
	return c.QueryDay(c.machine.Today())
}

// QueryDay returns one day's records, punch-in ascending, with the day's
// completed total.
func (c *Coordinator) QueryDay(date string) (DaySummary, error) {
	records, err := c.store.ByDate(date)
	if err != nil {
		return DaySummary{}, err
	}
	return DaySummary{
		Date:       date,
		Records:    records,
		TotalHours: stats.Compute(records).TotalHours,
	}, nil
}

// QueryRange returns records between two YYYY-MM-DD bounds, inclusive.
func (c *Coordinator) QueryRange(start, end string) ([]store.PunchRecord, error) {
	return c.store.ByRange(start, end)
}

// QueryAll returns every record, newest day first.
func (c *Coordinator) QueryAll() ([]store.PunchRecord, error) {
	return c.store.All()
}

// AddRecord persists a manually entered record (the "add entry" path, which
// may create a closed record directly), then rescans.
func (c *Coordinator) AddRecord(nr store.NewRecord) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.store.Create(nr)
	if err != nil {
		return "", err
	}
	return id, c.rescanLocked()
}

// GetRecord returns (nil, nil) when the id is absent.
func (c *Coordinator) GetRecord(id string) (*store.PunchRecord, error) {
	return c.store.GetByID(id)
}

// UpdateRecord applies a field-mask edit, then rescans since the edit may
// have opened or closed today's session behind the machine's back.
func (c *Coordinator) UpdateRecord(id string, upd store.RecordUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Update(id, upd); err != nil {
		return err
	}
	return c.rescanLocked()
}

// DeleteRecord removes a record and rescans.
func (c *Coordinator) DeleteRecord(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(id); err != nil {
		return err
	}
	return c.rescanLocked()
}

// ClearAll removes every record; the machine necessarily ends up Idle.
func (c *Coordinator) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		return err
	}
	return c.rescanLocked()
}

// Stats aggregates completed records over the range.
func (c *Coordinator) Stats(r stats.Range) (stats.TimeStats, error) {
	records, err := c.store.ByRange(r.StartDate(), r.EndDate())
	if err != nil {
		return stats.TimeStats{}, err
	}
	return stats.Compute(records), nil
}

// Series produces the zero-filled per-day chart series for the range.
func (c *Coordinator) Series(r stats.Range) ([]stats.Point, error) {
	records, err := c.store.ByRange(r.StartDate(), r.EndDate())
	if err != nil {
		return nil, err
	}
	return stats.Series(records, r), nil
}

// RangeByName resolves the predefined convenience ranges against the clock
// at call time, honoring the persisted week-start preference.
func (c *Coordinator) RangeByName(name string) (stats.Range, error) {
	now := c.now()
	switch name {
	case "day", "today":
		return stats.Day(now), nil
	case "week":
		return stats.ThisWeek(now, c.weekStart()), nil
	case "2weeks":
		return stats.LastTwoWeeks(now), nil
	case "month":
		return stats.ThisMonth(now), nil
	case "year":
		return stats.ThisYear(now), nil
	default:
		return stats.Range{}, fmt.Errorf("unknown range %q", name)
	}
}

// ResetState drops the in-memory session state and the persisted snapshot.
// Records are untouched.
func (c *Coordinator) ResetState() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine.Reset()
	return c.deleteSnapshot()
}

// Status reports the current session plus today's completed total.
func (c *Coordinator) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Elapsed is the live session duration, zero while idle.
func (c *Coordinator) Elapsed() time.Duration {
	return c.machine.Elapsed()
}

// Export writes the full record set to w in the portable JSON form.
func (c *Coordinator) Export(w io.Writer) error {
	records, err := c.store.All()
	if err != nil {
		return err
	}
	return export.Write(w, records)
}

// Import replaces the whole record set from r in one transaction, then
// rescans so the machine tracks whatever the imported set says about today.
func (c *Coordinator) Import(r io.Reader) (int, error) {
	records, err := export.Read(r)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.ReplaceAll(records); err != nil {
		return 0, err
	}
	return len(records), c.rescanLocked()
}

func (c *Coordinator) statusLocked() (Status, error) {
	today := c.machine.Today()
	records, err := c.store.ByDate(today)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Working:    c.machine.IsWorking(),
		RecordID:   c.machine.RecordID(),
		PunchInAt:  c.machine.PunchInAt(),
		TodayDate:  today,
		TodayHours: stats.Compute(records).TotalHours,
		GoalHours:  c.goalHours(),
	}, nil
}

func (c *Coordinator) goalHours() float64 {
	v, err := c.store.GetSetting("daily_goal_hours")
	if err != nil {
		return 0
	}
	goal, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return goal
}

// rescanLocked re-derives session state from the store after a mutation that
// bypassed the machine, then persists the fresh snapshot.
func (c *Coordinator) rescanLocked() error {
	if err := c.machine.Initialize(); err != nil {
		return err
	}
	c.saveSnapshot()
	return nil
}

func (c *Coordinator) weekStart() time.Weekday {
	v, err := c.store.GetSetting("week_start")
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("read week_start setting", "error", err)
		}
		return time.Monday
	}
	if v == "sunday" {
		return time.Sunday
	}
	return time.Monday
}
