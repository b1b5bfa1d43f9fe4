package store

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// at builds a UTC timestamp on the given day from an HH:MM clock string.
func at(t *testing.T, date, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		t.Fatalf("parse %s %s: %v", date, clock, err)
	}
	return ts.UTC()
}

// mustCreate inserts a record via the public API; an empty out leaves the
// record open.
func mustCreate(t *testing.T, s *Store, date, in, out, notes string) string {
	t.Helper()
	nr := NewRecord{Date: date, Notes: notes}
	if in != "" {
		ti := at(t, date, in)
		nr.PunchIn = &ti
	}
	if out != "" {
		to := at(t, date, out)
		nr.PunchOut = &to
	}
	id, err := s.Create(nr)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	return id
}

func mustCount(t *testing.T, s *Store) int {
	t.Helper()
	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/monheure.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen — should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Create / GetByID
// ============================================================

func TestCreateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "17:30", "desk day")

	rec, err := s.GetByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("record not found after create")
	}
	if rec.ID != id {
		t.Fatalf("id mismatch: %s vs %s", rec.ID, id)
	}
	if rec.Date != "2025-03-10" || rec.Notes != "desk day" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.PunchIn == nil || !rec.PunchIn.Equal(at(t, "2025-03-10", "09:00")) {
		t.Fatalf("punch-in mismatch: %v", rec.PunchIn)
	}
	if rec.TotalHours == nil || *rec.TotalHours != 8.5 {
		t.Fatalf("expected total_hours 8.5, got %v", rec.TotalHours)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}
}

func TestCreateOpenRecord(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "", "")

	rec, _ := s.GetByID(id)
	if !rec.Open() {
		t.Fatal("record with no punch-out should be open")
	}
	if rec.TotalHours != nil {
		t.Fatalf("open record must not have total_hours, got %v", rec.TotalHours)
	}
}

func TestCreateInvalidTimeRange(t *testing.T) {
	s := newTestStore(t)
	in := at(t, "2025-03-10", "17:00")
	out := at(t, "2025-03-10", "09:00")
	_, err := s.Create(NewRecord{Date: "2025-03-10", PunchIn: &in, PunchOut: &out})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	if mustCount(t, s) != 0 {
		t.Fatal("rejected create must not persist anything")
	}
}

func TestCreateEqualTimestampsRejected(t *testing.T) {
	s := newTestStore(t)
	ts := at(t, "2025-03-10", "09:00")
	_, err := s.Create(NewRecord{Date: "2025-03-10", PunchIn: &ts, PunchOut: &ts})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestGetByIDAbsent(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.GetByID("nope")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatalf("expected nil for absent id, got %+v", rec)
	}
}

// ============================================================
// Update
// ============================================================

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Update("nope", RecordUpdate{SetNotes: true, Notes: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMergesOnlyMaskedFields(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "17:30", "before")

	if err := s.Update(id, RecordUpdate{SetNotes: true, Notes: "after"}); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetByID(id)
	if rec.Notes != "after" {
		t.Fatalf("notes not updated: %q", rec.Notes)
	}
	if rec.PunchIn == nil || rec.PunchOut == nil || *rec.TotalHours != 8.5 {
		t.Fatalf("unmasked fields were touched: %+v", rec)
	}
}

func TestUpdateRecomputesTotalHours(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "", "")

	out := at(t, "2025-03-10", "13:00")
	if err := s.Update(id, RecordUpdate{SetPunchOut: true, PunchOut: &out}); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetByID(id)
	if rec.TotalHours == nil || *rec.TotalHours != 4.0 {
		t.Fatalf("expected total_hours 4, got %v", rec.TotalHours)
	}
}

func TestUpdateInvalidTimeRangeLeavesRecordUnchanged(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "17:30", "keep")

	bad := at(t, "2025-03-10", "08:00")
	err := s.Update(id, RecordUpdate{SetPunchOut: true, PunchOut: &bad})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}

	rec, _ := s.GetByID(id)
	if !rec.PunchOut.Equal(at(t, "2025-03-10", "17:30")) || *rec.TotalHours != 8.5 {
		t.Fatalf("record changed after rejected update: %+v", rec)
	}
}

func TestUpdateErasesPunchOut(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "17:30", "")

	if err := s.Update(id, RecordUpdate{SetPunchOut: true, PunchOut: nil}); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetByID(id)
	if !rec.Open() {
		t.Fatal("erasing punch-out should reopen the record")
	}
	if rec.TotalHours != nil {
		t.Fatalf("total_hours must be re-derived to NULL, got %v", rec.TotalHours)
	}
}

func TestUpdateCrossMidnightAllowed(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "22:00", "", "night shift")

	out := at(t, "2025-03-11", "02:00")
	if err := s.Update(id, RecordUpdate{SetPunchOut: true, PunchOut: &out}); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetByID(id)
	if rec.Date != "2025-03-10" {
		t.Fatalf("grouping date must not move: %s", rec.Date)
	}
	if *rec.TotalHours != 4.0 {
		t.Fatalf("expected 4h across midnight, got %v", *rec.TotalHours)
	}
}

func TestUpdateEmptyMaskIsNoop(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "17:30", "same")

	if err := s.Update(id, RecordUpdate{}); err != nil {
		t.Fatal(err)
	}
	rec, _ := s.GetByID(id)
	if rec.Notes != "same" {
		t.Fatalf("noop update changed the record: %+v", rec)
	}
}

// ============================================================
// Delete / Clear
// ============================================================

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	id := mustCreate(t, s, "2025-03-10", "09:00", "17:30", "")

	if err := s.Delete(id); err != nil {
		t.Fatal(err)
	}
	if mustCount(t, s) != 0 {
		t.Fatal("record still present after delete")
	}
}

func TestDeleteNotFound(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, "2025-03-10", "09:00", "17:30", "")

	err := s.Delete("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mustCount(t, s) != 1 {
		t.Fatal("store changed by failed delete")
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, "2025-03-10", "09:00", "12:00", "")
	mustCreate(t, s, "2025-03-11", "09:00", "12:00", "")

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if mustCount(t, s) != 0 {
		t.Fatal("clear left records behind")
	}
}

// ============================================================
// Queries
// ============================================================

func TestByDateOrdersByPunchIn(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, "2025-03-10", "13:00", "17:00", "pm")
	mustCreate(t, s, "2025-03-10", "08:00", "12:00", "am")
	mustCreate(t, s, "2025-03-11", "09:00", "10:00", "other day")

	records, err := s.ByDate("2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Notes != "am" || records[1].Notes != "pm" {
		t.Fatalf("wrong order: %s, %s", records[0].Notes, records[1].Notes)
	}
}

func TestByRangeInclusiveBounds(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, "2025-03-09", "09:00", "10:00", "before")
	mustCreate(t, s, "2025-03-10", "09:00", "10:00", "start")
	mustCreate(t, s, "2025-03-12", "09:00", "10:00", "end")
	mustCreate(t, s, "2025-03-13", "09:00", "10:00", "after")

	records, err := s.ByRange("2025-03-10", "2025-03-12")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Notes != "start" || records[1].Notes != "end" {
		t.Fatalf("wrong order or membership: %+v", records)
	}
}

func TestAllNewestDayFirst(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, "2025-03-10", "09:00", "10:00", "old")
	mustCreate(t, s, "2025-03-12", "09:00", "10:00", "new")
	mustCreate(t, s, "2025-03-12", "11:00", "12:00", "newer")

	records, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Notes != "newer" || records[1].Notes != "new" || records[2].Notes != "old" {
		t.Fatalf("wrong order: %s, %s, %s", records[0].Notes, records[1].Notes, records[2].Notes)
	}
}

// ============================================================
// ReplaceAll
// ============================================================

func TestReplaceAll(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, "2025-03-10", "09:00", "10:00", "gone after import")

	in := at(t, "2025-04-01", "09:00")
	out := at(t, "2025-04-01", "12:00")
	err := s.ReplaceAll([]PunchRecord{
		{Date: "2025-04-01", PunchIn: &in, PunchOut: &out, Notes: "imported"},
	})
	if err != nil {
		t.Fatal(err)
	}

	records, _ := s.All()
	if len(records) != 1 || records[0].Notes != "imported" {
		t.Fatalf("unexpected records after replace: %+v", records)
	}
	if records[0].ID == "" {
		t.Fatal("replace must assign ids to blank records")
	}
	if records[0].TotalHours == nil || *records[0].TotalHours != 3.0 {
		t.Fatalf("replace must derive total_hours, got %v", records[0].TotalHours)
	}
}

func TestReplaceAllRejectsInvalidSetUntouched(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, "2025-03-10", "09:00", "10:00", "survivor")

	in := at(t, "2025-04-01", "12:00")
	out := at(t, "2025-04-01", "09:00")
	err := s.ReplaceAll([]PunchRecord{
		{Date: "2025-04-01", PunchIn: &in, PunchOut: &out},
	})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}

	records, _ := s.All()
	if len(records) != 1 || records[0].Notes != "survivor" {
		t.Fatalf("failed replace must leave the previous set intact: %+v", records)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaultsSeeded(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting("week_start")
	if err != nil {
		t.Fatal(err)
	}
	if v != "monday" {
		t.Fatalf("expected default week_start=monday, got %q", v)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("week_start", "sunday"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting("week_start")
	if err != nil {
		t.Fatal(err)
	}
	if v != "sunday" {
		t.Fatalf("expected sunday, got %q", v)
	}
}

func TestGetSettingAbsent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("no_such_key")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("tmp", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSetting("tmp"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSetting("tmp"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Absent key is a no-op.
	if err := s.DeleteSetting("tmp"); err != nil {
		t.Fatal(err)
	}
}
