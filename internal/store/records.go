package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// derivedHours computes total_hours from the timestamp pair: the exact
// floating-point difference in hours, or nil unless both ends are present.
func derivedHours(in, out *time.Time) *float64 {
	if in == nil || out == nil {
		return nil
	}
	h := out.Sub(*in).Hours()
	return &h
}

// validateTimes rejects a pair whose punch-out is at or before its punch-in.
func validateTimes(in, out *time.Time) error {
	if in != nil && out != nil && !out.After(*in) {
		return ErrInvalidTimeRange
	}
	return nil
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func hoursArg(h *float64) any {
	if h == nil {
		return nil
	}
	return *h
}

// Create assigns a fresh id, derives total_hours and persists the record.
func (s *Store) Create(nr NewRecord) (string, error) {
	if err := validateTimes(nr.PunchIn, nr.PunchOut); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO punch_records (id, date, punch_in, punch_out, notes, total_hours, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, nr.Date, timeArg(nr.PunchIn), timeArg(nr.PunchOut), nr.Notes,
		hoursArg(derivedHours(nr.PunchIn, nr.PunchOut)), now,
	)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}
	return id, nil
}

// Update merges only the masked fields, re-derives total_hours from the
// merged pair and rewrites the row. Validation happens before any write.
func (s *Store) Update(id string, upd RecordUpdate) error {
	if upd.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.getByID(id)
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrNotFound
	}

	if upd.SetDate {
		cur.Date = upd.Date
	}
	if upd.SetPunchIn {
		cur.PunchIn = upd.PunchIn
	}
	if upd.SetPunchOut {
		cur.PunchOut = upd.PunchOut
	}
	if upd.SetNotes {
		cur.Notes = upd.Notes
	}

	if err := validateTimes(cur.PunchIn, cur.PunchOut); err != nil {
		return err
	}

	_, err = s.db.Exec(
		`UPDATE punch_records SET date = ?, punch_in = ?, punch_out = ?, notes = ?, total_hours = ? WHERE id = ?`,
		cur.Date, timeArg(cur.PunchIn), timeArg(cur.PunchOut), cur.Notes,
		hoursArg(derivedHours(cur.PunchIn, cur.PunchOut)), id,
	)
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	return nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM punch_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns (nil, nil) when the id is absent.
func (s *Store) GetByID(id string) (*PunchRecord, error) {
	return s.getByID(id)
}

func (s *Store) getByID(id string) (*PunchRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, date, punch_in, punch_out, notes, total_hours, created_at
		 FROM punch_records WHERE id = ?`, id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

// ByDate returns the records grouped under one calendar day, punch-in
// ascending (open records, having no punch-in ordering peer issue, sort by
// their punch_in like the rest; a NULL punch_in sorts first).
func (s *Store) ByDate(date string) ([]PunchRecord, error) {
	return s.queryRecords(
		`SELECT id, date, punch_in, punch_out, notes, total_hours, created_at
		 FROM punch_records WHERE date = ? ORDER BY punch_in ASC`, date,
	)
}

// ByRange returns records with start <= date <= end, date then punch-in
// ascending. Bounds are YYYY-MM-DD strings, inclusive.
func (s *Store) ByRange(start, end string) ([]PunchRecord, error) {
	return s.queryRecords(
		`SELECT id, date, punch_in, punch_out, notes, total_hours, created_at
		 FROM punch_records WHERE date >= ? AND date <= ?
		 ORDER BY date ASC, punch_in ASC`, start, end,
	)
}

// All returns every record, newest day first.
func (s *Store) All() ([]PunchRecord, error) {
	return s.queryRecords(
		`SELECT id, date, punch_in, punch_out, notes, total_hours, created_at
		 FROM punch_records ORDER BY date DESC, punch_in DESC`,
	)
}

// Clear removes all records.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM punch_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

// Count returns the number of persisted records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM punch_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// ReplaceAll swaps the entire record set in one transaction; on any failure
// the previous set survives untouched. Records without an id get a fresh one.
func (s *Store) ReplaceAll(records []PunchRecord) error {
	for i := range records {
		if err := validateTimes(records[i].PunchIn, records[i].PunchOut); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace records: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM punch_records`); err != nil {
		return fmt.Errorf("replace records: %w", err)
	}
	now := time.Now().UTC()
	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := tx.Exec(
			`INSERT INTO punch_records (id, date, punch_in, punch_out, notes, total_hours, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Date, timeArg(r.PunchIn), timeArg(r.PunchOut), r.Notes,
			hoursArg(derivedHours(r.PunchIn, r.PunchOut)),
			createdAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("replace records: insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*PunchRecord, error) {
	r := &PunchRecord{}
	var punchIn, punchOut sql.NullString
	var totalHours sql.NullFloat64
	var createdAt string

	if err := row.Scan(&r.ID, &r.Date, &punchIn, &punchOut, &r.Notes, &totalHours, &createdAt); err != nil {
		return nil, err
	}
	if punchIn.Valid {
		t, err := time.Parse(time.RFC3339, punchIn.String)
		if err != nil {
			return nil, fmt.Errorf("parse punch_in: %w", err)
		}
		r.PunchIn = &t
	}
	if punchOut.Valid {
		t, err := time.Parse(time.RFC3339, punchOut.String)
		if err != nil {
			return nil, fmt.Errorf("parse punch_out: %w", err)
		}
		r.PunchOut = &t
	}
	if totalHours.Valid {
		h := totalHours.Float64
		r.TotalHours = &h
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

func (s *Store) queryRecords(query string, args ...any) ([]PunchRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []PunchRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
