// Package export reads and writes the portable JSON form of the record set.
// The record array is the portability contract; the envelope around it is
// convenience metadata.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mahimrahman/monheure/internal/store"
)

type envelope struct {
	ExportedAt string   `json:"exported_at"`
	Count      int      `json:"count"`
	Records    []Record `json:"records"`
}

// Record is the wire form of a punch record. Timestamps are RFC3339.
type Record struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	PunchIn    string   `json:"punch_in,omitempty"`
	PunchOut   string   `json:"punch_out,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	TotalHours *float64 `json:"total_hours,omitempty"`
}

// Write emits the full record set as an indented JSON envelope.
func Write(w io.Writer, records []store.PunchRecord) error {
	env := envelope{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(records),
		Records:    make([]Record, 0, len(records)),
	}

	for i := range records {
		r := &records[i]
		wire := Record{
			ID:         r.ID,
			Date:       r.Date,
			Notes:      r.Notes,
			TotalHours: r.TotalHours,
		}
		if r.PunchIn != nil {
			wire.PunchIn = r.PunchIn.UTC().Format(time.RFC3339)
		}
		if r.PunchOut != nil {
			wire.PunchOut = r.PunchOut.UTC().Format(time.RFC3339)
		}
		env.Records = append(env.Records, wire)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Read parses either the Write envelope or a bare record array and validates
// every record. Import is a write path, so a malformed record rejects the
// whole set before the store sees any of it.
func Read(r io.Reader) ([]store.PunchRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}

	var wire []Record
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Records != nil {
		wire = env.Records
	} else if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}

	records := make([]store.PunchRecord, 0, len(wire))
	for i, wr := range wire {
		rec, err := wr.toRecord()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (wr Record) toRecord() (*store.PunchRecord, error) {
	if _, err := time.Parse(store.DateFormat, wr.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", wr.Date, err)
	}

	rec := &store.PunchRecord{
		ID:    wr.ID,
		Date:  wr.Date,
		Notes: wr.Notes,
	}
	if wr.PunchIn != "" {
		t, err := time.Parse(time.RFC3339, wr.PunchIn)
		if err != nil {
			return nil, fmt.Errorf("invalid punch_in %q: %w", wr.PunchIn, err)
		}
		rec.PunchIn = &t
	}
	if wr.PunchOut != "" {
		t, err := time.Parse(time.RFC3339, wr.PunchOut)
		if err != nil {
			return nil, fmt.Errorf("invalid punch_out %q: %w", wr.PunchOut, err)
		}
		rec.PunchOut = &t
	}
	if rec.PunchIn != nil && rec.PunchOut != nil && !rec.PunchOut.After(*rec.PunchIn) {
		return nil, store.ErrInvalidTimeRange
	}
	// Derived on insert; whatever the file carried is ignored.
	rec.TotalHours = nil
	return rec, nil
}
