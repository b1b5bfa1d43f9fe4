package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mahimrahman/monheure/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completed(t *testing.T, date, in, out string) store.PunchRecord {
	t.Helper()
	ti, err := time.Parse("2006-01-02 15:04", date+" "+in)
	require.NoError(t, err)
	to, err := time.Parse("2006-01-02 15:04", date+" "+out)
	require.NoError(t, err)
	hours := to.Sub(ti).Hours()
	return store.PunchRecord{
		ID:         "rec-" + date,
		Date:       date,
		PunchIn:    &ti,
		PunchOut:   &to,
		Notes:      "note",
		TotalHours: &hours,
	}
}

func TestWriteEnvelope(t *testing.T) {
	records := []store.PunchRecord{
		completed(t, "2025-03-10", "09:00", "17:30"),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))

	var env map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.EqualValues(t, 1, env["count"])
	assert.NotEmpty(t, env["exported_at"])

	wire := env["records"].([]any)[0].(map[string]any)
	assert.Equal(t, "rec-2025-03-10", wire["id"])
	assert.Equal(t, "2025-03-10", wire["date"])
	assert.Equal(t, 8.5, wire["total_hours"])
}

func TestWriteEmptySet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Contains(t, buf.String(), `"count": 0`)
}

func TestRoundTrip(t *testing.T) {
	in := []store.PunchRecord{
		completed(t, "2025-03-10", "09:00", "17:30"),
		{ID: "open-1", Date: "2025-03-11", PunchIn: timePtr(t, "2025-03-11 08:00")},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.Equal(t, in[0].Date, out[0].Date)
	assert.True(t, out[0].PunchIn.Equal(*in[0].PunchIn))
	assert.True(t, out[0].PunchOut.Equal(*in[0].PunchOut))
	assert.Nil(t, out[1].PunchOut, "open record stays open")
	// Hours are re-derived by the store on insert, not trusted from the file.
	assert.Nil(t, out[0].TotalHours)
}

func TestReadBareArray(t *testing.T) {
	src := `[{"id":"a","date":"2025-03-10","punch_in":"2025-03-10T09:00:00Z","punch_out":"2025-03-10T10:00:00Z"}]`
	records, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)
}

func TestReadRejectsBadDate(t *testing.T) {
	src := `[{"id":"a","date":"10/03/2025"}]`
	_, err := Read(strings.NewReader(src))
	assert.Error(t, err)
}

func TestReadRejectsBadTimestamp(t *testing.T) {
	src := `[{"id":"a","date":"2025-03-10","punch_in":"yesterday"}]`
	_, err := Read(strings.NewReader(src))
	assert.Error(t, err)
}

func TestReadRejectsInvertedPair(t *testing.T) {
	src := `[{"id":"a","date":"2025-03-10","punch_in":"2025-03-10T10:00:00Z","punch_out":"2025-03-10T09:00:00Z"}]`
	_, err := Read(strings.NewReader(src))
	assert.ErrorIs(t, err, store.ErrInvalidTimeRange)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(strings.NewReader("not json at all"))
	assert.Error(t, err)
}

func timePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return &ts
}
