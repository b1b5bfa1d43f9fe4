package punch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mahimrahman/monheure/internal/store"
)

// The snapshot is a warm-start hint, nothing more: written after every
// transition, read once at Initialize, always subordinate to the store scan.
const (
	snapshotKey     = "session.snapshot"
	snapshotVersion = 1
)

type sessionSnapshot struct {
	Version     int    `json:"version"`
	IsWorking   bool   `json:"isWorking"`
	PunchInTime string `json:"punchInTime,omitempty"`
	RecordID    string `json:"recordId,omitempty"`
	TodayDate   string `json:"todayDate"`
}

// loadSnapshot returns (nil, nil) when no snapshot exists and (nil, nil)
// for an unknown version, which a newer build may have written.
func (c *Coordinator) loadSnapshot() (*sessionSnapshot, error) {
	raw, err := c.store.GetSetting(snapshotKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap sessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("parse session snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, nil
	}
	return &snap, nil
}

// saveSnapshot persists current machine state. Failures are logged, not
// propagated: the store already holds the truth and the hint can be stale.
func (c *Coordinator) saveSnapshot() {
	snap := sessionSnapshot{
		Version:   snapshotVersion,
		IsWorking: c.machine.IsWorking(),
		RecordID:  c.machine.RecordID(),
		TodayDate: c.machine.Today(),
	}
	if c.machine.IsWorking() {
		snap.PunchInTime = c.machine.PunchInAt().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("marshal session snapshot", "error", err)
		return
	}
	if err := c.store.SetSetting(snapshotKey, string(data)); err != nil {
		slog.Warn("persist session snapshot", "error", err)
	}
}

func (c *Coordinator) deleteSnapshot() error {
	return c.store.DeleteSetting(snapshotKey)
}
