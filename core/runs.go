package core

import (
	"fmt"
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/schema"
)

// runTracker records a run in the run store. A nil tracker records nothing.
type runTracker struct {
	store contract.RunStore
	id    int64
	rows  int
}

// beginRun opens a run record; failures are logged and disable tracking.
func beginRun(store contract.RunStore, runUUID string, cfg *contract.Config, start time.Time) *runTracker {
	if store == nil {
		return nil
	}
	id, err := store.BeginRun(runUUID, cfg.Term, start, configParams(cfg))
	if err != nil {
		contract.LogWarn("Run tracking", err)
		return nil
	}
	return &runTracker{store: store, id: id}
}

// ID returns the numeric run ID, or 0 when tracking is off.
func (t *runTracker) ID() int64 {
	if t == nil {
		return 0
	}
	return t.id
}

func (t *runTracker) record(source string, rows []schema.SourceRow) {
	if t == nil || len(rows) == 0 {
		return
	}
	if err := t.store.RecordRows(t.id, source, rows); err != nil {
		contract.LogWarn(fmt.Sprintf("Run tracking %s", source), err)
		return
	}
	t.rows += len(rows)
}

func (t *runTracker) end(at time.Time) {
	if t == nil {
		return
	}
	if err := t.store.EndRun(t.id, at, t.rows); err != nil {
		contract.LogWarn("Run tracking", err)
	}
}

// configParams captures the settings that shaped a run.
func configParams(cfg *contract.Config) map[string]any {
	formats := make([]string, 0, len(cfg.Formats))
	for _, f := range cfg.Formats {
		formats = append(formats, string(f))
	}
	return map[string]any{
		"start_year":        cfg.StartYear,
		"end_year":          cfg.EndYear,
		"bucket":            cfg.Bucket.String(),
		"sources":           cfg.Sources,
		"formats":           formats,
		"topic":             cfg.Topic,
		"refresh":           cfg.Refresh,
		"transport_profile": cfg.TransportProfile,
		"registry":          cfg.Registry,
	}
}
