// Package history persists one audit row per update run, backing the
// human-readable changelog with queryable records.
package history

import (
	"context"
	"time"
)

// RunRecord is the audit row for one completed update run.
type RunRecord struct {
	RunID               string
	StartedAt           time.Time
	Fingerprint         string
	HasChanges          bool
	NewDepartments      int
	ModifiedDepartments int
	NewCourses          int
	ModifiedCourses     int
	TotalDepartments    int
	TotalCourses        int
}

// Store records update runs.
type Store interface {
	RecordRun(ctx context.Context, rec RunRecord) error
}
