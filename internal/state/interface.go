package state

import (
	"io"
	"time"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

// RunStore handles run history persistence.
type RunStore interface {
	SaveRun(snap models.Snapshot) error
	GetRun(id string) (*models.Snapshot, error)
	ListRuns(limit int) ([]RunSummary, error)
	DeleteRun(id string) error
	PurgeOldRuns(olderThan time.Duration) (int64, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// StateStore lets the CLI journal runs without depending on the concrete
// SQLite implementation.
type StateStore interface {
	io.Closer
	Migrator
	RunStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore = (*DB)(nil)
	_ Migrator   = (*DB)(nil)
	_ RunStore   = (*DB)(nil)
)
