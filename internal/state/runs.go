package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

var (
	// ErrRunNotFinished is returned when saving a run that is not terminal.
	ErrRunNotFinished = errors.New("only finished runs can be saved")
	// ErrAmbiguousID is returned when an ID prefix matches more than one run.
	ErrAmbiguousID = errors.New("run ID prefix matches more than one run")
	// ErrCorruptRow is returned when a stored sub-task has an unknown status or role.
	ErrCorruptRow = errors.New("stored sub-task has an unknown status or role")
)

// RunSummary is one row of the history listing.
type RunSummary struct {
	ID           string       `json:"id" yaml:"id"`
	Goal         string       `json:"goal" yaml:"goal"`
	Stage        models.Stage `json:"stage" yaml:"stage"`
	SubTasks     int          `json:"subtasks" yaml:"subtasks"`
	Completed    int          `json:"completed" yaml:"completed"`
	InputTokens  int64        `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64        `json:"output_tokens" yaml:"output_tokens"`
	StartedAt    time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// SaveRun journals a finished run, replacing any earlier copy with the same ID.
func (db *DB) SaveRun(snap models.Snapshot) error {
	if snap.RunID == "" {
		return fmt.Errorf("save run: missing run ID")
	}
	if !snap.Stage.Terminal() {
		return fmt.Errorf("save run %s in stage %s: %w", snap.RunID, snap.Stage, ErrRunNotFinished)
	}

	logJSON, err := json.Marshal(snap.Log)
	if err != nil {
		return fmt.Errorf("encode activity log: %w", err)
	}

	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, goal, stage, cursor, report, error, log, input_tokens, output_tokens, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				goal = excluded.goal, stage = excluded.stage, cursor = excluded.cursor,
				report = excluded.report, error = excluded.error, log = excluded.log,
				input_tokens = excluded.input_tokens, output_tokens = excluded.output_tokens,
				started_at = excluded.started_at, finished_at = excluded.finished_at
		`, snap.RunID, snap.Goal, string(snap.Stage), snap.Cursor, snap.Report, snap.Error, string(logJSON),
			snap.InputTokens, snap.OutputTokens, formatTime(snap.StartedAt), formatNullableTime(snap.FinishedAt))
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}

		if _, err := tx.Exec("DELETE FROM subtasks WHERE run_id = ?", snap.RunID); err != nil {
			return fmt.Errorf("clear subtasks: %w", err)
		}

		for _, st := range snap.SubTasks {
			_, err := tx.Exec(`
				INSERT INTO subtasks (run_id, id, description, role, status, result, error, started_at, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, snap.RunID, st.ID, st.Description, string(st.Role), string(st.Status), st.Result, st.Error,
				formatNullableTime(st.StartedAt), formatNullableTime(st.CompletedAt))
			if err != nil {
				return fmt.Errorf("save subtask %d: %w", st.ID, err)
			}
		}
		return nil
	})
}

// GetRun retrieves a run by its full ID or a unique prefix of it.
// Returns nil, nil when nothing matches.
func (db *DB) GetRun(id string) (*models.Snapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	fullID, err := db.resolveID(id)
	if err != nil || fullID == "" {
		return nil, err
	}

	row := db.QueryRow(`
		SELECT id, goal, stage, cursor, report, error, log, input_tokens, output_tokens, started_at, finished_at
		FROM runs WHERE id = ?
	`, fullID)

	var snap models.Snapshot
	var report, errMsg, logJSON, finishedAt sql.NullString
	var startedAt string
	err = row.Scan(&snap.RunID, &snap.Goal, &snap.Stage, &snap.Cursor, &report, &errMsg, &logJSON,
		&snap.InputTokens, &snap.OutputTokens, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	snap.Report = report.String
	snap.Error = errMsg.String
	snap.StartedAt, _ = parseTime(startedAt)
	snap.FinishedAt = parseNullableTime(finishedAt)
	if logJSON.Valid && logJSON.String != "" {
		if err := json.Unmarshal([]byte(logJSON.String), &snap.Log); err != nil {
			return nil, fmt.Errorf("decode activity log: %w", err)
		}
	}

	subtasks, err := db.listSubTasks(fullID)
	if err != nil {
		return nil, err
	}
	snap.SubTasks = subtasks
	return &snap, nil
}

// resolveID expands a prefix to a full run ID, "" when nothing matches.
func (db *DB) resolveID(prefix string) (string, error) {
	// Escape LIKE wildcards so the prefix is matched literally
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := db.Query(`SELECT id FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' LIMIT 3`, prefix, escaped+"%")
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", nil
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%q: %w", prefix, ErrAmbiguousID)
	}
}

func (db *DB) listSubTasks(runID string) ([]models.SubTask, error) {
	rows, err := db.Query(`
		SELECT id, description, role, status, result, error, started_at, completed_at
		FROM subtasks WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	var out []models.SubTask
	for rows.Next() {
		var st models.SubTask
		var role, result, errMsg, startedAt, completedAt sql.NullString
		if err := rows.Scan(&st.ID, &st.Description, &role, &st.Status, &result, &errMsg, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		st.Role = models.AgentRole(role.String)
		if !st.Status.Valid() || (st.Role != "" && !st.Role.Valid()) {
			return nil, fmt.Errorf("subtask %d of run %s: %w", st.ID, runID, ErrCorruptRow)
		}
		st.Result = result.String
		st.Error = errMsg.String
		st.StartedAt = parseNullableTime(startedAt)
		st.CompletedAt = parseNullableTime(completedAt)
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs first. A limit of 0 or less lists all.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	query := `
		SELECT r.id, r.goal, r.stage, r.input_tokens, r.output_tokens, r.started_at, r.finished_at,
			COUNT(s.id), COALESCE(SUM(CASE WHEN s.status = ? THEN 1 ELSE 0 END), 0)
		FROM runs r LEFT JOIN subtasks s ON s.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.rowid DESC
	`
	args := []any{string(models.SubTaskCompleted)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Goal, &r.Stage, &r.InputTokens, &r.OutputTokens, &startedAt, &finishedAt,
			&r.SubTasks, &r.Completed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = parseTime(startedAt)
		r.FinishedAt = parseNullableTime(finishedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a run and its subtasks by full ID.
func (db *DB) DeleteRun(id string) error {
	if _, err := db.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// PurgeOldRuns deletes runs started before now minus olderThan.
// Returns the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	result, err := db.Exec("DELETE FROM runs WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old runs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return count, nil
}
