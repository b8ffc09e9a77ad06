package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/tracker"
)

// SaveSnapshot replaces the stored board with snap in one transaction.
func SaveSnapshot(ctx context.Context, db *sql.DB, snap tracker.Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM board_columns;`); err != nil {
		return err
	}

	for _, j := range snap.Jobs {
		body, err := json.Marshal(j)
		if err != nil {
			return fmt.Errorf("encode job %s: %w", j.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO jobs(id, body, status, date_added)
VALUES(?,?,?,?);`,
			j.ID, string(body), string(j.Status), j.DateAdded.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert job %s: %w", j.ID, err)
		}
	}

	for stage, ids := range snap.Columns {
		for pos, id := range ids {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO board_columns(stage, position, job_id)
VALUES(?,?,?);`, string(stage), pos, id); err != nil {
				return err
			}
		}
	}

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshot_meta(key, value) VALUES('saved_at', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;`,
		savedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadSnapshot returns the last saved board. ok is false when nothing has
// been saved yet. Rows that no longer decode are skipped.
func LoadSnapshot(ctx context.Context, db *sql.DB) (snap tracker.Snapshot, ok bool, err error) {
	var savedAt string
	err = db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE key = 'saved_at';`).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	snap.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)

	rows, err := db.QueryContext(ctx, `SELECT id, body FROM jobs ORDER BY date_added DESC, id;`)
	if err != nil {
		return snap, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return snap, false, err
		}
		var j domain.Job
		if err := json.Unmarshal([]byte(body), &j); err != nil {
			continue
		}
		snap.Jobs = append(snap.Jobs, j)
	}
	if err := rows.Err(); err != nil {
		return snap, false, err
	}

	cols, err := db.QueryContext(ctx, `SELECT stage, job_id FROM board_columns ORDER BY stage, position;`)
	if err != nil {
		return snap, false, err
	}
	defer cols.Close()
	snap.Columns = make(map[domain.Stage][]string)
	for cols.Next() {
		var stage, id string
		if err := cols.Scan(&stage, &id); err != nil {
			return snap, false, err
		}
		snap.Columns[domain.Stage(stage)] = append(snap.Columns[domain.Stage(stage)], id)
	}
	return snap, true, cols.Err()
}
