// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store keeps synchronized records in a SQLite database so other
// tools can query the board's data without parsing the snapshot. Records
// are upserted by their natural key, so syncing the same repository twice
// never duplicates a row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

const schema = `
CREATE TABLE IF NOT EXISTS repositories (
	owner        TEXT NOT NULL,
	name         TEXT NOT NULL,
	is_private   BOOLEAN NOT NULL DEFAULT 0,
	last_seen_at INTEGER,
	PRIMARY KEY (owner, name)
);

CREATE TABLE IF NOT EXISTS records (
	repo_owner      TEXT NOT NULL,
	repo_name       TEXT NOT NULL,
	number          INTEGER NOT NULL,
	is_pull_request BOOLEAN NOT NULL DEFAULT 0,
	state           TEXT NOT NULL,
	title           TEXT NOT NULL,
	updated_at_ms   INTEGER NOT NULL,
	data            TEXT NOT NULL,
	PRIMARY KEY (repo_owner, repo_name, number)
);

CREATE INDEX IF NOT EXISTS records_updated ON records (repo_owner, repo_name, updated_at_ms);

CREATE TABLE IF NOT EXISTS labels (
	repo_owner TEXT NOT NULL,
	repo_name  TEXT NOT NULL,
	id         TEXT NOT NULL,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT 0,
	position   INTEGER NOT NULL,
	PRIMARY KEY (repo_owner, repo_name, id)
);
`

// Store is a SQLite record store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecords upserts records in one transaction.
func (s *Store) SaveRecords(ctx context.Context, records []syncer.IssueRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (repo_owner, repo_name, number, is_pull_request, state, title, updated_at_ms, data)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(repo_owner, repo_name, number) DO UPDATE SET
		is_pull_request = excluded.is_pull_request,
		state = excluded.state,
		title = excluded.title,
		updated_at_ms = excluded.updated_at_ms,
		data = excluded.data
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", r.Key(), err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.RepoOwner,
			r.RepoName,
			r.Issue.Number,
			r.IsPullRequest(),
			r.Issue.State,
			r.Issue.Title,
			r.UpdatedAtMs,
			string(data),
		); err != nil {
			return fmt.Errorf("failed to save %s: %w", r.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// Records returns the records of a repository, newest first.
func (s *Store) Records(ctx context.Context, owner, name string) ([]syncer.IssueRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT data FROM records
	WHERE repo_owner = ? AND repo_name = ?
	ORDER BY updated_at_ms DESC, number DESC
	`, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []syncer.IssueRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var r syncer.IssueRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRecords returns the number of stored records of a repository.
func (s *Store) CountRecords(ctx context.Context, owner, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE repo_owner = ? AND repo_name = ?`,
		owner, name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// SaveLabels replaces the label list of a repository.
func (s *Store) SaveLabels(ctx context.Context, labels syncer.RepoLabels) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM labels WHERE repo_owner = ? AND repo_name = ?`,
		labels.RepoOwner, labels.RepoName,
	); err != nil {
		return fmt.Errorf("failed to clear labels: %w", err)
	}
	for i, l := range labels.Labels {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO labels (repo_owner, repo_name, id, name, color, is_default, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, labels.RepoOwner, labels.RepoName, l.ID, l.Name, l.Color, l.Default, i); err != nil {
			return fmt.Errorf("failed to save label %q: %w", l.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit labels: %w", err)
	}
	return nil
}

// Labels returns the label list of a repository in the order it was saved.
func (s *Store) Labels(ctx context.Context, owner, name string) (syncer.RepoLabels, error) {
	out := syncer.RepoLabels{RepoOwner: owner, RepoName: name, Labels: []syncer.LabelRecord{}}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, name, color, is_default FROM labels
	WHERE repo_owner = ? AND repo_name = ?
	ORDER BY position
	`, owner, name)
	if err != nil {
		return out, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l syncer.LabelRecord
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.Default); err != nil {
			return out, fmt.Errorf("failed to scan label: %w", err)
		}
		out.Labels = append(out.Labels, l)
	}
	return out, rows.Err()
}

// SaveRepository upserts the summary of a repository. A nil lastSeenAt
// keeps the stored value.
func (s *Store) SaveRepository(ctx context.Context, owner, name string, isPrivate bool, lastSeenAt *time.Time) error {
	var seen sql.NullInt64
	if lastSeenAt != nil {
		seen = sql.NullInt64{Int64: lastSeenAt.UnixMilli(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO repositories (owner, name, is_private, last_seen_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(owner, name) DO UPDATE SET
		is_private = excluded.is_private,
		last_seen_at = COALESCE(excluded.last_seen_at, repositories.last_seen_at)
	`, owner, name, isPrivate, seen)
	if err != nil {
		return fmt.Errorf("failed to save repository: %w", err)
	}
	return nil
}

// LastSeenAt returns the stored lastSeenAt of a repository and whether
// one is known.
func (s *Store) LastSeenAt(ctx context.Context, owner, name string) (time.Time, bool, error) {
	var seen sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_seen_at FROM repositories WHERE owner = ? AND name = ?`,
		owner, name,
	).Scan(&seen)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last seen time: %w", err)
	}
	if !seen.Valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(seen.Int64).UTC(), true, nil
}
