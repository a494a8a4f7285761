package parser

import (
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-project-history/internal/core/model"

	_ "modernc.org/sqlite"
)

// Schema of a SQLite history log. Missing tables read as empty.
const Schema = `
CREATE TABLE IF NOT EXISTS entries (
	timestamp INTEGER PRIMARY KEY,
	editor_version TEXT NOT NULL DEFAULT '',
	diff TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	timestamp INTEGER PRIMARY KEY,
	editor_version TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS shares (
	timestamp INTEGER NOT NULL,
	id TEXT NOT NULL
);`

func parseSQLiteFile(path string) (model.HistoryLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return model.HistoryLog{}, err
	}
	defer db.Close()

	tables, err := listTables(db)
	if err != nil {
		return model.HistoryLog{}, err
	}

	var log model.HistoryLog
	if tables["entries"] {
		if log.Entries, err = readEntries(db); err != nil {
			return model.HistoryLog{}, err
		}
	}
	if tables["snapshots"] {
		if log.Snapshots, err = readSnapshots(db); err != nil {
			return model.HistoryLog{}, err
		}
	}
	if tables["shares"] {
		if log.Shares, err = readShares(db); err != nil {
			return model.HistoryLog{}, err
		}
	}
	return log, nil
}

func listTables(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables[name] = true
	}
	return tables, rows.Err()
}

func readEntries(db *sql.DB) ([]model.DiffEntry, error) {
	rows, err := db.Query(`SELECT timestamp, editor_version, diff FROM entries ORDER BY timestamp ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.DiffEntry
	for rows.Next() {
		var e model.DiffEntry
		var diff string
		if err := rows.Scan(&e.Timestamp, &e.EditorVersion, &diff); err != nil {
			return nil, err
		}
		e.Diff = []byte(diff)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func readSnapshots(db *sql.DB) ([]model.SnapshotEntry, error) {
	rows, err := db.Query(`SELECT timestamp, editor_version, text FROM snapshots ORDER BY timestamp ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []model.SnapshotEntry
	for rows.Next() {
		var s model.SnapshotEntry
		var text string
		if err := rows.Scan(&s.Timestamp, &s.EditorVersion, &text); err != nil {
			return nil, err
		}
		if err := sonic.UnmarshalString(text, &s.Text); err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", s.Timestamp, err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func readShares(db *sql.DB) ([]model.ShareEntry, error) {
	rows, err := db.Query(`SELECT timestamp, id FROM shares ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []model.ShareEntry
	for rows.Next() {
		var s model.ShareEntry
		if err := rows.Scan(&s.Timestamp, &s.ID); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}
