// Package export persists materialized layers to SQLite for offline inspection.
package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agentic-research/proctest/internal/sdf"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS layers (
	asset TEXT PRIMARY KEY,
	identifier TEXT NOT NULL,
	default_prim TEXT,
	text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prims (
	asset TEXT NOT NULL,
	path TEXT NOT NULL,
	parent TEXT,
	specifier TEXT NOT NULL,
	type_name TEXT,
	PRIMARY KEY (asset, path)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS attributes (
	asset TEXT NOT NULL,
	prim TEXT NOT NULL,
	name TEXT NOT NULL,
	type_name TEXT NOT NULL,
	variability TEXT NOT NULL,
	value JSON,
	PRIMARY KEY (asset, prim, name)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS diagnostics (
	asset TEXT NOT NULL,
	seq INTEGER NOT NULL,
	code TEXT NOT NULL,
	message TEXT NOT NULL,
	PRIMARY KEY (asset, seq)
) WITHOUT ROWID;
`

// SQLiteWriter writes layers inside a single transaction committed by Close.
type SQLiteWriter struct {
	mu       sync.Mutex
	db       *sql.DB
	tx       *sql.Tx
	stmtPrim *sql.Stmt
	stmtAttr *sql.Stmt
}

// NewSQLiteWriter opens (or creates) dbPath and initializes the schema.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{db: db}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) beginTx() error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return err
	}
	w.stmtPrim, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO prims (asset, path, parent, specifier, type_name)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	w.stmtAttr, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO attributes (asset, prim, name, type_name, variability, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	return err
}

// WriteLayer stores layer under the asset name, replacing any earlier rows
// for that asset. text is the layer rendered by its file format.
func (w *SQLiteWriter) WriteLayer(asset string, layer *sdf.Layer, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, table := range []string{"prims", "attributes", "diagnostics"} {
		if _, err := w.tx.Exec("DELETE FROM "+table+" WHERE asset = ?", asset); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, asset, err)
		}
	}

	var defaultPrim *string
	if dp := layer.DefaultPrim(); dp != "" {
		defaultPrim = &dp
	}
	if _, err := w.tx.Exec(
		`INSERT OR REPLACE INTO layers (asset, identifier, default_prim, text) VALUES (?, ?, ?, ?)`,
		asset, layer.Identifier(), defaultPrim, text,
	); err != nil {
		return fmt.Errorf("insert layer %s: %w", asset, err)
	}

	for _, prim := range layer.Prims() {
		var parent *string
		if p := prim.Path.Parent(); p != sdf.AbsoluteRoot {
			s := string(p)
			parent = &s
		}
		if _, err := w.stmtPrim.Exec(asset, string(prim.Path), parent, string(prim.Specifier), prim.TypeName); err != nil {
			return fmt.Errorf("insert prim %s%s: %w", asset, prim.Path, err)
		}
		for _, attr := range prim.Attributes {
			var value []byte
			if !attr.Default.IsEmpty() {
				var err error
				if value, err = json.Marshal(attr.Default.Interface()); err != nil {
					return fmt.Errorf("encode %s.%s: %w", prim.Path, attr.Name, err)
				}
			}
			if _, err := w.stmtAttr.Exec(asset, string(prim.Path), attr.Name, attr.TypeName, attr.Variability.String(), value); err != nil {
				return fmt.Errorf("insert attribute %s.%s: %w", prim.Path, attr.Name, err)
			}
		}
	}

	for i, d := range layer.Diagnostics() {
		if _, err := w.tx.Exec(
			`INSERT INTO diagnostics (asset, seq, code, message) VALUES (?, ?, ?, ?)`,
			asset, i, d.Code, d.Message,
		); err != nil {
			return fmt.Errorf("insert diagnostic for %s: %w", asset, err)
		}
	}
	return nil
}

func (w *SQLiteWriter) commitTx() error {
	if w.stmtPrim != nil {
		_ = w.stmtPrim.Close()
	}
	if w.stmtAttr != nil {
		_ = w.stmtAttr.Close()
	}
	return w.tx.Commit()
}

// Close commits everything written and closes the database.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit: %w", err)
	}
	return w.db.Close()
}
