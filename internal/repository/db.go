// Package repository persists documents and users in SQLite.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateNumber = errors.New("duplicate document number")
)

// pragmas go in the DSN so every pooled connection gets them.
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"

const schema = `
CREATE TABLE IF NOT EXISTS documentos (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	tipo_documento     TEXT NOT NULL,
	direccion          TEXT NOT NULL,
	numero_oficio      TEXT,
	fecha              TEXT,
	remitente          TEXT NOT NULL DEFAULT '',
	destinatario       TEXT NOT NULL DEFAULT '',
	titulo             TEXT NOT NULL DEFAULT '',
	asunto             TEXT NOT NULL DEFAULT '',
	resumen            TEXT NOT NULL DEFAULT '',
	mensaje_whatsapp   TEXT NOT NULL DEFAULT '',
	oficio_referencia  TEXT NOT NULL DEFAULT '',
	archivo            TEXT NOT NULL DEFAULT '',
	sort_year          INTEGER,
	sort_correlative   INTEGER,
	created_by         TEXT NOT NULL DEFAULT '',
	fecha_creacion     TEXT NOT NULL,
	fecha_modificacion TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documentos_numero ON documentos(numero_oficio);
CREATE INDEX IF NOT EXISTS idx_documentos_orden ON documentos(sort_year DESC, sort_correlative DESC);

CREATE TABLE IF NOT EXISTS usuarios (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	username       TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	nombre         TEXT NOT NULL,
	activo         INTEGER NOT NULL DEFAULT 1,
	fecha_creacion TEXT NOT NULL
);
`

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int, ok bool) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}
