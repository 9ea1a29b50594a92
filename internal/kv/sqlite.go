package kv

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);
`

// SqliteStore persists entries to a single-table sqlite database so the
// search cache survives restarts.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens (creating if needed) the database at path.
func NewSqliteStore(path string) (*SqliteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite cache schema: %w", err)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Get(key string) ([]byte, bool) {
	var value []byte
	var expiresAt int64
	err := s.db.QueryRow(`SELECT value, expires_at FROM kv WHERE key = ?`, key).Scan(&value, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[kv] sqlite get %s: %v", key, err)
		}
		return nil, false
	}
	if expiresAt > 0 && time.Now().UnixMilli() > expiresAt {
		s.Delete(key)
		return nil, false
	}
	return value, true
}

// Set stores a value. A zero ttl never expires; a negative ttl is
// already expired.
func (s *SqliteStore) Set(key string, value []byte, ttl time.Duration) {
	var expiresAt int64
	if ttl != 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}
	_, err := s.db.Exec(
		`INSERT INTO kv(key, value, expires_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		log.Printf("[kv] sqlite set %s: %v", key, err)
	}
}

func (s *SqliteStore) Delete(key string) {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		log.Printf("[kv] sqlite delete %s: %v", key, err)
	}
}

func (s *SqliteStore) Keys(prefix string) []string {
	rows, err := s.db.Query(
		`SELECT key FROM kv WHERE key LIKE ? || '%' AND (expires_at = 0 OR expires_at > ?)`,
		prefix, time.Now().UnixMilli(),
	)
	if err != nil {
		log.Printf("[kv] sqlite keys %s: %v", prefix, err)
		return nil
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err == nil {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
