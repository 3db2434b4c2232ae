package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentdeck/internal/chat"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现
// SQLiteStore implements Store using SQLite with WAL mode.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		backend_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT NOT NULL,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		PRIMARY KEY(session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接 / Close the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Session operations ---

func (s *SQLiteStore) CreateSession(meta SessionMeta) error {
	now := nowUTC()
	if strings.TrimSpace(meta.CreatedAt) == "" {
		meta.CreatedAt = now
	}
	if strings.TrimSpace(meta.UpdatedAt) == "" {
		meta.UpdatedAt = now
	}
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, title, backend_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.Title, meta.BackendID, meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveSession(meta SessionMeta) error {
	meta.UpdatedAt = nowUTC()
	_, err := s.db.Exec(`
		UPDATE sessions SET title=?, backend_id=?, updated_at=? WHERE id=?`,
		meta.Title, meta.BackendID, meta.UpdatedAt, meta.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadSession(id string) (SessionMeta, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SessionMeta{}, fmt.Errorf("session id is empty")
	}
	row := s.db.QueryRow(`
		SELECT id, title, backend_id, created_at, updated_at
		FROM sessions WHERE id=?`, id)

	var meta SessionMeta
	err := row.Scan(&meta.ID, &meta.Title, &meta.BackendID, &meta.CreatedAt, &meta.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return SessionMeta{}, fmt.Errorf("session not found: %s", id)
		}
		return SessionMeta{}, fmt.Errorf("load session: %w", err)
	}
	return meta, nil
}

func (s *SQLiteStore) ListSessions() ([]SessionMeta, error) {
	rows, err := s.db.Query(`
		SELECT id, title, backend_id, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var metas []SessionMeta
	for rows.Next() {
		var meta SessionMeta
		if err := rows.Scan(&meta.ID, &meta.Title, &meta.BackendID, &meta.CreatedAt, &meta.UpdatedAt); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

func (s *SQLiteStore) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// --- Message operations ---

// SaveMessages replaces the whole transcript of a session in one transaction.
func (s *SQLiteStore) SaveMessages(sessionID string, messages []chat.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id=?", sessionID); err != nil {
		return fmt.Errorf("delete old messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, session_id, seq, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range messages {
		createdAt := msg.CreatedAt.UTC().Format(time.RFC3339)
		if msg.CreatedAt.IsZero() {
			createdAt = nowUTC()
		}
		if _, err := stmt.Exec(msg.ID, sessionID, i, msg.Role, msg.Content, createdAt); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	if _, err := tx.Exec("UPDATE sessions SET updated_at=? WHERE id=?", nowUTC(), sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return tx.Commit()
}

// AppendMessage upserts one message at the end of the transcript. A message
// that streams in over several deltas is written once per finalization, so an
// existing id overwrites its row in place.
func (s *SQLiteStore) AppendMessage(sessionID string, msg chat.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int
	row := tx.QueryRow("SELECT seq FROM messages WHERE session_id=? AND id=?", sessionID, msg.ID)
	if err := row.Scan(&seq); err != nil {
		if err != sql.ErrNoRows {
			return fmt.Errorf("find message: %w", err)
		}
		next := tx.QueryRow("SELECT COALESCE(MAX(seq)+1, 0) FROM messages WHERE session_id=?", sessionID)
		if err := next.Scan(&seq); err != nil {
			return fmt.Errorf("next seq: %w", err)
		}
	}

	createdAt := msg.CreatedAt.UTC().Format(time.RFC3339)
	if msg.CreatedAt.IsZero() {
		createdAt = nowUTC()
	}
	_, err = tx.Exec(`
		INSERT INTO messages (id, session_id, seq, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO UPDATE SET content=excluded.content`,
		msg.ID, sessionID, seq, msg.Role, msg.Content, createdAt,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	if _, err := tx.Exec("UPDATE sessions SET updated_at=? WHERE id=?", nowUTC(), sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadMessages(sessionID string) ([]chat.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, role, content, created_at
		FROM messages WHERE session_id=? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &createdAt); err != nil {
			continue
		}
		if ts, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			msg.CreatedAt = ts
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
