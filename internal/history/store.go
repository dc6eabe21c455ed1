// Package history provides the conversation model: the in-RAM context window
// sent to the model and SQLite-backed persistence across process runs.
// If opening the DB fails the store degrades to in-memory storage.
package history

import (
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/logger"
)

// Store persists conversation turns keyed by session id.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	mem []Message // fallback when sqlite is unavailable
}

const createMessagesTable = `CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT,
	role TEXT,
	content TEXT,
	created_at DATETIME
);`

// OpenStore opens (or creates) the SQLite database at path. It never fails:
// on error the returned store keeps messages in memory for the lifetime of
// the process.
func OpenStore(path string) *Store {
	s := &Store{}

	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return s
	}
	if _, err := db.Exec(createMessagesTable); err != nil {
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		_ = db.Close()
		return s
	}

	s.db = db
	logger.L.Debug("sqlite history store opened", "path", path)
	return s
}

// Append persists one message.
func (s *Store) Append(msg Message) {
	if s.db != nil {
		_, err := s.db.Exec(
			`INSERT INTO messages (session_id, role, content, created_at) VALUES (?,?,?,?);`,
			msg.SessionID, msg.Role, msg.Content, msg.CreatedAt,
		)
		if err == nil {
			return
		}
		logger.L.Error("failed to store message in sqlite; falling back to memory", "error", err)
	}

	s.mu.Lock()
	s.mem = append(s.mem, msg)
	s.mu.Unlock()
}

// List returns all messages of a session in chronological order.
func (s *Store) List(sessionID string) []Message {
	if s.db != nil {
		rows, err := s.db.Query(
			`SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC;`,
			sessionID,
		)
		if err == nil {
			defer rows.Close()
			var out []Message
			for rows.Next() {
				var m Message
				if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err == nil {
					out = append(out, m)
				}
			}
			return out
		}
		logger.L.Error("sqlite query failed; reading in-memory history", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, m := range s.mem {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out
}

// Clear removes all messages of a session.
func (s *Store) Clear(sessionID string) {
	if s.db != nil {
		if _, err := s.db.Exec(`DELETE FROM messages WHERE session_id = ?;`, sessionID); err != nil {
			logger.L.Error("sqlite delete failed", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.mem[:0]
	for _, m := range s.mem {
		if m.SessionID != sessionID {
			kept = append(kept, m)
		}
	}
	s.mem = kept
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
