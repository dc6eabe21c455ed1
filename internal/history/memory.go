package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Memory holds the in-RAM conversation window that is sent to the model.
// It keeps at most maxHistory user/assistant exchanges (2*maxHistory
// messages); the system prompt at position zero survives trimming.
type Memory struct {
	mu         sync.Mutex
	maxHistory int
	messages   []Message
	createdAt  time.Time
	updatedAt  time.Time
}

// NewMemory creates an empty conversation memory. maxHistory values below 1
// fall back to 10.
func NewMemory(maxHistory int) *Memory {
	if maxHistory < 1 {
		maxHistory = 10
	}
	now := time.Now()
	return &Memory{
		maxHistory: maxHistory,
		createdAt:  now,
		updatedAt:  now,
	}
}

// Add appends a message to the conversation and trims the window if needed.
func (m *Memory) Add(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, NewMessage("", role, content))
	m.updatedAt = time.Now()

	limit := m.maxHistory * 2
	if len(m.messages) <= limit {
		return
	}
	if m.messages[0].Role == RoleSystem {
		kept := make([]Message, 0, limit+1)
		kept = append(kept, m.messages[0])
		kept = append(kept, m.messages[len(m.messages)-limit:]...)
		m.messages = kept
	} else {
		m.messages = m.messages[len(m.messages)-limit:]
	}
}

// Messages returns a copy of the conversation in chronological order.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of stored messages.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Clear drops all messages and resets the metadata timestamps.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	now := time.Now()
	m.createdAt = now
	m.updatedAt = now
}

type memoryFile struct {
	Metadata struct {
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	} `json:"metadata"`
	Messages []Message `json:"messages"`
}

// SaveFile writes the conversation to a JSON file, creating parent
// directories as needed.
func (m *Memory) SaveFile(path string) error {
	m.mu.Lock()
	var f memoryFile
	f.Metadata.CreatedAt = m.createdAt
	f.Metadata.UpdatedAt = m.updatedAt
	f.Messages = make([]Message, len(m.messages))
	copy(f.Messages, m.messages)
	m.mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile replaces the conversation with the contents of a JSON file
// previously written by SaveFile.
func (m *Memory) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f memoryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = f.Messages
	m.createdAt = f.Metadata.CreatedAt
	m.updatedAt = f.Metadata.UpdatedAt
	return nil
}
