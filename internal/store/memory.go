package store

import (
	"fmt"
	"sync"
)

// MemoryStore is an in-memory implementation of [Store].
//
// Both tables are guarded by one lock held for the duration of a single
// operation.
type MemoryStore struct {
	mu       sync.RWMutex
	users    Table[User]
	messages Table[Message]
}

// SeedUser is a user, with its messages, loaded by [MemoryStore.Seed].
type SeedUser struct {
	Name     string
	Messages []string
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed inserts users and their messages in order.
func (m *MemoryStore) Seed(users []SeedUser) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, su := range users {
		u := m.users.Insert(func(id int) User {
			return User{ID: id, Name: su.Name}
		})
		for _, text := range su.Messages {
			m.messages.Insert(func(id int) Message {
				return Message{ID: id, UserID: u.ID, Text: text}
			})
		}
	}
}

// Users returns every user ordered by id.
func (m *MemoryStore) Users() []User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users.All()
}

// User returns the user with the given id.
func (m *MemoryStore) User(id int) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users.Get(id)
	if !ok {
		return User{}, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	return u, nil
}

// Messages returns every message ordered by id.
func (m *MemoryStore) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.messages.All()
}

// Message returns the message with the given id.
func (m *MemoryStore) Message(id int) (Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.messages.Get(id)
	if !ok {
		return Message{}, fmt.Errorf("message %d: %w", id, ErrMessageNotFound)
	}
	return msg, nil
}

// MessagesByUser returns the messages sent by userID.
func (m *MemoryStore) MessagesByUser(userID int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.users.Get(userID); !ok {
		return nil, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	return m.messagesOf(userID), nil
}

// CreateUser stores a new user.
func (m *MemoryStore) CreateUser(name string) User {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.users.Insert(func(id int) User {
		return User{ID: id, Name: name}
	})
}

// UpdateUser renames the user with the given id.
func (m *MemoryStore) UpdateUser(id int, name string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users.Update(id, func(u *User) { u.Name = name })
	if !ok {
		return User{}, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	return u, nil
}

// DeleteUser removes the user with the given id and every message it sent.
func (m *MemoryStore) DeleteUser(id int) (User, []Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users.Remove(id)
	if !ok {
		return User{}, nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}

	removed := m.messagesOf(id)
	for _, msg := range removed {
		m.messages.Remove(msg.ID)
	}
	return u, removed, nil
}

// CreateMessage stores a new message sent by userID.
func (m *MemoryStore) CreateMessage(userID int, text string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users.Get(userID); !ok {
		return Message{}, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	return m.messages.Insert(func(id int) Message {
		return Message{ID: id, UserID: userID, Text: text}
	}), nil
}

// UpdateMessage replaces the text of the message with the given id.
func (m *MemoryStore) UpdateMessage(id int, text string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.messages.Update(id, func(msg *Message) { msg.Text = text })
	if !ok {
		return Message{}, fmt.Errorf("message %d: %w", id, ErrMessageNotFound)
	}
	return msg, nil
}

// DeleteMessage removes the message with the given id.
func (m *MemoryStore) DeleteMessage(id int) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages.Remove(id)
}

// messagesOf must be called with m.mu held.
func (m *MemoryStore) messagesOf(userID int) []Message {
	var out []Message
	for _, msg := range m.messages.All() {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out
}
