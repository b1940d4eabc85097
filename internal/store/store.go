package store

import "errors"

var (
	// ErrUserNotFound is returned when a user id has no record.
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound is returned when a message id has no record.
	ErrMessageNotFound = errors.New("message not found")
)

// User is a user of the application.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Message is a message sent by a user.
type Message struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Text   string `json:"text"`
}

// Store defines the record queries and mutations used by the API layer.
//
// Implementations must be safe for concurrent access. Query results are
// copies; modifying them does not affect the store.
type Store interface {
	// Users returns every user ordered by id.
	Users() []User

	// User returns the user with the given id or [ErrUserNotFound].
	User(id int) (User, error)

	// Messages returns every message ordered by id.
	Messages() []Message

	// Message returns the message with the given id or [ErrMessageNotFound].
	Message(id int) (Message, error)

	// MessagesByUser returns the messages sent by a user, ordered by id.
	MessagesByUser(userID int) ([]Message, error)

	// CreateUser stores a new user and returns it with its assigned id.
	CreateUser(name string) User

	// UpdateUser renames an existing user.
	UpdateUser(id int, name string) (User, error)

	// DeleteUser removes a user together with its messages and returns both.
	DeleteUser(id int) (User, []Message, error)

	// CreateMessage stores a new message for an existing user.
	CreateMessage(userID int, text string) (Message, error)

	// UpdateMessage replaces the text of an existing message.
	UpdateMessage(id int, text string) (Message, error)

	// DeleteMessage removes a message. It reports false if no message had
	// the given id.
	DeleteMessage(id int) (Message, bool)
}
