// internal/storage/memory.go
// Package storage provides implementations of the Store interface
// for both in-memory and PostgreSQL storage backends.
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/chatdlp/telegram-refiner-go/internal/model"
)

// Standard errors returned by the storage layer
var (
	ErrNotFound = errors.New("not found") // Returned when an entity is not found
	ErrConflict = errors.New("conflict")  // Returned when an entity already exists
)

// Store interface defines the persistence operations of the refinement
// pipeline. Creates are ordered parent-before-child so the referential
// constraints always hold; SaveRecordSet walks a whole assembled record set
// that way in one call.
// This interface is implemented by both in-memory and PostgreSQL backends.
type Store interface {
	// Create operations, parent-before-child.
	CreateUser(ctx context.Context, user model.User) error
	CreateProfile(ctx context.Context, profile model.Profile) error
	CreateSubmission(ctx context.Context, sub model.Submission) error
	CreateChat(ctx context.Context, chat model.Chat) error
	CreateMessage(ctx context.Context, msg model.Message) error

	// SaveRecordSet persists one assembled record set, parents first.
	SaveRecordSet(ctx context.Context, rs *model.RecordSet) error

	// Read operations, used by verification and reporting.
	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	GetSubmission(ctx context.Context, submissionID string) (*model.Submission, error)
	ListChats(ctx context.Context, submissionID string) ([]model.Chat, error)
	ListMessages(ctx context.Context, submissionChatID string) ([]model.Message, error)

	// Close releases any underlying resources.
	Close()
}

// memory implements the Store interface using in-memory maps.
// It's intended for development and testing purposes.
type memory struct {
	mu          sync.RWMutex                 // Protects concurrent access to maps
	users       map[string]*model.User       // Map of user id to user
	profiles    map[string]*model.Profile    // Map of owning user id to profile
	submissions map[string]*model.Submission // Map of submission id to submission
	chats       map[string][]model.Chat      // Map of submission id to chats
	chatIDs     map[string]string            // Map of chat id to owning submission id
	messages    map[string][]model.Message   // Map of submission chat id to messages
}

// NewMemory creates a new in-memory storage implementation.
// Returns a Store interface that can be used for testing or development.
func NewMemory() Store {
	return &memory{
		users:       make(map[string]*model.User),
		profiles:    make(map[string]*model.Profile),
		submissions: make(map[string]*model.Submission),
		chats:       make(map[string][]model.Chat),
		chatIDs:     make(map[string]string),
		messages:    make(map[string][]model.Message),
	}
}

func (m *memory) CreateUser(ctx context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createUserLocked(user)
}

func (m *memory) createUserLocked(user model.User) error {
	if _, exists := m.users[user.UserID]; exists {
		return ErrConflict
	}
	m.users[user.UserID] = &user
	return nil
}

func (m *memory) CreateProfile(ctx context.Context, profile model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createProfileLocked(profile)
}

func (m *memory) createProfileLocked(profile model.Profile) error {
	if _, exists := m.users[profile.UserID]; !exists {
		return errors.New("profile references a missing user")
	}
	if _, exists := m.profiles[profile.UserID]; exists {
		return ErrConflict
	}
	m.profiles[profile.UserID] = &profile
	return nil
}

func (m *memory) CreateSubmission(ctx context.Context, sub model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSubmissionLocked(sub)
}

func (m *memory) createSubmissionLocked(sub model.Submission) error {
	if _, exists := m.users[sub.UserID]; !exists {
		return errors.New("submission references a missing user")
	}
	if _, exists := m.submissions[sub.SubmissionID]; exists {
		return ErrConflict
	}
	m.submissions[sub.SubmissionID] = &sub
	return nil
}

func (m *memory) CreateChat(ctx context.Context, chat model.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createChatLocked(chat)
}

func (m *memory) createChatLocked(chat model.Chat) error {
	if _, exists := m.submissions[chat.SubmissionID]; !exists {
		return errors.New("chat references a missing submission")
	}
	if _, exists := m.chatIDs[chat.SubmissionChatID]; exists {
		return ErrConflict
	}
	m.chatIDs[chat.SubmissionChatID] = chat.SubmissionID
	m.chats[chat.SubmissionID] = append(m.chats[chat.SubmissionID], chat)
	return nil
}

func (m *memory) CreateMessage(ctx context.Context, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createMessageLocked(msg)
}

func (m *memory) createMessageLocked(msg model.Message) error {
	if _, exists := m.chatIDs[msg.SubmissionChatID]; !exists {
		return errors.New("message references a missing chat")
	}
	m.messages[msg.SubmissionChatID] = append(m.messages[msg.SubmissionChatID], msg)
	return nil
}

// SaveRecordSet walks the record set parent-before-child under one lock.
func (m *memory) SaveRecordSet(ctx context.Context, rs *model.RecordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.createUserLocked(rs.User); err != nil {
		return err
	}
	if rs.Profile != nil {
		if err := m.createProfileLocked(*rs.Profile); err != nil {
			return err
		}
	}
	if err := m.createSubmissionLocked(rs.Submission); err != nil {
		return err
	}
	for _, cr := range rs.Chats {
		if err := m.createChatLocked(cr.Chat); err != nil {
			return err
		}
		for _, msg := range cr.Messages {
			if err := m.createMessageLocked(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *memory) GetUser(ctx context.Context, userID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[userID]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *memory) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, exists := m.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (m *memory) GetSubmission(ctx context.Context, submissionID string) (*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, exists := m.submissions[submissionID]
	if !exists {
		return nil, ErrNotFound
	}
	return sub, nil
}

func (m *memory) ListChats(ctx context.Context, submissionID string) ([]model.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, exists := m.submissions[submissionID]; !exists {
		return nil, ErrNotFound
	}
	chats := make([]model.Chat, len(m.chats[submissionID]))
	copy(chats, m.chats[submissionID])
	return chats, nil
}

func (m *memory) ListMessages(ctx context.Context, submissionChatID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs, exists := m.messages[submissionChatID]
	if !exists {
		return nil, ErrNotFound
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *memory) Close() {}
