// internal/storage/postgres.go
// Package storage provides PostgreSQL implementation of the Store interface.
// This implementation is intended for production use with persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatdlp/telegram-refiner-go/internal/model"
)

// It provides persistent storage for users, submissions, chats and messages.
type postgres struct {
	db *pgxpool.Pool // Connection pool to PostgreSQL database
}

// NewPostgres creates a new PostgreSQL storage implementation.
// It establishes a connection pool to the database and initializes the schema.
// Parameters:
//   - dsn: Database connection string in PostgreSQL format
// Returns:
//   - Store: Implementation of the storage interface
//   - error: Any error that occurred during initialization
func NewPostgres(dsn string) (Store, error) {
	// Parse the database connection string
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	// Configure connection pool settings for optimal performance
	// Maximum number of connections
	config.MaxConns = 20
	// Minimum number of connections
	config.MinConns = 5
	// Maximum lifetime of a connection
	config.MaxConnLifetime = time.Hour
	// Maximum idle time before closing
	config.MaxConnIdleTime = time.Minute * 30
	// How often to check connection health
	config.HealthCheckPeriod = time.Minute

	// Establish connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Create connection pool
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize database schema
	if err := initSchema(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &postgres{db: pool}, nil
}

// initSchema initializes the database schema.
// It creates all required tables and indexes if they don't already exist.
// This function is called automatically when creating a new PostgreSQL store.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	// SQL schema definition with all required tables and indexes
	schema := `
		-- Users table, one row per data subject per submission batch
		CREATE TABLE IF NOT EXISTS users (
		    user_id TEXT PRIMARY KEY,                -- Generated unique identifier
		    source TEXT NOT NULL,                    -- Source platform name
		    source_user_id TEXT NOT NULL,            -- Source-native user identifier
		    status TEXT NOT NULL,                    -- Lifecycle status
		    datetime_created TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()  -- Creation time
		);

		-- Account profiles, legacy-shape submissions only, masked fields
		CREATE TABLE IF NOT EXISTS account_profiles (
		    profile_id TEXT PRIMARY KEY,             -- Generated unique identifier
		    user_id TEXT NOT NULL REFERENCES users(user_id),  -- Owning user
		    username TEXT NOT NULL,                  -- Source account username
		    email_masked TEXT NOT NULL,              -- Masked email address
		    phone_masked TEXT NOT NULL,              -- Masked phone number
		    is_bot BOOLEAN NOT NULL,                 -- Whether the account is a bot
		    is_premium BOOLEAN NOT NULL,             -- Whether the account has premium status
		    join_date TIMESTAMP WITH TIME ZONE NOT NULL,  -- Platform join time
		    UNIQUE(user_id)                          -- One profile per user
		);

		-- Submissions table, one row per ingested input document
		CREATE TABLE IF NOT EXISTS submissions (
		    submission_id TEXT PRIMARY KEY,          -- Generated unique identifier
		    user_id TEXT NOT NULL REFERENCES users(user_id),  -- Owning user
		    submission_date TIMESTAMP WITH TIME ZONE NOT NULL,  -- Ingestion time
		    submission_reference TEXT NOT NULL       -- Opaque source reference
		);

		-- Submission chats table with derived aggregates
		CREATE TABLE IF NOT EXISTS submission_chats (
		    submission_chat_id TEXT PRIMARY KEY,     -- Generated unique identifier
		    submission_id TEXT NOT NULL REFERENCES submissions(submission_id),  -- Owning submission
		    source_chat_id TEXT NOT NULL,            -- Source-native chat id
		    first_message_date TIMESTAMP WITH TIME ZONE NOT NULL,  -- Earliest message in the chat
		    last_message_date TIMESTAMP WITH TIME ZONE NOT NULL,   -- Latest message in the chat
		    participant_count INTEGER NOT NULL,      -- Distinct resolved senders
		    message_count INTEGER NOT NULL           -- Number of messages
		);

		-- Chat messages table
		CREATE TABLE IF NOT EXISTS chat_messages (
		    message_id TEXT PRIMARY KEY,             -- Generated unique identifier
		    submission_chat_id TEXT NOT NULL REFERENCES submission_chats(submission_chat_id),  -- Owning chat
		    source_message_id TEXT NOT NULL,         -- Source-native message identifier
		    sender_id TEXT NOT NULL,                 -- Resolved sender or unknown sentinel
		    message_date TIMESTAMP WITH TIME ZONE NOT NULL,  -- Message timestamp
		    content_type TEXT NOT NULL,              -- Normalized content category
		    content TEXT,                            -- Text content, nullable
		    content_data BYTEA                       -- Extracted binary, nullable
		);

		-- Indexes to improve query performance
		CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions(user_id);
		CREATE INDEX IF NOT EXISTS idx_submission_chats_submission_id ON submission_chats(submission_id);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_chat_id ON chat_messages(submission_chat_id);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_date ON chat_messages(message_date);
	`

	// Execute the schema creation SQL
	_, err := db.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool
func (p *postgres) Close() {
	p.db.Close()
}

// SaveRecordSet persists the record set inside a single transaction so a
// failure at any depth leaves no partial submission behind.
func (p *postgres) SaveRecordSet(ctx context.Context, rs *model.RecordSet) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO users (user_id, source, source_user_id, status, datetime_created)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.Exec(ctx, query,
		rs.User.UserID,
		rs.User.Source,
		rs.User.SourceUserID,
		rs.User.Status,
		rs.User.DateTimeCreated)
	if err != nil {
		return classify(err, "failed to create user")
	}

	if rs.Profile != nil {
		query = `INSERT INTO account_profiles (profile_id, user_id, username, email_masked, phone_masked, is_bot, is_premium, join_date)
		         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err = tx.Exec(ctx, query,
			rs.Profile.ProfileID,
			rs.Profile.UserID,
			rs.Profile.Username,
			rs.Profile.EmailMasked,
			rs.Profile.PhoneMasked,
			rs.Profile.IsBot,
			rs.Profile.IsPremium,
			rs.Profile.JoinDate)
		if err != nil {
			return classify(err, "failed to create profile")
		}
	}

	query = `INSERT INTO submissions (submission_id, user_id, submission_date, submission_reference)
	         VALUES ($1, $2, $3, $4)`
	_, err = tx.Exec(ctx, query,
		rs.Submission.SubmissionID,
		rs.Submission.UserID,
		rs.Submission.SubmissionDate,
		rs.Submission.SubmissionReference)
	if err != nil {
		return classify(err, "failed to create submission")
	}

	for _, cr := range rs.Chats {
		query = `INSERT INTO submission_chats (submission_chat_id, submission_id, source_chat_id, first_message_date, last_message_date, participant_count, message_count)
		         VALUES ($1, $2, $3, $4, $5, $6, $7)`
		_, err = tx.Exec(ctx, query,
			cr.Chat.SubmissionChatID,
			cr.Chat.SubmissionID,
			cr.Chat.SourceChatID,
			cr.Chat.FirstMessageDate,
			cr.Chat.LastMessageDate,
			cr.Chat.ParticipantCount,
			cr.Chat.MessageCount)
		if err != nil {
			return classify(err, "failed to create chat")
		}

		for _, msg := range cr.Messages {
			query = `INSERT INTO chat_messages (message_id, submission_chat_id, source_message_id, sender_id, message_date, content_type, content, content_data)
			         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
			_, err = tx.Exec(ctx, query,
				msg.MessageID,
				msg.SubmissionChatID,
				msg.SourceMessageID,
				msg.SenderID,
				msg.MessageDate,
				string(msg.ContentType),
				msg.Content,
				msg.ContentData)
			if err != nil {
				return classify(err, "failed to create message")
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit record set: %w", err)
	}
	return nil
}

// CreateUser inserts one user row
func (p *postgres) CreateUser(ctx context.Context, user model.User) error {
	query := `INSERT INTO users (user_id, source, source_user_id, status, datetime_created)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := p.db.Exec(ctx, query,
		user.UserID,
		user.Source,
		user.SourceUserID,
		user.Status,
		user.DateTimeCreated)
	if err != nil {
		return classify(err, "failed to create user")
	}
	return nil
}

// CreateProfile inserts one account profile row
func (p *postgres) CreateProfile(ctx context.Context, profile model.Profile) error {
	query := `INSERT INTO account_profiles (profile_id, user_id, username, email_masked, phone_masked, is_bot, is_premium, join_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := p.db.Exec(ctx, query,
		profile.ProfileID,
		profile.UserID,
		profile.Username,
		profile.EmailMasked,
		profile.PhoneMasked,
		profile.IsBot,
		profile.IsPremium,
		profile.JoinDate)
	if err != nil {
		return classify(err, "failed to create profile")
	}
	return nil
}

// CreateSubmission inserts one submission row
func (p *postgres) CreateSubmission(ctx context.Context, sub model.Submission) error {
	query := `INSERT INTO submissions (submission_id, user_id, submission_date, submission_reference)
	          VALUES ($1, $2, $3, $4)`
	_, err := p.db.Exec(ctx, query,
		sub.SubmissionID,
		sub.UserID,
		sub.SubmissionDate,
		sub.SubmissionReference)
	if err != nil {
		return classify(err, "failed to create submission")
	}
	return nil
}

// CreateChat inserts one submission chat row
func (p *postgres) CreateChat(ctx context.Context, chat model.Chat) error {
	query := `INSERT INTO submission_chats (submission_chat_id, submission_id, source_chat_id, first_message_date, last_message_date, participant_count, message_count)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := p.db.Exec(ctx, query,
		chat.SubmissionChatID,
		chat.SubmissionID,
		chat.SourceChatID,
		chat.FirstMessageDate,
		chat.LastMessageDate,
		chat.ParticipantCount,
		chat.MessageCount)
	if err != nil {
		return classify(err, "failed to create chat")
	}
	return nil
}

// CreateMessage inserts one chat message row
func (p *postgres) CreateMessage(ctx context.Context, msg model.Message) error {
	query := `INSERT INTO chat_messages (message_id, submission_chat_id, source_message_id, sender_id, message_date, content_type, content, content_data)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := p.db.Exec(ctx, query,
		msg.MessageID,
		msg.SubmissionChatID,
		msg.SourceMessageID,
		msg.SenderID,
		msg.MessageDate,
		string(msg.ContentType),
		msg.Content,
		msg.ContentData)
	if err != nil {
		return classify(err, "failed to create message")
	}
	return nil
}

// classify maps a unique-violation error onto ErrConflict and wraps
// everything else.
func classify(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// GetUser retrieves a user by its generated identifier
func (p *postgres) GetUser(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT user_id, source, source_user_id, status, datetime_created FROM users WHERE user_id = $1`
	var user model.User

	err := p.db.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Source,
		&user.SourceUserID,
		&user.Status,
		&user.DateTimeCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetProfile retrieves the account profile of a user
func (p *postgres) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT profile_id, user_id, username, email_masked, phone_masked, is_bot, is_premium, join_date
	          FROM account_profiles WHERE user_id = $1`
	var profile model.Profile

	err := p.db.QueryRow(ctx, query, userID).Scan(
		&profile.ProfileID,
		&profile.UserID,
		&profile.Username,
		&profile.EmailMasked,
		&profile.PhoneMasked,
		&profile.IsBot,
		&profile.IsPremium,
		&profile.JoinDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// GetSubmission retrieves a submission by its generated identifier
func (p *postgres) GetSubmission(ctx context.Context, submissionID string) (*model.Submission, error) {
	query := `SELECT submission_id, user_id, submission_date, submission_reference FROM submissions WHERE submission_id = $1`
	var sub model.Submission

	err := p.db.QueryRow(ctx, query, submissionID).Scan(
		&sub.SubmissionID,
		&sub.UserID,
		&sub.SubmissionDate,
		&sub.SubmissionReference,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &sub, nil
}

// ListChats lists the chats of one submission
func (p *postgres) ListChats(ctx context.Context, submissionID string) ([]model.Chat, error) {
	query := `SELECT submission_chat_id, submission_id, source_chat_id, first_message_date, last_message_date, participant_count, message_count
	          FROM submission_chats WHERE submission_id = $1 ORDER BY first_message_date`

	rows, err := p.db.Query(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		var chat model.Chat
		err := rows.Scan(
			&chat.SubmissionChatID,
			&chat.SubmissionID,
			&chat.SourceChatID,
			&chat.FirstMessageDate,
			&chat.LastMessageDate,
			&chat.ParticipantCount,
			&chat.MessageCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return chats, nil
}

// ListMessages lists the messages of one chat
func (p *postgres) ListMessages(ctx context.Context, submissionChatID string) ([]model.Message, error) {
	query := `SELECT message_id, submission_chat_id, source_message_id, sender_id, message_date, content_type, content, content_data
	          FROM chat_messages WHERE submission_chat_id = $1 ORDER BY message_date`

	rows, err := p.db.Query(ctx, query, submissionChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var msg model.Message
		err := rows.Scan(
			&msg.MessageID,
			&msg.SubmissionChatID,
			&msg.SourceMessageID,
			&msg.SenderID,
			&msg.MessageDate,
			&msg.ContentType,
			&msg.Content,
			&msg.ContentData,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return msgs, nil
}
