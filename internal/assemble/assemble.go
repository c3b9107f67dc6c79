// internal/assemble/assemble.go
// Package assemble derives per-chat aggregates and assembles the final
// normalized record graph. Extractors produce shape-agnostic seeds; this
// package assigns fresh identifiers and wires foreign keys strictly
// top-down (user, submission, chat, messages), since every child id
// references a parent id that must already exist.
package assemble

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/chatdlp/telegram-refiner-go/internal/model"
)

// Seed is the shape-agnostic output of an extractor: everything needed to
// assemble one record set, before ids exist.
type Seed struct {
	SourcePlatform  string       // Platform name recorded on the user
	SourceUserID    string       // Source-native user identifier, unmasked
	SubmissionToken *string      // Opaque source reference, nil triggers a synthetic one
	Profile         *ProfileSeed // Masked account profile, legacy shape only
	Chats           []ChatSeed
}

// ProfileSeed carries the already-masked profile fields for the legacy shape.
type ProfileSeed struct {
	Username    string
	EmailMasked string
	PhoneMasked string
	IsBot       bool
	IsPremium   bool
	JoinDate    time.Time
}

// ChatSeed is one chat with its extracted messages. All aggregates are
// derived here, never carried in from the source.
type ChatSeed struct {
	SourceChatID string
	Messages     []MessageSeed
}

// MessageSeed is one extracted message.
type MessageSeed struct {
	SourceMessageID string
	SenderID        string // Resolved sender or model.SenderUnknown
	Date            time.Time
	ContentType     model.ContentType
	Content         *string
	ContentData     []byte
}

// Build assembles a referentially consistent record set from a seed.
// now is taken as an argument so that assembly is deterministic under test;
// it stamps creation/submission times and stands in for the first/last
// message dates of chats that carry no messages.
func Build(seed Seed, now time.Time) *model.RecordSet {
	user := model.User{
		UserID:          uuid.New().String(),
		Source:          seed.SourcePlatform,
		SourceUserID:    seed.SourceUserID,
		Status:          model.UserStatusActive,
		DateTimeCreated: now,
	}

	submission := model.Submission{
		SubmissionID:        uuid.New().String(),
		UserID:              user.UserID,
		SubmissionDate:      now,
		SubmissionReference: submissionReference(seed, now),
	}

	rs := &model.RecordSet{
		User:       user,
		Submission: submission,
	}

	if seed.Profile != nil {
		rs.Profile = &model.Profile{
			ProfileID:   uuid.New().String(),
			UserID:      user.UserID,
			Username:    seed.Profile.Username,
			EmailMasked: seed.Profile.EmailMasked,
			PhoneMasked: seed.Profile.PhoneMasked,
			IsBot:       seed.Profile.IsBot,
			IsPremium:   seed.Profile.IsPremium,
			JoinDate:    seed.Profile.JoinDate,
		}
	}

	for _, chatSeed := range seed.Chats {
		rs.Chats = append(rs.Chats, buildChat(chatSeed, submission.SubmissionID, now))
	}

	return rs
}

// buildChat derives the aggregates for one chat and assembles its messages.
func buildChat(seed ChatSeed, submissionID string, now time.Time) model.ChatRecords {
	first, last := now, now
	participants := make(map[string]struct{})

	for i, msg := range seed.Messages {
		if i == 0 || msg.Date.Before(first) {
			first = msg.Date
		}
		if i == 0 || msg.Date.After(last) {
			last = msg.Date
		}
		// Unresolved senders never count toward participants; the count is
		// the cardinality of resolved sender ids, bounded by message count.
		if msg.SenderID != model.SenderUnknown {
			participants[msg.SenderID] = struct{}{}
		}
	}

	chat := model.Chat{
		SubmissionChatID: uuid.New().String(),
		SubmissionID:     submissionID,
		SourceChatID:     seed.SourceChatID,
		FirstMessageDate: first,
		LastMessageDate:  last,
		ParticipantCount: len(participants),
		MessageCount:     len(seed.Messages),
	}

	messages := make([]model.Message, 0, len(seed.Messages))
	for _, msg := range seed.Messages {
		messages = append(messages, model.Message{
			MessageID:        uuid.New().String(),
			SubmissionChatID: chat.SubmissionChatID,
			SourceMessageID:  msg.SourceMessageID,
			SenderID:         msg.SenderID,
			MessageDate:      msg.Date,
			ContentType:      msg.ContentType,
			Content:          msg.Content,
			ContentData:      msg.ContentData,
		})
	}

	return model.ChatRecords{Chat: chat, Messages: messages}
}

// submissionReference returns the source-supplied reference, or a synthetic
// timestamp-derived one when the source carried none. A ULID keeps synthetic
// references sortable by submission time and collision-free within a batch.
func submissionReference(seed Seed, now time.Time) string {
	if seed.SubmissionToken != nil && *seed.SubmissionToken != "" {
		return *seed.SubmissionToken
	}
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	return fmt.Sprintf("%s-%s", strings.ToLower(seed.SourcePlatform), id.String())
}
