package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatdlp/telegram-refiner-go/internal/model"
)

func sampleRecordSet(now time.Time) *model.RecordSet {
	content := "hello"
	return &model.RecordSet{
		User: model.User{
			UserID:          "u-1",
			Source:          "Telegram",
			SourceUserID:    "44556677",
			Status:          model.UserStatusActive,
			DateTimeCreated: now,
		},
		Profile: &model.Profile{
			ProfileID:   "p-1",
			UserID:      "u-1",
			Username:    "ada",
			EmailMasked: "abc123@example.com",
			PhoneMasked: "deadbeef****1234",
			JoinDate:    now,
		},
		Submission: model.Submission{
			SubmissionID:        "s-1",
			UserID:              "u-1",
			SubmissionDate:      now,
			SubmissionReference: "tok-1",
		},
		Chats: []model.ChatRecords{
			{
				Chat: model.Chat{
					SubmissionChatID: "c-1",
					SubmissionID:     "s-1",
					SourceChatID:     "-100",
					FirstMessageDate: now,
					LastMessageDate:  now,
					ParticipantCount: 1,
					MessageCount:     1,
				},
				Messages: []model.Message{
					{
						MessageID:        "m-1",
						SubmissionChatID: "c-1",
						SourceMessageID:  "9",
						SenderID:         "42",
						MessageDate:      now,
						ContentType:      model.ContentText,
						Content:          &content,
					},
				},
			},
		},
	}
}

func TestMemorySaveAndRead(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.SaveRecordSet(ctx, sampleRecordSet(now)); err != nil {
		t.Fatalf("SaveRecordSet() error = %v", err)
	}

	user, err := store.GetUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.SourceUserID != "44556677" {
		t.Errorf("user.SourceUserID = %v, want %v", user.SourceUserID, "44556677")
	}

	profile, err := store.GetProfile(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.Username != "ada" {
		t.Errorf("profile.Username = %v, want %v", profile.Username, "ada")
	}

	sub, err := store.GetSubmission(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if sub.SubmissionReference != "tok-1" {
		t.Errorf("sub.SubmissionReference = %v, want %v", sub.SubmissionReference, "tok-1")
	}

	chats, err := store.ListChats(ctx, "s-1")
	if err != nil {
		t.Fatalf("ListChats() error = %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("len(chats) = %v, want 1", len(chats))
	}

	msgs, err := store.ListMessages(ctx, "c-1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %v, want 1", len(msgs))
	}
	if msgs[0].SenderID != "42" {
		t.Errorf("msgs[0].SenderID = %v, want %v", msgs[0].SenderID, "42")
	}
}

func TestMemoryConflict(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.SaveRecordSet(ctx, sampleRecordSet(now)); err != nil {
		t.Fatalf("SaveRecordSet() error = %v", err)
	}
	if err := store.SaveRecordSet(ctx, sampleRecordSet(now)); !errors.Is(err, ErrConflict) {
		t.Errorf("SaveRecordSet() second call error = %v, want ErrConflict", err)
	}
}

func TestMemoryReferentialChecks(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	rs := sampleRecordSet(now)
	rs.Chats[0].Messages[0].SubmissionChatID = "c-other"
	if err := store.SaveRecordSet(ctx, rs); err == nil {
		t.Error("SaveRecordSet() with a dangling message reference succeeded, want error")
	}
}

func TestMemoryGranularCreates(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()
	rs := sampleRecordSet(now)

	// Children are rejected until their parents exist.
	if err := store.CreateSubmission(ctx, rs.Submission); err == nil {
		t.Error("CreateSubmission() without its user succeeded, want error")
	}
	if err := store.CreateChat(ctx, rs.Chats[0].Chat); err == nil {
		t.Error("CreateChat() without its submission succeeded, want error")
	}
	if err := store.CreateMessage(ctx, rs.Chats[0].Messages[0]); err == nil {
		t.Error("CreateMessage() without its chat succeeded, want error")
	}

	// Parent-before-child order succeeds.
	if err := store.CreateUser(ctx, rs.User); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := store.CreateProfile(ctx, *rs.Profile); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if err := store.CreateProfile(ctx, *rs.Profile); !errors.Is(err, ErrConflict) {
		t.Errorf("CreateProfile() second call error = %v, want ErrConflict", err)
	}
	if err := store.CreateSubmission(ctx, rs.Submission); err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}
	if err := store.CreateChat(ctx, rs.Chats[0].Chat); err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if err := store.CreateMessage(ctx, rs.Chats[0].Messages[0]); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	msgs, err := store.ListMessages(ctx, rs.Chats[0].Chat.SubmissionChatID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("len(msgs) = %v, want 1", len(msgs))
	}
}

func TestMemoryNotFound(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if _, err := store.GetUser(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser() error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetProfile(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrNotFound", err)
	}
	if _, err := store.ListChats(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListChats() error = %v, want ErrNotFound", err)
	}
}
