package refine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdlp/telegram-refiner-go/internal/artifact"
	"github.com/chatdlp/telegram-refiner-go/internal/event"
	"github.com/chatdlp/telegram-refiner-go/internal/model"
	"github.com/chatdlp/telegram-refiner-go/internal/publish"
	"github.com/chatdlp/telegram-refiner-go/internal/schema"
	"github.com/chatdlp/telegram-refiner-go/internal/shape"
	"github.com/chatdlp/telegram-refiner-go/internal/storage"
)

// capturingPublisher records the last published artifact for inspection.
type capturingPublisher struct {
	name    string
	payload []byte
}

func (c *capturingPublisher) Publish(ctx context.Context, name string, payload []byte) (*publish.Result, error) {
	c.name = name
	c.payload = append([]byte(nil), payload...)
	return &publish.Result{Reference: "captured/" + name}, nil
}

func newTestRefiner(t *testing.T, store storage.Store) *Refiner {
	t.Helper()
	r, err := New(store, event.NewPublisher(""), publish.NewNoop(), nil, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return r
}

const minerDoc = `{
	"source": "telegramMiner",
	"user": 44556677,
	"submission_token": "tok-abc",
	"chats": [
		{
			"chat_id": -100500,
			"contents": [
				{"id": 1, "date": 1700000000,
					"sender_id": {"type": "messageSenderUser", "user_id": 42},
					"content": {"type": "messageText", "text": {"text": "hello"}}},
				{"id": 2, "date": 1700000500,
					"sender_id": {"type": "messageSenderUser", "user_id": 43},
					"content": {"type": "messagePhoto", "caption": {"text": "sunset"}}},
				{"id": 3, "date": 1700000250,
					"content": {"type": "messageText", "text": "middle"}}
			]
		},
		{"chat_id": 8, "contents": []}
	]
}`

func TestProcessMinerDocument(t *testing.T) {
	store := storage.NewMemory()
	r := newTestRefiner(t, store)
	ctx := context.Background()

	outcome, err := r.Process(ctx, []byte(minerDoc))
	require.NoError(t, err)
	assert.Equal(t, shape.Miner, outcome.Shape)

	rs := outcome.RecordSet
	assert.Equal(t, "Telegram", rs.User.Source)
	assert.Equal(t, "44556677", rs.User.SourceUserID)
	assert.Equal(t, model.UserStatusActive, rs.User.Status)
	assert.Equal(t, "tok-abc", rs.Submission.SubmissionReference)

	// Persisted, not just assembled.
	user, err := store.GetUser(ctx, rs.User.UserID)
	require.NoError(t, err)
	assert.Equal(t, "44556677", user.SourceUserID)

	chats, err := store.ListChats(ctx, rs.Submission.SubmissionID)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	var full, empty *model.Chat
	for i := range chats {
		switch chats[i].SourceChatID {
		case "-100500":
			full = &chats[i]
		case "8":
			empty = &chats[i]
		}
	}
	require.NotNil(t, full)
	require.NotNil(t, empty)

	// Aggregates are derived from the messages.
	assert.Equal(t, 3, full.MessageCount)
	assert.Equal(t, 2, full.ParticipantCount) // 42 and 43; unresolved sender excluded
	assert.Equal(t, int64(1700000000), full.FirstMessageDate.Unix())
	assert.Equal(t, int64(1700000500), full.LastMessageDate.Unix())

	// An empty chat still exists with zero counts.
	assert.Equal(t, 0, empty.MessageCount)
	assert.Equal(t, 0, empty.ParticipantCount)

	msgs, err := store.ListMessages(ctx, full.SubmissionChatID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
}

func TestProcessLegacyDocumentMasksProfile(t *testing.T) {
	raw := []byte(`{
		"userId": "legacy-9",
		"email": "someone@example.net",
		"timestamp": 1700000000,
		"profile": {"name": "Someone", "locale": "de"},
		"telegramData": {
			"username": "someone",
			"phoneNumber": "+4915112345678",
			"isBot": false,
			"isPremium": false,
			"joinDate": 1500000000,
			"messages": [
				{"messageId": 1, "chatId": 11, "timestamp": 1700000001, "text": "hallo", "isOutgoing": true}
			],
			"chats": []
		}
	}`)

	store := storage.NewMemory()
	r := newTestRefiner(t, store)
	ctx := context.Background()

	outcome, err := r.Process(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, shape.Legacy, outcome.Shape)

	profile, err := store.GetProfile(ctx, outcome.RecordSet.User.UserID)
	require.NoError(t, err)
	assert.NotContains(t, profile.EmailMasked, "someone@")
	assert.Contains(t, profile.EmailMasked, "@example.net")
	assert.NotContains(t, profile.PhoneMasked, "+49151")
	assert.Contains(t, profile.PhoneMasked, "5678")
}

func TestProcessUnrecognizedDiscriminator(t *testing.T) {
	// No source field at all: falls back to the miner shape instead of
	// dropping the document.
	raw := []byte(`{
		"user": 777,
		"chats": [
			{"chat_id": 1, "contents": [
				{"id": 1, "date": 1700000000,
					"sender_id": {"type": "messageSenderUser", "user_id": 9},
					"content": {"type": "messageText", "text": "still processed"}}
			]}
		]
	}`)

	store := storage.NewMemory()
	r := newTestRefiner(t, store)
	ctx := context.Background()

	outcome, err := r.Process(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, shape.Miner, outcome.Shape)

	chats, err := store.ListChats(ctx, outcome.RecordSet.Submission.SubmissionID)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, 1, chats[0].MessageCount)
	assert.Equal(t, 1, chats[0].ParticipantCount)
}

func TestProcessRejectsInvalidDocuments(t *testing.T) {
	r := newTestRefiner(t, storage.NewMemory())
	ctx := context.Background()

	_, err := r.Process(ctx, []byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFN_INPUT_DECODE")

	// Miner shape without the required chats array.
	_, err = r.Process(ctx, []byte(`{"source": "telegramMiner", "user": 1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFN_SCHEMA_REJECT")
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(minerDoc), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"source": "telegramMiner"}`), 0o644))

	store := storage.NewMemory()
	r := newTestRefiner(t, store)

	summary, err := r.Run(context.Background(), []string{bad, good})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Documents, 2)
	assert.NotEmpty(t, summary.Documents[0].Error)
	assert.Empty(t, summary.Documents[1].Error)
	assert.NotEmpty(t, summary.Documents[1].SubmissionID)

	// The good document made it to storage despite the earlier failure.
	_, err = store.GetSubmission(context.Background(), summary.Documents[1].SubmissionID)
	require.NoError(t, err)
}

func TestRunSealsAndPublishesArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(minerDoc), 0o644))

	sealer, err := artifact.NewSealer("test-key")
	require.NoError(t, err)
	captured := &capturingPublisher{}

	r, err := New(storage.NewMemory(), event.NewPublisher(""), captured, sealer, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	summary, err := r.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, "captured/"+captured.name, summary.ArtifactReference)
	require.NotEmpty(t, captured.payload)

	// The published payload is sealed and round-trips to the record sets.
	opened, err := sealer.Open(captured.payload)
	require.NoError(t, err)

	var refined []model.RecordSet
	require.NoError(t, json.Unmarshal(opened, &refined))
	require.Len(t, refined, 1)
	assert.Equal(t, "44556677", refined[0].User.SourceUserID)
}

func TestWriteSummaryAndDescriptor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	summaryPath, err := WriteSummary(&Summary{Processed: 2}, dir)
	require.NoError(t, err)
	assert.FileExists(t, summaryPath)

	desc := schema.NewDescriptor("telegram-refined", "0.0.1", "test", "sqlite")
	descPath, err := WriteDescriptor(desc, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(descPath)
	require.NoError(t, err)

	var decoded schema.Descriptor
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "telegram-refined", decoded.Name)
	assert.Len(t, decoded.Tables, 5)
}
