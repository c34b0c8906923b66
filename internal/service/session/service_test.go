package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/soothe/backend/internal/analysis/risk"
	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/model/mood"
	"github.com/zhouzirui/soothe/backend/internal/service/reply"
	"github.com/zhouzirui/soothe/backend/internal/service/resources"
	"github.com/zhouzirui/soothe/backend/internal/service/session"
	"github.com/zhouzirui/soothe/backend/internal/storage"
)

type stubReplier struct {
	result chat.ReplyResult
	convs  []chat.Conversation
}

func (s *stubReplier) Generate(_ context.Context, conv chat.Conversation) chat.ReplyResult {
	s.convs = append(s.convs, conv)
	return s.result
}

// failingStore rejects every chat write.
type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) LogMessage(context.Context, string, chat.Role, string) error {
	return errors.New("disk full")
}

// ctxStore fails writes whose context is already done.
type ctxStore struct {
	*storage.MemoryStore
}

func (s ctxStore) LogMessage(ctx context.Context, userID string, role chat.Role, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.LogMessage(ctx, userID, role, content)
}

// cancellingReplier simulates the caller disconnecting mid-generation.
type cancellingReplier struct {
	cancel context.CancelFunc
}

func (r cancellingReplier) Generate(context.Context, chat.Conversation) chat.ReplyResult {
	r.cancel()
	return chat.ReplyResult{Text: "still here", Engine: chat.EngineLocal}
}

// scriptedReplier returns the result registered for the message text.
type scriptedReplier map[string]chat.ReplyResult

func (r scriptedReplier) Generate(_ context.Context, conv chat.Conversation) chat.ReplyResult {
	return r[conv[len(conv)-1].Content]
}

func containsOne(text string, pool []string) bool {
	count := 0
	for _, candidate := range pool {
		if strings.Contains(text, candidate) {
			count++
		}
	}
	return count == 1
}

func TestHandleMessageConcernWithoutRemoteClient(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := reply.NewEngine(reply.DefaultConfig(), nil, errors.New("OPENAI_API_KEY not set"), nil, nil)
	svc := session.NewService(store, engine, resources.NewDirectory("IN"), session.Options{})

	turn, err := svc.HandleMessage(ctx, "u1", "I can't cope and feel worthless", "")
	require.NoError(t, err)

	assert.Equal(t, risk.Concern, turn.Assessment.Risk)
	assert.Empty(t, turn.Banner)
	assert.Empty(t, turn.Resources)
	assert.Equal(t, chat.EngineLocal, turn.Reply.Engine)
	assert.True(t, containsOne(turn.Reply.Text, reply.Openers))
	assert.True(t, containsOne(turn.Reply.Text, reply.Suggestions))
	assert.True(t, containsOne(turn.Reply.Text, reply.Questions))
	assert.Empty(t, turn.Warnings)

	logged, err := store.Messages(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	assert.Equal(t, chat.RoleUser, logged[0].Role)
	assert.Equal(t, "I can't cope and feel worthless", logged[0].Content)
	assert.Equal(t, chat.RoleAssistant, logged[1].Role)
	assert.Equal(t, turn.Reply.Text, logged[1].Content)

	status := svc.Status("u1")
	assert.Equal(t, chat.EngineLocal, status.Mode)
	assert.Equal(t, chat.EngineLocal, status.LastEngine)
	assert.Equal(t, "OPENAI_API_KEY not set", status.LastDiagnostic)
}

func TestHandleMessageCrisisShowsBannerAndStillReplies(t *testing.T) {
	replier := &stubReplier{result: chat.ReplyResult{Text: "I'm really glad you reached out.", Engine: chat.EngineRemote}}
	svc := session.NewService(storage.NewMemoryStore(), replier, resources.NewDirectory("IN"), session.Options{Mode: chat.EngineRemote})

	turn, err := svc.HandleMessage(context.Background(), "u1", "I feel hopeless and want to kill myself", "IE")
	require.NoError(t, err)

	assert.Equal(t, risk.Crisis, turn.Assessment.Risk)
	assert.NotEmpty(t, turn.Banner)
	assert.Contains(t, turn.Resources, "Ireland: In an emergency, dial 112 or 999.")
	assert.Equal(t, "I'm really glad you reached out.", turn.Reply.Text)

	require.Len(t, replier.convs, 1)
	assert.Equal(t, chat.Conversation{chat.UserMessage("I feel hopeless and want to kill myself")}, replier.convs[0])
}

func TestHandleMessageSurvivesPersistenceFailure(t *testing.T) {
	replier := &stubReplier{result: chat.ReplyResult{Text: "ok", Engine: chat.EngineRemote}}
	svc := session.NewService(failingStore{storage.NewMemoryStore()}, replier, resources.NewDirectory(""), session.Options{})

	turn, err := svc.HandleMessage(context.Background(), "u1", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", turn.Reply.Text)
	assert.Len(t, turn.Warnings, 2)
}

func TestHandleMessageValidatesInput(t *testing.T) {
	svc := session.NewService(storage.NewMemoryStore(), &stubReplier{}, resources.NewDirectory(""), session.Options{})

	_, err := svc.HandleMessage(context.Background(), "", "hello", "")
	assert.ErrorIs(t, err, session.ErrUserRequired)

	_, err = svc.HandleMessage(context.Background(), "u1", "   ", "")
	assert.ErrorIs(t, err, session.ErrEmptyMessage)
}

func TestRegisterUserMintsID(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := session.NewService(store, &stubReplier{}, resources.NewDirectory(""), session.Options{})

	name := "  Sam "
	id, err := svc.RegisterUser(context.Background(), "", &name)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	user, ok := store.User(id)
	require.True(t, ok)
	assert.Equal(t, "Sam", *user.DisplayName)
}

func TestCheckInMoodDefaultsToToday(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	svc := session.NewService(storage.NewMemoryStore(), &stubReplier{}, resources.NewDirectory(""), session.Options{
		Now: func() time.Time { return fixed },
	})

	entry, err := svc.CheckInMood(context.Background(), "u1", 4, " met a friend ", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", entry.Date)
	require.NotNil(t, entry.Note)
	assert.Equal(t, "met a friend", *entry.Note)

	series, err := svc.MoodSeries(context.Background(), "u1", 14)
	require.NoError(t, err)
	assert.Equal(t, []mood.Point{{Date: "2026-10-19", Value: 4}}, series)

	_, err = svc.CheckInMood(context.Background(), "u1", 0, "", "")
	assert.ErrorIs(t, err, storage.ErrInvalidMood)
}

func TestStatusIsTrackedPerUser(t *testing.T) {
	replier := scriptedReplier{
		"hi from alice": {Text: "hello alice", Engine: chat.EngineRemote},
		"hi from bob":   {Text: "hello bob", Engine: chat.EngineLocal, Diagnostic: "responses.create: 401"},
	}
	svc := session.NewService(storage.NewMemoryStore(), replier, resources.NewDirectory(""), session.Options{Mode: chat.EngineRemote, Model: "gpt-4o-mini"})

	_, err := svc.HandleMessage(context.Background(), "alice", "hi from alice", "")
	require.NoError(t, err)
	_, err = svc.HandleMessage(context.Background(), "bob", "hi from bob", "")
	require.NoError(t, err)

	alice := svc.Status("alice")
	assert.Equal(t, chat.EngineRemote, alice.LastEngine)
	assert.Empty(t, alice.LastDiagnostic)

	bob := svc.Status("bob")
	assert.Equal(t, chat.EngineLocal, bob.LastEngine)
	assert.Equal(t, "responses.create: 401", bob.LastDiagnostic)

	nobody := svc.Status("")
	assert.Equal(t, session.Status{Mode: chat.EngineRemote, Model: "gpt-4o-mini"}, nobody)
}

func TestHandleMessageLogsReplyAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := storage.NewMemoryStore()
	svc := session.NewService(ctxStore{store}, cancellingReplier{cancel: cancel}, resources.NewDirectory(""), session.Options{})

	turn, err := svc.HandleMessage(ctx, "u1", "hello", "")
	require.NoError(t, err)
	assert.Empty(t, turn.Warnings)

	logged, err := store.Messages(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	assert.Equal(t, chat.RoleAssistant, logged[1].Role)
	assert.Equal(t, "still here", logged[1].Content)
}
