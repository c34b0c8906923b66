package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/soothe/backend/internal/analysis/risk"
	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/model/mood"
	"github.com/zhouzirui/soothe/backend/internal/storage"
)

var (
	ErrEmptyMessage = errors.New("message text is required")
	ErrUserRequired = storage.ErrUserRequired
)

// Replier produces a reply for a conversation. It must not fail.
type Replier interface {
	Generate(ctx context.Context, conv chat.Conversation) chat.ReplyResult
}

// Resources supplies crisis advisory text for a locale.
type Resources interface {
	SafetyBanner(countryCode string) string
	EmergencyLines(countryCode string) []string
}

// Turn is everything produced while handling one inbound user message.
type Turn struct {
	UserID     string           `json:"userId"`
	Message    string           `json:"message"`
	Assessment risk.Assessment  `json:"assessment"`
	Banner     string           `json:"banner,omitempty"`
	Resources  []string         `json:"resources,omitempty"`
	Reply      chat.ReplyResult `json:"reply"`
	// Warnings lists persistence failures; the turn still completes.
	Warnings []string `json:"warnings,omitempty"`
}

// Status mirrors what the UI shows about the reply path.
type Status struct {
	Mode           chat.Engine `json:"mode"`
	Model          string      `json:"model,omitempty"`
	LastEngine     chat.Engine `json:"lastEngine,omitempty"`
	LastDiagnostic string      `json:"lastDiagnostic,omitempty"`
}

// Service wires one inbound message through risk assessment, reply
// generation and persistence.
type Service struct {
	store     storage.Store
	replier   Replier
	resources Resources
	mode      chat.Engine
	model     string
	logger    *zap.Logger
	now       func() time.Time

	mu sync.RWMutex
	// last holds the most recent reply outcome per user.
	last map[string]chat.ReplyResult
}

// Options carries optional collaborators of the Service.
type Options struct {
	// Mode and Model describe the configured reply path for Status.
	Mode   chat.Engine
	Model  string
	Logger *zap.Logger
	Now    func() time.Time
}

// NewService creates the orchestrator.
func NewService(store storage.Store, replier Replier, resources Resources, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	mode := opts.Mode
	if mode == "" {
		mode = chat.EngineLocal
	}
	return &Service{
		store:     store,
		replier:   replier,
		resources: resources,
		mode:      mode,
		model:     opts.Model,
		logger:    logger.Named("session"),
		now:       now,
		last:      make(map[string]chat.ReplyResult),
	}
}

// RegisterUser records a visitor, minting an ID when userID is blank.
func (s *Service) RegisterUser(ctx context.Context, userID string, displayName *string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	}
	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if trimmed == "" {
			displayName = nil
		} else {
			displayName = &trimmed
		}
	}

	if err := s.store.UpsertUser(ctx, userID, displayName); err != nil {
		s.logger.Error("failed to upsert user", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}
	return userID, nil
}

// HandleMessage processes one user message end to end. Persistence is
// best-effort: write failures are logged and returned as warnings.
func (s *Service) HandleMessage(ctx context.Context, userID, text, countryCode string) (*Turn, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	log := s.logger.With(zap.String("user_id", userID))
	turn := &Turn{UserID: userID, Message: text}

	if err := s.store.LogMessage(ctx, userID, chat.RoleUser, text); err != nil {
		log.Error("failed to log user message", zap.Error(err))
		turn.Warnings = append(turn.Warnings, "user message not saved: "+err.Error())
	}

	turn.Assessment = risk.Assess(text)
	if turn.Assessment.IsCrisis() {
		log.Warn("crisis language detected", zap.String("reason", turn.Assessment.Reason))
		turn.Banner = s.resources.SafetyBanner(countryCode)
		turn.Resources = s.resources.EmergencyLines(countryCode)
	}

	turn.Reply = s.replier.Generate(ctx, chat.Conversation{chat.UserMessage(text)})
	s.remember(userID, turn.Reply)

	// The reply is logged even if the caller went away during generation.
	if err := s.store.LogMessage(context.WithoutCancel(ctx), userID, chat.RoleAssistant, turn.Reply.Text); err != nil {
		log.Error("failed to log assistant reply", zap.Error(err))
		turn.Warnings = append(turn.Warnings, "reply not saved: "+err.Error())
	}

	log.Info("turn completed",
		zap.String("risk", string(turn.Assessment.Risk)),
		zap.String("engine", string(turn.Reply.Engine)),
		zap.String("diagnostic", turn.Reply.Diagnostic),
	)
	return turn, nil
}

// Transcript returns the newest limit logged messages for userID.
func (s *Service) Transcript(ctx context.Context, userID string, limit int) ([]chat.LogEntry, error) {
	return s.store.Messages(ctx, strings.TrimSpace(userID), limit)
}

// CheckInMood stores today's (or date's) mood for userID.
func (s *Service) CheckInMood(ctx context.Context, userID string, value int, note, date string) (mood.Entry, error) {
	entry := mood.Entry{
		UserID: strings.TrimSpace(userID),
		Date:   strings.TrimSpace(date),
		Value:  value,
	}
	if entry.Date == "" {
		entry.Date = mood.Today(s.now())
	}
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		entry.Note = &trimmed
	}

	if err := s.store.LogMood(ctx, entry); err != nil {
		return mood.Entry{}, err
	}
	return entry, nil
}

// MoodSeries returns up to days check-ins, oldest first.
func (s *Service) MoodSeries(ctx context.Context, userID string, days int) ([]mood.Point, error) {
	return s.store.FetchMoodSeries(ctx, strings.TrimSpace(userID), days)
}

// Status reports the configured mode and userID's most recent reply
// outcome. A blank or unknown userID yields only the mode and model.
func (s *Service) Status(userID string) Status {
	s.mu.RLock()
	last := s.last[strings.TrimSpace(userID)]
	s.mu.RUnlock()
	return Status{
		Mode:           s.mode,
		Model:          s.model,
		LastEngine:     last.Engine,
		LastDiagnostic: last.Diagnostic,
	}
}

func (s *Service) remember(userID string, result chat.ReplyResult) {
	s.mu.Lock()
	s.last[userID] = result
	s.mu.Unlock()
}
