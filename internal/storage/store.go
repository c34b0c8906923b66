package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/model/mood"
)

var (
	ErrUserRequired = errors.New("user id is required")
	ErrInvalidMood  = errors.New("invalid mood entry")
)

// Store persists users, chat turns and mood check-ins.
type Store interface {
	UpsertUser(ctx context.Context, userID string, displayName *string) error
	LogMessage(ctx context.Context, userID string, role chat.Role, content string) error
	Messages(ctx context.Context, userID string, limit int) ([]chat.LogEntry, error)
	LogMood(ctx context.Context, entry mood.Entry) error
	// FetchMoodSeries returns the newest limitDays entries in chronological order.
	FetchMoodSeries(ctx context.Context, userID string, limitDays int) ([]mood.Point, error)
	Close() error
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserRequired
	}
	return nil
}

func validateMood(entry mood.Entry) error {
	if err := validateUser(entry.UserID); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return errors.Join(ErrInvalidMood, err)
	}
	return nil
}

func seriesLimit(limitDays int) int {
	if limitDays <= 0 {
		return mood.DefaultSeriesDays
	}
	return limitDays
}
