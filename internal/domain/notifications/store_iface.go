package notifications

import (
	"context"
	"time"
)

type PreferenceStore interface {
	GetPreference(ctx context.Context, userID string) (Preference, bool, error)
	UpsertPreference(ctx context.Context, userID string, pref Preference) error
}

type LogStore interface {
	CreateLog(ctx context.Context, entry LogEntry) (string, error)
	MarkSent(ctx context.Context, id, messageID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	DeleteLog(ctx context.Context, id string) error
	ListLog(ctx context.Context, filter LogFilter, limit, offset int) ([]LogEntry, error)
	CountLog(ctx context.Context, filter LogFilter) (int, error)
}

type StoreAPI interface {
	PreferenceStore
	LogStore
	AssessmentView(ctx context.Context, assessmentID string) (View, error)
	ActiveAdmins(ctx context.Context) ([]Recipient, error)
}
