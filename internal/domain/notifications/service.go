package notifications

import (
	"context"
	"fmt"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Preference(ctx context.Context, userID string) (Preference, error) {
	pref, found, err := s.store.GetPreference(ctx, userID)
	if err != nil {
		return Preference{}, fmt.Errorf("load preference: %w", err)
	}
	if !found {
		return DefaultPreference(), nil
	}
	return pref, nil
}

func (s *Service) UpdatePreference(ctx context.Context, userID string, patch PreferencePatch) (Preference, error) {
	current, err := s.Preference(ctx, userID)
	if err != nil {
		return Preference{}, err
	}
	next := current.Apply(patch)
	if err := s.store.UpsertPreference(ctx, userID, next); err != nil {
		return Preference{}, fmt.Errorf("save preference: %w", err)
	}
	return next, nil
}

func (s *Service) IsNotificationEnabled(ctx context.Context, userID string, t Type) (bool, error) {
	pref, err := s.Preference(ctx, userID)
	if err != nil {
		return false, err
	}
	return pref.Allows(t), nil
}

func (s *Service) ListLog(ctx context.Context, filter LogFilter, limit, offset int) ([]LogEntry, error) {
	return s.store.ListLog(ctx, filter, limit, offset)
}

func (s *Service) CountLog(ctx context.Context, filter LogFilter) (int, error) {
	return s.store.CountLog(ctx, filter)
}
