package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type fakeStore struct {
	mu          sync.Mutex
	views       map[string]View
	admins      []Recipient
	prefs       map[string]Preference
	prefErr     error
	logs        map[string]*LogEntry
	nextID      int
	createErr   error
	finalizeErr error
	deleted     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		views: map[string]View{},
		prefs: map[string]Preference{},
		logs:  map[string]*LogEntry{},
	}
}

func (f *fakeStore) GetPreference(ctx context.Context, userID string) (Preference, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prefErr != nil {
		return Preference{}, false, f.prefErr
	}
	p, ok := f.prefs[userID]
	return p, ok, nil
}

func (f *fakeStore) UpsertPreference(ctx context.Context, userID string, pref Preference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[userID] = pref
	return nil
}

func (f *fakeStore) CreateLog(ctx context.Context, entry LogEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("log-%d", f.nextID)
	entry.ID = id
	entry.Status = StatusPending
	f.logs[id] = &entry
	return id, nil
}

func (f *fakeStore) MarkSent(ctx context.Context, id, messageID string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	e := f.logs[id]
	e.Status = StatusSent
	e.MessageID = messageID
	e.SentAt = &sentAt
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	e := f.logs[id]
	e.Status = StatusFailed
	e.Error = &errMsg
	return nil
}

func (f *fakeStore) DeleteLog(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.logs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListLog(ctx context.Context, filter LogFilter, limit, offset int) ([]LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LogEntry
	for _, e := range f.logs {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) CountLog(ctx context.Context, filter LogFilter) (int, error) {
	entries, err := f.ListLog(ctx, filter, 0, 0)
	return len(entries), err
}

func (f *fakeStore) AssessmentView(ctx context.Context, assessmentID string) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.views[assessmentID]
	if !ok {
		return View{}, ErrAssessmentNotFound
	}
	return v, nil
}

func (f *fakeStore) ActiveAdmins(ctx context.Context) ([]Recipient, error) {
	return f.admins, nil
}

func (f *fakeStore) logsByStatus(status string) []LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LogEntry
	for _, e := range f.logs {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	return out
}

type fakeMailer struct {
	mu       sync.Mutex
	disabled bool
	err      error
	sent     []Message
}

func (m *fakeMailer) Enabled() bool { return !m.disabled }

func (m *fakeMailer) Send(ctx context.Context, msg Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var errSMTP = errors.New("smtp unavailable")

func sampleView() View {
	score := 3.5
	return View{
		AssessmentID: "a1",
		Period:       "2026-H1",
		TemplateName: "Engineering",
		Status:       "self_submitted",
		Staff:        Person{ID: "staff-1", Name: "Sam Staff", Email: "sam@example.com"},
		Manager:      Person{ID: "mgr-1", Name: "Morgan Manager", Email: "morgan@example.com"},
		Director:     Person{ID: "dir-1", Name: "Dana Director", Email: "dana@example.com"},
		FinalScore:   &score,
		FinalGrade:   "B+",
	}
}
