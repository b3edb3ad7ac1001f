package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/domain/rubric"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      map[string]Assessment
	reviewers Reviewers
	nextID    int
	locked    atomic.Bool
}

func newFakeStore(rows ...Assessment) *fakeStore {
	f := &fakeStore{rows: map[string]Assessment{}}
	for _, a := range rows {
		f.rows[a.ID] = a.clone()
	}
	return f
}

func (f *fakeStore) Create(ctx context.Context, staffID string, reviewers Reviewers, in NewAssessment) (Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a := Assessment{
		ID:         fmt.Sprintf("new-%d", f.nextID),
		StaffID:    staffID,
		ManagerID:  reviewers.ManagerID,
		DirectorID: reviewers.DirectorID,
		TemplateID: in.TemplateID,
		Period:     in.Period,
		Status:     StatusDraft,
	}
	f.rows[a.ID] = a
	return a.clone(), nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	return a.clone(), nil
}

func (f *fakeStore) GetDetail(ctx context.Context, id string) (Detail, error) {
	a, err := f.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Assessment: a, StaffName: "Sam Staff", TemplateName: "Engineering"}, nil
}

func (f *fakeStore) List(ctx context.Context, filter Filter, limit, offset int) ([]Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Detail
	for _, a := range f.rows {
		if filter.StaffID != "" && a.StaffID != filter.StaffID {
			continue
		}
		if filter.ManagerID != "" && a.ManagerID != filter.ManagerID && !(filter.IncludeUnassigned && a.ManagerID == "") {
			continue
		}
		if filter.DirectorID != "" && a.DirectorID != filter.DirectorID && !(filter.IncludeUnassigned && a.DirectorID == "") {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, Detail{Assessment: a.clone()})
	}
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context, filter Filter) (int, error) {
	items, err := f.List(ctx, filter, 0, 0)
	return len(items), err
}

func (f *fakeStore) Mutate(ctx context.Context, id string, fn func(a *Assessment) error) (Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.rows[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	working := current.clone()
	f.locked.Store(true)
	defer f.locked.Store(false)
	if err := fn(&working); err != nil {
		return Assessment{}, err
	}
	f.rows[id] = working.clone()
	return working, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string, check func(a Assessment) error) (Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	if err := check(a.clone()); err != nil {
		return Assessment{}, err
	}
	delete(f.rows, id)
	return a, nil
}

func (f *fakeStore) ReleaseAll(ctx context.Context, releasedAt time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, a := range f.rows {
		if a.Status != StatusDirectorApproved {
			continue
		}
		a.Status = StatusAdminReviewed
		at := releasedAt
		a.ReleasedAt = &at
		f.rows[id] = a
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) ResolveReviewers(ctx context.Context, staffID string) (Reviewers, error) {
	return f.reviewers, nil
}

func (f *fakeStore) status(id string) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Status
}

var errLookupUnderLock = errors.New("template lookup while a row lock is held")

type fakeTemplates struct {
	templates map[string]rubric.Template
	store     *fakeStore
	calls     *atomic.Int32
}

func (f fakeTemplates) Get(ctx context.Context, id string) (rubric.Template, error) {
	if f.calls != nil {
		f.calls.Add(1)
	}
	if f.store != nil && f.store.locked.Load() {
		return rubric.Template{}, errLookupUnderLock
	}
	t, ok := f.templates[id]
	if !ok {
		return rubric.Template{}, rubric.ErrTemplateNotFound
	}
	return t, nil
}

type triggered struct {
	ID   string
	Type notifications.Type
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []triggered
}

func (n *fakeNotifier) Trigger(ctx context.Context, id string, t notifications.Type) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, triggered{ID: id, Type: t})
}

func (n *fakeNotifier) TriggerMany(ctx context.Context, ids []string, t notifications.Type) {
	for _, id := range ids {
		n.Trigger(ctx, id, t)
	}
}

type fakeRecorder struct {
	entries []audit.Entry
}

func (r *fakeRecorder) Record(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func testTemplate() rubric.Template {
	limited := []rubric.ScoreOption{
		{Score: 0, Label: "No", Enabled: true},
		{Score: 2, Label: "Partly", Enabled: false},
		{Score: 4, Label: "Yes", Enabled: true},
	}
	return rubric.Template{
		ID:       "tmpl-1",
		Name:     "Engineering",
		IsActive: true,
		Sections: []rubric.Section{
			{ID: "s1", Name: "Delivery", Weight: 60, Indicators: []rubric.Indicator{
				{ID: "i1", SectionID: "s1", Name: "Quality"},
				{ID: "i2", SectionID: "s1", Name: "Speed"},
			}},
			{ID: "s2", Name: "Teamwork", Weight: 40, Indicators: []rubric.Indicator{
				{ID: "i3", SectionID: "s2", Name: "Mentoring", ScoreOptions: limited},
			}},
		},
	}
}

func newTestService(store *fakeStore) (*Service, *fakeNotifier, *fakeRecorder) {
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	inactive := testTemplate()
	inactive.ID = "tmpl-old"
	inactive.IsActive = false
	templates := fakeTemplates{
		templates: map[string]rubric.Template{"tmpl-1": testTemplate(), "tmpl-old": inactive},
		store:     store,
	}
	svc := NewService(store, templates, notifier, recorder)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, notifier, recorder
}

func baseAssessment(status Status) Assessment {
	return Assessment{
		ID:            "a1",
		StaffID:       "staff-1",
		ManagerID:     "mgr-1",
		DirectorID:    "dir-1",
		TemplateID:    "tmpl-1",
		Period:        "2026-H1",
		Status:        status,
		StaffScores:   map[string]int{"i1": 3},
		ManagerScores: map[string]int{},
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
