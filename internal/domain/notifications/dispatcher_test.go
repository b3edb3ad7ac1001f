package notifications

import (
	"context"
	"errors"
	"testing"

	"appraisal/internal/platform/jobs"
)

func newTestDispatcher(store *fakeStore, mailer *fakeMailer) *Dispatcher {
	return NewDispatcher(store, mailer, nil, DispatcherConfig{From: "noreply@example.com", BaseURL: "http://localhost"})
}

func TestDispatchSendsAndLogs(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	mailer := &fakeMailer{}

	outcomes, err := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAssessmentSubmitted)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Result != ResultSent || outcomes[0].UserID != "mgr-1" {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	if mailer.count() != 1 || mailer.sent[0].To != "morgan@example.com" || mailer.sent[0].From != "noreply@example.com" {
		t.Fatalf("unexpected mail: %+v", mailer.sent)
	}
	sent := store.logsByStatus(StatusSent)
	if len(sent) != 1 || sent[0].SentAt == nil || sent[0].MessageID != "msg-1" {
		t.Fatalf("expected one sent row, got %+v", sent)
	}
}

func TestDispatchRespectsTypePreference(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	pref := DefaultPreference()
	pref.AssessmentSubmitted = false
	store.prefs["mgr-1"] = pref
	mailer := &fakeMailer{}

	outcomes, err := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAssessmentSubmitted)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Result != ResultSkipped {
		t.Fatalf("expected skipped, got %+v", outcomes)
	}
	if mailer.count() != 0 || len(store.logs) != 0 || store.nextID != 0 {
		t.Fatalf("expected no send and no rows, got %v", store.logs)
	}
}

func TestDispatchRespectsMasterSwitch(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	pref := DefaultPreference()
	pref.EmailEnabled = false
	store.prefs["staff-1"] = pref
	mailer := &fakeMailer{}

	outcomes, err := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAdminReleased)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Result != ResultSkipped || mailer.count() != 0 {
		t.Fatalf("expected skipped by master switch, got %+v", outcomes)
	}
	if len(store.logs) != 0 || store.nextID != 0 {
		t.Fatalf("expected no log rows, got %v", store.logs)
	}
}

func TestDispatchSendFailureRecordsError(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	mailer := &fakeMailer{err: errSMTP}

	outcomes, err := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeManagerReviewCompleted)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Result != ResultFailed || !errors.Is(outcomes[0].Err, errSMTP) {
		t.Fatalf("expected failed outcome, got %+v", outcomes)
	}
	failed := store.logsByStatus(StatusFailed)
	if len(failed) != 1 || failed[0].Error == nil || *failed[0].Error != errSMTP.Error() {
		t.Fatalf("expected failed row with error, got %+v", failed)
	}
}

func TestDispatchLogInsertFailureSkipsSend(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	store.createErr = errors.New("db down")
	mailer := &fakeMailer{}

	outcomes, _ := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAssessmentSubmitted)
	if len(outcomes) != 1 || outcomes[0].Result != ResultFailed {
		t.Fatalf("expected failed outcome, got %+v", outcomes)
	}
	if mailer.count() != 0 {
		t.Fatalf("expected no send without a log row")
	}
}

func TestDispatchDeletesRowWhenFinalizeFails(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	store.finalizeErr = errors.New("update failed")
	mailer := &fakeMailer{}

	outcomes, _ := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAssessmentSubmitted)
	if len(outcomes) != 1 || outcomes[0].Result != ResultSent {
		t.Fatalf("expected sent outcome, got %+v", outcomes)
	}
	if len(store.logs) != 0 || len(store.deleted) != 1 {
		t.Fatalf("expected pending row removed, logs=%v deleted=%v", store.logs, store.deleted)
	}
}

func TestDispatchMissingAssessment(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	_, err := newTestDispatcher(store, mailer).Dispatch(context.Background(), "missing", TypeAssessmentSubmitted)
	if !errors.Is(err, ErrAssessmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if mailer.count() != 0 {
		t.Fatalf("expected no send")
	}
}

func TestDispatchPreferenceErrorTreatedAsEnabled(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	store.prefErr = errors.New("timeout")
	mailer := &fakeMailer{}

	outcomes, _ := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAssessmentSubmitted)
	if len(outcomes) != 1 || outcomes[0].Result != ResultSent {
		t.Fatalf("expected send despite preference error, got %+v", outcomes)
	}
}

func TestDispatchStaffWithoutEmail(t *testing.T) {
	store := newFakeStore()
	view := sampleView()
	view.Staff.Email = ""
	store.views["a1"] = view
	mailer := &fakeMailer{}

	outcomes, err := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAdminReleased)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(outcomes) != 0 || mailer.count() != 0 {
		t.Fatalf("expected nothing sent, got %+v", outcomes)
	}
}

func TestDispatchDirectorApprovedNotifiesAllAdmins(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	store.admins = []Recipient{
		{UserID: "adm-1", Name: "Ada", Email: "ada@example.com"},
		{UserID: "adm-2", Name: "Alex", Email: "alex@example.com"},
		{UserID: "adm-3", Name: "No Mail"},
	}
	mailer := &fakeMailer{}

	outcomes, _ := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeDirectorApproved)
	if len(outcomes) != 3 || mailer.count() != 2 {
		t.Fatalf("expected two sends out of three admins, outcomes=%+v", outcomes)
	}
	if outcomes[2].Result != ResultSkipped {
		t.Fatalf("expected admin without email skipped, got %+v", outcomes[2])
	}
}

func TestDispatchNoManagerSendsNothing(t *testing.T) {
	store := newFakeStore()
	view := sampleView()
	view.Manager = Person{}
	store.views["a1"] = view
	mailer := &fakeMailer{}

	outcomes, err := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAssessmentSubmitted)
	if err != nil || len(outcomes) != 0 || len(store.logs) != 0 {
		t.Fatalf("expected silent no-op, outcomes=%+v err=%v", outcomes, err)
	}
}

func TestDispatchTransportDisabled(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	mailer := &fakeMailer{disabled: true}

	outcomes, _ := newTestDispatcher(store, mailer).Dispatch(context.Background(), "a1", TypeAssessmentSubmitted)
	if len(outcomes) != 1 || outcomes[0].Result != ResultSkipped || len(store.logs) != 0 {
		t.Fatalf("expected skipped without rows, got %+v", outcomes)
	}
}

func TestDispatchUnknownType(t *testing.T) {
	_, err := newTestDispatcher(newFakeStore(), &fakeMailer{}).Dispatch(context.Background(), "a1", Type("bogus"))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestTriggerRunsInBackground(t *testing.T) {
	store := newFakeStore()
	store.views["a1"] = sampleView()
	mailer := &fakeMailer{}
	runner := jobs.New(0)
	d := NewDispatcher(store, mailer, runner, DispatcherConfig{BaseURL: "http://localhost"})

	ctx, cancel := context.WithCancel(context.Background())
	d.Trigger(ctx, "a1", TypeAssessmentAcknowledged)
	cancel()

	if err := runner.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if mailer.count() != 2 {
		t.Fatalf("expected manager and director emailed, got %d", mailer.count())
	}
}

func TestTriggerSwallowsErrors(t *testing.T) {
	runner := jobs.New(0)
	d := NewDispatcher(newFakeStore(), &fakeMailer{}, runner, DispatcherConfig{})
	d.Trigger(context.Background(), "missing", TypeAdminReleased)
	if err := runner.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestTriggerManyDispatchesEveryAssessment(t *testing.T) {
	store := newFakeStore()
	for _, id := range []string{"a1", "a2", "a3"} {
		v := sampleView()
		v.AssessmentID = id
		store.views[id] = v
	}
	mailer := &fakeMailer{}
	runner := jobs.New(0)
	d := NewDispatcher(store, mailer, runner, DispatcherConfig{Concurrency: 2})

	d.TriggerMany(context.Background(), []string{"a1", "a2", "a3", "missing"}, TypeAdminReleased)
	if err := runner.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if mailer.count() != 3 {
		t.Fatalf("expected three releases emailed, got %d", mailer.count())
	}
	if got := len(store.logsByStatus(StatusSent)); got != 3 {
		t.Fatalf("expected three sent rows, got %d", got)
	}
}
