package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"appraisal/internal/platform/metrics"
)

// Runner runs work outside the caller's lifecycle.
type Runner interface {
	Go(ctx context.Context, name string, fn func(context.Context) error)
}

type DispatcherConfig struct {
	From        string
	BaseURL     string
	SendTimeout time.Duration
	// Concurrency bounds parallel dispatches in TriggerMany.
	Concurrency int
}

type Dispatcher struct {
	store  StoreAPI
	prefs  *Service
	mailer Mailer
	runner Runner
	cfg    DispatcherConfig
	now    func() time.Time
}

func NewDispatcher(store StoreAPI, mailer Mailer, runner Runner, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		store:  store,
		prefs:  NewService(store),
		mailer: mailer,
		runner: runner,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Trigger schedules a dispatch and returns immediately. Failures are logged.
func (d *Dispatcher) Trigger(ctx context.Context, assessmentID string, t Type) {
	task := func(ctx context.Context) error {
		outcomes, err := d.Dispatch(ctx, assessmentID, t)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			if o.Result == ResultFailed {
				slog.Warn("notification delivery failed", "type", t, "assessmentId", assessmentID, "userId", o.UserID, "err", o.Err)
			}
		}
		return nil
	}
	if d.runner == nil {
		go func() {
			if err := task(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("notification dispatch failed", "type", t, "assessmentId", assessmentID, "err", err)
			}
		}()
		return
	}
	d.runner.Go(ctx, "notification:"+string(t), task)
}

// TriggerMany schedules one dispatch per assessment as a single background
// task, running at most Concurrency dispatches at a time.
func (d *Dispatcher) TriggerMany(ctx context.Context, assessmentIDs []string, t Type) {
	if len(assessmentIDs) == 0 {
		return
	}
	ids := append([]string(nil), assessmentIDs...)
	task := func(ctx context.Context) error {
		return d.dispatchAll(ctx, ids, t)
	}
	if d.runner == nil {
		go func() {
			if err := task(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("bulk notification dispatch failed", "type", t, "err", err)
			}
		}()
		return
	}
	d.runner.Go(ctx, "notification-bulk:"+string(t), task)
}

func (d *Dispatcher) dispatchAll(ctx context.Context, ids []string, t Type) error {
	limit := d.cfg.Concurrency
	if limit <= 0 {
		limit = 4
	}
	var g errgroup.Group
	g.SetLimit(limit)
	var failures atomic.Int64
	for _, id := range ids {
		g.Go(func() error {
			if _, err := d.Dispatch(ctx, id, t); err != nil {
				failures.Add(1)
				slog.Warn("notification dispatch failed", "type", t, "assessmentId", id, "err", err)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%d of %d dispatches failed: %w", failures.Load(), len(ids), err)
	}
	return nil
}

// Dispatch delivers one notification type for one assessment to every
// resolved recipient, one log row per attempted send.
func (d *Dispatcher) Dispatch(ctx context.Context, assessmentID string, t Type) ([]Outcome, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	view, err := d.store.AssessmentView(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, ErrAssessmentNotFound) {
			slog.Warn("notification skipped, assessment missing", "type", t, "assessmentId", assessmentID)
		}
		return nil, fmt.Errorf("load assessment view: %w", err)
	}

	if targetsStaff(t) && view.Staff.Email == "" {
		slog.Error("staff member has no email", "type", t, "assessmentId", assessmentID, "userId", view.Staff.ID)
		return nil, nil
	}

	var admins []Recipient
	if t == TypeDirectorApproved {
		admins, err = d.store.ActiveAdmins(ctx)
		if err != nil {
			return nil, fmt.Errorf("load admins: %w", err)
		}
	}

	recipients := Recipients(t, view, admins)
	outcomes := make([]Outcome, 0, len(recipients))
	for _, r := range recipients {
		o := d.deliver(ctx, t, view, r)
		metrics.Notifications.WithLabelValues(string(t), string(o.Result)).Inc()
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (d *Dispatcher) deliver(ctx context.Context, t Type, view View, r Recipient) Outcome {
	out := Outcome{UserID: r.UserID, Email: r.Email}
	if r.Email == "" {
		slog.Warn("recipient has no email", "type", t, "assessmentId", view.AssessmentID, "userId", r.UserID)
		return skipped(out, "recipient has no email")
	}

	enabled, err := d.prefs.IsNotificationEnabled(ctx, r.UserID, t)
	if err != nil {
		slog.Warn("preference lookup failed, using defaults", "userId", r.UserID, "err", err)
		enabled = DefaultPreference().Allows(t)
	}
	if !enabled {
		return skipped(out, "disabled by preference")
	}
	if d.mailer == nil || !d.mailer.Enabled() {
		return skipped(out, "email delivery disabled")
	}

	content, err := Render(t, view, r.Name, d.cfg.BaseURL)
	if err != nil {
		slog.Error("notification render failed", "type", t, "err", err)
		return failed(out, err)
	}

	logID, err := d.store.CreateLog(ctx, LogEntry{AssessmentID: view.AssessmentID, UserID: r.UserID, Type: t, Status: StatusPending})
	if err != nil {
		slog.Error("notification log insert failed", "type", t, "assessmentId", view.AssessmentID, "userId", r.UserID, "err", err)
		return failed(out, fmt.Errorf("create log: %w", err))
	}

	sendCtx := ctx
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}
	messageID, sendErr := d.mailer.Send(sendCtx, Message{
		From:    d.cfg.From,
		To:      r.Email,
		Subject: content.Subject,
		HTML:    content.HTML,
		Text:    content.Text,
	})

	var finalizeErr error
	if sendErr != nil {
		out = failed(out, sendErr)
		finalizeErr = d.store.MarkFailed(ctx, logID, sendErr.Error())
	} else {
		out.Result = ResultSent
		out.MessageID = messageID
		finalizeErr = d.store.MarkSent(ctx, logID, messageID, d.now())
	}
	if finalizeErr != nil {
		slog.Error("notification log update failed", "logId", logID, "err", finalizeErr)
		if err := d.store.DeleteLog(ctx, logID); err != nil {
			slog.Error("notification log cleanup failed", "logId", logID, "err", err)
		}
	}
	return out
}

func skipped(o Outcome, reason string) Outcome {
	o.Result = ResultSkipped
	o.Reason = reason
	return o
}

func failed(o Outcome, err error) Outcome {
	o.Result = ResultFailed
	o.Err = err
	return o
}
