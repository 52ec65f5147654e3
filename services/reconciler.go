package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/metrics"
	"github.com/yeremiapane/restaurant-reservations/models"
)

// Reconciler marks reservations from past days that never reached a
// terminal status as completed. Assignments are left untouched.
type Reconciler struct {
	db       *gorm.DB
	loc      *time.Location
	now      func() time.Time
	notifier events.Notifier
}

type ReconcilerOption func(*Reconciler)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLocation(loc *time.Location) ReconcilerOption {
	return func(r *Reconciler) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithReconcileNotifier(n events.Notifier) ReconcilerOption {
	return func(r *Reconciler) {
		if n != nil {
			r.notifier = n
		}
	}
}

func NewReconciler(db *gorm.DB, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		db:       db,
		loc:      time.Local,
		now:      time.Now,
		notifier: events.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Today is the current calendar day in the reconciler's location.
func (r *Reconciler) Today() string {
	return r.now().In(r.loc).Format(dateLayout)
}

// Run performs one sweep as a single UPDATE, so a failure leaves no partial
// state and a repeated run only touches rows that are still non-terminal.
func (r *Reconciler) Run(ctx context.Context, caller Caller) (int64, error) {
	if err := caller.authenticated(); err != nil {
		return 0, err
	}

	today := r.Today()
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("reservations.date < ?", today).
		Where("reservations.status IN ?", []string{string(models.ReservationStatusNew), string(models.ReservationStatusConfirmed)}).
		Update("status", models.ReservationStatusCompleted)
	if result.Error != nil {
		metrics.IncReconcileFailure()
		logError("reconcile: sweep failed, next run will retry", result.Error, logrus.Fields{"before": today})
		return 0, storageErr("reconcile stale reservations", result.Error)
	}

	metrics.AddReconcileUpdated(result.RowsAffected)
	logInfo("reconcile: sweep finished", logrus.Fields{
		"before":  today,
		"updated": result.RowsAffected,
		"user_id": caller.UserID,
	})
	if result.RowsAffected > 0 {
		r.notifier.Notify(ctx, events.New(events.EventReservationsCompleted, events.ReservationsCompleted{
			Before:  today,
			Updated: result.RowsAffected,
		}))
	}
	return result.RowsAffected, nil
}

// ErrSchedulerRunning is returned by Start on a scheduler already started.
var ErrSchedulerRunning = errors.New("reconcile scheduler already running")

// ReconcileScheduler runs the Reconciler on a cron schedule. Overlapping
// runs are skipped; the sweep is idempotent so a skipped run loses nothing.
type ReconcileScheduler struct {
	reconciler *Reconciler
	spec       string
	timeout    time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

func NewReconcileScheduler(r *Reconciler, spec string, timeout time.Duration) *ReconcileScheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &ReconcileScheduler{reconciler: r, spec: spec, timeout: timeout}
}

func (s *ReconcileScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrSchedulerRunning
	}

	c := cron.New(
		cron.WithLocation(s.reconciler.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}
	c.Start()
	s.cron = c

	logInfo("reconcile scheduler started", logrus.Fields{"spec": s.spec})
	return nil
}

func (s *ReconcileScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.reconciler.Run(ctx, SystemCaller)
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	logInfo("reconcile scheduler stopped", nil)
}
