package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/metrics"
	"github.com/yeremiapane/restaurant-reservations/models"
)

const (
	defaultLockWait    = 5 * time.Second
	defaultMaxAttempts = 3
)

// TableAssignmentService answers availability queries and owns every write
// to the assignments collection.
type TableAssignmentService struct {
	db          *gorm.DB
	resolver    TimeWindowResolver
	locker      TableLocker
	notifier    events.Notifier
	lockWait    time.Duration
	maxAttempts int
}

type AssignmentOption func(*TableAssignmentService)

func WithLocker(l TableLocker) AssignmentOption {
	return func(s *TableAssignmentService) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithNotifier(n events.Notifier) AssignmentOption {
	return func(s *TableAssignmentService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLockWait bounds how long Assign waits for table locks.
func WithLockWait(d time.Duration) AssignmentOption {
	return func(s *TableAssignmentService) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// WithMaxAttempts bounds how many times a transaction is retried after a
// deadlock or serialization failure.
func WithMaxAttempts(n int) AssignmentOption {
	return func(s *TableAssignmentService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewTableAssignmentService(db *gorm.DB, resolver TimeWindowResolver, opts ...AssignmentOption) *TableAssignmentService {
	s := &TableAssignmentService{
		db:          db,
		resolver:    resolver,
		locker:      NewMemoryLocker(),
		notifier:    events.Nop{},
		lockWait:    defaultLockWait,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver exposes the window policy so callers resolve windows the same way.
func (s *TableAssignmentService) Resolver() TimeWindowResolver {
	return s.resolver
}

type AvailabilityQuery struct {
	Date                 string
	StartTime            string
	EndTime              *string
	ExcludeReservationID uint
}

type AssignRequest struct {
	ReservationID uint
	TableIDs      []uint
	Date          string
	StartTime     string
	EndTime       *string
}

func (s *TableAssignmentService) resolve(date, start string, end *string) (string, TimeWindow, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", TimeWindow{}, err
	}
	w, err := s.resolver.Resolve(start, end)
	if err != nil {
		return "", TimeWindow{}, err
	}
	return d, w, nil
}

// AvailableTables returns the active tables with no conflicting assignment
// for the window. Both reads run in one transaction so they observe the
// same snapshot.
func (s *TableAssignmentService) AvailableTables(ctx context.Context, caller Caller, q AvailabilityQuery) ([]models.Table, error) {
	if err := caller.authenticated(); err != nil {
		return nil, err
	}
	date, window, err := s.resolve(q.Date, q.StartTime, q.EndTime)
	if err != nil {
		return nil, err
	}

	tables := make([]models.Table, 0)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		busy, err := busyTableIDs(tx, date, window, q.ExcludeReservationID)
		if err != nil {
			return err
		}

		query := tx.Where("active = ?", true)
		if len(busy) > 0 {
			query = query.Where("id NOT IN ?", busy)
		}
		return query.Order("number ASC").Order("id ASC").Find(&tables).Error
	})
	if err != nil {
		return nil, storageErr("available tables", err)
	}
	return tables, nil
}

type assignmentDiff struct {
	add    []uint
	remove []uint
	retime []uint
}

func (d assignmentDiff) changed() bool {
	return len(d.add) > 0 || len(d.remove) > 0 || len(d.retime) > 0
}

// diffAssignments splits current against desired. Kept rows whose window no
// longer matches are retimed rather than deleted and re-inserted.
func diffAssignments(current []models.Assignment, desired []uint, date string, w TimeWindow) assignmentDiff {
	var d assignmentDiff
	want := idSet(desired)
	have := make(map[uint]struct{}, len(current))

	for _, a := range current {
		have[a.TableID] = struct{}{}
		if _, ok := want[a.TableID]; !ok {
			d.remove = append(d.remove, a.TableID)
			continue
		}
		if a.Date != date || a.StartTime != w.Start.String() || a.EndTime != w.End.String() {
			d.retime = append(d.retime, a.ID)
		}
	}
	for _, id := range desired {
		if _, ok := have[id]; !ok {
			d.add = append(d.add, id)
		}
	}
	return d
}

// Assign replaces the reservation's table set with tableIDs for the window.
// An empty set releases every table. The availability check and the writes
// run under table/date locks and inside one transaction, so concurrent
// callers can never both claim a table for overlapping windows.
func (s *TableAssignmentService) Assign(ctx context.Context, caller Caller, req AssignRequest) (int, error) {
	if err := caller.authenticated(); err != nil {
		return 0, err
	}
	if req.ReservationID == 0 {
		return 0, fmt.Errorf("%w: reservation id is required", ErrInvalidInput)
	}
	date, window, err := s.resolve(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return 0, err
	}
	desired := uniqueIDs(req.TableIDs)

	fields := logrus.Fields{
		"reservation_id": req.ReservationID,
		"table_ids":      desired,
		"date":           date,
		"window":         window.String(),
		"user_id":        caller.UserID,
	}

	keys := []string{reservationKey(req.ReservationID)}
	for _, id := range desired {
		keys = append(keys, tableDateKey(id, date))
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, keys)
	cancel()
	if err != nil {
		metrics.IncAssignmentFailure("lock")
		logError("assign: lock not acquired", err, fields)
		return 0, fmt.Errorf("assign tables: %w: %w", ErrStorageFailure, err)
	}
	release := sync.OnceFunc(unlock)
	defer release()

	started := time.Now()
	var diff assignmentDiff
	for attempt := 1; ; attempt++ {
		diff, err = s.assignTx(ctx, req.ReservationID, desired, date, window)
		if err == nil || !isRetryable(err) || attempt >= s.maxAttempts {
			break
		}
		logWarn("assign: retrying after transient storage error", err, fields)
	}
	metrics.ObserveAssignmentDuration(time.Since(started))
	// Events go out after the locks are gone; slow listeners must not hold
	// up the next caller for these tables.
	release()

	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			metrics.IncAssignmentConflict()
			fields["conflicts"] = conflict.TableIDs
			logInfo("assign: rejected, tables taken", fields)
			return 0, err
		case errors.Is(err, ErrNotFound):
			metrics.IncAssignmentFailure("not_found")
			return 0, err
		default:
			metrics.IncAssignmentFailure("storage")
			logError("assign: transaction failed", err, fields)
			return 0, storageErr("assign tables", err)
		}
	}

	metrics.IncAssignmentCommitted(diff.changed())
	if diff.changed() {
		logInfo("assign: committed", fields)
		s.notifier.Notify(ctx, events.New(events.EventTablesAssigned, events.TablesChanged{
			ReservationID: req.ReservationID,
			Date:          date,
			StartTime:     window.Start.String(),
			EndTime:       window.End.String(),
			TableIDs:      desired,
			Added:         diff.add,
			Removed:       diff.remove,
			UserID:        caller.UserID,
		}))
	}
	return len(desired), nil
}

func (s *TableAssignmentService) assignTx(ctx context.Context, reservationID uint, desired []uint, date string, w TimeWindow) (assignmentDiff, error) {
	var diff assignmentDiff

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := forUpdate(tx).First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "reservation", IDs: []uint{reservationID}}
			}
			return err
		}

		// Table rows are locked before anything else is read, so every
		// later read sees what competing writers committed meanwhile.
		var tables map[uint]models.Table
		if len(desired) > 0 {
			var err error
			if tables, err = lockTables(tx, desired); err != nil {
				return err
			}
		}

		var current []models.Assignment
		if err := tx.Where("reservation_id = ?", reservationID).Find(&current).Error; err != nil {
			return err
		}

		if len(desired) > 0 {
			if err := checkDesired(tx, reservationID, current, tables, desired, date, w); err != nil {
				return err
			}
		}

		diff = diffAssignments(current, desired, date, w)

		if len(diff.remove) > 0 {
			if err := tx.Where("reservation_id = ? AND table_id IN ?", reservationID, diff.remove).
				Delete(&models.Assignment{}).Error; err != nil {
				return err
			}
		}
		if len(diff.retime) > 0 {
			if err := tx.Model(&models.Assignment{}).
				Where("id IN ?", diff.retime).
				Updates(map[string]interface{}{
					"date":       date,
					"start_time": w.Start.String(),
					"end_time":   w.End.String(),
				}).Error; err != nil {
				return err
			}
		}
		if len(diff.add) > 0 {
			rows := make([]models.Assignment, 0, len(diff.add))
			for _, id := range diff.add {
				rows = append(rows, models.Assignment{
					ReservationID: reservationID,
					TableID:       id,
					Date:          date,
					StartTime:     w.Start.String(),
					EndTime:       w.End.String(),
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	}, assignTxOptions(s.db.Dialector.Name())...)

	return diff, err
}

// lockTables row-locks the desired tables in id order. Unknown ids are
// NotFound.
func lockTables(tx *gorm.DB, desired []uint) (map[uint]models.Table, error) {
	var tables []models.Table
	if err := forUpdate(tx).Where("id IN ?", desired).Order("id").Find(&tables).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Table, len(tables))
	for _, t := range tables {
		byID[t.ID] = t
	}
	var missing []uint
	for _, id := range desired {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &NotFoundError{Entity: "table", IDs: missing}
	}
	return byID, nil
}

// checkDesired fails closed: a table is rejected when another live
// reservation overlaps the window or when it is inactive and not already
// held by this reservation.
func checkDesired(tx *gorm.DB, reservationID uint, current []models.Assignment, byID map[uint]models.Table, desired []uint, date string, w TimeWindow) error {
	busy, err := busyTableIDs(tx, date, w, reservationID)
	if err != nil {
		return err
	}
	busySet := idSet(busy)

	held := make(map[uint]struct{}, len(current))
	for _, a := range current {
		held[a.TableID] = struct{}{}
	}

	var blocked []uint
	for _, id := range desired {
		_, isBusy := busySet[id]
		_, isHeld := held[id]
		if isBusy || (!byID[id].Active && !isHeld) {
			blocked = append(blocked, id)
		}
	}
	if len(blocked) > 0 {
		return newConflictError(blocked)
	}
	return nil
}

// ReleaseAll deletes every assignment of the reservation on any date. It
// reports whether anything was removed; an already empty set is not an error.
func (s *TableAssignmentService) ReleaseAll(ctx context.Context, caller Caller, reservationID uint) (bool, error) {
	if err := caller.authenticated(); err != nil {
		return false, err
	}

	unlock, err := s.lockReservation(ctx, reservationID)
	if err != nil {
		return false, err
	}
	release := sync.OnceFunc(unlock)
	defer release()

	var removed []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.Select("id").First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "reservation", IDs: []uint{reservationID}}
			}
			return err
		}
		if err := tx.Model(&models.Assignment{}).
			Where("reservation_id = ?", reservationID).
			Pluck("table_id", &removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		return tx.Where("reservation_id = ?", reservationID).Delete(&models.Assignment{}).Error
	})
	release()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, err
		}
		logError("release: transaction failed", err, logrus.Fields{"reservation_id": reservationID})
		return false, storageErr("release tables", err)
	}

	metrics.IncRelease(len(removed) > 0)
	if len(removed) == 0 {
		return false, nil
	}

	removed = uniqueIDs(removed)
	logInfo("release: committed", logrus.Fields{
		"reservation_id": reservationID,
		"table_ids":      removed,
		"user_id":        caller.UserID,
	})
	s.notifier.Notify(ctx, events.New(events.EventTablesReleased, events.TablesChanged{
		ReservationID: reservationID,
		TableIDs:      removed,
		Removed:       removed,
		UserID:        caller.UserID,
	}))
	return true, nil
}

func (s *TableAssignmentService) lockReservation(ctx context.Context, reservationID uint) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, []string{reservationKey(reservationID)})
	if err != nil {
		return nil, fmt.Errorf("lock reservation %d: %w: %w", reservationID, ErrStorageFailure, err)
	}
	return unlock, nil
}

// AssignedTables lists the reservation's assignments with their tables,
// including tables that have since been deactivated.
func (s *TableAssignmentService) AssignedTables(ctx context.Context, caller Caller, reservationID uint) ([]models.Assignment, error) {
	if err := caller.authenticated(); err != nil {
		return nil, err
	}

	assignments := make([]models.Assignment, 0)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.Select("id").First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "reservation", IDs: []uint{reservationID}}
			}
			return err
		}
		return tx.Preload("Table").
			Where("reservation_id = ?", reservationID).
			Order("table_id ASC").
			Find(&assignments).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("assigned tables", err)
	}
	return assignments, nil
}
