package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/models"
)

// allowedTransitions is the reservation status graph. Terminal statuses have
// no outgoing edges.
var allowedTransitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationStatusNew: {
		models.ReservationStatusConfirmed,
		models.ReservationStatusCompleted,
		models.ReservationStatusCancelled,
	},
	models.ReservationStatusConfirmed: {
		models.ReservationStatusCompleted,
		models.ReservationStatusCancelled,
	},
}

// CanTransition reports whether a reservation may move from one status to
// another. Setting the current status again is allowed and is a no-op.
func CanTransition(from, to models.ReservationStatus) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ReservationService is the reservation editing flow: it creates
// reservations and moves them between statuses. It never touches
// assignments.
type ReservationService struct {
	db       *gorm.DB
	notifier events.Notifier
}

func NewReservationService(db *gorm.DB, notifier events.Notifier) *ReservationService {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &ReservationService{db: db, notifier: notifier}
}

type CreateReservationInput struct {
	Date      string
	StartTime string
	EndTime   *string
	PartySize int
	Status    models.ReservationStatus
}

func (s *ReservationService) Create(ctx context.Context, caller Caller, in CreateReservationInput) (*models.Reservation, error) {
	if err := caller.authenticated(); err != nil {
		return nil, err
	}

	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	start, err := ParseClock(in.StartTime)
	if err != nil {
		return nil, err
	}

	var end *string
	if in.EndTime != nil && strings.TrimSpace(*in.EndTime) != "" {
		e, err := parseClock(*in.EndTime, true)
		if err != nil {
			return nil, err
		}
		if e <= start {
			return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidTimeFormat, e, start)
		}
		v := e.String()
		end = &v
	}

	if in.PartySize <= 0 {
		return nil, fmt.Errorf("%w: party size must be positive", ErrInvalidInput)
	}

	status := in.Status
	if status == "" {
		status = models.ReservationStatusNew
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	reservation := models.Reservation{
		Date:      date,
		StartTime: start.String(),
		EndTime:   end,
		PartySize: in.PartySize,
		Status:    status,
	}
	if err := s.db.WithContext(ctx).Create(&reservation).Error; err != nil {
		return nil, storageErr("create reservation", err)
	}

	logInfo("reservation created", logrus.Fields{
		"reservation_id": reservation.ID,
		"date":           reservation.Date,
		"user_id":        caller.UserID,
	})
	return &reservation, nil
}

func (s *ReservationService) Get(ctx context.Context, caller Caller, id uint) (*models.Reservation, error) {
	if err := caller.authenticated(); err != nil {
		return nil, err
	}

	var reservation models.Reservation
	if err := s.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "reservation", IDs: []uint{id}}
		}
		return nil, storageErr("get reservation", err)
	}
	return &reservation, nil
}

type ReservationFilter struct {
	Date   string
	Status models.ReservationStatus
}

func (s *ReservationService) List(ctx context.Context, caller Caller, f ReservationFilter) ([]models.Reservation, error) {
	if err := caller.authenticated(); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Reservation{})
	if f.Date != "" {
		date, err := ParseDate(f.Date)
		if err != nil {
			return nil, err
		}
		q = q.Where("reservations.date = ?", date)
	}
	if f.Status != "" {
		if !f.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
		}
		q = q.Where("reservations.status = ?", string(f.Status))
	}

	reservations := make([]models.Reservation, 0)
	if err := q.Order("reservations.date ASC").Order("start_time ASC").Order("id ASC").Find(&reservations).Error; err != nil {
		return nil, storageErr("list reservations", err)
	}
	return reservations, nil
}

// UpdateStatus moves a reservation along the status graph. Cancelling keeps
// the assignment rows; cancelled reservations simply stop blocking tables.
func (s *ReservationService) UpdateStatus(ctx context.Context, caller Caller, id uint, to models.ReservationStatus) (*models.Reservation, error) {
	if err := caller.authenticated(); err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}

	var reservation models.Reservation
	var from models.ReservationStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&reservation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "reservation", IDs: []uint{id}}
			}
			return err
		}
		from = reservation.Status
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
		}
		if from == to {
			return nil
		}
		reservation.Status = to
		return tx.Model(&reservation).Update("status", to).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, storageErr("update reservation status", err)
	}

	if from != to {
		logInfo("reservation status changed", logrus.Fields{
			"reservation_id": id,
			"from":           from,
			"to":             to,
			"user_id":        caller.UserID,
		})
		s.notifier.Notify(ctx, events.New(events.EventReservationStatus, map[string]interface{}{
			"reservation_id": id,
			"from":           from,
			"to":             to,
		}))
	}
	return &reservation, nil
}
