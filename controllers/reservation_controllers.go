package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

type ReservationController struct {
	Service *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{Service: svc}
}

type createReservationRequest struct {
	Date      string                   `json:"date" binding:"required,isodate"`
	StartTime string                   `json:"start_time" binding:"required,clock"`
	EndTime   *string                  `json:"end_time" binding:"omitempty,endclock"`
	PartySize int                      `json:"party_size" binding:"required,gt=0"`
	Status    models.ReservationStatus `json:"status"`
}

// CreateReservation -> new reservation, no tables yet
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.Service.Create(c.Request.Context(), middlewares.CallerFrom(c), services.CreateReservationInput{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		PartySize: req.PartySize,
		Status:    req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", reservation)
}

// GetReservations -> list, filter by ?date= and ?status=
func (rc *ReservationController) GetReservations(c *gin.Context) {
	reservations, err := rc.Service.List(c.Request.Context(), middlewares.CallerFrom(c), services.ReservationFilter{
		Date:   c.Query("date"),
		Status: models.ReservationStatus(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	id, err := paramID(c, "reservation_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	reservation, err := rc.Service.Get(c.Request.Context(), middlewares.CallerFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// UpdateReservationStatus -> move along new/confirmed/completed/cancelled
func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, err := paramID(c, "reservation_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	var body struct {
		Status models.ReservationStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reservation, err := rc.Service.UpdateStatus(c.Request.Context(), middlewares.CallerFrom(c), id, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation status updated", reservation)
}
