package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// AssignmentController exposes availability and table assignment.
type AssignmentController struct {
	Service *services.TableAssignmentService
}

func NewAssignmentController(svc *services.TableAssignmentService) *AssignmentController {
	return &AssignmentController{Service: svc}
}

// AssignResult is the body of PUT /admin/reservations/:reservation_id/tables.
// Code and TableIDs let a client tell a conflict apart from a system failure.
type AssignResult struct {
	Success  bool   `json:"success"`
	Assigned int    `json:"assigned"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
	TableIDs []uint `json:"table_ids,omitempty"`
}

type ReleaseResult struct {
	Success  bool   `json:"success"`
	Released bool   `json:"released"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

type assignRequest struct {
	TableIDs  *[]uint `json:"table_ids" binding:"required"`
	Date      string  `json:"date" binding:"required,isodate"`
	StartTime string  `json:"start_time" binding:"required,clock"`
	EndTime   *string `json:"end_time" binding:"omitempty,endclock"`
}

// GetAvailability -> active tables free for ?date=&start_time=[&end_time=]
func (ac *AssignmentController) GetAvailability(c *gin.Context) {
	q := services.AvailabilityQuery{
		Date:      c.Query("date"),
		StartTime: c.Query("start_time"),
	}
	if end := c.Query("end_time"); end != "" {
		q.EndTime = &end
	}
	if raw := c.Query("exclude_reservation_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondServiceError(c, ErrInvalidID)
			return
		}
		q.ExcludeReservationID = uint(id)
	}

	tables, err := ac.Service.AvailableTables(c.Request.Context(), middlewares.CallerFrom(c), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available tables", tables)
}

// AssignTables -> replace the reservation's table set; [] releases all
func (ac *AssignmentController) AssignTables(c *gin.Context) {
	id, err := paramID(c, "reservation_id")
	if err != nil {
		ac.assignFailed(c, err)
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AssignResult{Error: err.Error(), Code: CodeInvalidInput})
		return
	}

	n, err := ac.Service.Assign(c.Request.Context(), middlewares.CallerFrom(c), services.AssignRequest{
		ReservationID: id,
		TableIDs:      *req.TableIDs,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		ac.assignFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, AssignResult{Success: true, Assigned: n})
}

func (ac *AssignmentController) assignFailed(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		utils.ErrorLogger.WithError(err).Error("assign tables failed")
	}
	c.JSON(status, AssignResult{Error: err.Error(), Code: code, TableIDs: conflictIDs(err)})
}

// ReleaseTables -> drop every assignment of the reservation
func (ac *AssignmentController) ReleaseTables(c *gin.Context) {
	id, err := paramID(c, "reservation_id")
	if err == nil {
		var released bool
		released, err = ac.Service.ReleaseAll(c.Request.Context(), middlewares.CallerFrom(c), id)
		if err == nil {
			c.JSON(http.StatusOK, ReleaseResult{Success: true, Released: released})
			return
		}
	}

	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		utils.ErrorLogger.WithError(err).Error("release tables failed")
	}
	c.JSON(status, ReleaseResult{Error: err.Error(), Code: code})
}

// GetAssignedTables -> the reservation's assignments with table details
func (ac *AssignmentController) GetAssignedTables(c *gin.Context) {
	id, err := paramID(c, "reservation_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	assignments, err := ac.Service.AssignedTables(c.Request.Context(), middlewares.CallerFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Assigned tables", assignments)
}
