package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const (
	CodeInvalidTimeFormat = "invalid_time_format"
	CodeInvalidInput      = "invalid_input"
	CodeUnauthenticated   = "unauthenticated"
	CodeNotFound          = "not_found"
	CodeTableConflict     = "table_conflict"
	CodeStorageFailure    = "storage_failure"
	CodeInternal          = "internal"
)

var ErrInvalidID = errors.New("invalid id")

// classify maps an engine error onto an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidTimeFormat):
		return http.StatusBadRequest, CodeInvalidTimeFormat
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, services.ErrTableConflict):
		return http.StatusConflict, CodeTableConflict
	case errors.Is(err, services.ErrStorageFailure):
		return http.StatusServiceUnavailable, CodeStorageFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func conflictIDs(err error) []uint {
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		return conflict.TableIDs
	}
	return nil
}

// respondServiceError writes the JSONResponse envelope for err.
func respondServiceError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		utils.ErrorLogger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	utils.RespondErrorCode(c, status, err, utils.ErrorBody{Code: code, TableIDs: conflictIDs(err)})
}

func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}
