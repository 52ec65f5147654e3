package utils

import (
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// ErrorBody is the payload used by endpoints that must tell a conflict apart
// from a system failure.
type ErrorBody struct {
	Code     string `json:"code"`
	TableIDs []uint `json:"table_ids,omitempty"`
}

// RespondErrorCode is RespondError with a machine readable code in data.
func RespondErrorCode(c *gin.Context, code int, err error, body ErrorBody) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    body,
	})
}
