package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-reservations/utils"
)

const RequestIDHeader = "X-Request-ID"

// LoggerMiddleware tags each request with an id (kept from the client when
// supplied) and writes one access log line after the handler returns.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		fields := logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"path":       path,
		}
		if uid, ok := c.Get("userID"); ok {
			fields["user_id"] = uid
		}

		entry := utils.InfoLogger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			utils.ErrorLogger.WithFields(fields).Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}
