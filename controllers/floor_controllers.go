package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-reservations/floor"
	"github.com/yeremiapane/restaurant-reservations/middlewares"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // callers are already authenticated by token
	},
}

// FloorHandler -> websocket endpoint for floor-plan screens
func FloorHandler(hub *floor.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middlewares.CallerFrom(c)
		if caller.UserID == 0 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		hub.Register(ws, caller.Role)

		// screens only listen; reads detect the disconnect
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(ws)
	}
}
