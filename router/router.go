package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservations/controllers"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/floor"
	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"github.com/yeremiapane/restaurant-reservations/services"
)

// Deps is everything the route table needs. Nil notifier and hub are
// allowed; RateLimiter nil disables rate limiting.
type Deps struct {
	DB          *gorm.DB
	Assignments *services.TableAssignmentService
	Reservation *services.ReservationService
	Reconciler  *services.Reconciler
	Notifier    events.Notifier
	Hub         *floor.Hub
	RateLimiter *middlewares.RateLimiter
	CORSOrigin  string
	JobToken    string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.RateLimit())
	}

	tableCtrl := controllers.NewTableController(d.DB, d.Notifier)
	reservationCtrl := controllers.NewReservationController(d.Reservation)
	assignmentCtrl := controllers.NewAssignmentController(d.Assignments)
	reconcileCtrl := controllers.NewReconcileController(d.Reconciler)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Scheduler hooks, shared token instead of a user session
	jobs := r.Group("/jobs")
	jobs.Use(middlewares.JobAuth(d.JobToken))
	{
		jobs.POST("/reconcile", reconcileCtrl.Trigger)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	if d.Hub != nil {
		r.GET("/ws/floor", middlewares.AuthMiddleware(), middlewares.RequireRoles("staff"), controllers.FloorHandler(d.Hub))
	}

	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware(), middlewares.RequireRoles("staff"))

	// Tables
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable) // deactivates

	// Reservations
	auth.POST("/reservations", reservationCtrl.CreateReservation)
	auth.GET("/reservations", reservationCtrl.GetReservations)
	auth.GET("/reservations/:reservation_id", reservationCtrl.GetReservationByID)
	auth.PATCH("/reservations/:reservation_id/status", reservationCtrl.UpdateReservationStatus)

	// Availability & assignment
	auth.GET("/availability", assignmentCtrl.GetAvailability)
	auth.GET("/reservations/:reservation_id/tables", assignmentCtrl.GetAssignedTables)
	auth.PUT("/reservations/:reservation_id/tables", assignmentCtrl.AssignTables)
	auth.DELETE("/reservations/:reservation_id/tables", assignmentCtrl.ReleaseTables)

	return r
}
