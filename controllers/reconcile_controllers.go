package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-reservations/services"
)

// ReconcileController lets an external scheduler trigger the stale
// reservation sweep. The route is guarded by middlewares.JobAuth.
type ReconcileController struct {
	Reconciler *services.Reconciler
}

func NewReconcileController(r *services.Reconciler) *ReconcileController {
	return &ReconcileController{Reconciler: r}
}

func (rc *ReconcileController) Trigger(c *gin.Context) {
	updated, err := rc.Reconciler.Run(c.Request.Context(), services.SystemCaller)
	if err != nil {
		status, _ := classify(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}
