package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// TableController manages the physical tables. Tables are never hard
// deleted because assignments keep referring to them.
type TableController struct {
	DB       *gorm.DB
	Notifier events.Notifier
}

func NewTableController(db *gorm.DB, notifier events.Notifier) *TableController {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &TableController{DB: db, Notifier: notifier}
}

type createTableRequest struct {
	Number   string      `json:"number" binding:"required,max=50"`
	Capacity int         `json:"capacity" binding:"required,gt=0"`
	Zone     models.Zone `json:"zone" binding:"required,zone"`
	Active   *bool       `json:"active"`
}

type updateTableRequest struct {
	Number   *string      `json:"number" binding:"omitempty,min=1,max=50"`
	Capacity *int         `json:"capacity" binding:"omitempty,gt=0"`
	Zone     *models.Zone `json:"zone" binding:"omitempty,zone"`
	Active   *bool        `json:"active"`
}

// CreateTable -> add a table, active unless told otherwise
func (tc *TableController) CreateTable(c *gin.Context) {
	var req createTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		Number:   req.Number,
		Capacity: req.Capacity,
		Zone:     req.Zone,
		Active:   true,
	}
	if req.Active != nil {
		table.Active = *req.Active
	}

	if err := tc.DB.WithContext(c.Request.Context()).Create(&table).Error; err != nil {
		respondServiceError(c, storageFailure(err))
		return
	}

	tc.Notifier.Notify(c.Request.Context(), events.New(events.EventTableCreate, table))
	utils.InfoLogger.WithField("user_id", middlewares.CallerFrom(c).UserID).
		Infof("New table created: %s (capacity=%d zone=%s)", table.Number, table.Capacity, table.Zone)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> list tables, optionally filtered by zone and active
func (tc *TableController) GetAllTables(c *gin.Context) {
	q := tc.DB.WithContext(c.Request.Context()).Model(&models.Table{})

	if zone := c.Query("zone"); zone != "" {
		if !models.IsValidZone(zone) {
			respondServiceError(c, services.ErrInvalidInput)
			return
		}
		q = q.Where("zone = ?", zone)
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondServiceError(c, services.ErrInvalidInput)
			return
		}
		q = q.Where("active = ?", active)
	}

	tables := make([]models.Table, 0)
	if err := q.Order("number ASC").Order("id ASC").Find(&tables).Error; err != nil {
		respondServiceError(c, storageFailure(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> one table
func (tc *TableController) GetTableByID(c *gin.Context) {
	table, ok := tc.load(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable -> partial update, only the fields present in the body change
func (tc *TableController) UpdateTable(c *gin.Context) {
	var req updateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, ok := tc.load(c)
	if !ok {
		return
	}
	if err := copier.CopyWithOption(&table, &req, copier.Option{IgnoreEmpty: true}); err != nil {
		respondServiceError(c, err)
		return
	}

	if err := tc.save(c, &table); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Infof("Table %d updated", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> deactivate; existing assignments stay intact
func (tc *TableController) DeleteTable(c *gin.Context) {
	table, ok := tc.load(c)
	if !ok {
		return
	}

	if table.Active {
		table.Active = false
		if err := tc.save(c, &table); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	utils.InfoLogger.Infof("Table %d deactivated", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deactivated", gin.H{
		"id":     table.ID,
		"active": table.Active,
	})
}

func (tc *TableController) load(c *gin.Context) (models.Table, bool) {
	var table models.Table
	id, err := paramID(c, "table_id")
	if err != nil {
		respondServiceError(c, err)
		return table, false
	}
	if err := tc.DB.WithContext(c.Request.Context()).First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondServiceError(c, &services.NotFoundError{Entity: "table", IDs: []uint{id}})
		} else {
			respondServiceError(c, storageFailure(err))
		}
		return table, false
	}
	return table, true
}

// save writes every column so that false and zero values are persisted.
func (tc *TableController) save(c *gin.Context, table *models.Table) error {
	if err := tc.DB.WithContext(c.Request.Context()).Save(table).Error; err != nil {
		return storageFailure(err)
	}
	tc.Notifier.Notify(c.Request.Context(), events.New(events.EventTableUpdate, *table))
	return nil
}

func storageFailure(err error) error {
	return fmt.Errorf("%w: %w", services.ErrStorageFailure, err)
}
