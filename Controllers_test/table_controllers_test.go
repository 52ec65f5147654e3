package Controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

func createTable(t *testing.T, app *testApp, number string, capacity int, zone models.Zone) models.Table {
	t.Helper()
	w := app.do(t, http.MethodPost, "/admin/tables", map[string]interface{}{
		"number": number, "capacity": capacity, "zone": zone,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var table models.Table
	decodeData(t, w, &table)
	return table
}

func TestCreateAndListTables(t *testing.T) {
	app := newTestApp(t)

	a1 := createTable(t, app, "A1", 4, models.ZoneIndoor)
	assert.True(t, a1.Active)
	createTable(t, app, "G1", 6, models.ZoneGarden)

	w := app.do(t, http.MethodGet, "/admin/tables", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var tables []models.Table
	env := decodeData(t, w, &tables)
	assert.Equal(t, "List of tables", env.Message)
	assert.Len(t, tables, 2)

	w = app.do(t, http.MethodGet, "/admin/tables?zone=garden", nil)
	decodeData(t, w, &tables)
	require.Len(t, tables, 1)
	assert.Equal(t, "G1", tables[0].Number)

	w = app.do(t, http.MethodGet, "/admin/tables?zone=rooftop", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/admin/tables/"+strconv.Itoa(int(a1.ID)), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/admin/tables/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body struct {
		Data utils.ErrorBody `json:"data"`
	}
	decode(t, w, &body)
	assert.Equal(t, "not_found", body.Data.Code)

	w = app.do(t, http.MethodGet, "/admin/tables/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTableValidation(t *testing.T) {
	app := newTestApp(t)

	cases := map[string]map[string]interface{}{
		"no number":     {"capacity": 2, "zone": "indoor"},
		"zero capacity": {"number": "X", "capacity": 0, "zone": "indoor"},
		"unknown zone":  {"number": "X", "capacity": 2, "zone": "roof"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := app.do(t, http.MethodPost, "/admin/tables", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := app.doWithToken(t, http.MethodPost, "/admin/tables", map[string]interface{}{"number": "X", "capacity": 2, "zone": "indoor"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateTablePartially(t *testing.T) {
	app := newTestApp(t)
	table := createTable(t, app, "A1", 4, models.ZoneIndoor)
	path := "/admin/tables/" + strconv.Itoa(int(table.ID))

	w := app.do(t, http.MethodPatch, path, map[string]interface{}{"capacity": 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Table
	decodeData(t, w, &updated)
	assert.Equal(t, 8, updated.Capacity)
	assert.Equal(t, "A1", updated.Number)
	assert.Equal(t, models.ZoneIndoor, updated.Zone)
	assert.True(t, updated.Active)

	w = app.do(t, http.MethodPatch, path, map[string]interface{}{"zone": "mezzanine", "active": false})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &updated)
	assert.Equal(t, models.ZoneMezzanine, updated.Zone)
	assert.False(t, updated.Active)
	assert.Equal(t, 8, updated.Capacity)

	var stored models.Table
	require.NoError(t, app.db.First(&stored, table.ID).Error)
	assert.False(t, stored.Active)

	w = app.do(t, http.MethodPatch, path, map[string]interface{}{"capacity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTableDeactivates(t *testing.T) {
	app := newTestApp(t)
	table := createTable(t, app, "A1", 4, models.ZoneIndoor)

	w := app.do(t, http.MethodDelete, "/admin/tables/"+strconv.Itoa(int(table.ID)), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stored models.Table
	require.NoError(t, app.db.First(&stored, table.ID).Error, "row is kept")
	assert.False(t, stored.Active)

	w = app.do(t, http.MethodGet, "/admin/tables?active=true", nil)
	var tables []models.Table
	decodeData(t, w, &tables)
	assert.Empty(t, tables)
}
