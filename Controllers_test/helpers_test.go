package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-reservations/controllers"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/router"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const jobToken = "job-secret"

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	token  string
	now    time.Time
}

// newTestApp wires the full route table over a private in-memory database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("controllers-test-secret")
	require.NoError(t, controllers.RegisterValidators())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	now := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	r := router.SetupRouter(router.Deps{
		DB:          db,
		Assignments: services.NewTableAssignmentService(db, services.NewTimeWindowResolver(2*time.Hour)),
		Reservation: services.NewReservationService(db, nil),
		Reconciler: services.NewReconciler(db,
			services.WithLocation(time.UTC),
			services.WithClock(func() time.Time { return now }),
		),
		JobToken: jobToken,
	})

	token, err := utils.GenerateToken(7, "staff", time.Hour)
	require.NoError(t, err)
	return &testApp{db: db, router: r, token: token, now: now}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return a.doWithToken(t, method, path, body, a.token)
}

func (a *testApp) doWithToken(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// envelope decodes utils.JSONResponse with data left raw.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()
	var env envelope
	decode(t, w, &env)
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
	}
	return env
}
