package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("utils-secret")

	token, err := GenerateToken(9, "staff", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, "staff", claims.Role)

	InitJWT("other-secret")
	_, err = ParseToken(token)
	assert.Error(t, err, "signature from another secret")
}

func TestParseTokenRejectsNonHMAC(t *testing.T) {
	InitJWT("utils-secret")
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &CustomClaims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(unsigned)
	assert.Error(t, err)
}

func TestTokenWithoutSecret(t *testing.T) {
	InitJWT("")
	_, err := GenerateToken(1, "staff", time.Hour)
	assert.Error(t, err)
	_, err = ParseToken("x.y.z")
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	InitLogger("debug", "json")
	assert.Equal(t, logrus.DebugLevel, InfoLogger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, InfoLogger.Formatter)
	assert.Equal(t, logrus.WarnLevel, ErrorLogger.GetLevel())

	InitLogger("loud", "text")
	assert.Equal(t, logrus.InfoLevel, InfoLogger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, InfoLogger.Formatter)
}

func TestRespondErrorCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondErrorCode(c, http.StatusConflict, errors.New("table conflict"), ErrorBody{Code: "table_conflict", TableIDs: []uint{3}})

	assert.Equal(t, http.StatusConflict, w.Code)
	var got struct {
		Status  bool      `json:"status"`
		Message string    `json:"message"`
		Data    ErrorBody `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Status)
	assert.Equal(t, "table conflict", got.Message)
	assert.Equal(t, []uint{3}, got.Data.TableIDs)
}
