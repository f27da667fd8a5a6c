package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReadinessHandler(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	h := ReadinessHandler(map[string]HealthChecker{
		"database": &DatabaseHealthChecker{DB: db},
		"provider": ProviderHealthChecker{Configured: true},
	}, nil)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Len(t, status.Checks, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadinessHandlerUnhealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("dial tcp 10.0.0.5:3306: connect: connection refused"))

	core, logs := observer.New(zap.WarnLevel)
	h := ReadinessHandler(map[string]HealthChecker{
		"database": &DatabaseHealthChecker{DB: db},
		"provider": ProviderHealthChecker{},
	}, zap.New(core))
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.NotContains(t, rec.Body.String(), "api key")

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, CheckStatus{Status: "unhealthy"}, status.Checks["database"])
	assert.Equal(t, CheckStatus{Status: "unhealthy"}, status.Checks["provider"])

	failed := logs.FilterMessage("readiness check failed").All()
	require.Len(t, failed, 2)
	assert.Equal(t, "database", failed[0].ContextMap()["check"])
	assert.Contains(t, failed[0].ContextMap()["error"], "connection refused")
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
