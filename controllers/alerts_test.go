package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finanzas_backend/models"
	"finanzas_backend/services/alerts"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAlertController(t *testing.T) (*AlertController, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.MigrateUserModels(db))
	require.NoError(t, models.MigrateAlertModels(db))

	repo := alerts.NewRepository(db)
	return NewAlertController(repo, nil, nil), db
}

func seedAlert(t *testing.T, db *gorm.DB, userID uint, kind string) {
	t.Helper()
	alert := models.Alert{
		UserID:   userID,
		Kind:     kind,
		Priority: models.PriorityMedium,
		Title:    "Aviso de prueba",
		Metadata: "{}",
	}
	require.NoError(t, db.Create(&alert).Error)
}

func getAlertsAs(ctrl *AlertController, subject, role, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/alerts"+query, nil)
	if subject != "" {
		c.Set("user_id", subject)
	}
	c.Set("user_role", role)
	ctrl.GetAlerts(c)
	return w
}

func decodeAlerts(t *testing.T, w *httptest.ResponseRecorder) []models.Alert {
	t.Helper()
	var body struct {
		Data []models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestGetAlertsScopedToTokenSubject(t *testing.T) {
	ctrl, db := newAlertController(t)
	seedAlert(t, db, 1, models.AlertKindBudget90)
	seedAlert(t, db, 2, models.AlertKindTaskDue)

	w := getAlertsAs(ctrl, "1", "user", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeAlerts(t, w)
	require.Len(t, data, 1)
	assert.Equal(t, uint(1), data[0].UserID)
	assert.Equal(t, models.AlertKindBudget90, data[0].Kind)
}

func TestGetAlertsOtherUserRequiresAdmin(t *testing.T) {
	ctrl, db := newAlertController(t)
	seedAlert(t, db, 2, models.AlertKindTaskDue)

	w := getAlertsAs(ctrl, "1", "user", "?user_id=2")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = getAlertsAs(ctrl, "1", "admin", "?user_id=2")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeAlerts(t, w)
	require.Len(t, data, 1)
	assert.Equal(t, uint(2), data[0].UserID)
}

func TestGetAlertsWithoutAuthContext(t *testing.T) {
	ctrl, _ := newAlertController(t)

	w := getAlertsAs(ctrl, "", "user", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
