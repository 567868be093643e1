package scheduler

import (
	"testing"
	"time"

	"finanzas_backend/models"
	"finanzas_backend/services/alerts"
	"finanzas_backend/services/subscriptions"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var passTime = time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) (*Scheduler, *time.Time, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.MigrateUserModels(db))
	require.NoError(t, models.MigrateFinanceModels(db))
	require.NoError(t, models.MigrateAlertModels(db))
	require.NoError(t, models.MigrateSubscriptionModels(db))

	repo := alerts.NewRepository(db)
	engine := alerts.NewEngine(db, repo, alerts.DefaultPolicies())
	subs := subscriptions.NewService(db)

	s := NewScheduler(engine, repo, subs)
	current := passTime
	s.now = func() time.Time { return current }
	return s, &current, db
}

func TestStartTwiceIsNoop(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	defer s.Stop()

	s.Start(60)
	firstCron := s.cron
	require.NotNil(t, firstCron)

	s.Start(60)
	assert.Same(t, firstCron, s.cron)
	assert.True(t, s.GetStatus().Running)
}

func TestStopIsIdempotentAndReported(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	s.Start(60)
	require.True(t, s.GetStatus().Running)

	s.Stop()
	assert.False(t, s.GetStatus().Running)

	// Second stop is a no-op
	s.Stop()
	assert.False(t, s.GetStatus().Running)
}

func TestStartDefaultsInterval(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	defer s.Stop()

	s.Start(0)
	assert.Equal(t, DefaultIntervalMinutes, s.GetStatus().IntervalMinutes)
}

func TestRunPassEvaluatesActiveUsersAndCleansUp(t *testing.T) {
	s, _, db := newTestScheduler(t)

	user := models.User{Email: "pass@test.com", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	category := models.Category{UserID: user.ID, Name: "Comida"}
	require.NoError(t, db.Create(&category).Error)

	budget := models.Budget{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     decimal.NewFromInt(1000),
		Period:     "monthly",
		Month:      int(passTime.Month()),
		Year:       passTime.Year(),
	}
	require.NoError(t, db.Create(&budget).Error)

	gasto := models.Gasto{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     decimal.NewFromInt(950),
		Date:       passTime.AddDate(0, 0, -1),
	}
	require.NoError(t, db.Create(&gasto).Error)

	s.runPass()

	var alertList []models.Alert
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&alertList).Error)
	require.Len(t, alertList, 1)
	assert.Equal(t, models.AlertKindBudget90, alertList[0].Kind)

	status := s.GetStatus()
	require.NotNil(t, status.LastPassAt)
	assert.True(t, status.SweepRanToday)
}

func TestDailySweepRunsOncePerDay(t *testing.T) {
	s, current, db := newTestScheduler(t)

	free := models.SubscriptionPlan{Name: "Plan Gratuito", IsActive: true}
	require.NoError(t, db.Create(&free).Error)

	user := models.User{Email: "sweep@test.com", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	sub := models.Subscription{
		UserID:    user.ID,
		PlanID:    free.ID,
		Status:    models.SubscriptionActive,
		ExpiresAt: passTime.Add(6 * time.Hour),
		AutoRenew: true,
	}
	require.NoError(t, db.Create(&sub).Error)

	s.runPass()

	var afterFirst models.Subscription
	require.NoError(t, db.First(&afterFirst, sub.ID).Error)
	require.True(t, afterFirst.ExpiresAt.Equal(passTime.AddDate(1, 0, 0)))

	// Wind the subscription back into the renewal window; a second pass
	// the same day must not touch it because the sweep already ran
	require.NoError(t, db.Model(&models.Subscription{}).Where("id = ?", sub.ID).
		Update("expires_at", passTime.Add(6*time.Hour)).Error)

	*current = passTime.Add(2 * time.Hour)
	s.runPass()

	var afterSecond models.Subscription
	require.NoError(t, db.First(&afterSecond, sub.ID).Error)
	assert.True(t, afterSecond.ExpiresAt.Equal(passTime.Add(6*time.Hour)))
	assert.True(t, s.GetStatus().SweepRanToday)

	// The next day the gate reopens
	*current = passTime.AddDate(0, 0, 1)
	assert.False(t, s.GetStatus().SweepRanToday)

	require.NoError(t, db.Model(&models.Subscription{}).Where("id = ?", sub.ID).
		Update("expires_at", current.Add(6*time.Hour)).Error)
	s.runPass()

	var afterThird models.Subscription
	require.NoError(t, db.First(&afterThird, sub.ID).Error)
	assert.True(t, afterThird.ExpiresAt.Equal(current.AddDate(1, 0, 0)))
}

func TestRunOnceIgnoresActivityFilter(t *testing.T) {
	s, _, db := newTestScheduler(t)

	// User with no recent gasto and no current budget: invisible to the
	// periodic pass, but RunOnce still evaluates them
	user := models.User{Email: "dormant@test.com", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	loan := models.Loan{
		UserID:              user.ID,
		Lender:              "Banco Uno",
		InstallmentAmount:   decimal.NewFromInt(300),
		NextInstallmentDate: passTime.Add(24 * time.Hour),
		Status:              models.StatusActive,
	}
	require.NoError(t, db.Create(&loan).Error)

	s.runPass()
	var alertList []models.Alert
	require.NoError(t, db.Find(&alertList).Error)
	assert.Empty(t, alertList)

	s.RunOnce()
	require.NoError(t, db.Find(&alertList).Error)
	require.Len(t, alertList, 1)
	assert.Equal(t, models.AlertKindLoanInstallment, alertList[0].Kind)
}

func TestRunEvaluationForUser(t *testing.T) {
	s, _, db := newTestScheduler(t)

	user := models.User{Email: "manual@test.com", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	task := models.Task{
		UserID:      user.ID,
		Title:       "Pagar impuestos",
		DueDate:     passTime.Add(20 * time.Hour),
		IsFinancial: true,
		Status:      models.TaskStatusPending,
	}
	require.NoError(t, db.Create(&task).Error)

	summary, err := s.RunEvaluationForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsCreated)

	// Re-running inside the cooldown window creates nothing new
	summary, err = s.RunEvaluationForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AlertsCreated)
	assert.Equal(t, 1, summary.Suppressed)
}
