package alerts

import (
	"testing"
	"time"

	"finanzas_backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestTrigger(t *testing.T) (*SmartTrigger, *time.Time, *Repository, *gorm.DB) {
	t.Helper()
	engine, repo, db := newTestEngine(t)

	trigger := NewSmartTrigger(engine, repo)
	current := evalTime
	trigger.now = func() time.Time { return current }

	return trigger, &current, repo, db
}

func TestSmartTriggerMinIntervalGate(t *testing.T) {
	trigger, current, _, _ := newTestTrigger(t)

	first := trigger.TryExecuteAlerts()
	assert.True(t, first.Executed)

	// 30 minutes later: inside the 60 minute minimum interval
	*current = current.Add(30 * time.Minute)
	second := trigger.TryExecuteAlerts()
	assert.False(t, second.Executed)
	assert.NotEmpty(t, second.Reason)

	stats := trigger.GetStats()
	assert.Equal(t, 1, stats.ExecutionsToday)
	require.NotNil(t, stats.NextPossibleAt)
	assert.Equal(t, evalTime.Add(60*time.Minute), *stats.NextPossibleAt)

	// Past the interval the trigger runs again
	*current = evalTime.Add(61 * time.Minute)
	third := trigger.TryExecuteAlerts()
	assert.True(t, third.Executed)
	assert.Equal(t, 2, trigger.GetStats().ExecutionsToday)
}

func TestSmartTriggerDailyCap(t *testing.T) {
	trigger, current, _, _ := newTestTrigger(t)
	trigger.maxExecutionsPerDay = 3

	for i := 0; i < 3; i++ {
		result := trigger.TryExecuteAlerts()
		require.True(t, result.Executed, "execution %d should pass the gates", i+1)
		*current = current.Add(61 * time.Minute)
	}

	capped := trigger.TryExecuteAlerts()
	assert.False(t, capped.Executed)
	assert.Equal(t, 3, trigger.GetStats().ExecutionsToday)

	// Next calendar day the counter resets
	*current = evalTime.AddDate(0, 0, 1)
	fresh := trigger.TryExecuteAlerts()
	assert.True(t, fresh.Executed)
	assert.Equal(t, 1, trigger.GetStats().ExecutionsToday)
}

func TestSmartTriggerEvaluatesRecentlyActiveUsers(t *testing.T) {
	trigger, _, repo, db := newTestTrigger(t)

	user := createUser(t, db, "trigger@test.com")
	category := models.Category{UserID: user.ID, Name: "Comida"}
	require.NoError(t, db.Create(&category).Error)

	budget := models.Budget{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     decimal.NewFromInt(1000),
		Period:     "monthly",
		Month:      int(evalTime.Month()),
		Year:       evalTime.Year(),
	}
	require.NoError(t, db.Create(&budget).Error)

	// Recent gasto both marks the user active and overruns the budget
	gasto := models.Gasto{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     decimal.NewFromInt(1100),
		Date:       evalTime.AddDate(0, 0, -1),
	}
	require.NoError(t, db.Create(&gasto).Error)

	result := trigger.TryExecuteAlerts()
	assert.True(t, result.Executed)
	assert.Equal(t, 1, result.AlertsCreated)

	alertList, err := repo.AlertsForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, alertList, 1)
	assert.Equal(t, models.AlertKindBudgetExceeded, alertList[0].Kind)
}

func TestSmartTriggerReset(t *testing.T) {
	trigger, _, _, _ := newTestTrigger(t)

	require.True(t, trigger.TryExecuteAlerts().Executed)
	require.False(t, trigger.TryExecuteAlerts().Executed)

	trigger.Reset()

	stats := trigger.GetStats()
	assert.Equal(t, 0, stats.ExecutionsToday)
	assert.Nil(t, stats.LastExecution)
	assert.True(t, trigger.TryExecuteAlerts().Executed)
}
