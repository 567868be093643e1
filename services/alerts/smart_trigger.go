package alerts

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// SmartTrigger runs the alert engine on demand from high-traffic pages
// instead of on a timer, behind two in-process gates: a minimum interval
// between executions and a daily execution cap. The gate counters are
// process-local and reset on restart.
type SmartTrigger struct {
	mu sync.Mutex

	engine *Engine
	repo   *Repository

	minInterval         time.Duration
	maxExecutionsPerDay int
	recencyWindow       time.Duration

	lastExecution   time.Time
	executionsToday int
	countDate       string // "2006-01-02" of the day executionsToday counts

	now func() time.Time
}

// TriggerResult reports whether a trigger call ran and why not otherwise
type TriggerResult struct {
	Executed      bool   `json:"executed"`
	Reason        string `json:"reason,omitempty"`
	AlertsCreated int    `json:"alerts_created,omitempty"`
}

// TriggerStats reports the trigger's gate state
type TriggerStats struct {
	LastExecution       *time.Time `json:"last_execution"`
	ExecutionsToday     int        `json:"executions_today"`
	MaxExecutionsPerDay int        `json:"max_executions_per_day"`
	MinIntervalMinutes  int        `json:"min_interval_minutes"`
	NextPossibleAt      *time.Time `json:"next_possible_at"`
}

// NewSmartTrigger creates a smart trigger with the default gates:
// 60 minutes between executions, 24 executions per day, users active
// in the last 7 days.
func NewSmartTrigger(engine *Engine, repo *Repository) *SmartTrigger {
	return &SmartTrigger{
		engine:              engine,
		repo:                repo,
		minInterval:         60 * time.Minute,
		maxExecutionsPerDay: 24,
		recencyWindow:       7 * 24 * time.Hour,
		now:                 time.Now,
	}
}

// TryExecuteAlerts runs an evaluation pass over recently active users if
// both gates pass. The execution is recorded before any work so a slow
// pass still counts against the limits.
func (t *SmartTrigger) TryExecuteAlerts() TriggerResult {
	now := t.now()

	t.mu.Lock()
	t.resetCounterIfNewDay(now)

	if !t.lastExecution.IsZero() {
		elapsed := now.Sub(t.lastExecution)
		if elapsed < t.minInterval {
			remaining := t.minInterval - elapsed
			t.mu.Unlock()
			return TriggerResult{
				Executed: false,
				Reason:   fmt.Sprintf("última ejecución hace %d min, faltan %d min", int(elapsed.Minutes()), int(remaining.Minutes())+1),
			}
		}
	}

	if t.executionsToday >= t.maxExecutionsPerDay {
		t.mu.Unlock()
		return TriggerResult{
			Executed: false,
			Reason:   fmt.Sprintf("límite diario alcanzado (%d ejecuciones)", t.maxExecutionsPerDay),
		}
	}

	t.lastExecution = now
	t.executionsToday++
	t.countDate = now.Format("2006-01-02")
	t.mu.Unlock()

	userIDs, err := t.repo.RecentlyActiveUserIDs(now, t.recencyWindow)
	if err != nil {
		log.Printf("Smart trigger: error enumerating users: %v", err)
		return TriggerResult{Executed: true, Reason: "error al enumerar usuarios"}
	}

	created, failed := t.engine.EvaluateUsers(userIDs, now)
	if failed > 0 {
		log.Printf("Smart trigger: %d of %d users failed evaluation", failed, len(userIDs))
	}

	if deleted, err := t.repo.DeleteExpiredAlerts(now); err != nil {
		log.Printf("Smart trigger: error deleting expired alerts: %v", err)
	} else if deleted > 0 {
		log.Printf("Smart trigger: deleted %d expired alerts", deleted)
	}

	log.Printf("Smart trigger: evaluated %d users, created %d alerts", len(userIDs), created)
	return TriggerResult{Executed: true, AlertsCreated: created}
}

// GetStats returns the current gate state
func (t *SmartTrigger) GetStats() TriggerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetCounterIfNewDay(t.now())

	stats := TriggerStats{
		ExecutionsToday:     t.executionsToday,
		MaxExecutionsPerDay: t.maxExecutionsPerDay,
		MinIntervalMinutes:  int(t.minInterval.Minutes()),
	}
	if !t.lastExecution.IsZero() {
		last := t.lastExecution
		next := last.Add(t.minInterval)
		stats.LastExecution = &last
		stats.NextPossibleAt = &next
	}
	return stats
}

// Reset clears all gate state. Intended for tests.
func (t *SmartTrigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastExecution = time.Time{}
	t.executionsToday = 0
	t.countDate = ""
}

// resetCounterIfNewDay zeroes the daily counter when the date changed.
// Caller must hold the mutex.
func (t *SmartTrigger) resetCounterIfNewDay(now time.Time) {
	today := now.Format("2006-01-02")
	if t.countDate != "" && t.countDate != today {
		t.executionsToday = 0
		t.countDate = today
	}
}
