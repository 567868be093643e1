package scheduler

// Package scheduler drives the background work of the finanzas backend:
// - Periodic alert evaluation passes over active users
// - Expired alert cleanup after each pass
// - The once-daily subscription lifecycle sweep
//
// The scheduler is constructed once in main and shared by reference; it
// is not safe to run two instances against the same database (the daily
// sweep gate and rate counters are process-local).

import (
	"log"
	"sync"
	"time"

	"finanzas_backend/services/alerts"
	"finanzas_backend/services/subscriptions"

	"github.com/go-co-op/gocron"
)

// DefaultIntervalMinutes is the evaluation interval used when Start is
// called with a non-positive value
const DefaultIntervalMinutes = 60

// activityWindow is how far back a gasto keeps a user "active" for the
// periodic pass
const activityWindow = 30 * 24 * time.Hour

// Scheduler runs evaluation passes on a fixed interval and gates the
// daily subscription sweep
type Scheduler struct {
	mu sync.Mutex

	cron          *gocron.Scheduler
	engine        *alerts.Engine
	repo          *alerts.Repository
	subscriptions *subscriptions.Service

	running         bool
	intervalMinutes int
	lastPassAt      *time.Time
	lastSweepDate   string // "2006-01-02" of the last completed sweep

	now func() time.Time
}

// Status reports the scheduler's state
type Status struct {
	Running         bool       `json:"running"`
	IntervalMinutes int        `json:"interval_minutes"`
	LastPassAt      *time.Time `json:"last_pass_at"`
	SweepRanToday   bool       `json:"sweep_ran_today"`
}

// NewScheduler creates a new scheduler instance
func NewScheduler(engine *alerts.Engine, repo *alerts.Repository, subs *subscriptions.Service) *Scheduler {
	return &Scheduler{
		engine:        engine,
		repo:          repo,
		subscriptions: subs,
		now:           time.Now,
	}
}

// Start begins periodic evaluation. The first pass runs immediately,
// then every intervalMinutes. Calling Start while running is a no-op.
func (s *Scheduler) Start(intervalMinutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Println("Scheduler already running, ignoring Start")
		return
	}
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}

	// gocron only recovers job panics when a handler is installed; without
	// one a panicking pass would take down the process.
	gocron.SetPanicHandler(func(jobName string, recoverData interface{}) {
		log.Printf("Recovered panic in scheduled job %q: %v", jobName, recoverData)
	})

	s.cron = gocron.NewScheduler(time.UTC)
	s.cron.Every(intervalMinutes).Minutes().StartImmediately().Do(func() {
		s.runPass()
	})
	s.cron.StartAsync()

	s.running = true
	s.intervalMinutes = intervalMinutes
	log.Printf("Scheduler started (interval: %d minutes)", intervalMinutes)
}

// Stop cancels the timer. An in-flight pass runs to completion.
// Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.running = false
	log.Println("Scheduler stopped")
}

// GetStatus reports whether the scheduler is running and whether the
// subscription sweep already ran today
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:         s.running,
		IntervalMinutes: s.intervalMinutes,
		LastPassAt:      s.lastPassAt,
		SweepRanToday:   s.lastSweepDate == s.now().Format("2006-01-02"),
	}
}

// RunOnce runs a one-shot evaluation pass over every user, ignoring the
// activity filter. It does not touch the daily sweep gate.
func (s *Scheduler) RunOnce() {
	now := s.now()
	log.Println("Running one-shot evaluation pass over all users...")

	userIDs, err := s.repo.AllUserIDs()
	if err != nil {
		log.Printf("Error enumerating users: %v", err)
		return
	}

	created, failed := s.engine.EvaluateUsers(userIDs, now)
	s.cleanupExpired(now)
	log.Printf("One-shot pass completed: %d users, %d alerts created, %d failures", len(userIDs), created, failed)
}

// RunEvaluationForUser runs a manual single-user evaluation
func (s *Scheduler) RunEvaluationForUser(userID uint) (alerts.EvaluationSummary, error) {
	return s.engine.EvaluateAndPersist(userID, s.now())
}

// runPass is one scheduled tick: evaluate active users, clean expired
// alerts, and run the subscription sweep if it has not run today
func (s *Scheduler) runPass() {
	now := s.now()
	log.Println("Running scheduled evaluation pass...")

	userIDs, err := s.repo.ActiveUserIDs(now, activityWindow)
	if err != nil {
		log.Printf("Error enumerating active users: %v", err)
	} else {
		created, failed := s.engine.EvaluateUsers(userIDs, now)
		log.Printf("Evaluated %d active users: %d alerts created, %d failures", len(userIDs), created, failed)
	}

	s.cleanupExpired(now)
	s.maybeRunDailySweep(now)

	s.mu.Lock()
	passAt := now
	s.lastPassAt = &passAt
	s.mu.Unlock()
}

// cleanupExpired deletes alerts whose expiry passed
func (s *Scheduler) cleanupExpired(now time.Time) {
	deleted, err := s.repo.DeleteExpiredAlerts(now)
	if err != nil {
		log.Printf("Error deleting expired alerts: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Deleted %d expired alerts", deleted)
	}
}

// maybeRunDailySweep runs the subscription sweep at most once per
// calendar day, however often the interval fires
func (s *Scheduler) maybeRunDailySweep(now time.Time) {
	today := now.Format("2006-01-02")

	s.mu.Lock()
	alreadyRan := s.lastSweepDate == today
	s.mu.Unlock()
	if alreadyRan {
		return
	}

	report, err := s.subscriptions.RunDailySweep(now)
	if err != nil {
		log.Printf("Subscription sweep failed: %v", err)
		return
	}

	s.mu.Lock()
	s.lastSweepDate = today
	s.mu.Unlock()

	log.Printf("Subscription sweep completed: %d grace periods, %d free renewals, %d downgrades",
		report.GracePeriodsGranted, report.FreeRenewals, report.Downgraded)
}
