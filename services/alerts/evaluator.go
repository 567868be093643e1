package alerts

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// Engine runs the condition catalog for one user at a time and persists
// the candidates that survive the cooldown deduplication. All catalog
// reads are against the financial data store; all writes go through the
// alert repository.
type Engine struct {
	db       *gorm.DB
	repo     *Repository
	policies map[string]KindPolicy
}

// NewEngine creates an alert engine with the given kind policies.
// Pass DefaultPolicies() unless a deployment overrides the windows.
func NewEngine(db *gorm.DB, repo *Repository, policies map[string]KindPolicy) *Engine {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Engine{db: db, repo: repo, policies: policies}
}

// Evaluate runs every condition category for the user and returns one
// result per category. A failing category yields an error result and
// never aborts the others.
func (e *Engine) Evaluate(userID uint, now time.Time) []CategoryResult {
	type checker struct {
		category string
		run      func(uint, time.Time) ([]Candidate, error)
	}

	checkers := []checker{
		{CategoryBudgets, e.checkBudgets},
		{CategoryLoans, e.checkLoans},
		{CategoryInvestments, e.checkInvestments},
		{CategoryRecurring, e.checkRecurringPayments},
		{CategoryTasks, e.checkTasks},
		{CategoryAnomalies, e.checkAnomalousGastos},
	}

	results := make([]CategoryResult, 0, len(checkers))
	for _, chk := range checkers {
		candidates, err := runChecker(chk.run, userID, now)
		results = append(results, CategoryResult{
			Category:   chk.category,
			Candidates: candidates,
			Err:        err,
		})
	}
	return results
}

// runChecker invokes one checker and converts a panic into an error so a
// bad category can never take down the evaluation loop.
func runChecker(run func(uint, time.Time) ([]Candidate, error), userID uint, now time.Time) (candidates []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = fmt.Errorf("checker panic: %v", r)
		}
	}()
	return run(userID, now)
}

// EvaluateAndPersist evaluates the user and creates an alert for every
// candidate not suppressed by its cooldown window. Category failures are
// logged and counted but do not stop the remaining categories.
func (e *Engine) EvaluateAndPersist(userID uint, now time.Time) (EvaluationSummary, error) {
	summary := EvaluationSummary{UserID: userID, EvaluatedAt: now}

	for _, result := range e.Evaluate(userID, now) {
		if result.Err != nil {
			summary.FailedCategories++
			log.Printf("Error evaluating %s for user %d: %v", result.Category, userID, result.Err)
			continue
		}

		for _, candidate := range result.Candidates {
			created, err := e.persistCandidate(userID, candidate, now)
			if err != nil {
				return summary, err
			}
			if created {
				summary.AlertsCreated++
			} else {
				summary.Suppressed++
			}
		}
	}
	return summary, nil
}

// persistCandidate applies the cooldown check and creates the alert when
// no recent duplicate exists. A duplicate slipping through under a race
// between the lookup and the create is accepted.
func (e *Engine) persistCandidate(userID uint, c Candidate, now time.Time) (bool, error) {
	policy, ok := e.policies[c.Kind]
	if !ok {
		return false, fmt.Errorf("no policy configured for alert kind %s", c.Kind)
	}

	since := now.Add(-policy.Cooldown)
	existing, err := e.repo.FindRecentAlert(userID, c.Kind, c, since)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	var expiresAt *time.Time
	if policy.TTL > 0 {
		t := now.Add(policy.TTL)
		expiresAt = &t
	}

	if _, err := e.repo.CreateAlert(userID, c, now, expiresAt); err != nil {
		return false, err
	}
	return true, nil
}

// EvaluateUsers runs EvaluateAndPersist over a set of users with the
// scheduler's per-user failure isolation: an error on one user is logged
// and the loop continues. Returns total alerts created and failed users.
func (e *Engine) EvaluateUsers(userIDs []uint, now time.Time) (int, int) {
	created := 0
	failed := 0
	for _, userID := range userIDs {
		summary, err := e.EvaluateAndPersist(userID, now)
		created += summary.AlertsCreated
		if err != nil {
			failed++
			log.Printf("Error persisting alerts for user %d: %v", userID, err)
		}
	}
	return created, failed
}

// Policies exposes the engine's kind policy table (read-only use)
func (e *Engine) Policies() map[string]KindPolicy {
	return e.policies
}
