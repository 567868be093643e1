package alerts

import (
	"time"
)

// Candidate is a provisional alert produced by a condition checker.
// It becomes a persisted models.Alert only after passing the cooldown
// deduplication in the evaluator.
type Candidate struct {
	Kind     string
	Priority string
	Title    string
	Message  string
	Metadata map[string]interface{}

	// Reference to the triggering entity. At most one is set; the
	// cooldown deduplication keys on it together with Kind.
	BudgetID           *uint
	RecurringPaymentID *uint
	LoanID             *uint
	InvestmentID       *uint
	TaskID             *uint
	GastoID            *uint
}

// CategoryResult captures the outcome of one condition category for one
// user: either its candidates or the error that made it produce none.
type CategoryResult struct {
	Category   string
	Candidates []Candidate
	Err        error
}

// EvaluationSummary aggregates a full evaluation pass for one user.
type EvaluationSummary struct {
	UserID           uint
	AlertsCreated    int
	Suppressed       int
	FailedCategories int
	EvaluatedAt      time.Time
}
