package alerts

import (
	"time"

	"finanzas_backend/models"
)

// KindPolicy holds the per-kind timing rules: how long after emitting an
// alert the same kind+entity stays suppressed, and how long the emitted
// alert lives before the cleanup pass deletes it.
type KindPolicy struct {
	Cooldown time.Duration
	TTL      time.Duration
}

// DefaultPolicies returns the per-kind cooldown and TTL table. Callers
// may override individual entries before constructing the engine.
func DefaultPolicies() map[string]KindPolicy {
	return map[string]KindPolicy{
		models.AlertKindBudget80:           {Cooldown: 3 * 24 * time.Hour, TTL: 7 * 24 * time.Hour},
		models.AlertKindBudget90:           {Cooldown: 3 * 24 * time.Hour, TTL: 7 * 24 * time.Hour},
		models.AlertKindBudgetExceeded:     {Cooldown: 3 * 24 * time.Hour, TTL: 7 * 24 * time.Hour},
		models.AlertKindLoanInstallment:    {Cooldown: 5 * 24 * time.Hour, TTL: 7 * 24 * time.Hour},
		models.AlertKindInvestmentMaturity: {Cooldown: 7 * 24 * time.Hour, TTL: 14 * 24 * time.Hour},
		models.AlertKindRecurringPayment:   {Cooldown: 2 * 24 * time.Hour, TTL: 5 * 24 * time.Hour},
		models.AlertKindTaskDue:            {Cooldown: 2 * 24 * time.Hour, TTL: 5 * 24 * time.Hour},
		models.AlertKindAnomalousExpense:   {Cooldown: 3 * 24 * time.Hour, TTL: 7 * 24 * time.Hour},
	}
}
