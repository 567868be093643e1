package alerts

import (
	"fmt"
	"math"
	"time"

	"finanzas_backend/models"

	"github.com/shopspring/decimal"
)

// Condition category names, used in CategoryResult and log lines
const (
	CategoryBudgets     = "budgets"
	CategoryLoans       = "loans"
	CategoryInvestments = "investments"
	CategoryRecurring   = "recurring_payments"
	CategoryTasks       = "tasks"
	CategoryAnomalies   = "anomalous_expenses"
)

// Horizons and thresholds for the condition catalog
const (
	loanHorizonDays       = 7
	investmentHorizonDays = 30
	recurringHorizonDays  = 3
	taskHorizonDays       = 3
	taskOverdueEscalation = 7

	anomalyBaselineDays = 30
	anomalyRecentDays   = 7
	anomalyMultiplier   = 3.0
)

// checkBudgets emits one candidate per budget of the current period
// whose consumption crossed a threshold band. Exactly one band fires per
// budget: the one containing the current usage percentage.
func (e *Engine) checkBudgets(userID uint, now time.Time) ([]Candidate, error) {
	var budgets []models.Budget
	err := e.db.Preload("Category").
		Where("user_id = ?", userID).
		Where("(period = ? AND month = ? AND year = ?) OR (period = ? AND year = ?)",
			"monthly", int(now.Month()), now.Year(), "yearly", now.Year()).
		Find(&budgets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	var candidates []Candidate
	for i := range budgets {
		budget := budgets[i]
		if !budget.Amount.IsPositive() {
			continue
		}

		start, end := budgetWindow(budget, now)
		consumed, err := e.sumGastos(userID, budget.CategoryID, start, end)
		if err != nil {
			return nil, err
		}

		amount := budget.Amount.InexactFloat64()
		spent := consumed.InexactFloat64()
		usedPct := spent / amount * 100
		remaining := budget.Amount.Sub(consumed).InexactFloat64()

		categoryName := budget.Category.Name
		if categoryName == "" {
			categoryName = fmt.Sprintf("categoría %d", budget.CategoryID)
		}

		budgetID := budget.ID
		metadata := map[string]interface{}{
			"presupuesto": amount,
			"consumido":   spent,
			"porcentaje":  math.Round(usedPct*10) / 10,
		}

		var candidate Candidate
		switch {
		case usedPct >= 100:
			metadata["excedente"] = spent - amount
			candidate = Candidate{
				Kind:     models.AlertKindBudgetExceeded,
				Priority: models.PriorityCritical,
				Title:    "Presupuesto superado",
				Message:  fmt.Sprintf("Has superado el presupuesto de %s (%.1f%% usado)", categoryName, usedPct),
			}
		case usedPct >= 90:
			metadata["montoRestante"] = remaining
			candidate = Candidate{
				Kind:     models.AlertKindBudget90,
				Priority: models.PriorityHigh,
				Title:    "Presupuesto al 90%",
				Message:  fmt.Sprintf("Has usado el %.1f%% del presupuesto de %s", usedPct, categoryName),
			}
		case usedPct >= 80:
			metadata["montoRestante"] = remaining
			candidate = Candidate{
				Kind:     models.AlertKindBudget80,
				Priority: models.PriorityMedium,
				Title:    "Presupuesto al 80%",
				Message:  fmt.Sprintf("Has usado el %.1f%% del presupuesto de %s", usedPct, categoryName),
			}
		default:
			continue
		}

		candidate.Metadata = metadata
		candidate.BudgetID = &budgetID
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// checkLoans emits a candidate for each active loan with an installment
// due within the next 7 days, escalating priority as the date nears
func (e *Engine) checkLoans(userID uint, now time.Time) ([]Candidate, error) {
	horizon := now.AddDate(0, 0, loanHorizonDays)

	var loans []models.Loan
	err := e.db.Where("user_id = ? AND status = ?", userID, models.StatusActive).
		Where("next_installment_date >= ? AND next_installment_date <= ?", now, horizon).
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	var candidates []Candidate
	for i := range loans {
		loan := loans[i]
		days := daysUntil(now, loan.NextInstallmentDate)

		priority := models.PriorityMedium
		if days <= 2 {
			priority = models.PriorityCritical
		} else if days <= 5 {
			priority = models.PriorityHigh
		}

		loanID := loan.ID
		candidates = append(candidates, Candidate{
			Kind:     models.AlertKindLoanInstallment,
			Priority: priority,
			Title:    "Cuota de préstamo próxima",
			Message:  fmt.Sprintf("La cuota del préstamo de %s vence en %d días", loan.Lender, days),
			Metadata: map[string]interface{}{
				"diasRestantes": days,
				"montoCuota":    loan.InstallmentAmount.InexactFloat64(),
			},
			LoanID: &loanID,
		})
	}
	return candidates, nil
}

// checkInvestments emits a candidate for each active investment maturing
// within the next 30 days
func (e *Engine) checkInvestments(userID uint, now time.Time) ([]Candidate, error) {
	horizon := now.AddDate(0, 0, investmentHorizonDays)

	var investments []models.Investment
	err := e.db.Where("user_id = ? AND status = ?", userID, models.StatusActive).
		Where("maturity_date >= ? AND maturity_date <= ?", now, horizon).
		Find(&investments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load investments: %w", err)
	}

	var candidates []Candidate
	for i := range investments {
		inv := investments[i]
		days := daysUntil(now, inv.MaturityDate)

		priority := models.PriorityLow
		if days <= 7 {
			priority = models.PriorityHigh
		} else if days <= 15 {
			priority = models.PriorityMedium
		}

		invID := inv.ID
		candidates = append(candidates, Candidate{
			Kind:     models.AlertKindInvestmentMaturity,
			Priority: priority,
			Title:    "Inversión próxima a vencer",
			Message:  fmt.Sprintf("La inversión %s vence en %d días", inv.Name, days),
			Metadata: map[string]interface{}{
				"diasRestantes": days,
				"valorActual":   inv.CurrentValue.InexactFloat64(),
			},
			InvestmentID: &invID,
		})
	}
	return candidates, nil
}

// checkRecurringPayments emits a candidate for each unpaid recurring
// obligation due within the next 3 days
func (e *Engine) checkRecurringPayments(userID uint, now time.Time) ([]Candidate, error) {
	horizon := now.AddDate(0, 0, recurringHorizonDays)

	var payments []models.RecurringPayment
	err := e.db.Where("user_id = ? AND status IN ?", userID,
		[]string{models.RecurringStatusPending, models.RecurringStatusPartial}).
		Where("next_due_date >= ? AND next_due_date <= ?", now, horizon).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recurring payments: %w", err)
	}

	var candidates []Candidate
	for i := range payments {
		payment := payments[i]
		days := daysUntil(now, payment.NextDueDate)

		priority := models.PriorityMedium
		if days <= 1 {
			priority = models.PriorityHigh
		}

		paymentID := payment.ID
		candidates = append(candidates, Candidate{
			Kind:     models.AlertKindRecurringPayment,
			Priority: priority,
			Title:    "Pago recurrente próximo",
			Message:  fmt.Sprintf("El pago de %s vence en %d días", payment.Concept, days),
			Metadata: map[string]interface{}{
				"diasRestantes": days,
				"monto":         payment.Amount.InexactFloat64(),
			},
			RecurringPaymentID: &paymentID,
		})
	}
	return candidates, nil
}

// checkTasks covers two sub-checks: pending tasks due within 3 days and
// pending tasks already overdue. A task matches at most one of the two.
func (e *Engine) checkTasks(userID uint, now time.Time) ([]Candidate, error) {
	horizon := now.AddDate(0, 0, taskHorizonDays)

	var tasks []models.Task
	err := e.db.Where("user_id = ? AND status = ?", userID, models.TaskStatusPending).
		Where("due_date <= ?", horizon).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	var candidates []Candidate
	for i := range tasks {
		task := tasks[i]
		taskID := task.ID

		if task.DueDate.Before(now) {
			// Overdue: starts MEDIUM, escalates with importance and age
			overdueDays := daysUntil(task.DueDate, now)
			priority := models.PriorityMedium
			if task.IsFinancial || task.Priority == models.TaskPriorityHigh {
				priority = models.PriorityHigh
			}
			if overdueDays > taskOverdueEscalation {
				priority = models.PriorityCritical
			}

			candidates = append(candidates, Candidate{
				Kind:     models.AlertKindTaskDue,
				Priority: priority,
				Title:    "Tarea vencida",
				Message:  fmt.Sprintf("La tarea \"%s\" lleva %d días vencida", task.Title, overdueDays),
				Metadata: map[string]interface{}{
					"diasVencida": overdueDays,
					"financiera":  task.IsFinancial,
				},
				TaskID: &taskID,
			})
			continue
		}

		days := daysUntil(now, task.DueDate)
		priority := models.PriorityMedium
		if days <= 1 || task.IsFinancial || task.Priority == models.TaskPriorityHigh {
			priority = models.PriorityHigh
		}

		candidates = append(candidates, Candidate{
			Kind:     models.AlertKindTaskDue,
			Priority: priority,
			Title:    "Tarea próxima a vencer",
			Message:  fmt.Sprintf("La tarea \"%s\" vence en %d días", task.Title, days),
			Metadata: map[string]interface{}{
				"diasRestantes": days,
				"financiera":    task.IsFinancial,
			},
			TaskID: &taskID,
		})
	}
	return candidates, nil
}

// checkAnomalousGastos flags expenses in the trailing week that are at
// least 3x the user's baseline mean. The baseline window ends 7 days ago
// so current spending does not bias its own baseline. With no baseline
// data the check is skipped entirely.
func (e *Engine) checkAnomalousGastos(userID uint, now time.Time) ([]Candidate, error) {
	baseStart := now.AddDate(0, 0, -anomalyBaselineDays)
	baseEnd := now.AddDate(0, 0, -anomalyRecentDays)

	var baseline []models.Gasto
	err := e.db.Where("user_id = ? AND date >= ? AND date < ?", userID, baseStart, baseEnd).
		Find(&baseline).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline gastos: %w", err)
	}
	if len(baseline) == 0 {
		return nil, nil
	}

	total := decimal.Zero
	for i := range baseline {
		total = total.Add(baseline[i].Amount)
	}
	mean := total.InexactFloat64() / float64(len(baseline))
	if mean <= 0 {
		return nil, nil
	}

	var recent []models.Gasto
	err = e.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, baseEnd, now).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent gastos: %w", err)
	}

	var candidates []Candidate
	for i := range recent {
		gasto := recent[i]
		amount := gasto.Amount.InexactFloat64()
		if amount < anomalyMultiplier*mean {
			continue
		}

		multiplier := math.Round(amount/mean*10) / 10
		gastoID := gasto.ID
		candidates = append(candidates, Candidate{
			Kind:     models.AlertKindAnomalousExpense,
			Priority: models.PriorityHigh,
			Title:    "Gasto inusual detectado",
			Message:  fmt.Sprintf("El gasto \"%s\" es %.1fx tu promedio habitual", gasto.Description, multiplier),
			Metadata: map[string]interface{}{
				"monto":         amount,
				"promedioBase":  math.Round(mean*100) / 100,
				"multiplicador": multiplier,
			},
			GastoID: &gastoID,
		})
	}
	return candidates, nil
}

// sumGastos totals a user's expenses for a category inside [start, end)
func (e *Engine) sumGastos(userID, categoryID uint, start, end time.Time) (decimal.Decimal, error) {
	var consumed decimal.NullDecimal
	err := e.db.Model(&models.Gasto{}).
		Where("user_id = ? AND category_id = ? AND date >= ? AND date < ?", userID, categoryID, start, end).
		Select("SUM(amount)").
		Scan(&consumed).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum gastos: %w", err)
	}
	if !consumed.Valid {
		return decimal.Zero, nil
	}
	return consumed.Decimal, nil
}

// budgetWindow returns the [start, end) interval a budget covers
func budgetWindow(budget models.Budget, now time.Time) (time.Time, time.Time) {
	if budget.Period == "yearly" {
		start := time.Date(budget.Year, time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0)
	}
	start := time.Date(budget.Year, time.Month(budget.Month), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// daysUntil returns whole days from "from" to "to", truncating partial days
func daysUntil(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
