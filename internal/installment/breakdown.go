package installment

import (
	"fmt"
	"time"
)

// ArithmeticGuardError reports an attempt to split a single-payment plan.
// Reaching it means a caller skipped the installments check.
type ArithmeticGuardError struct {
	PlanID       string
	Installments int
}

func (e *ArithmeticGuardError) Error() string {
	return fmt.Sprintf("plan %q has %d installment(s); no remainder to split", e.PlanID, e.Installments)
}

// Breakdown is the due-today and remainder split for a subtotal under a plan.
type Breakdown struct {
	Subtotal                float64 `json:"subtotal"`
	ProcessingFee           float64 `json:"processingFee"`
	TotalWithFee            float64 `json:"totalWithFee"`
	DownPaymentAmount       float64 `json:"downPaymentAmount"`
	PerInstallmentRemainder float64 `json:"perInstallmentRemainder"`
	RemainingTotal          float64 `json:"remainingTotal"`
	Installments            int     `json:"installments"`
}

// Compute splits subtotal according to plan. The processing fee is collected
// with the down payment. Single-payment plans never compute a remainder.
func Compute(subtotal float64, plan Plan) (Breakdown, error) {
	if err := plan.Check(); err != nil {
		return Breakdown{}, err
	}
	if subtotal < 0 {
		return Breakdown{}, fmt.Errorf("%w: subtotal must not be negative", ErrInvalidPlan)
	}
	fee := plan.ProcessingFeeFlat
	out := Breakdown{
		Subtotal:      subtotal,
		ProcessingFee: fee,
		TotalWithFee:  subtotal + fee,
		Installments:  plan.Installments,
	}
	if !plan.IsInstallment() {
		out.DownPaymentAmount = subtotal + fee
		return out, nil
	}
	down := subtotal * plan.DownPaymentPercent / 100
	per, err := PerInstallment(subtotal, plan)
	if err != nil {
		return Breakdown{}, err
	}
	out.DownPaymentAmount = down + fee
	out.PerInstallmentRemainder = per
	out.RemainingTotal = subtotal - down
	return out, nil
}

// PerInstallment is the amount of each installment after the down payment.
func PerInstallment(subtotal float64, plan Plan) (float64, error) {
	if plan.Installments <= 1 {
		return 0, &ArithmeticGuardError{PlanID: plan.ID, Installments: plan.Installments}
	}
	return subtotal * (100 - plan.DownPaymentPercent) / 100 / float64(plan.Installments-1), nil
}

// Due is one scheduled payment.
type Due struct {
	Index  int       `json:"index"`
	DueAt  time.Time `json:"dueAt"`
	Amount float64   `json:"amount"`
}

// Schedule lays the breakdown out as dated payments: the down payment at start
// and each remaining installment one calendar month apart.
func Schedule(b Breakdown, start time.Time) []Due {
	out := []Due{{Index: 0, DueAt: start, Amount: b.DownPaymentAmount}}
	for i := 1; i < b.Installments; i++ {
		out = append(out, Due{Index: i, DueAt: start.AddDate(0, i, 0), Amount: b.PerInstallmentRemainder})
	}
	return out
}
