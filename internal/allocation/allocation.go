// Package allocation splits an incoming payment into principal and interest
// components using the member's original loan terms.
package allocation

import "github.com/shopspring/decimal"

// Split computes the principal/interest components of a payment.
//
// The ratios come from the original loan schedule, not from what remains
// outstanding, so editing a member's terms after collections exist does not
// retroactively change past allocations. Components are rounded to cents half
// away from zero, which means principal + interest can drift from amountPaid
// by at most one cent per payment.
//
// When loanAmount + totalInterest is zero the split is undefined; the policy
// here is to allocate nothing (0, 0) and let the payment stand with only its
// cash amount recorded.
func Split(loanAmount, totalInterest, amountPaid float64) (principal, interest float64) {
	loan := decimal.NewFromFloat(loanAmount)
	due := decimal.NewFromFloat(totalInterest)
	paid := decimal.NewFromFloat(amountPaid)

	totalPayable := loan.Add(due)
	if totalPayable.IsZero() {
		return 0, 0
	}

	principal = paid.Mul(loan.Div(totalPayable)).Round(2).InexactFloat64()
	interest = paid.Mul(due.Div(totalPayable)).Round(2).InexactFloat64()
	return principal, interest
}
