// Package summary aggregates a transaction collection into totals, a
// per-category expense breakdown and daily/monthly/yearly time series.
//
// Compute is pure: it has no notion of "now" and aggregates whatever
// collection it is given. Amounts are summed as integer hundredths, so
// totals are exact regardless of collection size.
package summary

import (
	"github.com/arifhasan/khata/internal/domain"
	"github.com/arifhasan/khata/internal/money"
)

// Buckets holds income and expense sums keyed by a time bucket label.
type Buckets struct {
	Income  map[string]money.Amount `json:"income"`
	Expense map[string]money.Amount `json:"expense"`
}

func newBuckets() Buckets {
	return Buckets{
		Income:  make(map[string]money.Amount),
		Expense: make(map[string]money.Amount),
	}
}

func (b Buckets) add(kind domain.Kind, key string, amount money.Amount) {
	if kind == domain.KindExpense {
		b.Expense[key] += amount
	} else {
		b.Income[key] += amount
	}
}

// Breakdown carries the three parallel time-bucketed views of a
// collection. Daily keys are "YYYY-MM-DD", monthly "YYYY-MM", yearly
// "YYYY".
type Breakdown struct {
	Daily   Buckets `json:"daily"`
	Monthly Buckets `json:"monthly"`
	Yearly  Buckets `json:"yearly"`
}

// Summary is the full aggregation result for one identity's collection.
type Summary struct {
	TotalIncome     money.Amount            `json:"total_income"`
	TotalExpense    money.Amount            `json:"total_expense"`
	Balance         money.Amount            `json:"balance"`
	CategoryExpense map[string]money.Amount `json:"category_expense"`
	Breakdown       Breakdown               `json:"breakdown"`
}

// Compute aggregates the given transactions. An empty (or nil) collection
// yields zero totals and empty, non-nil maps.
func Compute(txs []domain.Transaction) Summary {
	s := Summary{
		CategoryExpense: make(map[string]money.Amount),
		Breakdown: Breakdown{
			Daily:   newBuckets(),
			Monthly: newBuckets(),
			Yearly:  newBuckets(),
		},
	}

	for _, tx := range txs {
		switch tx.Kind {
		case domain.KindIncome:
			s.TotalIncome += tx.Amount
		case domain.KindExpense:
			s.TotalExpense += tx.Amount
			s.CategoryExpense[tx.Category] += tx.Amount
		default:
			// Unknown kinds never pass validation; nothing to total.
			continue
		}

		s.Breakdown.Daily.add(tx.Kind, tx.OccurredOn.String(), tx.Amount)
		s.Breakdown.Monthly.add(tx.Kind, tx.OccurredOn.MonthKey(), tx.Amount)
		s.Breakdown.Yearly.add(tx.Kind, tx.OccurredOn.YearKey(), tx.Amount)
	}

	s.Balance = s.TotalIncome - s.TotalExpense
	return s
}
