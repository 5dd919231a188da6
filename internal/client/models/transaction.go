package models

import "time"

type TransactionKind string

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

// Transaction is a single money movement.
type Transaction struct {
	ID       int64           `json:"id,omitempty"`
	Kind     TransactionKind `json:"type"`
	Amount   float64         `json:"amount"`
	Category string          `json:"category"`
	Notes    string          `json:"notes,omitempty"`

	// Date is when the money moved; CreatedAt is when it was recorded.
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

type TransactionPatch struct {
	Kind     *TransactionKind
	Amount   *float64
	Category *string
	Notes    *string
	Date     *time.Time
}

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

// MoneySummary aggregates transactions over a period.
type MoneySummary struct {
	Income  float64
	Expense float64
	Count   int
}

func (s MoneySummary) Balance() float64 {
	return s.Income - s.Expense
}

// Summarize totals txs by kind.
func Summarize(txs []Transaction) MoneySummary {
	var s MoneySummary
	for _, tx := range txs {
		switch tx.Kind {
		case Income:
			s.Income += tx.Amount
		case Expense:
			s.Expense += tx.Amount
		}
		s.Count++
	}
	return s
}
