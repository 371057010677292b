package core

import "testing"

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		txns []Transaction
		want Summary
	}{
		{
			name: "empty ledger",
			want: Summary{},
		},
		{
			name: "mixed types",
			txns: []Transaction{
				{Type: Income, Amount: 100},
				{Type: Expense, Amount: 20},
				{Type: Expense, Amount: 5.5},
			},
			want: Summary{Income: 100, Expense: 25.5, Balance: 74.5},
		},
		{
			name: "expenses exceed income",
			txns: []Transaction{
				{Type: Income, Amount: 10},
				{Type: Expense, Amount: 30},
			},
			want: Summary{Income: 10, Expense: 30, Balance: -20},
		},
		{
			name: "only income",
			txns: []Transaction{
				{Type: Income, Amount: 42},
			},
			want: Summary{Income: 42, Balance: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.txns); got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
