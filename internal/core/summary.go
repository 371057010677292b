package core

// Summarize folds a set of transactions into income/expense totals and
// the resulting balance. The file-backed store computes its summary
// with this accumulation; the document database computes the same
// figures server-side with a group-by-type aggregation. Both paths
// must agree for identical data.
func Summarize(txns []Transaction) Summary {
	var s Summary
	for _, t := range txns {
		switch t.Type {
		case Income:
			s.Income += t.Amount
		case Expense:
			s.Expense += t.Amount
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}
