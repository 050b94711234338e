package pricing

// Aggregate sums line-item totals into the project baseline. An empty list is
// a valid project (e.g. an all-freeform submission) and totals zero. Freeform
// items carry a zero total by construction, so no special casing is needed
// here; the sum is order-independent.
func Aggregate(totals []int64) int64 {
	var sum int64
	for _, t := range totals {
		sum += t
	}
	return sum
}
