package loans

import "time"

// FlatInterest returns the interest owed on principal over months at the
// given annual rate, rounded half up to the centavo.
func FlatInterest(principal int64, rateBasisPoints, months int) int64 {
	num := principal * int64(rateBasisPoints) * int64(months)
	const den = 10_000 * 12
	return (num + den/2) / den
}

// Schedule splits total into equal monthly installments starting one month
// after start. The last installment absorbs the rounding remainder.
func Schedule(total int64, months int, start time.Time) []Installment {
	if months <= 0 {
		return nil
	}
	each := total / int64(months)
	out := make([]Installment, months)
	for i := range out {
		amount := each
		if i == months-1 {
			amount = total - each*int64(months-1)
		}
		out[i] = Installment{
			Number:  i + 1,
			DueDate: addMonths(start, i+1),
			Amount:  amount,
			Status:  InstallmentPending,
		}
	}
	return out
}

// addMonths keeps the day of month, clamped to the last day of shorter months.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
