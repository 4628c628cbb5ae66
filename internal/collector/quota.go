package collector

import "time"

// QuotaTracker owns the remaining daily API budget for one run. The budget
// is re-derived from the current UTC day before every check and spend, so a
// run that crosses midnight starts the new day with a full budget and never
// banks leftover units from the prior day.
type QuotaTracker struct {
	dailyMax int
	used     int
	day      string
	runUsed  int
	now      func() time.Time
}

func NewQuotaTracker(dailyMax int) *QuotaTracker {
	return &QuotaTracker{dailyMax: dailyMax, now: time.Now}
}

func (q *QuotaTracker) resetIfNewDay() {
	day := q.now().UTC().Format("2006-01-02")
	if day != q.day {
		q.day = day
		q.used = 0
	}
}

// Remaining reports the units left in the current UTC day's budget.
func (q *QuotaTracker) Remaining() int {
	q.resetIfNewDay()
	return q.dailyMax - q.used
}

func (q *QuotaTracker) CanSpend(cost int) bool {
	return cost <= q.Remaining()
}

// Spend decrements the budget, failing with ErrQuotaExceeded when cost
// exceeds the remainder. Remaining never goes negative.
func (q *QuotaTracker) Spend(cost int) error {
	q.resetIfNewDay()
	if cost > q.dailyMax-q.used {
		return ErrQuotaExceeded
	}
	q.used += cost
	q.runUsed += cost
	return nil
}

// RunUsage is the cumulative spend of this run, across day boundaries.
func (q *QuotaTracker) RunUsage() int {
	return q.runUsed
}
