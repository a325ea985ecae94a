package core

import "time"

// Named period tokens accepted by the resolver.
const (
	PeriodLast7Days    = "LAST_7_DAYS"
	PeriodLast30Days   = "LAST_30_DAYS"
	PeriodCurrentMonth = "CURRENT_MONTH"
	PeriodLastMonth    = "LAST_MONTH"
	PeriodCurrentYear  = "CURRENT_YEAR"
)

// Period is a closed calendar-date interval scoping a report. Start and End
// are midnight timestamps in the resolver's zone; both days belong to the
// period.
type Period struct {
	Start time.Time
	End   time.Time
}

// Days returns the inclusive number of calendar days the period spans.
// An inverted period yields zero.
func (p Period) Days() int {
	start := time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(p.End.Year(), p.End.Month(), p.End.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Filter selects the activities and period for a report request. Explicit
// StartDate+EndDate win over the named Period token; with neither present the
// current month is assumed. Categories and Kind narrow the activity set.
type Filter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Period     string
	Categories []Category
	Kind       *Kind
}

// ResolvePeriod resolves the filter against the current local date.
func ResolvePeriod(f Filter) Period {
	return ResolvePeriodAt(f, time.Now())
}

// ResolvePeriodAt resolves the filter against an explicit "today". Explicit
// dates take precedence; otherwise the named token decides, with unknown
// tokens treated as LAST_30_DAYS and a missing token as CURRENT_MONTH.
// CURRENT_MONTH and CURRENT_YEAR end at today, not at month or year end.
func ResolvePeriodAt(f Filter, now time.Time) Period {
	if f.StartDate != nil && f.EndDate != nil {
		return Period{Start: truncateToDate(*f.StartDate), End: truncateToDate(*f.EndDate)}
	}
	token := f.Period
	if token == "" {
		token = PeriodCurrentMonth
	}
	today := truncateToDate(now)
	switch token {
	case PeriodLast7Days:
		return Period{Start: today.AddDate(0, 0, -7), End: today}
	case PeriodCurrentMonth:
		return Period{Start: firstOfMonth(today), End: today}
	case PeriodLastMonth:
		first := firstOfMonth(today).AddDate(0, -1, 0)
		return Period{Start: first, End: first.AddDate(0, 1, -1)}
	case PeriodCurrentYear:
		return Period{Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), End: today}
	case PeriodLast30Days:
		fallthrough
	default:
		return Period{Start: today.AddDate(0, 0, -30), End: today}
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
