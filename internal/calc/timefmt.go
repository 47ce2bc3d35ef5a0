package calc

import "time"

// TimestampLayout renders day.month hour:minute, e.g. "24.08 23:00".
const TimestampLayout = "02.01 15:04"

func formatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// atHour returns the wall-clock time at hour:00 on the day of ref shifted by
// days. Hours past 23 roll over into the following day.
func atHour(ref time.Time, days, hour int) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day()+days, hour, 0, 0, 0, ref.Location())
}
