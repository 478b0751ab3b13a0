package scheduler

import "time"

func defaultToday() string {
	return time.Now().Format("2006-01-02")
}

// today is swapped in tests.
var today = defaultToday
