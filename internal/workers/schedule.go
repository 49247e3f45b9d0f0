package workers

import "time"

// Schedule describes the optional daily work window shared by all
// workers. The window opens WakeUpOffset after local midnight and
// stays open for WorkDuration; a zero WorkDuration means workers run
// around the clock. PreWorkWait is a short settle delay applied before
// the first execution of each cycle.
type Schedule struct {
	WakeUpOffset time.Duration
	WorkDuration time.Duration
	PreWorkWait  time.Duration
}

// Windowed reports whether the daily work window is in effect.
func (s Schedule) Windowed() bool {
	return s.WorkDuration > 0
}

// Rest returns how long to sleep from now until the next work window
// opens. It returns zero when now falls inside a window or when no
// window is configured.
func (s Schedule) Rest(now time.Time) time.Duration {
	if !s.Windowed() {
		return 0
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	opens := midnight.Add(s.WakeUpOffset)
	closes := opens.Add(s.WorkDuration)

	switch {
	case now.Before(opens):
		return opens.Sub(now)
	case now.Before(closes):
		return 0
	default:
		// Today's window is over, sleep until tomorrow's opens.
		return opens.Add(24 * time.Hour).Sub(now)
	}
}
