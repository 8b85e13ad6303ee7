// Package schedule expands a mower's weekly calendar into concrete
// mowing windows.
package schedule

import (
	"sort"
	"time"

	"mowmap/internal/domain"
)

// lookahead is how far Next scans. Eight days covers a task that already
// ran today and only recurs the same weekday next week.
const lookahead = 8

// Window is one concrete mowing window.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Task  int       `json:"task"`
}

// Windows expands the weekly tasks into the windows that end within
// `days` days from `from`, sorted by start time. A window already in
// progress at `from` is included.
func Windows(tasks []domain.CalendarTask, from time.Time, days int) []Window {
	var out []Window

	midnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for d := 0; d < days; d++ {
		day := midnight.AddDate(0, 0, d)
		for ti, task := range tasks {
			if !task.RunsOn(day.Weekday()) {
				continue
			}
			start := day.Add(time.Duration(task.Start) * time.Minute)
			end := start.Add(time.Duration(task.Duration) * time.Minute)
			if !end.After(from) {
				continue
			}
			out = append(out, Window{Start: start, End: end, Task: ti})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Next returns the first window still ahead of `now`, which may already
// be in progress.
func Next(tasks []domain.CalendarTask, now time.Time) (Window, bool) {
	windows := Windows(tasks, now, lookahead)
	if len(windows) == 0 {
		return Window{}, false
	}
	return windows[0], true
}
